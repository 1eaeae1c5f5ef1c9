package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Search
		Views
		Tasks
		Scheduler
		Auth
		OPDS
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Library struct {
		BooksDir  string // Root directory holding ebook files
		CoversDir string // Extracted cover images
	}

	Search struct {
		IndexPath    string // Bleve index directory
		StrictFields bool   // Reject unknown predicate fields instead of warning
	}

	Views struct {
		CountTTL time.Duration // How long a cached view count stays fresh
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	Scheduler struct {
		Enabled             bool
		ViewRefreshSchedule string // Cron format: "*/30 * * * *" = every 30 minutes
		ReindexSchedule     string // Cron format: "0 4 * * *" = daily at 04:00
	}

	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}

	OPDS struct {
		Enabled bool
		BaseURL string // External base URL used in feed links
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("books_dir", "./library")
	v.SetDefault("covers_dir", "./covers")

	// Search defaults
	v.SetDefault("search_index_path", DefaultIndexPath)
	v.SetDefault("search_strict_fields", false)

	// View defaults
	v.SetDefault("view_count_ttl", "30m")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	// Scheduler defaults
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("view_refresh_schedule", "*/30 * * * *")
	v.SetDefault("reindex_schedule", "0 4 * * *")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)

	// OPDS defaults
	v.SetDefault("opds_enabled", true)
	v.SetDefault("opds_base_url", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Library: Library{
			BooksDir:  v.GetString("BOOKS_DIR"),
			CoversDir: v.GetString("COVERS_DIR"),
		},
		Search: Search{
			IndexPath:    v.GetString("SEARCH_INDEX_PATH"),
			StrictFields: v.GetBool("SEARCH_STRICT_FIELDS"),
		},
		Views: Views{
			CountTTL: v.GetDuration("VIEW_COUNT_TTL"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			Enabled:             v.GetBool("SCHEDULER_ENABLED"),
			ViewRefreshSchedule: v.GetString("VIEW_REFRESH_SCHEDULE"),
			ReindexSchedule:     v.GetString("REINDEX_SCHEDULE"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
		OPDS: OPDS{
			Enabled: v.GetBool("OPDS_ENABLED"),
			BaseURL: v.GetString("OPDS_BASE_URL"),
		},
	}
}
