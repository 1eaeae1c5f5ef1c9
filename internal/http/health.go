package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/search"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	index   *search.Index
	version string
}

func NewHealthController(db *database.Database, index *search.Index, version string) *HealthController {
	return &HealthController{
		db:      db,
		index:   index,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	// Check database connectivity
	if h.db != nil {
		sqlDB, err := h.db.DB.DB()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else if err := sqlDB.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	// Check the search index
	if h.index != nil {
		if _, err := h.index.Count(); err != nil {
			checks["search_index"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["search_index"] = "ok"
		}
	} else {
		checks["search_index"] = "not configured"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
