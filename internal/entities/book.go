package entities

import (
	"time"

	"gorm.io/gorm"
)

type ReadingStatus string

const (
	ReadingStatusUnread   ReadingStatus = "unread"
	ReadingStatusReading  ReadingStatus = "reading"
	ReadingStatusFinished ReadingStatus = "finished"
	ReadingStatusAbandon  ReadingStatus = "abandoned"
)

// Book is a single library entry. Descriptive fields come from the import
// pipeline (Calibre OPF, embedded metadata); personal fields live in the
// associated PersonalMetadata row.
type Book struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Title           string            `gorm:"index;size:512" json:"title"`
	Description     string            `gorm:"type:text" json:"description,omitempty"`
	Language        string            `gorm:"index;size:16" json:"language,omitempty"`
	PublicationDate string            `gorm:"size:32" json:"publication_date,omitempty"` // ISO date string, lexicographically sortable
	Series          string            `gorm:"index;size:256" json:"series,omitempty"`
	SeriesIndex     float64           `json:"series_index,omitempty"`
	Publisher       string            `gorm:"size:256" json:"publisher,omitempty"`
	ISBN            string            `gorm:"index;size:20" json:"isbn,omitempty"`
	CoverPath       string            `gorm:"size:1024" json:"cover_path,omitempty"`
	ExtractedText   string            `gorm:"type:text" json:"-"` // full text for the search index, never rendered
	Authors         []Author          `gorm:"many2many:book_authors;" json:"authors,omitempty"`
	Subjects        []Subject         `gorm:"many2many:book_subjects;" json:"subjects,omitempty"`
	Files           []BookFile        `gorm:"foreignKey:BookID" json:"files,omitempty"`
	Personal        *PersonalMetadata `gorm:"foreignKey:BookID" json:"personal,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

// Author of one or more books.
type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256" json:"name"`
	SortName  string    `gorm:"size:256" json:"sort_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subject is a tag attached to books. Name may be a hierarchical path
// ("programming/go") so prefix matching finds whole subtrees.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:256" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// BookFile is one physical file belonging to a book (a book may exist in
// several formats at once).
type BookFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BookID    uint      `gorm:"index" json:"book_id"`
	Format    string    `gorm:"index;size:16" json:"format"` // epub, pdf, mobi, ...
	Path      string    `gorm:"size:1024" json:"path"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	Hash      string    `gorm:"index;size:64" json:"hash,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PersonalMetadata holds per-book reader state. At most one row per book;
// absence means the book has never been touched.
type PersonalMetadata struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	BookID          uint          `gorm:"uniqueIndex" json:"book_id"`
	Favorite        bool          `gorm:"index" json:"favorite"`
	Rating          float64       `json:"rating,omitempty"` // 0 = unrated
	ReadingStatus   ReadingStatus `gorm:"index;size:20" json:"reading_status,omitempty"`
	ReadingProgress float64       `json:"reading_progress,omitempty"` // 0.0 - 1.0
	Notes           string        `gorm:"type:text" json:"notes,omitempty"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (PersonalMetadata) TableName() string {
	return "personal_metadata"
}
