package entities

import "time"

// View is a persisted named view: a saved selector/transform/order
// definition plus cached evaluation metadata. The definition is stored as a
// JSON document in the wire format understood by the views package; it is
// decoded on every evaluation so a hand-edited row fails loudly rather than
// silently.
type View struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:256" json:"name"`
	Description string     `gorm:"size:1024" json:"description,omitempty"`
	Definition  string     `gorm:"type:text" json:"definition"`
	CachedCount *int       `json:"cached_count,omitempty"`
	CachedAt    *time.Time `json:"cached_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Overrides []ViewOverride `gorm:"foreignKey:ViewID" json:"overrides,omitempty"`
}

// ViewOverride shadows title/description/position for one book inside one
// view. The underlying book row is never touched.
type ViewOverride struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ViewID      uint      `gorm:"uniqueIndex:idx_view_book" json:"view_id"`
	BookID      uint      `gorm:"uniqueIndex:idx_view_book" json:"book_id"`
	Title       *string   `gorm:"size:512" json:"title,omitempty"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Position    *int      `json:"position,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsEmpty reports whether every override field has been cleared.
func (o *ViewOverride) IsEmpty() bool {
	return o.Title == nil && o.Description == nil && o.Position == nil
}
