// Package views provides database operations for persisted view
// definitions and their per-book overrides.
//
// # Interface Implementation
//
//	var _ views.ViewStore = (*Repository)(nil)
package views

import (
	"gorm.io/gorm"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/views"
)

// Repository handles view persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new views repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ views.ViewStore = (*Repository)(nil)

// Create persists a new view row.
func (r *Repository) Create(view *entities.View) error {
	return r.db.Create(view).Error
}

// GetByName retrieves a view by its unique name, nil when absent.
func (r *Repository) GetByName(name string) (*entities.View, error) {
	var view entities.View
	err := r.db.Where("name = ?", name).First(&view).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// List retrieves every persisted view ordered by name.
func (r *Repository) List() ([]entities.View, error) {
	var list []entities.View
	err := r.db.Order("name ASC").Find(&list).Error
	return list, err
}

// Save updates an existing view row. Save writes every column, so a nil
// CachedCount reaches the database as NULL rather than being skipped.
func (r *Repository) Save(view *entities.View) error {
	return r.db.Save(view).Error
}

// Delete removes a view and its override rows. Returns false when no view
// with that name exists.
func (r *Repository) Delete(name string) (bool, error) {
	view, err := r.GetByName(name)
	if err != nil {
		return false, err
	}
	if view == nil {
		return false, nil
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("view_id = ?", view.ID).Delete(&entities.ViewOverride{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.View{}, view.ID).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetOverrides retrieves every override row of a view ordered by book ID.
func (r *Repository) GetOverrides(viewID uint) ([]entities.ViewOverride, error) {
	var overrides []entities.ViewOverride
	err := r.db.Where("view_id = ?", viewID).Order("book_id ASC").Find(&overrides).Error
	return overrides, err
}

// GetOverride retrieves the override row for one (view, book) pair, nil
// when absent.
func (r *Repository) GetOverride(viewID, bookID uint) (*entities.ViewOverride, error) {
	var override entities.ViewOverride
	err := r.db.Where("view_id = ? AND book_id = ?", viewID, bookID).First(&override).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &override, nil
}

// SaveOverride upserts an override row.
func (r *Repository) SaveOverride(override *entities.ViewOverride) error {
	if override.ID == 0 {
		existing, err := r.GetOverride(override.ViewID, override.BookID)
		if err != nil {
			return err
		}
		if existing != nil {
			override.ID = existing.ID
		}
	}
	return r.db.Save(override).Error
}

// DeleteOverride removes one override row, reporting whether it existed.
func (r *Repository) DeleteOverride(viewID, bookID uint) (bool, error) {
	result := r.db.Where("view_id = ? AND book_id = ?", viewID, bookID).Delete(&entities.ViewOverride{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
