// Package books provides database operations for the book catalog: CRUD,
// personal metadata, and the predicate matching that powers view filters
// and search.
//
// # Interface Implementation
//
//	var _ views.BookCatalog = (*Repository)(nil)
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.ByID(123)
package books

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/views"
)

// Repository handles all book catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ views.BookCatalog = (*Repository)(nil)

func (r *Repository) preloaded() *gorm.DB {
	return r.db.
		Preload("Authors").
		Preload("Subjects").
		Preload("Files").
		Preload("Personal")
}

// All retrieves every book with its related data.
func (r *Repository) All() ([]entities.Book, error) {
	var books []entities.Book
	err := r.preloaded().Find(&books).Error
	return books, err
}

// ByID retrieves a book by its ID, nil when it does not exist.
func (r *Repository) ByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.preloaded().First(&book, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ByIDs retrieves the books whose IDs are listed; unknown IDs are silently
// absent from the result.
func (r *Repository) ByIDs(ids []uint) ([]entities.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var books []entities.Book
	err := r.preloaded().Where("books.id IN ?", ids).Find(&books).Error
	return books, err
}

// Match retrieves the books satisfying every field condition. An empty
// condition list matches everything.
func (r *Repository) Match(conds []views.FieldCondition) ([]entities.Book, error) {
	q := r.preloaded().Model(&entities.Book{})
	for _, cond := range conds {
		var err error
		q, err = applyCondition(q, cond)
		if err != nil {
			return nil, err
		}
	}
	var books []entities.Book
	err := q.Find(&books).Error
	return books, err
}

// FilterWhere retrieves books matching a prebuilt WHERE fragment with named
// parameters, as produced by the search query parser's SQL lowering. An
// empty clause matches everything.
func (r *Repository) FilterWhere(clause string, params map[string]any) ([]entities.Book, error) {
	q := r.preloaded().Model(&entities.Book{})
	if clause != "" {
		args := make(map[string]any, len(params))
		for k, v := range params {
			args[k] = v
		}
		q = q.Where(clause, args)
	}
	var books []entities.Book
	err := q.Find(&books).Error
	return books, err
}

// Create persists a new book, resolving author and subject names against
// existing rows so the same author never splits into duplicates.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := resolveAssociations(tx, book); err != nil {
			return err
		}
		return tx.Create(book).Error
	})
}

// Save updates an existing book and its associations.
func (r *Repository) Save(book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := resolveAssociations(tx, book); err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(book).Error; err != nil {
			return err
		}
		if err := tx.Model(book).Association("Authors").Replace(book.Authors); err != nil {
			return err
		}
		return tx.Model(book).Association("Subjects").Replace(book.Subjects)
	})
}

func resolveAssociations(tx *gorm.DB, book *entities.Book) error {
	for i := range book.Authors {
		if book.Authors[i].ID != 0 {
			continue
		}
		var existing entities.Author
		err := tx.Where("name = ?", book.Authors[i].Name).First(&existing).Error
		if err == nil {
			book.Authors[i] = existing
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
	}
	for i := range book.Subjects {
		if book.Subjects[i].ID != 0 {
			continue
		}
		var existing entities.Subject
		err := tx.Where("name = ?", book.Subjects[i].Name).First(&existing).Error
		if err == nil {
			book.Subjects[i] = existing
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
	}
	return nil
}

// Delete soft-deletes a book and removes its dependent rows. Returns false
// when the book does not exist.
func (r *Repository) Delete(id uint) (bool, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.PersonalMetadata{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM book_authors WHERE book_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM book_subjects WHERE book_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetPersonal retrieves the personal-metadata row for a book, nil when the
// book has never been touched.
func (r *Repository) GetPersonal(bookID uint) (*entities.PersonalMetadata, error) {
	var pm entities.PersonalMetadata
	err := r.db.Where("book_id = ?", bookID).First(&pm).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

// SavePersonal upserts the personal-metadata row keyed by book ID.
func (r *Repository) SavePersonal(pm *entities.PersonalMetadata) error {
	if pm.ID == 0 {
		var existing entities.PersonalMetadata
		err := r.db.Where("book_id = ?", pm.BookID).First(&existing).Error
		if err == nil {
			pm.ID = existing.ID
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
	}
	return r.db.Save(pm).Error
}

// FindByISBN finds a book by its ISBN.
func (r *Repository) FindByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.preloaded().Where("isbn = ?", isbn).First(&book).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindFileByHash finds the book owning a file with the given content hash,
// used to skip re-importing an identical file.
func (r *Repository) FindFileByHash(hash string) (*entities.BookFile, error) {
	var file entities.BookFile
	err := r.db.Where("hash = ?", hash).First(&file).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// AddFile attaches a file record to a book.
func (r *Repository) AddFile(file *entities.BookFile) error {
	return r.db.Create(file).Error
}

// ListAuthors retrieves every author ordered by name.
func (r *Repository) ListAuthors() ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.Order("name ASC").Find(&authors).Error
	return authors, err
}

// ListSubjects retrieves every subject ordered by name.
func (r *Repository) ListSubjects() ([]entities.Subject, error) {
	var subjects []entities.Subject
	err := r.db.Order("name ASC").Find(&subjects).Error
	return subjects, err
}

// Stats returns total book, author, and subject counts.
func (r *Repository) Stats() (totalBooks, totalAuthors, totalSubjects int64, err error) {
	err = r.db.Model(&entities.Book{}).Count(&totalBooks).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Author{}).Count(&totalAuthors).Error
	if err != nil {
		return
	}
	err = r.db.Model(&entities.Subject{}).Count(&totalSubjects).Error
	return
}

// ---- field condition matching ----

var comparatorSQL = map[string]string{
	views.OpEq:  "=",
	views.OpNe:  "<>",
	views.OpGt:  ">",
	views.OpGte: ">=",
	views.OpLt:  "<",
	views.OpLte: "<=",
}

// applyCondition chains one view field condition onto a book query. Each
// relation-backed field becomes an EXISTS subquery so conditions compose
// without join duplication.
func applyCondition(q *gorm.DB, cond views.FieldCondition) (*gorm.DB, error) {
	// The implicit comparator is partial on the free-text attributes and
	// exact everywhere else; an explicit "eq" always means exact.
	if cond.Op == views.OpMatch {
		switch cond.Field {
		case "title", "publisher", "series", "format":
			cond.Op = views.OpContains
		default:
			cond.Op = views.OpEq
		}
	}

	switch cond.Field {
	case "subject", "tag":
		sub := "SELECT 1 FROM book_subjects bs JOIN subjects s ON s.id = bs.subject_id " +
			"WHERE bs.book_id = books.id AND LOWER(s.name) LIKE LOWER(?)"
		pattern := "%" + stringValue(cond.Value) + "%"
		if cond.Op == views.OpNe {
			return q.Where("NOT EXISTS ("+sub+")", pattern), nil
		}
		return q.Where("EXISTS ("+sub+")", pattern), nil

	case "author":
		sub := "SELECT 1 FROM book_authors ba JOIN authors a ON a.id = ba.author_id " +
			"WHERE ba.book_id = books.id AND LOWER(a.name) LIKE LOWER(?)"
		pattern := "%" + stringValue(cond.Value) + "%"
		if cond.Op == views.OpNe {
			return q.Where("NOT EXISTS ("+sub+")", pattern), nil
		}
		return q.Where("EXISTS ("+sub+")", pattern), nil

	case "language":
		switch cond.Op {
		case views.OpEq:
			return q.Where("books.language = ?", stringValue(cond.Value)), nil
		case views.OpNe:
			return q.Where("books.language <> ?", stringValue(cond.Value)), nil
		case views.OpIn:
			return q.Where("books.language IN ?", stringList(cond.Value)), nil
		}

	case "title", "publisher", "series":
		column := "books." + cond.Field
		switch cond.Op {
		case views.OpEq:
			return q.Where("LOWER("+column+") = LOWER(?)", stringValue(cond.Value)), nil
		case views.OpNe:
			return q.Where("LOWER("+column+") <> LOWER(?)", stringValue(cond.Value)), nil
		case views.OpContains:
			return q.Where("LOWER("+column+") LIKE LOWER(?)", "%"+stringValue(cond.Value)+"%"), nil
		}

	case "format":
		exact := "SELECT 1 FROM book_files bf WHERE bf.book_id = books.id AND LOWER(bf.format) = LOWER(?)"
		switch cond.Op {
		case views.OpEq:
			return q.Where("EXISTS ("+exact+")", stringValue(cond.Value)), nil
		case views.OpNe:
			return q.Where("NOT EXISTS ("+exact+")", stringValue(cond.Value)), nil
		case views.OpContains:
			partial := "SELECT 1 FROM book_files bf WHERE bf.book_id = books.id AND LOWER(bf.format) LIKE LOWER(?)"
			return q.Where("EXISTS ("+partial+")", "%"+stringValue(cond.Value)+"%"), nil
		}

	case "favorite":
		if cond.Op == views.OpEq {
			want, ok := cond.Value.(bool)
			if !ok {
				want = strings.EqualFold(stringValue(cond.Value), "true")
			}
			sub := "SELECT 1 FROM personal_metadata pm WHERE pm.book_id = books.id AND pm.favorite = 1"
			if want {
				return q.Where("EXISTS (" + sub + ")"), nil
			}
			// not marked favorite includes books with no metadata row at all
			return q.Where("NOT EXISTS (" + sub + ")"), nil
		}

	case "reading_status", "status":
		sub := "SELECT 1 FROM personal_metadata pm WHERE pm.book_id = books.id AND pm.reading_status = ?"
		switch cond.Op {
		case views.OpEq:
			return q.Where("EXISTS ("+sub+")", stringValue(cond.Value)), nil
		case views.OpNe:
			return q.Where("NOT EXISTS ("+sub+")", stringValue(cond.Value)), nil
		}

	case "rating":
		if cond.Op == views.OpBetween {
			low, high, err := rangeValues(cond.Value)
			if err != nil {
				return nil, fmt.Errorf("rating between: %w", err)
			}
			sub := "SELECT 1 FROM personal_metadata pm WHERE pm.book_id = books.id AND pm.rating >= ? AND pm.rating <= ?"
			return q.Where("EXISTS ("+sub+")", low, high), nil
		}
		op, ok := comparatorSQL[cond.Op]
		if ok {
			sub := "SELECT 1 FROM personal_metadata pm WHERE pm.book_id = books.id AND pm.rating " + op + " ?"
			return q.Where("EXISTS ("+sub+")", numberValue(cond.Value)), nil
		}

	case "year":
		// publication dates are ISO strings, so the year is a prefix
		yearExpr := "CAST(substr(books.publication_date, 1, 4) AS INTEGER)"
		if cond.Op == views.OpBetween {
			low, high, err := rangeValues(cond.Value)
			if err != nil {
				return nil, fmt.Errorf("year between: %w", err)
			}
			return q.Where(yearExpr+" >= ? AND "+yearExpr+" <= ?", low, high), nil
		}
		if cond.Op == views.OpEq {
			return q.Where("books.publication_date LIKE ?", stringValue(cond.Value)+"%"), nil
		}
		if op, ok := comparatorSQL[cond.Op]; ok {
			return q.Where(yearExpr+" "+op+" ?", numberValue(cond.Value)), nil
		}

	case "id":
		switch cond.Op {
		case views.OpEq:
			return q.Where("books.id = ?", cond.Value), nil
		case views.OpIn:
			return q.Where("books.id IN ?", stringList(cond.Value)), nil
		}

	default:
		return nil, fmt.Errorf("unmatchable field %q", cond.Field)
	}
	return nil, fmt.Errorf("unsupported comparator %q on field %q", cond.Op, cond.Field)
}

func stringValue(v any) string {
	return fmt.Sprintf("%v", v)
}

func stringList(v any) []any {
	items, ok := v.([]any)
	if !ok {
		return []any{v}
	}
	return items
}

func numberValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func rangeValues(v any) (float64, float64, error) {
	items, ok := v.([]any)
	if !ok || len(items) != 2 {
		return 0, 0, fmt.Errorf("expected a [low, high] pair, got %v", v)
	}
	return numberValue(items[0]), numberValue(items[1]), nil
}
