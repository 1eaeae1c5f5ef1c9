package http

import "github.com/foliolib/folio/internal/entities"

// This file consolidates the store interface definitions used by HTTP
// controllers. Each controller depends only on the methods it actually
// uses; internal/database/books.Repository satisfies all of them.

// BookStore provides the book access the books controller needs.
type BookStore interface {
	All() ([]entities.Book, error)
	ByID(id uint) (*entities.Book, error)
	Delete(id uint) (bool, error)
	GetPersonal(bookID uint) (*entities.PersonalMetadata, error)
	SavePersonal(pm *entities.PersonalMetadata) error
	ListAuthors() ([]entities.Author, error)
	ListSubjects() ([]entities.Subject, error)
	Stats() (totalBooks, totalAuthors, totalSubjects int64, err error)
}
