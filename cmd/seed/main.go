// Command seed creates a demo library with public domain books and a few
// sample views.
// Usage: go run cmd/seed/main.go [-db path/to/folio.db] [-index path/to/folio.bleve]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/books"
	viewsdb "github.com/foliolib/folio/internal/database/views"
	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/search"
	"github.com/foliolib/folio/internal/views"
)

func main() {
	dbPath := flag.String("db", config.DefaultDatabasePath, "path to the library database file")
	indexPath := flag.String("index", config.DefaultIndexPath, "path to the full-text search index")
	flag.Parse()

	log.Printf("Seeding demo library at %s...", *dbPath)

	// Delete existing database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing database: %v", err)
	}
	if err := os.RemoveAll(*indexPath); err != nil {
		log.Fatalf("Failed to remove existing index: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	repo := books.NewRepository(db.DB)
	for _, book := range publicDomainBooks() {
		b := book
		if err := repo.Create(&b); err != nil {
			log.Printf("Failed to save book %s: %v", b.Title, err)
			continue
		}
		log.Printf("Saved: %s (%s)", b.Title, b.PublicationDate)
	}

	createSampleViews(db, repo)

	index, err := search.OpenIndex(*indexPath)
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	count, err := search.NewService(index, repo).Reindex()
	if err != nil {
		log.Fatalf("Failed to build search index: %v", err)
	}
	log.Printf("Indexed %d books", count)

	log.Println("Demo library seeded successfully!")
}

func createSampleViews(db *database.Database, repo *books.Repository) {
	service := views.NewService(viewsdb.NewRepository(db.DB), repo)

	stoics := &views.Definition{
		Select: views.SelectFilter{Predicate: views.PredFields{Conditions: []views.FieldCondition{
			{Field: "subject", Op: views.OpContains, Value: "philosophy"},
		}}},
		Order: views.OrderBy{Field: "publication_date"},
	}
	if _, err := service.Create("philosophy", "Philosophy from the shelf", stoics); err != nil {
		log.Printf("Failed to create philosophy view: %v", err)
	}

	fiction := &views.Definition{
		Select: views.SelectFilter{Predicate: views.PredFields{Conditions: []views.FieldCondition{
			{Field: "subject", Op: views.OpContains, Value: "fiction"},
		}}},
		Order: views.OrderBy{Field: "title"},
	}
	if _, err := service.Create("fiction", "Fiction and novels", fiction); err != nil {
		log.Printf("Failed to create fiction view: %v", err)
	}
}

func publicDomainBooks() []entities.Book {
	rating := func(v float64) *entities.PersonalMetadata {
		return &entities.PersonalMetadata{
			Favorite:      v >= 4.5,
			Rating:        v,
			ReadingStatus: entities.ReadingStatusFinished,
		}
	}

	return []entities.Book{
		{
			Title:           "Meditations",
			Description:     "Personal writings of the Roman emperor on Stoic philosophy.",
			Language:        "en",
			PublicationDate: "0180-01-01",
			Publisher:       "Public Domain",
			Authors:         []entities.Author{{Name: "Marcus Aurelius", SortName: "Aurelius, Marcus"}},
			Subjects:        []entities.Subject{{Name: "philosophy"}, {Name: "classic"}},
			Personal:        rating(5),
		},
		{
			Title:           "Letters from a Stoic",
			Description:     "Moral epistles to Lucilius on ethics and the good life.",
			Language:        "en",
			PublicationDate: "0065-01-01",
			Publisher:       "Public Domain",
			Authors:         []entities.Author{{Name: "Seneca", SortName: "Seneca"}},
			Subjects:        []entities.Subject{{Name: "philosophy"}, {Name: "classic"}},
			Personal:        rating(4.5),
		},
		{
			Title:           "Pride and Prejudice",
			Description:     "A novel of manners set in Regency England.",
			Language:        "en",
			PublicationDate: "1813-01-28",
			Publisher:       "Public Domain",
			Authors:         []entities.Author{{Name: "Jane Austen", SortName: "Austen, Jane"}},
			Subjects:        []entities.Subject{{Name: "fiction"}, {Name: "classic"}},
			Personal:        rating(4),
		},
		{
			Title:           "Frankenstein",
			Description:     "The modern Prometheus: a scientist and his creation.",
			Language:        "en",
			PublicationDate: "1818-01-01",
			Publisher:       "Public Domain",
			Authors:         []entities.Author{{Name: "Mary Shelley", SortName: "Shelley, Mary"}},
			Subjects:        []entities.Subject{{Name: "fiction"}, {Name: "science fiction"}},
			Personal:        rating(4.5),
		},
		{
			Title:           "On the Origin of Species",
			Description:     "The foundation of evolutionary biology.",
			Language:        "en",
			PublicationDate: "1859-11-24",
			Publisher:       "Public Domain",
			Authors:         []entities.Author{{Name: "Charles Darwin", SortName: "Darwin, Charles"}},
			Subjects:        []entities.Subject{{Name: "science"}, {Name: "classic"}},
		},
		{
			Title:           "Les Misérables",
			Description:     "Justice, grace and redemption in nineteenth-century France.",
			Language:        "fr",
			PublicationDate: "1862-01-01",
			Publisher:       "Public Domain",
			Authors:         []entities.Author{{Name: "Victor Hugo", SortName: "Hugo, Victor"}},
			Subjects:        []entities.Subject{{Name: "fiction"}, {Name: "classic"}},
		},
	}
}
