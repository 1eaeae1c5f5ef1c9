package views

import (
	"fmt"
	"strings"

	"github.com/foliolib/folio/internal/entities"
)

// fakeBooks is an in-memory BookCatalog so evaluator and service tests run
// without a database; the real matching lives in internal/database/books.
type fakeBooks struct {
	books []entities.Book
}

func (f *fakeBooks) All() ([]entities.Book, error) {
	return f.books, nil
}

func (f *fakeBooks) ByID(id uint) (*entities.Book, error) {
	for _, b := range f.books {
		if b.ID == id {
			book := b
			return &book, nil
		}
	}
	return nil, nil
}

func (f *fakeBooks) ByIDs(ids []uint) ([]entities.Book, error) {
	want := make(map[uint]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []entities.Book
	for _, b := range f.books {
		if want[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBooks) Match(conds []FieldCondition) ([]entities.Book, error) {
	var out []entities.Book
	for _, b := range f.books {
		ok := true
		for _, cond := range conds {
			match, err := matchCondition(b, cond)
			if err != nil {
				return nil, err
			}
			if !match {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func matchCondition(b entities.Book, cond FieldCondition) (bool, error) {
	// implicit comparator: partial on free-text attributes, exact elsewhere
	if cond.Op == OpMatch {
		switch cond.Field {
		case "title", "publisher", "series", "format":
			cond.Op = OpContains
		default:
			cond.Op = OpEq
		}
	}

	switch cond.Field {
	case "favorite":
		want, _ := cond.Value.(bool)
		have := b.Personal != nil && b.Personal.Favorite
		return have == want, nil
	case "reading_status", "status":
		want := fmt.Sprintf("%v", cond.Value)
		return b.Personal != nil && string(b.Personal.ReadingStatus) == want, nil
	case "language":
		return b.Language == fmt.Sprintf("%v", cond.Value), nil
	case "title":
		want := strings.ToLower(fmt.Sprintf("%v", cond.Value))
		have := strings.ToLower(b.Title)
		if cond.Op == OpContains {
			return strings.Contains(have, want), nil
		}
		return have == want, nil
	case "subject", "tag":
		want := strings.ToLower(fmt.Sprintf("%v", cond.Value))
		for _, s := range b.Subjects {
			if strings.Contains(strings.ToLower(s.Name), want) {
				return true, nil
			}
		}
		return false, nil
	case "author":
		want := strings.ToLower(fmt.Sprintf("%v", cond.Value))
		for _, a := range b.Authors {
			if strings.Contains(strings.ToLower(a.Name), want) {
				return true, nil
			}
		}
		return false, nil
	case "rating":
		have := 0.0
		if b.Personal != nil {
			have = b.Personal.Rating
		}
		want := toFloat(cond.Value)
		switch cond.Op {
		case OpEq:
			return have == want, nil
		case OpGte:
			return have >= want, nil
		case OpLte:
			return have <= want, nil
		case OpGt:
			return have > want, nil
		case OpLt:
			return have < want, nil
		}
		return false, fmt.Errorf("fake: rating op %q", cond.Op)
	case "id":
		if cond.Op == OpIn {
			items, _ := cond.Value.([]any)
			for _, item := range items {
				if id, ok := toUint(item); ok && b.ID == id {
					return true, nil
				}
			}
			return false, nil
		}
		id, _ := toUint(cond.Value)
		return b.ID == id, nil
	case "year":
		return strings.HasPrefix(b.PublicationDate, fmt.Sprintf("%v", cond.Value)), nil
	}
	return false, fmt.Errorf("fake: unsupported field %q", cond.Field)
}

func toFloat(v any) float64 {
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

// fakeViewStore keeps views and overrides in memory.
type fakeViewStore struct {
	nextID    uint
	views     map[string]*entities.View
	overrides []entities.ViewOverride
}

func newFakeViewStore() *fakeViewStore {
	return &fakeViewStore{views: map[string]*entities.View{}}
}

func (f *fakeViewStore) Create(view *entities.View) error {
	f.nextID++
	view.ID = f.nextID
	copied := *view
	f.views[view.Name] = &copied
	return nil
}

func (f *fakeViewStore) GetByName(name string) (*entities.View, error) {
	view, ok := f.views[name]
	if !ok {
		return nil, nil
	}
	copied := *view
	return &copied, nil
}

func (f *fakeViewStore) List() ([]entities.View, error) {
	var out []entities.View
	for _, view := range f.views {
		out = append(out, *view)
	}
	return out, nil
}

func (f *fakeViewStore) Save(view *entities.View) error {
	for name, existing := range f.views {
		if existing.ID == view.ID {
			if name != view.Name {
				delete(f.views, name)
			}
			copied := *view
			f.views[view.Name] = &copied
			return nil
		}
	}
	return fmt.Errorf("fake: view %d not found", view.ID)
}

func (f *fakeViewStore) Delete(name string) (bool, error) {
	view, ok := f.views[name]
	if !ok {
		return false, nil
	}
	delete(f.views, name)
	kept := f.overrides[:0]
	for _, o := range f.overrides {
		if o.ViewID != view.ID {
			kept = append(kept, o)
		}
	}
	f.overrides = kept
	return true, nil
}

func (f *fakeViewStore) GetOverrides(viewID uint) ([]entities.ViewOverride, error) {
	var out []entities.ViewOverride
	for _, o := range f.overrides {
		if o.ViewID == viewID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeViewStore) GetOverride(viewID, bookID uint) (*entities.ViewOverride, error) {
	for _, o := range f.overrides {
		if o.ViewID == viewID && o.BookID == bookID {
			copied := o
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeViewStore) SaveOverride(override *entities.ViewOverride) error {
	for i, o := range f.overrides {
		if o.ViewID == override.ViewID && o.BookID == override.BookID {
			f.overrides[i] = *override
			return nil
		}
	}
	f.overrides = append(f.overrides, *override)
	return nil
}

func (f *fakeViewStore) DeleteOverride(viewID, bookID uint) (bool, error) {
	for i, o := range f.overrides {
		if o.ViewID == viewID && o.BookID == bookID {
			f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
