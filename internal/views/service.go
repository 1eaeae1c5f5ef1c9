package views

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/foliolib/folio/internal/entities"
)

var (
	// ErrViewNotFound is returned when a named view does not exist.
	ErrViewNotFound = errors.New("view not found")
	// ErrViewExists is returned when a create/rename target name is taken.
	ErrViewExists = errors.New("view already exists")
	// ErrBuiltinView is returned when an operation targets a reserved
	// built-in view name.
	ErrBuiltinView = errors.New("view is built-in")
)

// ViewStore is the persistence layer for View and ViewOverride rows.
// internal/database/views.Repository implements it.
type ViewStore interface {
	Create(view *entities.View) error
	GetByName(name string) (*entities.View, error)
	List() ([]entities.View, error)
	Save(view *entities.View) error
	Delete(name string) (bool, error)
	GetOverrides(viewID uint) ([]entities.ViewOverride, error)
	GetOverride(viewID, bookID uint) (*entities.ViewOverride, error)
	SaveOverride(override *entities.ViewOverride) error
	DeleteOverride(viewID, bookID uint) (bool, error)
}

// BookCatalog is the book access the service needs beyond what the
// evaluator itself uses.
type BookCatalog interface {
	BookStore
	ByID(id uint) (*entities.Book, error)
}

// Summary is one row of the view listing.
type Summary struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	BuiltIn     bool       `json:"built_in"`
	Count       *int       `json:"count,omitempty"`
	CachedAt    *time.Time `json:"cached_at,omitempty"`
}

// Service manages named views: CRUD, evaluation, membership edits,
// per-book overrides and import/export.
type Service struct {
	store        ViewStore
	books        BookCatalog
	strictFields bool
}

// NewService creates a view service over the given stores.
func NewService(store ViewStore, books BookCatalog) *Service {
	return &Service{store: store, books: books}
}

// SetStrictFields propagates strict unknown-field handling to every
// evaluation this service runs.
func (s *Service) SetStrictFields(strict bool) {
	s.strictFields = strict
}

// evaluator constructs a fresh evaluator scoped to one evaluation call, so
// its name cache can never serve a stale definition across updates.
func (s *Service) evaluator() *Evaluator {
	ev := NewEvaluator(s.books, s)
	ev.SetStrictFields(s.strictFields)
	return ev
}

// ResolveDefinition implements DefinitionResolver: built-ins first, then
// persisted views.
func (s *Service) ResolveDefinition(name string) (*Definition, bool, error) {
	if builtin, ok := builtinByName(name); ok {
		return builtin.Definition, true, nil
	}
	view, err := s.store.GetByName(name)
	if err != nil {
		return nil, false, err
	}
	if view == nil {
		return nil, false, nil
	}
	def, err := unmarshalDefinition(view.Definition, name)
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// Create persists a new named view. A nil definition means "select
// everything, order by title". The name must not collide with an existing
// or built-in view; the check happens before any write.
func (s *Service) Create(name, description string, def *Definition) (*entities.View, error) {
	if name == "" {
		return nil, fmt.Errorf("view name must not be empty")
	}
	if IsBuiltinName(name) {
		return nil, fmt.Errorf("%q is a reserved name: %w", name, ErrBuiltinView)
	}
	existing, err := s.store.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("view %q: %w", name, ErrViewExists)
	}

	if def == nil {
		def = &Definition{}
	}
	blob, err := marshalDefinition(def)
	if err != nil {
		return nil, err
	}

	view := &entities.View{Name: name, Description: description, Definition: blob}
	if err := s.store.Create(view); err != nil {
		return nil, err
	}
	return view, nil
}

// CreateFromFilters builds a definition from shorthand field filters (each
// entry one conjunctive field condition) and persists it.
func (s *Service) CreateFromFilters(name, description string, filters map[string]any) (*entities.View, error) {
	var conds []FieldCondition
	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fieldConds, err := decodeFieldCondition(field, filters[field], name)
		if err != nil {
			return nil, err
		}
		conds = append(conds, fieldConds...)
	}

	def := &Definition{Order: OrderBy{Field: "title"}}
	if len(conds) > 0 {
		def.Select = SelectFilter{Predicate: PredFields{Conditions: conds}}
	}
	return s.Create(name, description, def)
}

// Get returns a persisted view, or nil when the name is unknown or
// built-in (built-ins have no row to return).
func (s *Service) Get(name string) (*entities.View, error) {
	return s.store.GetByName(name)
}

// List enumerates views: built-ins first (count computed lazily, reported
// nil here), then persisted views with their last cached counts.
func (s *Service) List(includeBuiltin bool) ([]Summary, error) {
	var out []Summary
	if includeBuiltin {
		for _, builtin := range builtinViews {
			out = append(out, Summary{
				Name:        builtin.Name,
				Description: builtin.Description,
				BuiltIn:     true,
			})
		}
	}

	persisted, err := s.store.List()
	if err != nil {
		return nil, err
	}
	for _, view := range persisted {
		out = append(out, Summary{
			Name:        view.Name,
			Description: view.Description,
			Count:       view.CachedCount,
			CachedAt:    view.CachedAt,
		})
	}
	return out, nil
}

// Update replaces the definition and/or description of a persisted view.
// Any definition change invalidates the cached count.
func (s *Service) Update(name string, def *Definition, description *string) (*entities.View, error) {
	view, err := s.requireView(name)
	if err != nil {
		return nil, err
	}

	if def != nil {
		blob, err := marshalDefinition(def)
		if err != nil {
			return nil, err
		}
		view.Definition = blob
		view.CachedCount = nil
		view.CachedAt = nil
	}
	if description != nil {
		view.Description = *description
	}

	if err := s.store.Save(view); err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a persisted view and its overrides. Built-ins refuse;
// a missing name is not an error, just false.
func (s *Service) Delete(name string) (bool, error) {
	if IsBuiltinName(name) {
		return false, fmt.Errorf("cannot delete %q: %w", name, ErrBuiltinView)
	}
	return s.store.Delete(name)
}

// Rename changes a view's name. Built-ins cannot be renamed, and the new
// name must be free (including of built-in names).
func (s *Service) Rename(oldName, newName string) error {
	if IsBuiltinName(oldName) {
		return fmt.Errorf("cannot rename %q: %w", oldName, ErrBuiltinView)
	}
	if IsBuiltinName(newName) {
		return fmt.Errorf("%q is a reserved name: %w", newName, ErrBuiltinView)
	}

	view, err := s.requireView(oldName)
	if err != nil {
		return err
	}
	existing, err := s.store.GetByName(newName)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("view %q: %w", newName, ErrViewExists)
	}

	view.Name = newName
	return s.store.Save(view)
}

// Evaluate runs a named view (built-in or persisted) and returns the
// ordered result. For persisted views the stored per-book overrides are
// layered in and the cached count is refreshed as a side effect.
func (s *Service) Evaluate(name string) ([]TransformedBook, error) {
	if builtin, ok := builtinByName(name); ok {
		return s.evaluator().Evaluate(builtin.Definition, name)
	}

	view, err := s.requireView(name)
	if err != nil {
		return nil, err
	}
	def, err := unmarshalDefinition(view.Definition, name)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrideMap(view.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.evaluator().EvaluateWithOverrides(def, name, overrides)
	if err != nil {
		return nil, err
	}

	// best-effort count cache; callers needing accuracy re-evaluate
	count := len(result)
	now := time.Now()
	view.CachedCount = &count
	view.CachedAt = &now
	if err := s.store.Save(view); err != nil {
		log.Printf("view %s: failed to cache count: %v", name, err)
	}

	return result, nil
}

// EvaluateDefinition runs an anonymous (not persisted) definition.
func (s *Service) EvaluateDefinition(def *Definition) ([]TransformedBook, error) {
	return s.evaluator().Evaluate(def, "")
}

// Count evaluates a named view and returns its size.
func (s *Service) Count(name string) (int, error) {
	result, err := s.Evaluate(name)
	if err != nil {
		return 0, err
	}
	return len(result), nil
}

// AddBook rewrites the view's selector so the book is always selected,
// then flattens the tree. Adding the same book twice is a no-op thanks to
// set semantics.
func (s *Service) AddBook(name string, bookID uint) error {
	if IsBuiltinName(name) {
		return fmt.Errorf("cannot edit membership of %q: %w", name, ErrBuiltinView)
	}
	view, err := s.requireView(name)
	if err != nil {
		return err
	}
	def, err := unmarshalDefinition(view.Definition, name)
	if err != nil {
		return err
	}

	selector := def.Select
	if selector == nil {
		selector = SelectAll{}
	}
	def.Select = flattenSelector(addIDToSelector(selector, bookID))
	return s.saveDefinition(view, def)
}

// RemoveBook subtracts the book from the view's selector, regardless of
// how the selector originally picked it up. Returns false when the view
// does not exist.
func (s *Service) RemoveBook(name string, bookID uint) (bool, error) {
	if IsBuiltinName(name) {
		return false, fmt.Errorf("cannot edit membership of %q: %w", name, ErrBuiltinView)
	}
	view, err := s.store.GetByName(name)
	if err != nil {
		return false, err
	}
	if view == nil {
		return false, nil
	}
	def, err := unmarshalDefinition(view.Definition, name)
	if err != nil {
		return false, err
	}

	selector := def.Select
	if selector == nil {
		selector = SelectAll{}
	}
	def.Select = flattenSelector(removeIDFromSelector(selector, bookID))
	if err := s.saveDefinition(view, def); err != nil {
		return false, err
	}
	return true, nil
}

// SetOverride creates or updates the per-(view, book) override row. The
// view must be persisted and the book must exist.
func (s *Service) SetOverride(name string, bookID uint, title, description *string, position *int) error {
	if IsBuiltinName(name) {
		return fmt.Errorf("cannot override books in %q: %w", name, ErrBuiltinView)
	}
	view, err := s.requireView(name)
	if err != nil {
		return err
	}
	book, err := s.books.ByID(bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return fmt.Errorf("book %d not found", bookID)
	}

	override, err := s.store.GetOverride(view.ID, bookID)
	if err != nil {
		return err
	}
	if override == nil {
		override = &entities.ViewOverride{ViewID: view.ID, BookID: bookID}
	}
	if title != nil {
		override.Title = title
	}
	if description != nil {
		override.Description = description
	}
	if position != nil {
		override.Position = position
	}
	if err := s.store.SaveOverride(override); err != nil {
		return err
	}
	return s.invalidateCache(view)
}

// UnsetOverride clears one override field, or the whole row when field is
// empty. Returns false when no override row exists.
func (s *Service) UnsetOverride(name string, bookID uint, field string) (bool, error) {
	view, err := s.store.GetByName(name)
	if err != nil {
		return false, err
	}
	if view == nil {
		return false, nil
	}

	if field == "" {
		return s.store.DeleteOverride(view.ID, bookID)
	}

	override, err := s.store.GetOverride(view.ID, bookID)
	if err != nil {
		return false, err
	}
	if override == nil {
		return false, nil
	}

	switch field {
	case "title":
		override.Title = nil
	case "description":
		override.Description = nil
	case "position":
		override.Position = nil
	default:
		return false, fmt.Errorf("unknown override field %q", field)
	}

	if override.IsEmpty() {
		return s.store.DeleteOverride(view.ID, bookID)
	}
	if err := s.store.SaveOverride(override); err != nil {
		return false, err
	}
	return true, nil
}

// GetOverrides lists every override row of a persisted view.
func (s *Service) GetOverrides(name string) ([]entities.ViewOverride, error) {
	view, err := s.requireView(name)
	if err != nil {
		return nil, err
	}
	return s.store.GetOverrides(view.ID)
}

// Dependencies collects every view name referenced anywhere in a
// definition, selector or transform position.
func (s *Service) Dependencies(def *Definition) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if def.Select != nil {
		collectSelectorViews(def.Select, add)
	}
	if def.Transform != nil {
		collectTransformViews(def.Transform, add)
	}
	return names
}

// Dependents returns the names of persisted views whose definitions
// reference the given view.
func (s *Service) Dependents(name string) ([]string, error) {
	persisted, err := s.store.List()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, view := range persisted {
		def, err := unmarshalDefinition(view.Definition, view.Name)
		if err != nil {
			log.Printf("view %s: skipping undecodable definition in dependency scan: %v", view.Name, err)
			continue
		}
		for _, dep := range s.Dependencies(def) {
			if dep == name {
				out = append(out, view.Name)
				break
			}
		}
	}
	return out, nil
}

// Validate evaluates a definition against the live repository purely to
// surface errors.
func (s *Service) Validate(def *Definition) (bool, string) {
	if _, err := s.evaluator().Evaluate(def, ""); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// ---- internals ----

func (s *Service) requireView(name string) (*entities.View, error) {
	view, err := s.store.GetByName(name)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("view %q: %w", name, ErrViewNotFound)
	}
	return view, nil
}

func (s *Service) saveDefinition(view *entities.View, def *Definition) error {
	blob, err := marshalDefinition(def)
	if err != nil {
		return err
	}
	view.Definition = blob
	view.CachedCount = nil
	view.CachedAt = nil
	return s.store.Save(view)
}

func (s *Service) invalidateCache(view *entities.View) error {
	view.CachedCount = nil
	view.CachedAt = nil
	return s.store.Save(view)
}

func (s *Service) overrideMap(viewID uint) (map[uint]FieldOverride, error) {
	rows, err := s.store.GetOverrides(viewID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make(map[uint]FieldOverride, len(rows))
	for _, row := range rows {
		out[row.BookID] = FieldOverride{
			Title:       row.Title,
			Description: row.Description,
			Position:    row.Position,
		}
	}
	return out, nil
}

func collectSelectorViews(sel Selector, add func(string)) {
	switch s := sel.(type) {
	case SelectView:
		add(s.Name)
	case SelectUnion:
		for _, child := range s.Children {
			collectSelectorViews(child, add)
		}
	case SelectIntersect:
		for _, child := range s.Children {
			collectSelectorViews(child, add)
		}
	case SelectDifference:
		collectSelectorViews(s.Base, add)
		collectSelectorViews(s.Remove, add)
	}
}

func collectTransformViews(tr Transform, add func(string)) {
	switch t := tr.(type) {
	case TransformView:
		add(t.Name)
	case TransformCompose:
		for _, child := range t.Children {
			collectTransformViews(child, add)
		}
	}
}

func marshalDefinition(def *Definition) (string, error) {
	blob, err := json.Marshal(EncodeDefinition(def))
	if err != nil {
		return "", fmt.Errorf("marshal view definition: %w", err)
	}
	return string(blob), nil
}

func unmarshalDefinition(blob, ctx string) (*Definition, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal view definition (%s): %w", ctx, err)
	}
	return DecodeDefinition(raw, ctx)
}
