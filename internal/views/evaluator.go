package views

import (
	"log"
	"sort"
	"strings"

	"github.com/foliolib/folio/internal/entities"
)

// BookStore is the queryable book collection the evaluator runs against.
// internal/database/books.Repository implements it.
type BookStore interface {
	All() ([]entities.Book, error)
	ByIDs(ids []uint) ([]entities.Book, error)
	Match(conds []FieldCondition) ([]entities.Book, error)
}

// DefinitionResolver resolves a view name (built-in or persisted) to its
// decoded definition. found is false when no such view exists.
type DefinitionResolver interface {
	ResolveDefinition(name string) (def *Definition, found bool, err error)
}

// TransformedBook pairs a book with its effective overrides. The wrapper is
// transient: constructed fresh per evaluation, never persisted, and the
// underlying book is never mutated.
type TransformedBook struct {
	Book                entities.Book
	TitleOverride       *string
	DescriptionOverride *string
	Position            *int
}

// Title returns the override title when set, the book's own otherwise.
func (tb *TransformedBook) Title() string {
	if tb.TitleOverride != nil {
		return *tb.TitleOverride
	}
	return tb.Book.Title
}

// Description returns the override description when set, the book's own
// otherwise.
func (tb *TransformedBook) Description() string {
	if tb.DescriptionOverride != nil {
		return *tb.DescriptionOverride
	}
	return tb.Book.Description
}

// fields the book store knows how to match; anything else is the
// warn-and-ignore (or strict-mode error) path.
var matchableFields = map[string]bool{
	"subject":        true,
	"author":         true,
	"tag":            true,
	"language":       true,
	"title":          true,
	"publisher":      true,
	"series":         true,
	"format":         true,
	"favorite":       true,
	"reading_status": true,
	"status":         true,
	"rating":         true,
	"year":           true,
	"id":             true,
}

// Evaluator interprets view definitions. One instance is scoped to a single
// top-level evaluation: the named-view cache and the visited set must not
// outlive the call, so construct a fresh evaluator per request.
type Evaluator struct {
	books        BookStore
	resolver     DefinitionResolver
	strictFields bool

	cache   map[string]*Definition // resolved named views, keyed by name
	visited map[string]bool        // names on the current reference path
}

// NewEvaluator creates an evaluator for one evaluation pass.
func NewEvaluator(books BookStore, resolver DefinitionResolver) *Evaluator {
	return &Evaluator{
		books:    books,
		resolver: resolver,
		cache:    make(map[string]*Definition),
		visited:  make(map[string]bool),
	}
}

// SetStrictFields makes unknown predicate fields a definition error instead
// of a logged warning.
func (e *Evaluator) SetStrictFields(strict bool) {
	e.strictFields = strict
}

// Evaluate runs the three stages of a definition: select a set, transform
// it into wrapped books, order the result. label names the definition in
// error messages ("" means anonymous).
func (e *Evaluator) Evaluate(def *Definition, label string) ([]TransformedBook, error) {
	return e.EvaluateWithOverrides(def, label, nil)
}

// EvaluateWithOverrides additionally layers per-book overrides (a persisted
// view's override rows) on top of the transform stage, before ordering, so
// override positions participate in position-based sorts.
func (e *Evaluator) EvaluateWithOverrides(def *Definition, label string, extra map[uint]FieldOverride) ([]TransformedBook, error) {
	if label == "" {
		label = "anonymous"
	}

	selector := def.Select
	if selector == nil {
		selector = SelectAll{}
	}
	set, err := e.evalSelector(selector, label)
	if err != nil {
		return nil, err
	}

	transform := def.Transform
	if transform == nil {
		transform = TransformIdentity{}
	}
	list, err := e.evalTransform(transform, set, label)
	if err != nil {
		return nil, err
	}

	for i := range list {
		if override, ok := extra[list[i].Book.ID]; ok {
			applyOverride(&list[i], override)
		}
	}

	ordering := def.Order
	if ordering == nil {
		ordering = OrderBy{Field: "title"}
	}
	return e.applyOrdering(ordering, list), nil
}

// ---- select stage ----

// evalSelector recursively evaluates a selector to a set of books keyed by
// identity. Order is never meaningful at this stage.
func (e *Evaluator) evalSelector(sel Selector, label string) (map[uint]entities.Book, error) {
	switch s := sel.(type) {
	case SelectAll:
		books, err := e.books.All()
		if err != nil {
			return nil, err
		}
		return toSet(books), nil

	case SelectNone:
		return map[uint]entities.Book{}, nil

	case SelectFilter:
		return e.evalPredicate(s.Predicate, label)

	case SelectIDs:
		books, err := e.books.ByIDs(s.IDs)
		if err != nil {
			return nil, err
		}
		return toSet(books), nil

	case SelectView:
		def, err := e.enterView(s.Name, label)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, defErrf(label, "referenced view %q not found", s.Name)
		}
		defer e.leaveView(s.Name)
		// only the referenced view's selector participates; its
		// transform and order stages are not inherited here
		selector := def.Select
		if selector == nil {
			selector = SelectAll{}
		}
		return e.evalSelector(selector, label+" -> "+s.Name)

	case SelectUnion:
		result := map[uint]entities.Book{}
		for _, child := range s.Children {
			set, err := e.evalSelector(child, label)
			if err != nil {
				return nil, err
			}
			for id, book := range set {
				result[id] = book
			}
		}
		return result, nil

	case SelectIntersect:
		result, err := e.evalSelector(s.Children[0], label)
		if err != nil {
			return nil, err
		}
		for _, child := range s.Children[1:] {
			set, err := e.evalSelector(child, label)
			if err != nil {
				return nil, err
			}
			result = intersect(result, set)
		}
		return result, nil

	case SelectDifference:
		base, err := e.evalSelector(s.Base, label)
		if err != nil {
			return nil, err
		}
		remove, err := e.evalSelector(s.Remove, label)
		if err != nil {
			return nil, err
		}
		for id := range remove {
			delete(base, id)
		}
		return base, nil
	}
	return nil, defErrf(label, "unsupported selector %T", sel)
}

// enterView resolves a named view and pushes it onto the reference path.
// Returns (nil, nil) when the view does not exist; the caller decides
// whether that is fatal (selector position) or identity (transform
// position). A name already on the path is a cycle.
func (e *Evaluator) enterView(name, label string) (*Definition, error) {
	if e.visited[name] {
		return nil, defErrf(label, "cyclic view reference through %q", name)
	}

	def, ok := e.cache[name]
	if !ok {
		resolved, found, err := e.resolver.ResolveDefinition(name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		e.cache[name] = resolved
		def = resolved
	}

	e.visited[name] = true
	return def, nil
}

func (e *Evaluator) leaveView(name string) {
	delete(e.visited, name)
}

// ---- predicates ----

func (e *Evaluator) evalPredicate(pred Predicate, label string) (map[uint]entities.Book, error) {
	switch p := pred.(type) {
	case PredAnd:
		result, err := e.evalPredicate(p.Children[0], label)
		if err != nil {
			return nil, err
		}
		for _, child := range p.Children[1:] {
			set, err := e.evalPredicate(child, label)
			if err != nil {
				return nil, err
			}
			result = intersect(result, set)
		}
		return result, nil

	case PredOr:
		result := map[uint]entities.Book{}
		for _, child := range p.Children {
			set, err := e.evalPredicate(child, label)
			if err != nil {
				return nil, err
			}
			for id, book := range set {
				result[id] = book
			}
		}
		return result, nil

	case PredNot:
		// complement against the full library; fine at personal-library
		// scale, ruinous anywhere bigger
		all, err := e.books.All()
		if err != nil {
			return nil, err
		}
		matched, err := e.evalPredicate(p.Child, label)
		if err != nil {
			return nil, err
		}
		result := make(map[uint]entities.Book, len(all))
		for _, book := range all {
			if _, ok := matched[book.ID]; !ok {
				result[book.ID] = book
			}
		}
		return result, nil

	case PredFields:
		conds := make([]FieldCondition, 0, len(p.Conditions))
		for _, cond := range p.Conditions {
			if !matchableFields[cond.Field] {
				if e.strictFields {
					return nil, defErrf(label, "unknown field %q in predicate", cond.Field)
				}
				log.Printf("view %s: ignoring unknown predicate field %q", label, cond.Field)
				continue
			}
			conds = append(conds, cond)
		}
		books, err := e.books.Match(conds)
		if err != nil {
			return nil, err
		}
		return toSet(books), nil
	}
	return nil, defErrf(label, "unsupported predicate %T", pred)
}

// ---- transform stage ----

// evalTransform wraps the selected set into TransformedBooks and applies
// the transform. The returned list is in ascending id order; ordering is
// the next stage's job.
func (e *Evaluator) evalTransform(tr Transform, set map[uint]entities.Book, label string) ([]TransformedBook, error) {
	switch t := tr.(type) {
	case TransformIdentity:
		return wrapSet(set), nil

	case TransformOverride:
		list := wrapSet(set)
		for i := range list {
			// overrides for books outside the selection are ignored;
			// an override never expands the selected set
			if override, ok := t.Overrides[list[i].Book.ID]; ok {
				applyOverride(&list[i], override)
			}
		}
		return list, nil

	case TransformCompose:
		list := wrapSet(set)
		for _, child := range t.Children {
			// each stage starts from fresh wrappers over the same books;
			// earlier overrides survive only if a later stage re-applies them
			derived := make(map[uint]entities.Book, len(list))
			for _, tb := range list {
				derived[tb.Book.ID] = tb.Book
			}
			var err error
			list, err = e.evalTransform(child, derived, label)
			if err != nil {
				return nil, err
			}
		}
		return list, nil

	case TransformView:
		def, err := e.enterView(t.Name, label)
		if err != nil {
			return nil, err
		}
		if def == nil {
			// unlike the selector position, a missing view here is not an
			// error: fall through to identity
			log.Printf("view %s: transform references missing view %q, using identity", label, t.Name)
			return wrapSet(set), nil
		}
		defer e.leaveView(t.Name)
		if def.Transform == nil {
			return wrapSet(set), nil
		}
		return e.evalTransform(def.Transform, set, label+" -> "+t.Name)
	}
	return nil, defErrf(label, "unsupported transform %T", tr)
}

func applyOverride(tb *TransformedBook, override FieldOverride) {
	if override.Title != nil {
		tb.TitleOverride = override.Title
	}
	if override.Description != nil {
		tb.DescriptionOverride = override.Description
	}
	if override.Position != nil {
		tb.Position = override.Position
	}
}

// ---- order stage ----

// applyOrdering sorts the transformed list. Orderings never fail: an
// unrecognized sort field falls back to title with a logged warning.
func (e *Evaluator) applyOrdering(ord Ordering, list []TransformedBook) []TransformedBook {
	switch o := ord.(type) {
	case OrderBy:
		less := e.lessFunc(o.Field)
		sort.SliceStable(list, func(i, j int) bool {
			if o.Desc {
				return less(&list[j], &list[i])
			}
			return less(&list[i], &list[j])
		})
		return list

	case OrderCustom:
		rank := make(map[uint]int, len(o.IDs))
		for i, id := range o.IDs {
			if _, seen := rank[id]; !seen { // first occurrence wins
				rank[id] = i
			}
		}
		listed := make([]TransformedBook, 0, len(rank))
		rest := make([]TransformedBook, 0, len(list))
		for _, tb := range list {
			if _, ok := rank[tb.Book.ID]; ok {
				listed = append(listed, tb)
			} else {
				rest = append(rest, tb)
			}
		}
		sort.SliceStable(listed, func(i, j int) bool {
			return rank[listed[i].Book.ID] < rank[listed[j].Book.ID]
		})
		return append(listed, rest...)

	case OrderThen:
		// reverse application leaves the first-listed ordering as the
		// most significant key
		for i := len(o.Children) - 1; i >= 0; i-- {
			list = e.applyOrdering(o.Children[i], list)
		}
		return list
	}
	return list
}

func (e *Evaluator) lessFunc(field string) func(a, b *TransformedBook) bool {
	switch field {
	case "title":
		return func(a, b *TransformedBook) bool {
			return strings.ToLower(a.Title()) < strings.ToLower(b.Title())
		}
	case "author":
		return func(a, b *TransformedBook) bool {
			return firstAuthor(a) < firstAuthor(b)
		}
	case "date", "publication_date":
		// raw string comparison: dates are stored ISO-formatted upstream
		return func(a, b *TransformedBook) bool {
			return a.Book.PublicationDate < b.Book.PublicationDate
		}
	case "rating":
		return func(a, b *TransformedBook) bool {
			return bookRating(a) < bookRating(b)
		}
	case "language":
		return func(a, b *TransformedBook) bool {
			return strings.ToLower(a.Book.Language) < strings.ToLower(b.Book.Language)
		}
	case "created_at":
		return func(a, b *TransformedBook) bool {
			return a.Book.CreatedAt.Before(b.Book.CreatedAt)
		}
	case "position":
		// un-positioned books sort last
		return func(a, b *TransformedBook) bool {
			return positionKey(a) < positionKey(b)
		}
	case "id":
		return func(a, b *TransformedBook) bool {
			return a.Book.ID < b.Book.ID
		}
	}
	log.Printf("unknown sort field %q, falling back to title", field)
	return e.lessFunc("title")
}

func firstAuthor(tb *TransformedBook) string {
	if len(tb.Book.Authors) == 0 {
		return ""
	}
	return strings.ToLower(tb.Book.Authors[0].Name)
}

func bookRating(tb *TransformedBook) float64 {
	if tb.Book.Personal == nil {
		return 0
	}
	return tb.Book.Personal.Rating
}

func positionKey(tb *TransformedBook) int {
	if tb.Position == nil {
		return int(^uint(0) >> 1) // max int
	}
	return *tb.Position
}

// ---- helpers ----

func toSet(books []entities.Book) map[uint]entities.Book {
	set := make(map[uint]entities.Book, len(books))
	for _, book := range books {
		set[book.ID] = book
	}
	return set
}

func intersect(a, b map[uint]entities.Book) map[uint]entities.Book {
	out := make(map[uint]entities.Book)
	for id, book := range a {
		if _, ok := b[id]; ok {
			out[id] = book
		}
	}
	return out
}

// wrapSet produces fresh wrappers in ascending id order so evaluation is
// deterministic before the ordering stage runs.
func wrapSet(set map[uint]entities.Book) []TransformedBook {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	list := make([]TransformedBook, 0, len(ids))
	for _, id := range ids {
		list = append(list, TransformedBook{Book: set[id]})
	}
	return list
}
