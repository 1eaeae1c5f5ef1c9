// Package views implements the view definition language: composable
// selector/transform/order expressions evaluated against the book store,
// plus the service that persists named views.
//
// Definitions travel as nested maps/lists of primitives (YAML or JSON). The
// decode layer in this file translates that wire format into closed typed
// variants, so shape mistakes surface immediately with a context label
// instead of deep inside recursive evaluation.
package views

import (
	"fmt"
	"sort"
	"strconv"
)

// DefinitionError reports a malformed or unresolvable view definition. The
// Context names the view (or "anonymous", or a reference chain like
// "outer -> inner") so the offending definition can be located.
type DefinitionError struct {
	Context string
	Message string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid view definition (%s): %s", e.Context, e.Message)
}

func defErrf(ctx, format string, args ...any) *DefinitionError {
	return &DefinitionError{Context: ctx, Message: fmt.Sprintf(format, args...)}
}

// Definition is one view definition: three optional stages. A nil stage
// means its default: select everything, identity transform, order by title.
type Definition struct {
	Select    Selector
	Transform Transform
	Order     Ordering
}

// Selector chooses an unordered set of books.
type Selector interface{ isSelector() }

type (
	// SelectAll selects every book in the library.
	SelectAll struct{}
	// SelectNone selects the empty set.
	SelectNone struct{}
	// SelectFilter selects books matching a predicate.
	SelectFilter struct{ Predicate Predicate }
	// SelectIDs selects an explicit identity set.
	SelectIDs struct{ IDs []uint }
	// SelectView selects whatever another named view's selector selects.
	SelectView struct{ Name string }
	// SelectUnion is the set union of its children (at least one).
	SelectUnion struct{ Children []Selector }
	// SelectIntersect is the set intersection of its children (at least two).
	SelectIntersect struct{ Children []Selector }
	// SelectDifference selects books in Base that are not in Remove.
	SelectDifference struct{ Base, Remove Selector }
)

func (SelectAll) isSelector()        {}
func (SelectNone) isSelector()       {}
func (SelectFilter) isSelector()     {}
func (SelectIDs) isSelector()        {}
func (SelectView) isSelector()       {}
func (SelectUnion) isSelector()      {}
func (SelectIntersect) isSelector()  {}
func (SelectDifference) isSelector() {}

// Predicate is a boolean expression over a single book's attributes.
type Predicate interface{ isPredicate() }

type (
	// PredAnd matches books matching every child.
	PredAnd struct{ Children []Predicate }
	// PredOr matches books matching any child.
	PredOr struct{ Children []Predicate }
	// PredNot matches the complement relative to the whole library.
	PredNot struct{ Child Predicate }
	// PredFields matches books satisfying every field condition
	// (conditions on distinct fields are implicitly conjunctive).
	PredFields struct{ Conditions []FieldCondition }
)

func (PredAnd) isPredicate()    {}
func (PredOr) isPredicate()     {}
func (PredNot) isPredicate()    {}
func (PredFields) isPredicate() {}

// Comparator names accepted inside a field predicate sub-map.
const (
	OpEq       = "eq"
	OpNe       = "ne"
	OpGt       = "gt"
	OpGte      = "gte"
	OpLt       = "lt"
	OpLte      = "lte"
	OpContains = "contains"
	OpIn       = "in"
	OpBetween  = "between"

	// OpMatch is the implicit comparator of the plain {field: value}
	// shape: partial on free-text book attributes (title, publisher,
	// series, format), exact everywhere else. "eq" stays available for
	// exact matching on the text attributes.
	OpMatch = "match"
)

// FieldCondition is one field comparison. Value holds a scalar for most
// operators, a []any for in, and a 2-element []any for between.
type FieldCondition struct {
	Field string
	Op    string
	Value any
}

// Transform rewrites per-book presentation without touching book rows.
type Transform interface{ isTransform() }

type (
	// TransformIdentity leaves every book untouched.
	TransformIdentity struct{}
	// TransformOverride shadows fields for specific book identities.
	TransformOverride struct{ Overrides map[uint]FieldOverride }
	// TransformCompose applies child transforms in sequence.
	TransformCompose struct{ Children []Transform }
	// TransformView inherits another named view's transform, falling back
	// to identity when the view or its transform is absent.
	TransformView struct{ Name string }
)

func (TransformIdentity) isTransform() {}
func (TransformOverride) isTransform() {}
func (TransformCompose) isTransform()  {}
func (TransformView) isTransform()     {}

// FieldOverride carries the shadowable fields of one override entry.
type FieldOverride struct {
	Title       *string
	Description *string
	Position    *int
}

// Ordering produces a stable total order over transformed books.
type Ordering interface{ isOrdering() }

type (
	// OrderBy sorts by a resolvable field key.
	OrderBy struct {
		Field string
		Desc  bool
	}
	// OrderCustom places the listed identities first, in listed order;
	// unlisted books keep their prior relative order afterwards.
	OrderCustom struct{ IDs []uint }
	// OrderThen composes orderings lexicographically, first listed most
	// significant.
	OrderThen struct{ Children []Ordering }
)

func (OrderBy) isOrdering()     {}
func (OrderCustom) isOrdering() {}
func (OrderThen) isOrdering()   {}

// ---- decoding ----

// DecodeDefinition translates a wire-format definition (select/transform/
// order keys over nested maps and lists) into the typed form. ctx labels
// error messages; pass the view name or "" for anonymous definitions.
func DecodeDefinition(raw map[string]any, ctx string) (*Definition, error) {
	if ctx == "" {
		ctx = "anonymous"
	}
	def := &Definition{}

	for key := range raw {
		switch key {
		case "select", "transform", "order":
		default:
			return nil, defErrf(ctx, "unknown definition key %q", key)
		}
	}

	if rawSel, ok := raw["select"]; ok && rawSel != nil {
		sel, err := decodeSelector(rawSel, ctx)
		if err != nil {
			return nil, err
		}
		def.Select = sel
	}
	if rawTr, ok := raw["transform"]; ok && rawTr != nil {
		tr, err := decodeTransform(rawTr, ctx)
		if err != nil {
			return nil, err
		}
		def.Transform = tr
	}
	if rawOrd, ok := raw["order"]; ok && rawOrd != nil {
		ord, err := decodeOrdering(rawOrd, ctx)
		if err != nil {
			return nil, err
		}
		def.Order = ord
	}

	return def, nil
}

func decodeSelector(raw any, ctx string) (Selector, error) {
	switch v := raw.(type) {
	case string:
		switch v {
		case "all":
			return SelectAll{}, nil
		case "none":
			return SelectNone{}, nil
		}
		return nil, defErrf(ctx, "unknown selector %q", v)

	case map[string]any:
		if len(v) != 1 {
			return nil, defErrf(ctx, "selector must have exactly one tag, got %d", len(v))
		}
		tag, value := singleEntry(v)
		switch tag {
		case "filter":
			pred, err := decodePredicate(value, ctx)
			if err != nil {
				return nil, err
			}
			return SelectFilter{Predicate: pred}, nil

		case "ids":
			ids, err := decodeIDList(value, ctx)
			if err != nil {
				return nil, err
			}
			return SelectIDs{IDs: ids}, nil

		case "id":
			id, ok := toUint(value)
			if !ok {
				return nil, defErrf(ctx, "id selector needs a numeric identity, got %v", value)
			}
			return SelectIDs{IDs: []uint{id}}, nil

		case "view":
			name, ok := value.(string)
			if !ok || name == "" {
				return nil, defErrf(ctx, "view selector needs a view name")
			}
			return SelectView{Name: name}, nil

		case "union":
			children, err := decodeSelectorList(value, ctx)
			if err != nil {
				return nil, err
			}
			if len(children) < 1 {
				return nil, defErrf(ctx, "union requires at least 1 selector")
			}
			return SelectUnion{Children: children}, nil

		case "intersect":
			children, err := decodeSelectorList(value, ctx)
			if err != nil {
				return nil, err
			}
			if len(children) < 2 {
				return nil, defErrf(ctx, "intersect requires at least 2 selectors, got %d", len(children))
			}
			return SelectIntersect{Children: children}, nil

		case "difference":
			children, err := decodeSelectorList(value, ctx)
			if err != nil {
				return nil, err
			}
			if len(children) != 2 {
				return nil, defErrf(ctx, "difference requires exactly 2 selectors, got %d", len(children))
			}
			return SelectDifference{Base: children[0], Remove: children[1]}, nil
		}
		return nil, defErrf(ctx, "unknown selector tag %q", tag)
	}
	return nil, defErrf(ctx, "selector must be a string or a map, got %T", raw)
}

func decodeSelectorList(raw any, ctx string) ([]Selector, error) {
	items, ok := toList(raw)
	if !ok {
		return nil, defErrf(ctx, "expected a list of selectors, got %T", raw)
	}
	children := make([]Selector, 0, len(items))
	for _, item := range items {
		child, err := decodeSelector(item, ctx)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func decodePredicate(raw any, ctx string) (Predicate, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, defErrf(ctx, "predicate must be a map, got %T", raw)
	}

	// boolean combinators claim the whole map
	if len(fields) == 1 {
		tag, value := singleEntry(fields)
		switch tag {
		case "and", "or":
			items, ok := toList(value)
			if !ok || len(items) == 0 {
				return nil, defErrf(ctx, "%s requires a non-empty list of predicates", tag)
			}
			children := make([]Predicate, 0, len(items))
			for _, item := range items {
				child, err := decodePredicate(item, ctx)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			if tag == "and" {
				return PredAnd{Children: children}, nil
			}
			return PredOr{Children: children}, nil

		case "not":
			child, err := decodePredicate(value, ctx)
			if err != nil {
				return nil, err
			}
			return PredNot{Child: child}, nil
		}
	}

	// otherwise every key is a field condition, implicitly conjunctive
	conds := make([]FieldCondition, 0, len(fields))
	for _, field := range sortedKeys(fields) {
		fieldConds, err := decodeFieldCondition(field, fields[field], ctx)
		if err != nil {
			return nil, err
		}
		conds = append(conds, fieldConds...)
	}
	return PredFields{Conditions: conds}, nil
}

// decodeFieldCondition handles both the plain {field: value} shape and the
// comparator sub-map {field: {gte: 3, lte: 5}} shape.
func decodeFieldCondition(field string, raw any, ctx string) ([]FieldCondition, error) {
	sub, isMap := raw.(map[string]any)
	if !isMap {
		return []FieldCondition{{Field: field, Op: OpMatch, Value: raw}}, nil
	}

	conds := make([]FieldCondition, 0, len(sub))
	for _, op := range sortedKeys(sub) {
		value := sub[op]
		switch op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpContains, OpMatch:
			conds = append(conds, FieldCondition{Field: field, Op: op, Value: value})
		case OpIn:
			items, ok := toList(value)
			if !ok {
				return nil, defErrf(ctx, "in comparator on %q needs a list", field)
			}
			conds = append(conds, FieldCondition{Field: field, Op: OpIn, Value: items})
		case OpBetween:
			items, ok := toList(value)
			if !ok || len(items) != 2 {
				return nil, defErrf(ctx, "between comparator on %q needs a [low, high] pair", field)
			}
			conds = append(conds, FieldCondition{Field: field, Op: OpBetween, Value: items})
		default:
			return nil, defErrf(ctx, "unknown comparator %q on field %q", op, field)
		}
	}
	return conds, nil
}

func decodeTransform(raw any, ctx string) (Transform, error) {
	switch v := raw.(type) {
	case string:
		if v == "identity" {
			return TransformIdentity{}, nil
		}
		return nil, defErrf(ctx, "unknown transform %q", v)

	case map[string]any:
		if len(v) != 1 {
			return nil, defErrf(ctx, "transform must have exactly one tag, got %d", len(v))
		}
		tag, value := singleEntry(v)
		switch tag {
		case "override":
			entries, ok := value.(map[string]any)
			if !ok {
				return nil, defErrf(ctx, "override transform needs a map of book id to fields")
			}
			overrides := make(map[uint]FieldOverride, len(entries))
			for key, rawFields := range entries {
				id, ok := toUint(key)
				if !ok {
					return nil, defErrf(ctx, "override key %q is not a book id", key)
				}
				override, err := decodeFieldOverride(rawFields, ctx)
				if err != nil {
					return nil, err
				}
				overrides[id] = override
			}
			return TransformOverride{Overrides: overrides}, nil

		case "compose":
			items, ok := toList(value)
			if !ok || len(items) == 0 {
				return nil, defErrf(ctx, "compose requires a non-empty list of transforms")
			}
			children := make([]Transform, 0, len(items))
			for _, item := range items {
				child, err := decodeTransform(item, ctx)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			return TransformCompose{Children: children}, nil

		case "view":
			name, ok := value.(string)
			if !ok || name == "" {
				return nil, defErrf(ctx, "view transform needs a view name")
			}
			return TransformView{Name: name}, nil
		}
		return nil, defErrf(ctx, "unknown transform tag %q", tag)
	}
	return nil, defErrf(ctx, "transform must be a string or a map, got %T", raw)
}

func decodeFieldOverride(raw any, ctx string) (FieldOverride, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return FieldOverride{}, defErrf(ctx, "override entry must be a map, got %T", raw)
	}
	var override FieldOverride
	for key, value := range fields {
		switch key {
		case "title":
			s, ok := value.(string)
			if !ok {
				return FieldOverride{}, defErrf(ctx, "override title must be a string")
			}
			override.Title = &s
		case "description":
			s, ok := value.(string)
			if !ok {
				return FieldOverride{}, defErrf(ctx, "override description must be a string")
			}
			override.Description = &s
		case "position":
			n, ok := toInt(value)
			if !ok {
				return FieldOverride{}, defErrf(ctx, "override position must be a number")
			}
			override.Position = &n
		default:
			return FieldOverride{}, defErrf(ctx, "unknown override field %q", key)
		}
	}
	return override, nil
}

func decodeOrdering(raw any, ctx string) (Ordering, error) {
	switch v := raw.(type) {
	case string:
		// bare field name is shorthand for {by: field}
		return OrderBy{Field: v}, nil

	case map[string]any:
		if _, hasBy := v["by"]; hasBy {
			field, ok := v["by"].(string)
			if !ok || field == "" {
				return nil, defErrf(ctx, "order by needs a field name")
			}
			desc := false
			if rawDesc, hasDesc := v["desc"]; hasDesc {
				b, ok := rawDesc.(bool)
				if !ok {
					return nil, defErrf(ctx, "order desc must be a boolean")
				}
				desc = b
			}
			for key := range v {
				if key != "by" && key != "desc" {
					return nil, defErrf(ctx, "unknown ordering key %q", key)
				}
			}
			return OrderBy{Field: field, Desc: desc}, nil
		}

		if len(v) != 1 {
			return nil, defErrf(ctx, "ordering must have exactly one tag, got %d", len(v))
		}
		tag, value := singleEntry(v)
		switch tag {
		case "custom":
			ids, err := decodeIDList(value, ctx)
			if err != nil {
				return nil, err
			}
			return OrderCustom{IDs: ids}, nil

		case "then":
			items, ok := toList(value)
			if !ok || len(items) == 0 {
				return nil, defErrf(ctx, "then requires a non-empty list of orderings")
			}
			children := make([]Ordering, 0, len(items))
			for _, item := range items {
				child, err := decodeOrdering(item, ctx)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			return OrderThen{Children: children}, nil
		}
		return nil, defErrf(ctx, "unknown ordering tag %q", tag)
	}
	return nil, defErrf(ctx, "ordering must be a string or a map, got %T", raw)
}

func decodeIDList(raw any, ctx string) ([]uint, error) {
	items, ok := toList(raw)
	if !ok {
		return nil, defErrf(ctx, "expected a list of book ids, got %T", raw)
	}
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		id, ok := toUint(item)
		if !ok {
			return nil, defErrf(ctx, "book id %v is not numeric", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ---- encoding ----

// EncodeDefinition renders a typed definition back into the wire format.
// Nil stages are omitted so round-trips preserve "use the default".
func EncodeDefinition(def *Definition) map[string]any {
	out := make(map[string]any)
	if def.Select != nil {
		out["select"] = encodeSelector(def.Select)
	}
	if def.Transform != nil {
		out["transform"] = encodeTransform(def.Transform)
	}
	if def.Order != nil {
		out["order"] = encodeOrdering(def.Order)
	}
	return out
}

func encodeSelector(sel Selector) any {
	switch s := sel.(type) {
	case SelectAll:
		return "all"
	case SelectNone:
		return "none"
	case SelectFilter:
		return map[string]any{"filter": encodePredicate(s.Predicate)}
	case SelectIDs:
		return map[string]any{"ids": encodeIDList(s.IDs)}
	case SelectView:
		return map[string]any{"view": s.Name}
	case SelectUnion:
		return map[string]any{"union": encodeSelectorList(s.Children)}
	case SelectIntersect:
		return map[string]any{"intersect": encodeSelectorList(s.Children)}
	case SelectDifference:
		return map[string]any{"difference": []any{encodeSelector(s.Base), encodeSelector(s.Remove)}}
	}
	return nil
}

func encodeSelectorList(children []Selector) []any {
	out := make([]any, len(children))
	for i, child := range children {
		out[i] = encodeSelector(child)
	}
	return out
}

func encodePredicate(pred Predicate) any {
	switch p := pred.(type) {
	case PredAnd:
		return map[string]any{"and": encodePredicateList(p.Children)}
	case PredOr:
		return map[string]any{"or": encodePredicateList(p.Children)}
	case PredNot:
		return map[string]any{"not": encodePredicate(p.Child)}
	case PredFields:
		perField := make(map[string][]FieldCondition, len(p.Conditions))
		for _, cond := range p.Conditions {
			perField[cond.Field] = append(perField[cond.Field], cond)
		}
		out := make(map[string]any, len(perField))
		for field, conds := range perField {
			if len(conds) == 1 && conds[0].Op == OpMatch {
				out[field] = conds[0].Value
				continue
			}
			sub := make(map[string]any, len(conds))
			for _, cond := range conds {
				sub[cond.Op] = cond.Value
			}
			out[field] = sub
		}
		return out
	}
	return nil
}

func encodePredicateList(children []Predicate) []any {
	out := make([]any, len(children))
	for i, child := range children {
		out[i] = encodePredicate(child)
	}
	return out
}

func encodeTransform(tr Transform) any {
	switch t := tr.(type) {
	case TransformIdentity:
		return "identity"
	case TransformOverride:
		entries := make(map[string]any, len(t.Overrides))
		for id, override := range t.Overrides {
			fields := make(map[string]any)
			if override.Title != nil {
				fields["title"] = *override.Title
			}
			if override.Description != nil {
				fields["description"] = *override.Description
			}
			if override.Position != nil {
				fields["position"] = *override.Position
			}
			entries[strconv.FormatUint(uint64(id), 10)] = fields
		}
		return map[string]any{"override": entries}
	case TransformCompose:
		children := make([]any, len(t.Children))
		for i, child := range t.Children {
			children[i] = encodeTransform(child)
		}
		return map[string]any{"compose": children}
	case TransformView:
		return map[string]any{"view": t.Name}
	}
	return nil
}

func encodeOrdering(ord Ordering) any {
	switch o := ord.(type) {
	case OrderBy:
		if !o.Desc {
			return map[string]any{"by": o.Field}
		}
		return map[string]any{"by": o.Field, "desc": true}
	case OrderCustom:
		return map[string]any{"custom": encodeIDList(o.IDs)}
	case OrderThen:
		children := make([]any, len(o.Children))
		for i, child := range o.Children {
			children[i] = encodeOrdering(child)
		}
		return map[string]any{"then": children}
	}
	return nil
}

func encodeIDList(ids []uint) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// ---- wire helpers ----

// toList accepts both []any (JSON/YAML decode output) and nothing else;
// scalars are not silently promoted to single-element lists.
func toList(raw any) ([]any, bool) {
	items, ok := raw.([]any)
	return items, ok
}

// toUint accepts the numeric shapes JSON and YAML decoders produce, plus
// stringified ids (override maps are keyed by strings on the wire).
func toUint(raw any) (uint, bool) {
	switch v := raw.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint:
		return v, true
	case float64:
		if v < 0 || v != float64(uint(v)) {
			return 0, false
		}
		return uint(v), true
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(n), true
	}
	return 0, false
}

func toInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	}
	return 0, false
}

func singleEntry(m map[string]any) (string, any) {
	for k, v := range m {
		return k, v
	}
	return "", nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
