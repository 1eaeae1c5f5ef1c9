package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *fakeViewStore, *fakeBooks) {
	store := newFakeViewStore()
	books := testLibrary()
	return NewService(store, books), store, books
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _, _ := newTestService()

	view, err := svc.Create("go-books", "Go programming", &Definition{
		Select: SelectFilter{Predicate: PredFields{Conditions: []FieldCondition{
			{Field: "subject", Op: OpEq, Value: "programming"},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "go-books", view.Name)
	assert.NotZero(t, view.ID)

	got, err := svc.Get("go-books")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Go programming", got.Description)
	assert.JSONEq(t, `{"select":{"filter":{"subject":"programming"}}}`, got.Definition)
}

func TestServiceCreateConflicts(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create("shelf", "", nil)
	require.NoError(t, err)

	_, err = svc.Create("shelf", "", nil)
	assert.ErrorIs(t, err, ErrViewExists)

	_, err = svc.Create("favorites", "", nil)
	assert.ErrorIs(t, err, ErrBuiltinView)

	_, err = svc.Create("", "", nil)
	assert.Error(t, err)
}

func TestServiceCreateFromFilters(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateFromFilters("english-favs", "", map[string]any{
		"language": "en",
		"favorite": true,
	})
	require.NoError(t, err)

	result, err := svc.Evaluate("english-favs")
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 1}, resultIDs(result))
}

func TestServiceEvaluateBuiltins(t *testing.T) {
	svc, store, _ := newTestService()

	result, err := svc.Evaluate("favorites")
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 1}, resultIDs(result))

	result, err = svc.Evaluate("recent")
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 4, 3, 2, 1}, resultIDs(result))

	result, err = svc.Evaluate("reading")
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, resultIDs(result))

	// no personal-metadata row counts as unread too
	result, err = svc.Evaluate("unread")
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, resultIDs(result))

	// built-ins never touch the store
	assert.Empty(t, store.views)
}

func TestServiceEvaluateMissing(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Evaluate("nope")
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestServiceEvaluateCachesCount(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create("favs", "", &Definition{Select: favFilter()})
	require.NoError(t, err)

	result, err := svc.Evaluate("favs")
	require.NoError(t, err)
	assert.Len(t, result, 2)

	view, err := svc.Get("favs")
	require.NoError(t, err)
	require.NotNil(t, view.CachedCount)
	assert.Equal(t, 2, *view.CachedCount)
	assert.NotNil(t, view.CachedAt)

	// updating the definition invalidates the cache
	_, err = svc.Update("favs", &Definition{Select: SelectNone{}}, nil)
	require.NoError(t, err)
	view, err = svc.Get("favs")
	require.NoError(t, err)
	assert.Nil(t, view.CachedCount)
	assert.Nil(t, view.CachedAt)
}

func TestServiceList(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("mine", "my shelf", nil)
	require.NoError(t, err)

	summaries, err := svc.List(true)
	require.NoError(t, err)
	require.Len(t, summaries, len(builtinViews)+1)
	assert.Equal(t, "favorites", summaries[0].Name)
	assert.True(t, summaries[0].BuiltIn)

	last := summaries[len(summaries)-1]
	assert.Equal(t, "mine", last.Name)
	assert.False(t, last.BuiltIn)

	summaries, err = svc.List(false)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "mine", summaries[0].Name)
}

func TestServiceDelete(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("shelf", "", nil)
	require.NoError(t, err)

	deleted, err := svc.Delete("shelf")
	require.NoError(t, err)
	assert.True(t, deleted)

	// deleting a missing view is false, not an error
	deleted, err = svc.Delete("shelf")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Delete("favorites")
	assert.ErrorIs(t, err, ErrBuiltinView)
}

func TestServiceRename(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("old", "", nil)
	require.NoError(t, err)
	_, err = svc.Create("taken", "", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Rename("old", "new"))
	view, err := svc.Get("new")
	require.NoError(t, err)
	assert.NotNil(t, view)
	view, err = svc.Get("old")
	require.NoError(t, err)
	assert.Nil(t, view)

	assert.ErrorIs(t, svc.Rename("new", "taken"), ErrViewExists)
	assert.ErrorIs(t, svc.Rename("new", "favorites"), ErrBuiltinView)
	assert.ErrorIs(t, svc.Rename("favorites", "whatever"), ErrBuiltinView)
	assert.ErrorIs(t, svc.Rename("missing", "other"), ErrViewNotFound)
}

func TestServiceMembershipEdits(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("picks", "", &Definition{Select: favFilter()})
	require.NoError(t, err)

	require.NoError(t, svc.AddBook("picks", 3))
	result, err := svc.Evaluate("picks")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 3, 4}, resultIDs(result))

	// adding again is a set no-op and leaves the selector flat
	require.NoError(t, svc.AddBook("picks", 3))
	view, err := svc.Get("picks")
	require.NoError(t, err)
	def, err := unmarshalDefinition(view.Definition, "picks")
	require.NoError(t, err)
	assert.Equal(t,
		SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{3}}}},
		def.Select)

	removed, err := svc.RemoveBook("picks", 1)
	require.NoError(t, err)
	assert.True(t, removed)
	result, err = svc.Evaluate("picks")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{3, 4}, resultIDs(result))

	// repeated removals fold into one difference
	removed, err = svc.RemoveBook("picks", 4)
	require.NoError(t, err)
	assert.True(t, removed)
	view, err = svc.Get("picks")
	require.NoError(t, err)
	def, err = unmarshalDefinition(view.Definition, "picks")
	require.NoError(t, err)
	diff, ok := def.Select.(SelectDifference)
	require.True(t, ok)
	assert.Equal(t, SelectIDs{IDs: []uint{1, 4}}, diff.Remove)

	removed, err = svc.RemoveBook("missing", 1)
	require.NoError(t, err)
	assert.False(t, removed)

	assert.ErrorIs(t, svc.AddBook("favorites", 1), ErrBuiltinView)
}

func TestServiceOverrides(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("shelf", "", nil)
	require.NoError(t, err)

	title := "Display Title"
	pos := 2
	require.NoError(t, svc.SetOverride("shelf", 1, &title, nil, &pos))

	overrides, err := svc.GetOverrides("shelf")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, uint(1), overrides[0].BookID)
	assert.Equal(t, "Display Title", *overrides[0].Title)
	assert.Equal(t, 2, *overrides[0].Position)

	result, err := svc.Evaluate("shelf")
	require.NoError(t, err)
	for _, tb := range result {
		if tb.Book.ID == 1 {
			assert.Equal(t, "Display Title", tb.Title())
		}
	}

	// unsetting one field keeps the row while others remain
	cleared, err := svc.UnsetOverride("shelf", 1, "title")
	require.NoError(t, err)
	assert.True(t, cleared)
	overrides, err = svc.GetOverrides("shelf")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Nil(t, overrides[0].Title)
	assert.NotNil(t, overrides[0].Position)

	// clearing the last field deletes the row
	cleared, err = svc.UnsetOverride("shelf", 1, "position")
	require.NoError(t, err)
	assert.True(t, cleared)
	overrides, err = svc.GetOverrides("shelf")
	require.NoError(t, err)
	assert.Empty(t, overrides)

	// overriding an unknown book fails
	err = svc.SetOverride("shelf", 99, &title, nil, nil)
	assert.Error(t, err)

	// no row to unset
	cleared, err = svc.UnsetOverride("shelf", 1, "")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestServiceUnsetOverrideWholeRow(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("shelf", "", nil)
	require.NoError(t, err)

	title := "T"
	desc := "D"
	require.NoError(t, svc.SetOverride("shelf", 2, &title, &desc, nil))

	cleared, err := svc.UnsetOverride("shelf", 2, "")
	require.NoError(t, err)
	assert.True(t, cleared)

	overrides, err := svc.GetOverrides("shelf")
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestServiceDependencies(t *testing.T) {
	svc, _, _ := newTestService()

	def := &Definition{
		Select: SelectUnion{Children: []Selector{
			SelectView{Name: "favorites"},
			SelectDifference{Base: SelectView{Name: "base"}, Remove: SelectIDs{IDs: []uint{1}}},
		}},
		Transform: TransformCompose{Children: []Transform{
			TransformView{Name: "styling"},
			TransformIdentity{},
		}},
	}
	assert.Equal(t, []string{"favorites", "base", "styling"}, svc.Dependencies(def))
}

func TestServiceDependents(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create("base", "", &Definition{Select: favFilter()})
	require.NoError(t, err)
	_, err = svc.Create("derived", "", &Definition{Select: SelectView{Name: "base"}})
	require.NoError(t, err)
	_, err = svc.Create("unrelated", "", nil)
	require.NoError(t, err)

	dependents, err := svc.Dependents("base")
	require.NoError(t, err)
	assert.Equal(t, []string{"derived"}, dependents)

	dependents, err = svc.Dependents("unrelated")
	require.NoError(t, err)
	assert.Empty(t, dependents)
}

func TestServiceValidate(t *testing.T) {
	svc, _, _ := newTestService()

	ok, msg := svc.Validate(&Definition{Select: favFilter()})
	assert.True(t, ok)
	assert.Empty(t, msg)

	ok, msg = svc.Validate(&Definition{Select: SelectView{Name: "missing"}})
	assert.False(t, ok)
	assert.Contains(t, msg, "missing")
}

func TestServiceCount(t *testing.T) {
	svc, _, _ := newTestService()
	count, err := svc.Count("favorites")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceStaleDefinitionFailsLoudly(t *testing.T) {
	svc, store, _ := newTestService()
	_, err := svc.Create("shelf", "", nil)
	require.NoError(t, err)

	// simulate a hand-edited row
	view := store.views["shelf"]
	view.Definition = `{"select":{"bogus":[]}}`

	_, err = svc.Evaluate("shelf")
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
}
