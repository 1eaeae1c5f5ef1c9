package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create("curated", "hand-picked shelf", &Definition{
		Select: SelectUnion{Children: []Selector{
			favFilter(),
			SelectIDs{IDs: []uint{3}},
		}},
		Order: OrderBy{Field: "rating", Desc: true},
	})
	require.NoError(t, err)

	title := "Display Title"
	pos := 1
	require.NoError(t, svc.SetOverride("curated", 3, &title, nil, &pos))

	data, err := svc.ExportYAML("curated")
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: curated")
	assert.Contains(t, string(data), "Display Title")

	// import into a fresh service backed by the same library
	other := NewService(newFakeViewStore(), testLibrary())
	name, err := other.ImportYAML(data, false)
	require.NoError(t, err)
	assert.Equal(t, "curated", name)

	original, err := svc.Evaluate("curated")
	require.NoError(t, err)
	imported, err := other.Evaluate("curated")
	require.NoError(t, err)

	require.Equal(t, resultIDs(original), resultIDs(imported))
	assert.Equal(t, resultTitles(original), resultTitles(imported))
}

func TestYAMLImportConflicts(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create("shelf", "first", nil)
	require.NoError(t, err)

	doc := []byte("name: shelf\ndescription: second\nselect: none\n")
	_, err = svc.ImportYAML(doc, false)
	assert.ErrorIs(t, err, ErrViewExists)

	// overwrite replaces definition and description
	name, err := svc.ImportYAML(doc, true)
	require.NoError(t, err)
	assert.Equal(t, "shelf", name)

	view, err := svc.Get("shelf")
	require.NoError(t, err)
	assert.Equal(t, "second", view.Description)
	result, err := svc.Evaluate("shelf")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestYAMLImportRejectsReservedAndMalformed(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ImportYAML([]byte("name: favorites\n"), false)
	assert.ErrorIs(t, err, ErrBuiltinView)

	_, err = svc.ImportYAML([]byte("description: no name here\n"), false)
	assert.Error(t, err)

	_, err = svc.ImportYAML([]byte("name: bad\nselect: {bogus: []}\n"), false)
	var defErr *DefinitionError
	assert.ErrorAs(t, err, &defErr)
}

func TestYAMLImportSkipsOverridesForUnknownBooks(t *testing.T) {
	svc, _, _ := newTestService()

	doc := []byte(`name: shelf
select:
  ids: [1, 2]
overrides:
  1:
    title: Renamed
  99:
    title: Ghost
`)
	name, err := svc.ImportYAML(doc, false)
	require.NoError(t, err)
	assert.Equal(t, "shelf", name)

	overrides, err := svc.GetOverrides("shelf")
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, uint(1), overrides[0].BookID)
	assert.Equal(t, "Renamed", *overrides[0].Title)
}

func TestYAMLExportBuiltin(t *testing.T) {
	svc, _, _ := newTestService()

	data, err := svc.ExportYAML("favorites")
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: favorites")
	assert.Contains(t, string(data), "favorite")

	_, err = svc.ExportYAML("never-heard-of-it")
	assert.ErrorIs(t, err, ErrViewNotFound)
}
