package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddIDToSelector(t *testing.T) {
	assert.Equal(t, SelectIDs{IDs: []uint{7}}, addIDToSelector(SelectNone{}, 7))
	assert.Equal(t, SelectIDs{IDs: []uint{1, 7}}, addIDToSelector(SelectIDs{IDs: []uint{1}}, 7))
	// adding a book already listed changes nothing
	assert.Equal(t, SelectIDs{IDs: []uint{1, 7}}, addIDToSelector(SelectIDs{IDs: []uint{1, 7}}, 7))

	// a union with a reachable ids branch is extended in place
	assert.Equal(t,
		SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{2, 7}}}},
		addIDToSelector(SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{2}}}}, 7))

	// anything else is wrapped in a fresh union
	assert.Equal(t,
		SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{7}}}},
		addIDToSelector(favFilter(), 7))
	assert.Equal(t,
		SelectUnion{Children: []Selector{SelectAll{}, SelectIDs{IDs: []uint{7}}}},
		addIDToSelector(SelectAll{}, 7))
}

func TestRemoveIDFromSelector(t *testing.T) {
	// removal always wraps in a difference, regardless of how the book was
	// originally selected
	assert.Equal(t,
		SelectDifference{Base: favFilter(), Remove: SelectIDs{IDs: []uint{7}}},
		removeIDFromSelector(favFilter(), 7))
}

func TestFlattenUnion(t *testing.T) {
	// sibling and lifted-nested ids branches merge, none drops out
	flat := flattenSelector(SelectUnion{Children: []Selector{
		SelectIDs{IDs: []uint{1, 2}},
		SelectNone{},
		SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{2, 3}}}},
	}})
	assert.Equal(t,
		SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{1, 2, 3}}}},
		flat)

	// a union reduced to one child collapses to that child
	assert.Equal(t, favFilter(), flattenSelector(SelectUnion{Children: []Selector{favFilter(), SelectNone{}}}))
	assert.Equal(t, SelectNone{}, flattenSelector(SelectUnion{Children: []Selector{SelectNone{}}}))
}

func TestFlattenDifferenceChains(t *testing.T) {
	// (X - ids1) - ids2 folds into X - (ids1 + ids2)
	nested := SelectDifference{
		Base: SelectDifference{
			Base:   favFilter(),
			Remove: SelectIDs{IDs: []uint{1}},
		},
		Remove: SelectIDs{IDs: []uint{2}},
	}
	assert.Equal(t,
		SelectDifference{Base: favFilter(), Remove: SelectIDs{IDs: []uint{1, 2}}},
		flattenSelector(nested))

	// ids - ids is computed outright
	assert.Equal(t,
		SelectIDs{IDs: []uint{1, 3}},
		flattenSelector(SelectDifference{
			Base:   SelectIDs{IDs: []uint{1, 2, 3}},
			Remove: SelectIDs{IDs: []uint{2}},
		}))

	// subtracting nothing is the base
	assert.Equal(t, favFilter(), flattenSelector(SelectDifference{
		Base:   favFilter(),
		Remove: SelectIDs{IDs: nil},
	}))
}

func TestRepeatedEditsStayFlat(t *testing.T) {
	// a long add/remove sequence must not nest unions or differences
	sel := Selector(favFilter())
	for _, id := range []uint{1, 2, 3} {
		sel = flattenSelector(addIDToSelector(sel, id))
	}
	assert.Equal(t,
		SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{1, 2, 3}}}},
		sel)

	for _, id := range []uint{4, 5} {
		sel = flattenSelector(removeIDFromSelector(sel, id))
	}
	assert.Equal(t,
		SelectDifference{
			Base:   SelectUnion{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{1, 2, 3}}}},
			Remove: SelectIDs{IDs: []uint{4, 5}},
		},
		sel)
}

func TestFlattenLeavesOtherSelectorsAlone(t *testing.T) {
	sel := SelectIntersect{Children: []Selector{
		favFilter(),
		SelectUnion{Children: []Selector{SelectIDs{IDs: []uint{1}}, SelectIDs{IDs: []uint{2}}}},
	}}
	// intersect children are flattened but the intersect itself survives
	assert.Equal(t,
		SelectIntersect{Children: []Selector{favFilter(), SelectIDs{IDs: []uint{1, 2}}}},
		flattenSelector(sel))
}
