package views

// Membership edits rewrite the stored selector tree instead of mutating an
// opaque query: adding a book unions in an ids branch, removing a book
// subtracts one. Repeated edits would nest unions and differences without
// bound, so every edit runs an eager flatten pass that collapses chains
// referencing only ids selectors.

// addIDToSelector rewrites sel so the given book is always selected. An
// existing ids branch one level inside a union is extended in place to keep
// the tree from growing.
func addIDToSelector(sel Selector, id uint) Selector {
	switch s := sel.(type) {
	case SelectNone:
		return SelectIDs{IDs: []uint{id}}

	case SelectIDs:
		return SelectIDs{IDs: appendID(s.IDs, id)}

	case SelectUnion:
		for i, child := range s.Children {
			if ids, ok := child.(SelectIDs); ok {
				children := make([]Selector, len(s.Children))
				copy(children, s.Children)
				children[i] = SelectIDs{IDs: appendID(ids.IDs, id)}
				return SelectUnion{Children: children}
			}
		}
		return SelectUnion{Children: append(append([]Selector{}, s.Children...), SelectIDs{IDs: []uint{id}})}
	}

	return SelectUnion{Children: []Selector{sel, SelectIDs{IDs: []uint{id}}}}
}

// removeIDFromSelector wraps the whole selector in a difference. This is
// deliberately not special-cased for ids branches: difference composes
// correctly no matter how the book was originally selected, and the flatten
// pass keeps repeated removals from nesting.
func removeIDFromSelector(sel Selector, id uint) Selector {
	return SelectDifference{Base: sel, Remove: SelectIDs{IDs: []uint{id}}}
}

// flattenSelector collapses redundant structure: nested unions are lifted,
// sibling ids branches merge, difference-of-difference chains over ids
// selectors fold into one, and ids-minus-ids is computed outright.
func flattenSelector(sel Selector) Selector {
	switch s := sel.(type) {
	case SelectFilter, SelectAll, SelectNone, SelectIDs, SelectView:
		return sel

	case SelectUnion:
		var children []Selector
		var merged []uint
		haveIDs := false
		for _, child := range s.Children {
			child = flattenSelector(child)
			switch c := child.(type) {
			case SelectNone:
				// contributes nothing
			case SelectUnion:
				for _, grandchild := range c.Children {
					if ids, ok := grandchild.(SelectIDs); ok {
						merged = mergeIDs(merged, ids.IDs)
						haveIDs = true
					} else {
						children = append(children, grandchild)
					}
				}
			case SelectIDs:
				merged = mergeIDs(merged, c.IDs)
				haveIDs = true
			default:
				children = append(children, child)
			}
		}
		if haveIDs {
			children = append(children, SelectIDs{IDs: merged})
		}
		if len(children) == 0 {
			return SelectNone{}
		}
		if len(children) == 1 {
			return children[0]
		}
		return SelectUnion{Children: children}

	case SelectIntersect:
		children := make([]Selector, len(s.Children))
		for i, child := range s.Children {
			children[i] = flattenSelector(child)
		}
		return SelectIntersect{Children: children}

	case SelectDifference:
		base := flattenSelector(s.Base)
		remove := flattenSelector(s.Remove)

		removeIDs, removeIsIDs := remove.(SelectIDs)
		if removeIsIDs && len(removeIDs.IDs) == 0 {
			return base
		}

		if removeIsIDs {
			// (X - ids1) - ids2 => X - (ids1 + ids2)
			if inner, ok := base.(SelectDifference); ok {
				if innerIDs, ok := inner.Remove.(SelectIDs); ok {
					return SelectDifference{
						Base:   inner.Base,
						Remove: SelectIDs{IDs: mergeIDs(innerIDs.IDs, removeIDs.IDs)},
					}
				}
			}
			// ids1 - ids2 computed directly
			if baseIDs, ok := base.(SelectIDs); ok {
				return SelectIDs{IDs: subtractIDs(baseIDs.IDs, removeIDs.IDs)}
			}
		}
		return SelectDifference{Base: base, Remove: remove}
	}
	return sel
}

func appendID(ids []uint, id uint) []uint {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(append([]uint{}, ids...), id)
}

func mergeIDs(a, b []uint) []uint {
	out := append([]uint{}, a...)
	for _, id := range b {
		out = appendID(out, id)
	}
	return out
}

func subtractIDs(a, b []uint) []uint {
	removed := make(map[uint]bool, len(b))
	for _, id := range b {
		removed[id] = true
	}
	out := make([]uint, 0, len(a))
	for _, id := range a {
		if !removed[id] {
			out = append(out, id)
		}
	}
	return out
}
