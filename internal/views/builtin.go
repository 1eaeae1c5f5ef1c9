package views

// BuiltinView is a virtual view: never persisted, evaluated from a fixed
// definition, and its name is reserved against create/rename.
type BuiltinView struct {
	Name        string
	Description string
	Definition  *Definition
}

var builtinViews = []BuiltinView{
	{
		Name:        "favorites",
		Description: "Books marked as favorite",
		Definition: &Definition{
			Select: SelectFilter{Predicate: PredFields{Conditions: []FieldCondition{
				{Field: "favorite", Op: OpEq, Value: true},
			}}},
		},
	},
	{
		Name:        "recent",
		Description: "Recently added books",
		Definition: &Definition{
			Order: OrderBy{Field: "created_at", Desc: true},
		},
	},
	{
		Name:        "reading",
		Description: "Books currently being read",
		Definition: &Definition{
			Select: SelectFilter{Predicate: PredFields{Conditions: []FieldCondition{
				{Field: "reading_status", Op: OpEq, Value: "reading"},
			}}},
		},
	},
	{
		Name:        "unread",
		Description: "Books not started yet",
		Definition: &Definition{
			// no personal-metadata row also counts as unread, so this is a
			// complement rather than a status equality
			Select: SelectFilter{Predicate: PredNot{Child: PredOr{Children: []Predicate{
				PredFields{Conditions: []FieldCondition{{Field: "reading_status", Op: OpEq, Value: "reading"}}},
				PredFields{Conditions: []FieldCondition{{Field: "reading_status", Op: OpEq, Value: "finished"}}},
				PredFields{Conditions: []FieldCondition{{Field: "reading_status", Op: OpEq, Value: "abandoned"}}},
			}}}},
		},
	},
}

// Builtins returns the built-in view table in a stable order.
func Builtins() []BuiltinView {
	return builtinViews
}

// builtinByName finds a built-in view by name.
func builtinByName(name string) (BuiltinView, bool) {
	for _, b := range builtinViews {
		if b.Name == name {
			return b, true
		}
	}
	return BuiltinView{}, false
}

// IsBuiltinName reports whether a name is reserved for a built-in view.
func IsBuiltinName(name string) bool {
	_, ok := builtinByName(name)
	return ok
}
