package views

import (
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
)

// Document is the portable YAML form of a view: the wire-format stages
// plus any per-book overrides.
type Document struct {
	Name        string                    `yaml:"name"`
	Description string                    `yaml:"description,omitempty"`
	Select      any                       `yaml:"select,omitempty"`
	Transform   any                       `yaml:"transform,omitempty"`
	Order       any                       `yaml:"order,omitempty"`
	Overrides   map[uint]DocumentOverride `yaml:"overrides,omitempty"`
}

// DocumentOverride is one per-book override in a YAML document.
type DocumentOverride struct {
	Title       *string `yaml:"title,omitempty"`
	Description *string `yaml:"description,omitempty"`
	Position    *int    `yaml:"position,omitempty"`
}

// ExportYAML serializes a persisted view, definition and overrides
// included, to YAML. Built-in views export their definition with no
// overrides.
func (s *Service) ExportYAML(name string) ([]byte, error) {
	doc := Document{Name: name}

	if builtin, ok := builtinByName(name); ok {
		doc.Description = builtin.Description
		fillDocument(&doc, builtin.Definition)
		return yaml.Marshal(doc)
	}

	view, err := s.requireView(name)
	if err != nil {
		return nil, err
	}
	def, err := unmarshalDefinition(view.Definition, name)
	if err != nil {
		return nil, err
	}
	doc.Description = view.Description
	fillDocument(&doc, def)

	rows, err := s.store.GetOverrides(view.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		doc.Overrides = make(map[uint]DocumentOverride, len(rows))
		for _, row := range rows {
			doc.Overrides[row.BookID] = DocumentOverride{
				Title:       row.Title,
				Description: row.Description,
				Position:    row.Position,
			}
		}
	}

	return yaml.Marshal(doc)
}

// ImportYAML creates (or, with overwrite, replaces) a view from a YAML
// document. Overrides referencing unknown books are skipped with a log
// line rather than failing the import.
func (s *Service) ImportYAML(data []byte, overwrite bool) (string, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse view document: %w", err)
	}
	if doc.Name == "" {
		return "", fmt.Errorf("view document has no name")
	}
	if IsBuiltinName(doc.Name) {
		return "", fmt.Errorf("%q is a reserved name: %w", doc.Name, ErrBuiltinView)
	}

	raw := map[string]any{}
	if doc.Select != nil {
		raw["select"] = normalizeYAML(doc.Select)
	}
	if doc.Transform != nil {
		raw["transform"] = normalizeYAML(doc.Transform)
	}
	if doc.Order != nil {
		raw["order"] = normalizeYAML(doc.Order)
	}
	def, err := DecodeDefinition(raw, doc.Name)
	if err != nil {
		return "", err
	}

	existing, err := s.store.GetByName(doc.Name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if !overwrite {
			return "", fmt.Errorf("view %q: %w", doc.Name, ErrViewExists)
		}
		if _, err := s.store.Delete(doc.Name); err != nil {
			return "", err
		}
	}

	if _, err := s.Create(doc.Name, doc.Description, def); err != nil {
		return "", err
	}

	for bookID, override := range doc.Overrides {
		book, err := s.books.ByID(bookID)
		if err != nil {
			return "", err
		}
		if book == nil {
			log.Printf("view %s: skipping override for unknown book %d", doc.Name, bookID)
			continue
		}
		if err := s.SetOverride(doc.Name, bookID, override.Title, override.Description, override.Position); err != nil {
			return "", err
		}
	}

	return doc.Name, nil
}

func fillDocument(doc *Document, def *Definition) {
	wire := EncodeDefinition(def)
	doc.Select = wire["select"]
	doc.Transform = wire["transform"]
	doc.Order = wire["order"]
}

// normalizeYAML rewrites yaml.v3's map[any]any and int-keyed maps into the
// map[string]any shape the definition decoder expects.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = normalizeYAML(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = normalizeYAML(child)
		}
		return out
	default:
		return v
	}
}
