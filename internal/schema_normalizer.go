package internal

import (
	"fmt"

	"github.com/lychee-technology/activestore"
)

// NormalizeSchema expands the raw field declarations of a definition into
// Fields. A declaration may be a FieldType (or its string form), a Field, a
// *Field, or a map with "type", "default", "label" and "required" keys.
// Fields without a label get one derived from their name.
func NormalizeSchema(model string, raw map[string]any) (activestore.Schema, error) {
	schema := make(activestore.Schema, len(raw))
	for name, decl := range raw {
		if name == "" {
			return nil, activestore.NewSchemaError(model, name, "field name is empty")
		}
		field, err := normalizeField(decl)
		if err != nil {
			return nil, activestore.NewSchemaError(model, name, err.Error())
		}
		if field.Type == "" {
			field.Type = activestore.TypeAny
		}
		if !field.Type.Valid() {
			return nil, activestore.NewSchemaError(model, name, fmt.Sprintf("unknown field type %q", field.Type))
		}
		if field.Label == "" {
			field.Label = humanize(name)
		}
		if field.Default != nil {
			if _, err := field.Coerce(field.Default); err != nil {
				return nil, activestore.NewSchemaError(model, name, fmt.Sprintf("default: %v", err))
			}
		}
		schema[name] = field
	}
	return schema, nil
}

func normalizeField(decl any) (activestore.Field, error) {
	switch d := decl.(type) {
	case nil:
		return activestore.Field{}, nil
	case activestore.FieldType:
		return activestore.Field{Type: d}, nil
	case string:
		return activestore.Field{Type: activestore.FieldType(d)}, nil
	case activestore.Field:
		return d, nil
	case *activestore.Field:
		if d == nil {
			return activestore.Field{}, nil
		}
		return *d, nil
	case map[string]any:
		var f activestore.Field
		if t, ok := d["type"]; ok {
			s, ok := t.(string)
			if !ok {
				return f, fmt.Errorf("type must be a string, got %T", t)
			}
			f.Type = activestore.FieldType(s)
		}
		f.Default = d["default"]
		if l, ok := d["label"].(string); ok {
			f.Label = l
		}
		if req, ok := d["required"].(bool); ok {
			f.Required = req
		}
		return f, nil
	default:
		return activestore.Field{}, fmt.Errorf("unsupported field declaration %T", decl)
	}
}
