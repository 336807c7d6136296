package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/activestore"
	"go.uber.org/zap"
)

// extensionKey is the JSON Schema keyword carrying store and route settings.
const extensionKey = "x-activestore"

// schemaExtension is the decoded x-activestore object.
type schemaExtension struct {
	Model      string                   `json:"model"`
	PrimaryKey string                   `json:"primaryKey"`
	Singleton  bool                     `json:"singleton"`
	Routes     activestore.RoutesConfig `json:"routes"`
}

// JSONSchemaDefinition is a model definition backed by a JSON Schema
// document. Attributes are validated against the document before saving.
type JSONSchemaDefinition struct {
	name     string
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	ext      schemaExtension
	fields   map[string]any
}

// NewJSONSchemaDefinition parses a JSON Schema document describing one model.
// fallbackName is used when the document does not name its model.
func NewJSONSchemaDefinition(fallbackName string, data []byte) (*JSONSchemaDefinition, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into jsonschema.Schema: %w", err)
	}

	var ext schemaExtension
	if raw, ok := schema.Extra[extensionKey]; ok {
		b, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", extensionKey, err)
		}
		if err := json.Unmarshal(b, &ext); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", extensionKey, err)
		}
	}

	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JSON schema: %w", err)
	}

	name := ext.Model
	if name == "" {
		name = fallbackName
	}
	fields, err := fieldsFromSchema(&schema)
	if err != nil {
		return nil, activestore.NewSchemaError(name, "", err.Error())
	}

	return &JSONSchemaDefinition{
		name:     name,
		schema:   &schema,
		resolved: resolved,
		ext:      ext,
		fields:   fields,
	}, nil
}

// Name returns the model name the definition registers under.
func (d *JSONSchemaDefinition) Name() string { return d.name }

func (d *JSONSchemaDefinition) Schema() map[string]any { return d.fields }

func (d *JSONSchemaDefinition) PrimaryKey() string { return d.ext.PrimaryKey }

func (d *JSONSchemaDefinition) Routes() activestore.RoutesConfig { return d.ext.Routes }

func (d *JSONSchemaDefinition) Store() activestore.StoreConfig {
	return activestore.StoreConfig{Singleton: d.ext.Singleton}
}

// Validate checks attributes against the JSON Schema document.
func (d *JSONSchemaDefinition) Validate(attributes map[string]any) error {
	// round trip so Go integer and struct values validate as JSON would
	data, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	var instance map[string]any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	if err := d.resolved.Validate(instance); err != nil {
		return fmt.Errorf("JSON validation failed: %w", err)
	}
	return nil
}

func fieldsFromSchema(schema *jsonschema.Schema) (map[string]any, error) {
	if len(schema.Properties) == 0 {
		return nil, fmt.Errorf("schema declares no properties")
	}
	fields := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		if prop == nil {
			continue
		}
		f := activestore.Field{
			Type:     fieldType(prop),
			Label:    prop.Title,
			Required: slices.Contains(schema.Required, name),
		}
		if len(prop.Default) > 0 {
			var v any
			if err := json.Unmarshal(prop.Default, &v); err != nil {
				return nil, fmt.Errorf("property %s: invalid default: %w", name, err)
			}
			f.Default = v
		}
		fields[name] = f
	}
	return fields, nil
}

// fieldType maps a JSON Schema type to a field type. Union types other than
// "<type> or null" map to TypeAny.
func fieldType(prop *jsonschema.Schema) activestore.FieldType {
	t := prop.Type
	if t == "" && len(prop.Types) > 0 {
		nonNull := slices.DeleteFunc(slices.Clone(prop.Types), func(s string) bool { return s == "null" })
		if len(nonNull) == 1 {
			t = nonNull[0]
		}
	}
	ft := activestore.FieldType(t)
	if t == "" || t == "null" || !ft.Valid() {
		return activestore.TypeAny
	}
	return ft
}

// LoadDefinitionsFromDir parses every *.json file in dir as a model
// definition keyed by its model name.
func LoadDefinitionsFromDir(dir string) (map[string]activestore.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	defs := make(map[string]activestore.Definition, len(files))
	for _, file := range files {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
		}
		def, err := NewJSONSchemaDefinition(strings.TrimSuffix(file, ".json"), data)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema file %s: %w", path, err)
		}
		if _, dup := defs[def.Name()]; dup {
			return nil, activestore.NewDuplicateModelError(def.Name()).WithDetail("file", path)
		}
		defs[def.Name()] = def
		zap.S().Debugw("loaded model schema", "model", def.Name(), "file", path, "fields", len(def.fields))
	}

	if len(defs) == 0 {
		return nil, fmt.Errorf("no schema files found in directory: %s", dir)
	}
	return defs, nil
}
