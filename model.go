package activestore

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// FieldType is the declared type of a schema attribute.
type FieldType string

const (
	TypeAny     FieldType = "any"
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeAny, TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray:
		return true
	}
	return false
}

// Field describes one schema attribute.
type Field struct {
	Type     FieldType `json:"type"`
	Default  any       `json:"default,omitempty"`
	Label    string    `json:"label,omitempty"`
	Required bool      `json:"required,omitempty"`
}

// Coerce converts v to the field's type. nil is always accepted.
func (f Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case fmt.Stringer:
			return s.String(), nil
		case int, int32, int64, float64, bool:
			return fmt.Sprint(s), nil
		}
	case TypeNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		case string:
			return strconv.ParseFloat(n, 64)
		}
	case TypeInteger:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
		case json.Number:
			return n.Int64()
		case string:
			return strconv.ParseInt(n, 10, 64)
		}
	case TypeBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case TypeObject:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
	case TypeArray:
		if a, ok := v.([]any); ok {
			return a, nil
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("cannot use %T value as %s", v, f.Type)
}

// Schema is a normalized attribute schema keyed by field name.
type Schema map[string]Field

// Fields returns the field names in sorted order.
func (s Schema) Fields() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is declared in the schema.
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Defaults returns the declared default of every field that has one.
func (s Schema) Defaults() map[string]any {
	out := map[string]any{}
	for name, f := range s {
		if f.Default != nil {
			out[name] = f.Default
		}
	}
	return out
}

// RoutesConfig selects and overrides the route templates of a model. Only and
// Except filter the default CRUD routes; Templates replaces individual ones.
type RoutesConfig struct {
	Only      []ActionName          `json:"only,omitempty" yaml:"only"`
	Except    []ActionName          `json:"except,omitempty" yaml:"except"`
	Templates map[ActionName]string `json:"templates,omitempty" yaml:"templates"`
}

// StoreConfig configures how a model is held in the store.
type StoreConfig struct {
	Singleton bool `json:"singleton,omitempty" yaml:"singleton"`
}

// Definition is the capability every registered model must expose. Schema
// returns field declarations; a value may be a FieldType shorthand, a Field,
// or a *Field.
type Definition interface {
	Schema() map[string]any
}

// RoutesProvider is implemented by definitions that customize their routes.
type RoutesProvider interface {
	Routes() RoutesConfig
}

// StoreConfigProvider is implemented by definitions with store settings.
type StoreConfigProvider interface {
	Store() StoreConfig
}

// PrimaryKeyProvider is implemented by definitions whose key is not "id".
type PrimaryKeyProvider interface {
	PrimaryKey() string
}

// ReducerProvider is implemented by definitions that bring their own reducer.
// A non-nil reducer is never replaced at registration.
type ReducerProvider interface {
	Reducer() Reducer
}

// Validator is implemented by definitions that can check attributes before
// they are sent to the API.
type Validator interface {
	Validate(attributes map[string]any) error
}

// Model is a declarative Definition covering every optional capability.
type Model struct {
	Fields        map[string]any
	Key           string
	RouteConfig   RoutesConfig
	StoreSettings StoreConfig
	CustomReducer Reducer
}

func (m Model) Schema() map[string]any { return m.Fields }
func (m Model) Routes() RoutesConfig { return m.RouteConfig }
func (m Model) Store() StoreConfig { return m.StoreSettings }
func (m Model) Reducer() Reducer { return m.CustomReducer }

func (m Model) PrimaryKey() string {
	if m.Key == "" {
		return DefaultPrimaryKey
	}
	return m.Key
}

// DefaultPrimaryKey is the key attribute of models that do not name one.
const DefaultPrimaryKey = "id"

// ModelMetadata is the registered, immutable description of a model.
type ModelMetadata struct {
	Name        string
	DisplayName string
	Schema      Schema
	PrimaryKey  string
	Singleton   bool
	RouteName   string
	Routes      map[ActionName]string
	Reducer     Reducer
	Validator   Validator
}

// Route returns the route template registered for action.
func (m *ModelMetadata) Route(action ActionName) (string, bool) {
	tpl, ok := m.Routes[action]
	return tpl, ok
}

// Reducer applies actions to one model's state.
type Reducer interface {
	// Init returns the state of a model before any action.
	Init() State
	// Reduce returns the next state. It must return state itself when the
	// action does not concern the model.
	Reduce(state State, action Action) State
}
