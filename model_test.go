package activestore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldCoerce(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		input   any
		want    any
		wantErr bool
	}{
		{name: "string", field: Field{Type: TypeString}, input: "x", want: "x"},
		{name: "int to string", field: Field{Type: TypeString}, input: 5, want: "5"},
		{name: "int to number", field: Field{Type: TypeNumber}, input: 5, want: float64(5)},
		{name: "string to number", field: Field{Type: TypeNumber}, input: "2.5", want: 2.5},
		{name: "integral float to integer", field: Field{Type: TypeInteger}, input: float64(3), want: int64(3)},
		{name: "fractional float to integer", field: Field{Type: TypeInteger}, input: 3.2, wantErr: true},
		{name: "json number to integer", field: Field{Type: TypeInteger}, input: json.Number("9"), want: int64(9)},
		{name: "string to boolean", field: Field{Type: TypeBoolean}, input: "true", want: true},
		{name: "bad boolean", field: Field{Type: TypeBoolean}, input: "maybe", wantErr: true},
		{name: "object", field: Field{Type: TypeObject}, input: map[string]any{"a": 1}, want: map[string]any{"a": 1}},
		{name: "object mismatch", field: Field{Type: TypeObject}, input: "x", wantErr: true},
		{name: "array", field: Field{Type: TypeArray}, input: []any{1}, want: []any{1}},
		{name: "any keeps value", field: Field{Type: TypeAny}, input: struct{}{}, want: struct{}{}},
		{name: "nil always accepted", field: Field{Type: TypeInteger}, input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.field.Coerce(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaHelpers(t *testing.T) {
	s := Schema{
		"title":     {Type: TypeString},
		"published": {Type: TypeBoolean, Default: false},
		"author":    {Type: TypeString, Default: "anon"},
	}

	assert.Equal(t, []string{"author", "published", "title"}, s.Fields())
	assert.True(t, s.Has("title"))
	assert.False(t, s.Has("body"))
	assert.Equal(t, map[string]any{"published": false, "author": "anon"}, s.Defaults())
}

func TestModelDefinition(t *testing.T) {
	m := Model{Fields: map[string]any{"title": TypeString}}
	assert.Equal(t, DefaultPrimaryKey, m.PrimaryKey())
	assert.Equal(t, map[string]any{"title": TypeString}, m.Schema())
	assert.Nil(t, m.Reducer())

	m.Key = "slug"
	m.StoreSettings = StoreConfig{Singleton: true}
	assert.Equal(t, "slug", m.PrimaryKey())
	assert.True(t, m.Store().Singleton)

	var def Definition = m
	_, ok := def.(RoutesProvider)
	assert.True(t, ok)
}

func TestModelMetadataRoute(t *testing.T) {
	meta := &ModelMetadata{Routes: map[ActionName]string{ActionIndex: ":prefix/:modelname"}}
	tpl, ok := meta.Route(ActionIndex)
	assert.True(t, ok)
	assert.Equal(t, ":prefix/:modelname", tpl)
	_, ok = meta.Route(ActionDestroy)
	assert.False(t, ok)
}
