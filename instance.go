package activestore

import (
	"maps"
	"reflect"
)

// Instance is a model value with schema-checked attribute access. It keeps
// the attributes last confirmed by the API so Diff can report local changes.
type Instance struct {
	meta      *ModelMetadata
	attrs     map[string]any
	persisted map[string]any
	errors    Errors
	request   Request
}

// NewInstance builds an unsaved instance. Schema defaults are applied first,
// then attrs; non-schema attributes are kept as ancillary values.
func NewInstance(meta *ModelMetadata, attrs map[string]any) (*Instance, error) {
	inst := &Instance{
		meta:   meta,
		attrs:  meta.Schema.Defaults(),
		errors: DefaultErrors(meta.Schema.Fields()),
	}
	for name, v := range attrs {
		if err := inst.Set(name, v); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// NewPersistedInstance builds an instance from attributes returned by the API.
// Values are stored as received.
func NewPersistedInstance(meta *ModelMetadata, attrs map[string]any) *Instance {
	inst := &Instance{
		meta:   meta,
		attrs:  maps.Clone(attrs),
		errors: DefaultErrors(meta.Schema.Fields()),
	}
	if inst.attrs == nil {
		inst.attrs = map[string]any{}
	}
	inst.MarkPersisted()
	return inst
}

// Model returns the metadata of the instance's model.
func (i *Instance) Model() *ModelMetadata { return i.meta }

// Get returns the value of an attribute.
func (i *Instance) Get(name string) (any, bool) {
	v, ok := i.attrs[name]
	return v, ok
}

// Set assigns an attribute, coercing schema fields to their declared type.
func (i *Instance) Set(name string, value any) error {
	if field, ok := i.meta.Schema[name]; ok {
		v, err := field.Coerce(value)
		if err != nil {
			return NewAttributeError(i.meta.Name, name, err)
		}
		value = v
	}
	i.attrs[name] = value
	return nil
}

// Attributes returns a copy of every attribute.
func (i *Instance) Attributes() map[string]any {
	return maps.Clone(i.attrs)
}

// ID returns the primary key value.
func (i *Instance) ID() (any, bool) {
	v, ok := i.attrs[i.meta.PrimaryKey]
	if v == nil {
		return nil, false
	}
	return v, ok
}

// IsNew reports whether the instance was never confirmed by the API.
func (i *Instance) IsNew() bool {
	return i.persisted == nil
}

// Diff returns the attributes that differ from the last persisted snapshot.
// A new instance reports every attribute.
func (i *Instance) Diff() map[string]any {
	if i.persisted == nil {
		return i.Attributes()
	}
	diff := map[string]any{}
	for k, v := range i.attrs {
		if old, ok := i.persisted[k]; !ok || !reflect.DeepEqual(old, v) {
			diff[k] = v
		}
	}
	return diff
}

// MarkPersisted records the current attributes as the persisted snapshot.
func (i *Instance) MarkPersisted() {
	i.persisted = maps.Clone(i.attrs)
	if i.persisted == nil {
		i.persisted = map[string]any{}
	}
}

// Merge overlays attributes returned by the API and marks them persisted.
func (i *Instance) Merge(attrs map[string]any) {
	maps.Copy(i.attrs, attrs)
	i.MarkPersisted()
}

// Errors returns the field errors of the last failed request.
func (i *Instance) Errors() Errors { return i.errors.Clone() }

// Request returns the status of the last request made for the instance.
func (i *Instance) Request() Request { return i.request }

// SetOutcome records the request outcome and any field errors on the instance.
func (i *Instance) SetOutcome(req Request, errs Errors) {
	i.request = req
	i.errors = DefaultErrors(i.meta.Schema.Fields()).Merge(errs)
}
