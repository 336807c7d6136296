package activestore

import (
	"fmt"
	"maps"
)

// State is the per-model slice of the store: *CollectionState for collection
// models and *Record for singletons. Values reachable from a State must be
// treated as read-only; reducers always build new values.
type State interface {
	isState()
}

// Record is one resource as held by the store: a collection member or the
// singleton payload.
type Record struct {
	Attributes map[string]any `json:"_attributes"`
	Request    Request        `json:"_request"`
	Errors     Errors         `json:"_errors"`
}

func (*Record) isState() {}

// NewRecord returns an empty record whose errors carry an entry per field.
func NewRecord(fields []string) *Record {
	return &Record{
		Attributes: map[string]any{},
		Errors:     DefaultErrors(fields),
	}
}

// Clone returns a copy whose maps can be modified without touching r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		Attributes: maps.Clone(r.Attributes),
		Request:    r.Request,
		Errors:     r.Errors.Clone(),
	}
}

// CollectionState holds the members of a collection model keyed by their
// composite store identifier, plus the status of the collection-level INDEX.
type CollectionState struct {
	Collection map[string]*Record `json:"_collection"`
	Request    Request            `json:"_request"`
}

func (*CollectionState) isState() {}

// NewCollectionState returns an empty, never-requested collection.
func NewCollectionState() *CollectionState {
	return &CollectionState{Collection: map[string]*Record{}}
}

// Member returns the record stored under the composite key for value.
func (c *CollectionState) Member(primaryKey string, value any) (*Record, bool) {
	r, ok := c.Collection[StoreIdentifier(primaryKey, value)]
	return r, ok
}

// StoreIdentifier builds the composite member key "<primaryKey>-<value>".
func StoreIdentifier(primaryKey string, value any) string {
	return fmt.Sprintf("%s-%v", primaryKey, normalizeKeyValue(value))
}

// ClientStoreIdentifier is the member key used for an anonymous create.
func ClientStoreIdentifier(clientKey string) string {
	return "_client-" + clientKey
}

// JSON numbers decode as float64; integral keys render without a fraction so
// "id-1" is the same member whether the key came from Go or from the wire.
func normalizeKeyValue(value any) any {
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return int64(f)
	}
	return value
}

// StateTree is a snapshot of the whole store keyed by model name.
type StateTree map[string]State

// Collection returns the collection state of model, if it is one.
func (t StateTree) Collection(model string) (*CollectionState, bool) {
	s, ok := t[model].(*CollectionState)
	return s, ok
}

// Singleton returns the singleton record of model, if it is one.
func (t StateTree) Singleton(model string) (*Record, bool) {
	s, ok := t[model].(*Record)
	return s, ok
}
