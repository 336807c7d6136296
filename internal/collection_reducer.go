package internal

import (
	"maps"
	"slices"

	"github.com/lychee-technology/activestore"
)

// collectionReducer reduces the state of a keyed collection model. Members
// are addressed by the composite key "<primaryKey>-<value>".
type collectionReducer struct {
	model      string
	primaryKey string
	fields     []string
}

// NewCollectionReducer creates the reducer bound to a collection model. fields
// lists the schema fields every member carries an _errors entry for.
func NewCollectionReducer(model, primaryKey string, fields []string) activestore.Reducer {
	if primaryKey == "" {
		primaryKey = activestore.DefaultPrimaryKey
	}
	return &collectionReducer{
		model:      model,
		primaryKey: primaryKey,
		fields:     slices.Clone(fields),
	}
}

func (r *collectionReducer) Init() activestore.State {
	return activestore.NewCollectionState()
}

func (r *collectionReducer) Reduce(state activestore.State, action activestore.Action) activestore.State {
	current, ok := state.(*activestore.CollectionState)
	if !ok || current == nil {
		current = activestore.NewCollectionState()
	}

	t, ok := action.ParsedType()
	if !ok || t.Model != r.model {
		return state
	}

	if t.Phase == activestore.PhaseStart {
		if next := r.start(current, t, action); next != nil {
			return next
		}
		return state
	}
	if next := r.complete(current, t, action); next != nil {
		return next
	}
	return state
}

// start handles a request about to begin. It returns nil when the action
// leaves the collection untouched.
func (r *collectionReducer) start(current *activestore.CollectionState, t activestore.ActionType, action activestore.Action) *activestore.CollectionState {
	if t.Name == activestore.ActionIndex {
		next := r.copyState(current)
		next.Request.Status = activestore.PendingStatus(activestore.VerbGetting)
		if action.InvalidatesCache() {
			next.Collection = map[string]*activestore.Record{}
		}
		return next
	}

	var key string
	keyValue, hasKey := r.keyValue(action)
	switch {
	case t.Name == activestore.ActionCreate:
		// a create has no key yet; it is only tracked under a client key
		if action.ClientKey() == "" {
			return nil
		}
		key = activestore.ClientStoreIdentifier(action.ClientKey())
		hasKey = false
	case hasKey:
		key = activestore.StoreIdentifier(r.primaryKey, keyValue)
	default:
		return nil
	}

	member, ok := current.Collection[key]
	if !ok {
		member = activestore.NewRecord(r.fields)
	}
	m := member.Clone()
	if m.Attributes == nil {
		m.Attributes = map[string]any{}
	}
	m.Request.Status = activestore.PendingStatus(t.Name.PendingVerb())
	if hasKey {
		m.Attributes[r.primaryKey] = keyValue
	}
	m.Errors = activestore.DefaultErrors(r.fields)

	next := r.copyState(current)
	next.Collection[key] = m
	return next
}

// complete handles OK_ and ERROR_ actions. It returns nil when the action
// leaves the collection untouched.
func (r *collectionReducer) complete(current *activestore.CollectionState, t activestore.ActionType, action activestore.Action) *activestore.CollectionState {
	next := r.copyState(current)
	changed := false

	if t.Name == activestore.ActionIndex && action.Request != nil {
		next.Request = next.Request.Merge(*action.Request)
		changed = true
	}

	for key, incoming := range action.Collection {
		if incoming == nil {
			continue
		}
		if existing, ok := next.Collection[key]; ok {
			next.Collection[key] = mergeRecord(existing, incoming)
		} else {
			next.Collection[key] = withDefaults(incoming, r.fields)
		}
		changed = true
	}

	if t.Name == activestore.ActionIndex {
		if !changed {
			return nil
		}
		return next
	}

	key := ""
	if keyValue, ok := r.keyValue(action); ok {
		key = activestore.StoreIdentifier(r.primaryKey, keyValue)
	}
	if ck := action.ClientKey(); ck != "" {
		tmp := activestore.ClientStoreIdentifier(ck)
		switch {
		case key == "":
			key = tmp
		case t.Phase == activestore.PhaseOK:
			// the server assigned a key; the temporary entry is replaced by it
			if _, ok := next.Collection[tmp]; ok {
				delete(next.Collection, tmp)
				changed = true
			}
		}
	}
	if key == "" {
		if !changed {
			return nil
		}
		return next
	}

	if t.Name == activestore.ActionDestroy && t.Phase == activestore.PhaseOK {
		if _, ok := next.Collection[key]; !ok && !changed {
			return nil
		}
		delete(next.Collection, key)
		return next
	}

	member, ok := next.Collection[key]
	if !ok {
		member = activestore.NewRecord(r.fields)
	}
	next.Collection[key] = mergePayload(member, action)
	return next
}

func (r *collectionReducer) keyValue(action activestore.Action) (any, bool) {
	v, ok := action.Attributes[r.primaryKey]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// copyState returns a copy whose member map can be modified; members are
// shared with current and must be replaced, never edited.
func (r *collectionReducer) copyState(current *activestore.CollectionState) *activestore.CollectionState {
	collection := maps.Clone(current.Collection)
	if collection == nil {
		collection = map[string]*activestore.Record{}
	}
	return &activestore.CollectionState{
		Collection: collection,
		Request:    current.Request,
	}
}
