package internal

import (
	"github.com/lychee-technology/activestore"
)

// singletonReducer reduces the state of a model with exactly one instance.
type singletonReducer struct {
	model string
}

// NewSingletonReducer creates the reducer bound to a singleton model name.
func NewSingletonReducer(model string) activestore.Reducer {
	return &singletonReducer{model: model}
}

func (r *singletonReducer) Init() activestore.State {
	return &activestore.Record{
		Attributes: map[string]any{},
		Errors:     activestore.Errors{},
	}
}

func (r *singletonReducer) Reduce(state activestore.State, action activestore.Action) activestore.State {
	current, ok := state.(*activestore.Record)
	if !ok || current == nil {
		current = r.Init().(*activestore.Record)
	}

	t, ok := action.ParsedType()
	if !ok || t.Model != r.model {
		return state
	}

	next := current.Clone()
	if action.Request != nil {
		next.Request = next.Request.Merge(*action.Request)
	}

	if t.Phase == activestore.PhaseStart {
		next.Request.Status = activestore.PendingStatus(t.Name.PendingVerb())
		next.Errors = activestore.Errors{}
		return next
	}

	if t.Phase == activestore.PhaseOK && t.Name == activestore.ActionDestroy {
		next.Attributes = map[string]any{}
		next.Errors = activestore.Errors{}
		return next
	}

	next.Attributes = deepMerge(next.Attributes, action.Attributes)
	next.Errors = next.Errors.Merge(action.Errors)
	return next
}
