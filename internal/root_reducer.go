package internal

import (
	"maps"
	"sort"

	"github.com/lychee-technology/activestore"
)

// RootReducer combines the reducers of every registered model. The map is
// built explicitly from the registry; the fold visits models in name order.
type RootReducer struct {
	reducers map[string]activestore.Reducer
	order    []string
}

// NewRootReducer creates a combinator over the given model reducers.
func NewRootReducer(reducers map[string]activestore.Reducer) *RootReducer {
	order := make([]string, 0, len(reducers))
	for name := range reducers {
		order = append(order, name)
	}
	sort.Strings(order)
	return &RootReducer{reducers: maps.Clone(reducers), order: order}
}

// Init returns the initial state tree, preferring preloaded model states.
func (r *RootReducer) Init(preloaded activestore.StateTree) activestore.StateTree {
	tree := make(activestore.StateTree, len(r.order))
	for _, name := range r.order {
		if s, ok := preloaded[name]; ok && s != nil {
			tree[name] = s
			continue
		}
		tree[name] = r.reducers[name].Init()
	}
	return tree
}

// Reduce folds action over every model reducer. It returns tree itself when
// no model state changed.
func (r *RootReducer) Reduce(tree activestore.StateTree, action activestore.Action) activestore.StateTree {
	var next activestore.StateTree
	for _, name := range r.order {
		prev := tree[name]
		s := r.reducers[name].Reduce(prev, action)
		if s == prev {
			continue
		}
		if next == nil {
			next = maps.Clone(tree)
		}
		next[name] = s
	}
	if next == nil {
		return tree
	}
	return next
}
