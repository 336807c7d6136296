package internal

import (
	"maps"
	"sort"
	"sync"

	"github.com/lychee-technology/activestore"
	"go.uber.org/zap"
)

// Store holds the state tree. Dispatch is the only way to change it, and
// dispatches are serialized so every transition sees the previous one.
type Store struct {
	mu          sync.Mutex
	reducer     *RootReducer
	state       activestore.StateTree
	subscribers map[int]func(activestore.StateTree)
	nextID      int

	// trees waiting to be delivered; one goroutine at a time drains them
	pending   []activestore.StateTree
	notifying bool
}

// NewStore creates a store over reducer, starting from preloaded states where given.
func NewStore(reducer *RootReducer, preloaded activestore.StateTree) *Store {
	return &Store{
		reducer:     reducer,
		state:       reducer.Init(preloaded),
		subscribers: make(map[int]func(activestore.StateTree)),
	}
}

// Dispatch reduces action and notifies subscribers when the tree changed.
// It returns the resulting tree. Subscribers run without the store lock held,
// in transition order; a transition made while another goroutine is
// notifying is delivered by that goroutine.
func (s *Store) Dispatch(action activestore.Action) activestore.StateTree {
	s.mu.Lock()
	next := s.reducer.Reduce(s.state, action)
	if sameTree(next, s.state) {
		s.mu.Unlock()
		zap.S().Debugw("action ignored", "type", action.Type)
		return next
	}
	s.state = next
	s.pending = append(s.pending, maps.Clone(next))
	s.mu.Unlock()
	zap.S().Debugw("action reduced", "type", action.Type)

	s.notify()
	return next
}

func (s *Store) notify() {
	s.mu.Lock()
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true
	defer func() {
		s.notifying = false
		s.mu.Unlock()
	}()

	for len(s.pending) > 0 {
		tree := s.pending[0]
		s.pending = s.pending[1:]
		subscribers := s.subscriberList()

		s.mu.Unlock()
		for _, fn := range subscribers {
			fn(tree)
		}
		s.mu.Lock()
	}
}

// State returns the current tree. Model states are immutable values; the map
// itself is a copy.
func (s *Store) State() activestore.StateTree {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(activestore.StateTree, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}

// Subscribe registers fn to run after every transition. fn may read State
// and may dispatch; its own transitions are delivered after it returns.
func (s *Store) Subscribe(fn func(activestore.StateTree)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) subscriberList() []func(activestore.StateTree) {
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(activestore.StateTree), 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subscribers[id])
	}
	return out
}

func sameTree(a, b activestore.StateTree) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
