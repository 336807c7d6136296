package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lychee-technology/activestore"
	"go.uber.org/zap"
)

// ClientOptions carries the collaborators of a client. Nil collaborators are
// replaced by their defaults.
type ClientOptions struct {
	Config      *activestore.Config
	Definitions map[string]activestore.Definition
	HTTPClient  activestore.HTTPDoer
	Inflector   activestore.Inflector
	Resolver    activestore.RouteResolver
	Snapshots   activestore.SnapshotRepository
}

type client struct {
	registry     *ModelRegistry
	store        *Store
	scheduler    *Scheduler
	orchestrator *Orchestrator
	snapshots    activestore.SnapshotRepository

	mu     sync.RWMutex
	closed bool
}

// NewClient registers every definition, restores snapshots when a snapshot
// repository is given, and starts the completion scheduler.
func NewClient(ctx context.Context, opts ClientOptions) (activestore.Client, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = activestore.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	registry := NewModelRegistry(opts.Inflector)
	for _, name := range SortedKeys(opts.Definitions) {
		if _, err := registry.Register(name, opts.Definitions[name]); err != nil {
			return nil, fmt.Errorf("register model %s: %w", name, err)
		}
	}

	preloaded, err := restoreSnapshots(ctx, registry, opts.Snapshots)
	if err != nil {
		return nil, err
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewRouteResolver(cfg.API.Prefix)
	}
	breaker := NewCircuitBreaker(cfg.Transport.BreakerThreshold, cfg.Transport.BreakerWindow, cfg.Transport.BreakerOpenDuration)
	transport := newHTTPTransport(opts.HTTPClient, cfg.API.BaseURL, cfg.API.Headers, breaker)

	store := NewStore(NewRootReducer(registry.Reducers()), preloaded)
	scheduler := NewScheduler()

	c := &client{
		registry:  registry,
		store:     store,
		scheduler: scheduler,
		orchestrator: NewOrchestrator(
			registry, store, scheduler, transport, resolver,
			cfg.API.Timeout, cfg.Store.TrackAnonymousCreates,
		),
		snapshots: opts.Snapshots,
	}

	zap.S().Infow("activestore client ready", "models", registry.Models(), "baseURL", cfg.API.BaseURL, "restored", len(preloaded))
	return c, nil
}

// Dispatch issues the request of a start action. Completion, malformed and
// foreign-type actions are reduced directly.
func (c *client) Dispatch(ctx context.Context, action activestore.Action) (*activestore.Future, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, activestore.ErrClientClosed
	}

	t, ok := action.ParsedType()
	if !ok || t.Phase.IsCompletion() {
		c.store.Dispatch(action)
		return activestore.SettledFuture(nil, nil), nil
	}
	return c.orchestrator.Start(ctx, action)
}

func (c *client) Model(name string) (activestore.Repository, error) {
	meta, err := c.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &modelRepository{client: c, meta: meta}, nil
}

func (c *client) State() activestore.StateTree {
	return c.store.State()
}

func (c *client) Subscribe(fn func(activestore.StateTree)) func() {
	return c.store.Subscribe(fn)
}

// Snapshot writes the state of every model to the snapshot repository.
func (c *client) Snapshot(ctx context.Context) error {
	if c.snapshots == nil {
		return activestore.NewInternalError("no snapshot repository configured", nil)
	}
	state := c.store.State()
	for _, name := range c.registry.Models() {
		data, err := json.Marshal(state[name])
		if err != nil {
			return fmt.Errorf("encode state of %s: %w", name, err)
		}
		if err := c.snapshots.Save(ctx, name, data); err != nil {
			return err
		}
	}
	zap.S().Infow("state snapshot written", "models", len(state))
	return nil
}

// Close waits for outstanding requests, applies their completions and stops
// the scheduler.
func (c *client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.orchestrator.Wait()
	c.scheduler.Close()
	return nil
}

func restoreSnapshots(ctx context.Context, registry *ModelRegistry, snapshots activestore.SnapshotRepository) (activestore.StateTree, error) {
	preloaded := activestore.StateTree{}
	if snapshots == nil {
		return preloaded, nil
	}
	for _, name := range registry.Models() {
		raw, found, err := snapshots.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("restore snapshot of %s: %w", name, err)
		}
		if !found {
			continue
		}
		meta, err := registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		state, err := decodeState(meta, raw)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot of %s: %w", name, err)
		}
		preloaded[name] = state
	}
	return preloaded, nil
}

// decodeState parses a snapshot document into the state shape of meta.
func decodeState(meta *activestore.ModelMetadata, raw json.RawMessage) (activestore.State, error) {
	if meta.Singleton {
		var r activestore.Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		if r.Attributes == nil {
			r.Attributes = map[string]any{}
		}
		if r.Errors == nil {
			r.Errors = activestore.Errors{}
		}
		return &r, nil
	}

	var s activestore.CollectionState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s.Collection == nil {
		s.Collection = map[string]*activestore.Record{}
	}
	fields := meta.Schema.Fields()
	for key, member := range s.Collection {
		if member == nil {
			delete(s.Collection, key)
			continue
		}
		s.Collection[key] = withDefaults(member, fields)
	}
	return &s, nil
}
