package activestore

import (
	"context"
	"encoding/json"
	"net/http"
)

// Client is the application-facing entry point: it dispatches actions into the
// store, performing the HTTP request behind every start action.
type Client interface {
	// Dispatch applies action. A start action of a registered model also
	// issues its HTTP request; the returned Future settles with the outcome.
	// Completion actions and foreign actions are only reduced, and the Future
	// is already settled. Registration errors are returned synchronously.
	Dispatch(ctx context.Context, action Action) (*Future, error)

	// Model returns the repository of a registered model.
	Model(name string) (Repository, error)

	// State returns a snapshot of the store.
	State() StateTree

	// Subscribe registers fn to run after every state transition. fn runs
	// outside the store lock, so it may call State.
	Subscribe(fn func(StateTree)) (unsubscribe func())

	// Snapshot persists the current state when a snapshot repository is configured.
	Snapshot(ctx context.Context) error

	// Close stops background workers. Pending completions are still applied.
	Close() error
}

// IndexOptions configures Repository.All.
type IndexOptions struct {
	InvalidateCache bool
}

// IndexOption mutates IndexOptions.
type IndexOption func(*IndexOptions)

// WithInvalidateCache clears the cached collection when the request starts.
func WithInvalidateCache() IndexOption {
	return func(o *IndexOptions) { o.InvalidateCache = true }
}

// Repository offers the model-level CRUD calls of one registered model.
type Repository interface {
	Metadata() *ModelMetadata
	New(attrs map[string]any) (*Instance, error)
	All(ctx context.Context, query map[string]any, opts ...IndexOption) ([]*Instance, error)
	Find(ctx context.Context, id any) (*Instance, error)
	// Fetch loads a singleton model.
	Fetch(ctx context.Context) (*Instance, error)
	Save(ctx context.Context, inst *Instance) (*Instance, error)
	Destroy(ctx context.Context, inst *Instance) error
}

// Resource is the resolved value of a successful request.
type Resource struct {
	Model      string
	Action     ActionType
	Request    Request
	Instance   *Instance
	Collection []*Instance
	Body       any
}

// IsCollection reports whether the response body was an array.
func (r *Resource) IsCollection() bool {
	return r.Instance == nil && r.Collection != nil
}

// Future is the pending outcome of a dispatched start action. It settles
// before the matching completion action reaches the store.
type Future struct {
	done     chan struct{}
	applied  chan struct{}
	resource *Resource
	err      error
}

// NewFuture returns an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{}), applied: make(chan struct{})}
}

// SettledFuture returns a future that is already settled and applied.
func SettledFuture(res *Resource, err error) *Future {
	f := NewFuture()
	f.Settle(res, err)
	f.MarkApplied()
	return f
}

// Settle records the outcome. Only the first call has an effect.
func (f *Future) Settle(res *Resource, err error) {
	select {
	case <-f.done:
		return
	default:
	}
	f.resource, f.err = res, err
	close(f.done)
}

// MarkApplied signals that the completion action has been reduced.
func (f *Future) MarkApplied() {
	select {
	case <-f.applied:
	default:
		close(f.applied)
	}
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} { return f.done }

// Applied is closed once the completion action is visible in the store.
func (f *Future) Applied() <-chan struct{} { return f.applied }

// Await blocks until the future settles or ctx is done.
func (f *Future) Await(ctx context.Context) (*Resource, error) {
	select {
	case <-f.done:
		return f.resource, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HTTPDoer performs HTTP requests; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Inflector derives the route name of a model.
type Inflector interface {
	RouteName(model string, singleton bool) string
}

// RouteResolver interpolates a route template for a model.
type RouteResolver interface {
	Resolve(template string, meta *ModelMetadata, attributes map[string]any) (path string, consumed []string)
}

// SnapshotRepository persists model states between sessions.
type SnapshotRepository interface {
	Save(ctx context.Context, model string, state json.RawMessage) error
	Load(ctx context.Context, model string) (json.RawMessage, bool, error)
}
