package internal

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/activestore"
	"go.uber.org/zap"
)

// Orchestrator turns start actions into HTTP requests and feeds their
// outcomes back into the store as completion actions.
type Orchestrator struct {
	registry       *ModelRegistry
	store          *Store
	scheduler      *Scheduler
	transport      *httpTransport
	resolver       activestore.RouteResolver
	timeout        time.Duration
	trackAnonymous bool
	inflight       sync.WaitGroup
}

// NewOrchestrator wires the orchestrator collaborators.
func NewOrchestrator(
	registry *ModelRegistry,
	store *Store,
	scheduler *Scheduler,
	transport *httpTransport,
	resolver activestore.RouteResolver,
	timeout time.Duration,
	trackAnonymous bool,
) *Orchestrator {
	return &Orchestrator{
		registry:       registry,
		store:          store,
		scheduler:      scheduler,
		transport:      transport,
		resolver:       resolver,
		timeout:        timeout,
		trackAnonymous: trackAnonymous,
	}
}

// plannedRequest is a start action resolved against its model.
type plannedRequest struct {
	meta   *activestore.ModelMetadata
	action activestore.Action
	kind   activestore.ActionType
	req    outgoingRequest
}

// Start dispatches a start action and issues its request. Registration
// errors are returned before anything reaches the store.
func (o *Orchestrator) Start(ctx context.Context, action activestore.Action) (*activestore.Future, error) {
	plan, err := o.plan(action)
	if err != nil {
		return nil, err
	}

	o.store.Dispatch(plan.action)

	future := activestore.NewFuture()
	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		o.perform(ctx, plan, future)
	}()
	return future, nil
}

// Wait blocks until every issued request has produced its completion.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

func (o *Orchestrator) plan(action activestore.Action) (*plannedRequest, error) {
	t, ok := action.ParsedType()
	if !ok {
		return nil, activestore.NewInvalidActionError(action.Type, "type does not follow the action protocol")
	}
	if t.Phase != activestore.PhaseStart {
		return nil, activestore.NewInvalidActionError(action.Type, "only start actions issue requests")
	}

	meta, err := o.registry.Lookup(t.Model)
	if err != nil {
		return nil, err
	}
	template, ok := meta.Route(t.Name)
	if !ok {
		return nil, activestore.NewRouteNotFoundError(meta.Name, t.Name)
	}

	attrs := maps.Clone(action.Attributes)
	if attrs == nil {
		attrs = map[string]any{}
	}
	action.Attributes = attrs

	if o.trackAnonymous && t.Name == activestore.ActionCreate && !meta.Singleton && action.ClientKey() == "" {
		if v, ok := attrs[meta.PrimaryKey]; !ok || v == nil {
			opts := activestore.Options{}
			if action.Options != nil {
				opts = *action.Options
			}
			opts.ClientKey = uuid.NewString()
			action.Options = &opts
		}
	}

	path, consumed := o.resolver.Resolve(template, meta, attrs)
	routed := NewSet(consumed...)

	method := t.Name.Method()
	query := map[string]any{}
	var body map[string]any
	if method != http.MethodGet {
		body = map[string]any{}
	}
	for name, v := range attrs {
		switch {
		case method != http.MethodGet && meta.Schema.Has(name):
			body[name] = v
		case routed.Contains(name):
			// already part of the path
		default:
			query[name] = v
		}
	}
	maps.Copy(query, action.Query)

	return &plannedRequest{
		meta:   meta,
		action: action,
		kind:   t,
		req: outgoingRequest{
			Method: method,
			Path:   path,
			Query:  encodeQuery(query),
			Body:   body,
		},
	}, nil
}

func (o *Orchestrator) perform(ctx context.Context, plan *plannedRequest, future *activestore.Future) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	model, name := plan.meta.Name, string(plan.kind.Name)
	started := time.Now()
	resp, err := o.transport.Do(ctx, plan.req)
	EmitRequestLatency(ctx, model, name, elapsedMillis(started))

	if err != nil {
		if errors.Is(err, ErrBreakerOpen) {
			EmitBreakerRejection(ctx, model)
		}
		zap.S().Warnw("request failed without response", "type", plan.action.Type, "method", plan.req.Method, "path", plan.req.Path, "error", err)
		resp = &incomingResponse{Status: activestore.StatusNoResponse, Body: map[string]any{"error": err.Error()}}
	} else {
		zap.S().Debugw("request completed", "type", plan.action.Type, "method", plan.req.Method, "path", plan.req.Path, "status", resp.Status)
	}
	EmitRequestOutcome(ctx, model, name, resp.Status)

	status := activestore.CodeStatus(resp.Status)
	var completion activestore.Action
	if err == nil && status.Succeeded() {
		var resource *activestore.Resource
		completion, resource = o.succeeded(plan, status, resp.Body)
		future.Settle(resource, nil)
	} else {
		var reqErr *activestore.RequestError
		completion, reqErr = o.failed(plan, status, resp.Body, err)
		future.Settle(nil, reqErr)
	}

	// the future is settled before the store observes the completion
	o.scheduler.Defer(func() {
		o.store.Dispatch(completion)
		future.MarkApplied()
	})
}

func (o *Orchestrator) succeeded(plan *plannedRequest, status activestore.Status, body any) (activestore.Action, *activestore.Resource) {
	meta := plan.meta
	completion := o.completion(plan, activestore.PhaseOK)
	completion.Request = &activestore.Request{Status: status}

	resource := &activestore.Resource{
		Model:   meta.Name,
		Action:  plan.kind.WithPhase(activestore.PhaseOK),
		Request: activestore.Request{Status: status},
		Body:    body,
	}

	switch b := body.(type) {
	case []any:
		resource.Collection = make([]*activestore.Instance, 0, len(b))
		members := make(map[string]*activestore.Record, len(b))
		for _, item := range b {
			attrs, ok := item.(map[string]any)
			if !ok {
				continue
			}
			resource.Collection = append(resource.Collection, activestore.NewPersistedInstance(meta, attrs))
			key, ok := attrs[meta.PrimaryKey]
			if !ok || key == nil || meta.Singleton {
				continue
			}
			members[activestore.StoreIdentifier(meta.PrimaryKey, key)] = &activestore.Record{
				Attributes: maps.Clone(attrs),
				Request:    activestore.Request{Status: status},
			}
		}
		if len(members) > 0 {
			completion.Collection = members
		}
	case map[string]any:
		attrs := persistedAttributes(meta, plan.action.Attributes)
		maps.Copy(attrs, b)
		completion.Attributes = attrs
		resource.Instance = activestore.NewPersistedInstance(meta, attrs)
		resource.Instance.SetOutcome(activestore.Request{Status: status}, nil)
	default:
		completion.Attributes = persistedAttributes(meta, plan.action.Attributes)
		resource.Instance = activestore.NewPersistedInstance(meta, completion.Attributes)
	}
	return completion, resource
}

func (o *Orchestrator) failed(plan *plannedRequest, status activestore.Status, body any, cause error) (activestore.Action, *activestore.RequestError) {
	completion := o.completion(plan, activestore.PhaseError)
	request := activestore.Request{Status: status, Body: body}
	completion.Request = &request
	if errs, ok := activestore.ErrorsFromBody(body); ok {
		completion.Errors = errs
	}
	if key, ok := plan.action.Attributes[plan.meta.PrimaryKey]; ok && key != nil {
		completion.Attributes = map[string]any{plan.meta.PrimaryKey: key}
	}

	return completion, &activestore.RequestError{
		Action:  plan.kind.WithPhase(activestore.PhaseError),
		Request: request,
		Errors:  completion.Errors.Clone(),
		Cause:   cause,
	}
}

// persistedAttributes keeps the primary key and schema fields of attrs.
// Other attributes only travel as query parameters and never reach the store.
func persistedAttributes(meta *activestore.ModelMetadata, attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for name, v := range attrs {
		if name == meta.PrimaryKey || meta.Schema.Has(name) {
			out[name] = v
		}
	}
	return out
}

// completion builds the OK_ or ERROR_ counterpart of the planned action.
func (o *Orchestrator) completion(plan *plannedRequest, phase activestore.Phase) activestore.Action {
	completion := activestore.NewAction(phase, plan.kind.Name, plan.meta.Name)
	if ck := plan.action.ClientKey(); ck != "" {
		completion.Options = &activestore.Options{ClientKey: ck}
	}
	return completion
}
