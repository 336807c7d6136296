package internal

import (
	"context"
	"errors"

	"github.com/lychee-technology/activestore"
)

// modelRepository issues CRUD actions for one model and waits for their outcome.
type modelRepository struct {
	client *client
	meta   *activestore.ModelMetadata
}

func (r *modelRepository) Metadata() *activestore.ModelMetadata {
	return r.meta
}

func (r *modelRepository) New(attrs map[string]any) (*activestore.Instance, error) {
	return activestore.NewInstance(r.meta, attrs)
}

// All runs INDEX with query parameters and returns the listed instances.
func (r *modelRepository) All(ctx context.Context, query map[string]any, opts ...activestore.IndexOption) ([]*activestore.Instance, error) {
	var o activestore.IndexOptions
	for _, opt := range opts {
		opt(&o)
	}

	action := activestore.StartAction(activestore.ActionIndex, r.meta.Name, nil)
	action.Query = query
	if o.InvalidateCache {
		action.Options = &activestore.Options{InvalidateCache: true}
	}

	res, err := r.run(ctx, action)
	if err != nil {
		return nil, err
	}
	if res.Instance != nil {
		return []*activestore.Instance{res.Instance}, nil
	}
	return res.Collection, nil
}

// Find runs SHOW for the member with primary key id.
func (r *modelRepository) Find(ctx context.Context, id any) (*activestore.Instance, error) {
	if r.meta.Singleton {
		return r.Fetch(ctx)
	}
	if id == nil {
		return nil, activestore.NewMissingKeyError(r.meta.Name, activestore.ActionShow)
	}
	action := activestore.StartAction(activestore.ActionShow, r.meta.Name, map[string]any{r.meta.PrimaryKey: id})
	res, err := r.run(ctx, action)
	if err != nil {
		return nil, err
	}
	return res.Instance, nil
}

// Fetch runs SHOW for a singleton model.
func (r *modelRepository) Fetch(ctx context.Context) (*activestore.Instance, error) {
	if !r.meta.Singleton {
		return nil, activestore.NewMissingKeyError(r.meta.Name, activestore.ActionShow)
	}
	res, err := r.run(ctx, activestore.StartAction(activestore.ActionShow, r.meta.Name, nil))
	if err != nil {
		return nil, err
	}
	return res.Instance, nil
}

// Save creates a new instance or updates the changed attributes of a
// persisted one. The request outcome is recorded on inst.
func (r *modelRepository) Save(ctx context.Context, inst *activestore.Instance) (*activestore.Instance, error) {
	if r.meta.Validator != nil {
		if err := r.meta.Validator.Validate(inst.Attributes()); err != nil {
			return inst, activestore.NewAttributeError(r.meta.Name, "", err)
		}
	}

	var action activestore.Action
	if inst.IsNew() {
		action = activestore.StartAction(activestore.ActionCreate, r.meta.Name, inst.Attributes())
	} else {
		attrs := inst.Diff()
		if !r.meta.Singleton {
			id, ok := inst.ID()
			if !ok {
				return inst, activestore.NewMissingKeyError(r.meta.Name, activestore.ActionUpdate)
			}
			attrs[r.meta.PrimaryKey] = id
		}
		action = activestore.StartAction(activestore.ActionUpdate, r.meta.Name, attrs)
	}

	res, err := r.run(ctx, action)
	if err != nil {
		recordFailure(inst, err)
		return inst, err
	}
	if res.Instance != nil {
		inst.Merge(res.Instance.Attributes())
	} else {
		inst.MarkPersisted()
	}
	inst.SetOutcome(res.Request, nil)
	return inst, nil
}

// Destroy runs DESTROY for inst.
func (r *modelRepository) Destroy(ctx context.Context, inst *activestore.Instance) error {
	attrs := map[string]any{}
	if !r.meta.Singleton {
		id, ok := inst.ID()
		if !ok {
			return activestore.NewMissingKeyError(r.meta.Name, activestore.ActionDestroy)
		}
		attrs[r.meta.PrimaryKey] = id
	}

	res, err := r.run(ctx, activestore.StartAction(activestore.ActionDestroy, r.meta.Name, attrs))
	if err != nil {
		recordFailure(inst, err)
		return err
	}
	inst.SetOutcome(res.Request, nil)
	return nil
}

func (r *modelRepository) run(ctx context.Context, action activestore.Action) (*activestore.Resource, error) {
	future, err := r.client.Dispatch(ctx, action)
	if err != nil {
		return nil, err
	}
	return future.Await(ctx)
}

func recordFailure(inst *activestore.Instance, err error) {
	var reqErr *activestore.RequestError
	if errors.As(err, &reqErr) {
		inst.SetOutcome(reqErr.Request, reqErr.Errors)
	}
}
