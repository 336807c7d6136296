package internal

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/lychee-technology/activestore"
	"go.uber.org/zap"
)

// ModelRegistry holds the metadata of every registered model. Each client
// owns its own registry.
type ModelRegistry struct {
	mu        sync.RWMutex
	inflector activestore.Inflector
	models    map[string]*activestore.ModelMetadata
}

// NewModelRegistry creates an empty registry. A nil inflector selects the default one.
func NewModelRegistry(inflector activestore.Inflector) *ModelRegistry {
	if inflector == nil {
		inflector = NewInflector()
	}
	return &ModelRegistry{
		inflector: inflector,
		models:    make(map[string]*activestore.ModelMetadata),
	}
}

// Register validates def and records the metadata of model name.
func (r *ModelRegistry) Register(name string, def activestore.Definition) (*activestore.ModelMetadata, error) {
	if name == "" {
		return nil, activestore.NewCapabilityError(name, "model name is required")
	}
	if def == nil {
		return nil, activestore.NewCapabilityError(name, "definition is nil")
	}
	raw := def.Schema()
	if len(raw) == 0 {
		return nil, activestore.NewCapabilityError(name, "definition exposes no schema")
	}

	schema, err := NormalizeSchema(name, raw)
	if err != nil {
		return nil, err
	}

	meta := &activestore.ModelMetadata{
		Name:        name,
		DisplayName: humanize(name),
		Schema:      schema,
		PrimaryKey:  activestore.DefaultPrimaryKey,
	}
	if p, ok := def.(activestore.PrimaryKeyProvider); ok && p.PrimaryKey() != "" {
		meta.PrimaryKey = p.PrimaryKey()
	}
	if p, ok := def.(activestore.StoreConfigProvider); ok {
		meta.Singleton = p.Store().Singleton
	}
	meta.RouteName = r.inflector.RouteName(name, meta.Singleton)

	var routes activestore.RoutesConfig
	if p, ok := def.(activestore.RoutesProvider); ok {
		routes = p.Routes()
	}
	meta.Routes, err = buildRoutes(name, meta.PrimaryKey, meta.Singleton, routes)
	if err != nil {
		return nil, err
	}

	if p, ok := def.(activestore.ReducerProvider); ok && p.Reducer() != nil {
		meta.Reducer = p.Reducer()
	} else if meta.Singleton {
		meta.Reducer = NewSingletonReducer(name)
	} else {
		meta.Reducer = NewCollectionReducer(name, meta.PrimaryKey, schema.Fields())
	}
	if v, ok := def.(activestore.Validator); ok {
		meta.Validator = v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[name]; exists {
		return nil, activestore.NewDuplicateModelError(name)
	}
	r.models[name] = meta

	zap.S().Debugw("model registered", "model", name, "route", meta.RouteName, "singleton", meta.Singleton, "actions", len(meta.Routes))
	return copyMetadata(meta), nil
}

// Lookup returns the metadata of a registered model.
func (r *ModelRegistry) Lookup(name string) (*activestore.ModelMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.models[name]
	if !exists {
		return nil, activestore.NewModelNotFoundError(name)
	}
	return copyMetadata(meta), nil
}

// Models returns the registered model names in sorted order.
func (r *ModelRegistry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := MapKeys(r.models)
	sort.Strings(names)
	return names
}

// Reducers returns the model name to reducer map the root reducer folds over.
func (r *ModelRegistry) Reducers() map[string]activestore.Reducer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]activestore.Reducer, len(r.models))
	for name, meta := range r.models {
		out[name] = meta.Reducer
	}
	return out
}

// buildRoutes computes the default routes of a model filtered by only and
// except, then applies explicit templates.
func buildRoutes(model, primaryKey string, singleton bool, cfg activestore.RoutesConfig) (map[activestore.ActionName]string, error) {
	for _, list := range [][]activestore.ActionName{cfg.Only, cfg.Except, MapKeys(cfg.Templates)} {
		for _, name := range list {
			if !name.Valid() {
				return nil, activestore.NewSchemaError(model, "routes", fmt.Sprintf("unknown action %q", name))
			}
		}
	}

	only := NewSet(cfg.Only...)
	except := NewSet(cfg.Except...)

	routes := make(map[activestore.ActionName]string, len(activestore.ActionNames))
	for name, tpl := range DefaultRoutes(primaryKey, singleton) {
		if only.Len() > 0 && !only.Contains(name) {
			continue
		}
		if except.Contains(name) {
			continue
		}
		routes[name] = tpl
	}
	for name, tpl := range cfg.Templates {
		if tpl == "" {
			return nil, activestore.NewSchemaError(model, "routes", fmt.Sprintf("empty template for %s", name))
		}
		routes[name] = tpl
	}
	return routes, nil
}

// copyMetadata returns a copy whose maps are not shared with the registry.
func copyMetadata(meta *activestore.ModelMetadata) *activestore.ModelMetadata {
	out := *meta
	out.Schema = maps.Clone(meta.Schema)
	out.Routes = maps.Clone(meta.Routes)
	return &out
}
