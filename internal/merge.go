package internal

import (
	"maps"

	"github.com/lychee-technology/activestore"
)

// deepMerge returns a new map holding dst overlaid with src. Nested objects
// merge key by key; every other value in src replaces the one in dst. Neither
// input is modified.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	maps.Copy(out, dst)
	for k, v := range src {
		if srcObj, ok := v.(map[string]any); ok {
			if dstObj, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(dstObj, srcObj)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// mergeRecord returns a new record with the request, attributes and errors of
// src merged into dst.
func mergeRecord(dst, src *activestore.Record) *activestore.Record {
	if src == nil {
		return dst
	}
	return &activestore.Record{
		Attributes: deepMerge(dst.Attributes, src.Attributes),
		Request:    dst.Request.Merge(src.Request),
		Errors:     dst.Errors.Merge(src.Errors),
	}
}

// mergePayload merges the member-level parts of an action into r.
func mergePayload(r *activestore.Record, action activestore.Action) *activestore.Record {
	next := &activestore.Record{
		Attributes: deepMerge(r.Attributes, action.Attributes),
		Request:    r.Request,
		Errors:     r.Errors.Merge(action.Errors),
	}
	if action.Request != nil {
		next.Request = next.Request.Merge(*action.Request)
	}
	return next
}

// withDefaults fills the errors of r so every field has an entry.
func withDefaults(r *activestore.Record, fields []string) *activestore.Record {
	out := r.Clone()
	if out.Attributes == nil {
		out.Attributes = map[string]any{}
	}
	out.Errors = activestore.DefaultErrors(fields).Merge(out.Errors)
	return out
}
