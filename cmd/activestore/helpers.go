package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lychee-technology/activestore"
	"github.com/lychee-technology/activestore/internal"
)

// parseAssignments turns key=value pairs into an attribute map. Values are
// parsed as booleans or numbers when they look like one.
func parseAssignments(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", pair)
		}
		attrs[key] = internal.ParseScalar(value)
	}
	return attrs, nil
}

// parseID reads a member key from the command line.
func parseID(arg string) any {
	return internal.ParseScalar(arg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type instanceOutput struct {
	Attributes map[string]any      `json:"attributes"`
	Errors     activestore.Errors  `json:"errors,omitempty"`
	Request    activestore.Request `json:"request"`
}

func renderInstance(inst *activestore.Instance) instanceOutput {
	errs := inst.Errors()
	if errs.Empty() {
		errs = nil
	}
	return instanceOutput{
		Attributes: inst.Attributes(),
		Errors:     errs,
		Request:    inst.Request(),
	}
}

func renderInstances(instances []*activestore.Instance) []instanceOutput {
	out := make([]instanceOutput, 0, len(instances))
	for _, inst := range instances {
		out = append(out, renderInstance(inst))
	}
	return out
}

// writeFailure prints the response of a failed request. It reports whether
// err was a request failure.
func writeFailure(w io.Writer, err error) bool {
	var reqErr *activestore.RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	_ = writeJSON(w, map[string]any{
		"status":  reqErr.StatusCode(),
		"body":    reqErr.Request.Body,
		"errors":  reqErr.Errors,
		"message": reqErr.Error(),
	})
	return true
}

func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var reqErr *activestore.RequestError
	if errors.As(err, &reqErr) {
		return exitRequestError
	}
	return exitSysError
}
