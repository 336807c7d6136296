package activestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Verb is a pending request label.
type Verb string

const (
	VerbGetting  Verb = "GETTING"
	VerbPosting  Verb = "POSTING"
	VerbPutting  Verb = "PUTTING"
	VerbDeleting Verb = "DELETING"
)

// StatusNoResponse is the code recorded when a request never produced an HTTP response.
const StatusNoResponse = 0

// Status is the request status of a resource or collection: unset, a pending
// verb, or the HTTP status code of the finished request.
type Status struct {
	verb Verb
	code int
	set  bool
}

// NoStatus is the status of something never requested.
func NoStatus() Status { return Status{} }

// PendingStatus returns the in-flight status for verb.
func PendingStatus(verb Verb) Status { return Status{verb: verb, set: true} }

// CodeStatus returns the terminal status for an HTTP status code.
func CodeStatus(code int) Status { return Status{code: code, set: true} }

// IsNone reports whether the status was never set.
func (s Status) IsNone() bool { return !s.set }

// IsPending reports whether a request is outstanding.
func (s Status) IsPending() bool { return s.set && s.verb != "" }

// Verb returns the pending verb, or "" for unset and terminal statuses.
func (s Status) Verb() Verb { return s.verb }

// Code returns the terminal HTTP code. ok is false when the status is unset or pending.
func (s Status) Code() (code int, ok bool) {
	if !s.set || s.verb != "" {
		return 0, false
	}
	return s.code, true
}

// Succeeded reports a terminal 2xx or 3xx code.
func (s Status) Succeeded() bool {
	code, ok := s.Code()
	return ok && code >= 200 && code < 400
}

func (s Status) String() string {
	switch {
	case !s.set:
		return "null"
	case s.verb != "":
		return string(s.verb)
	default:
		return strconv.Itoa(s.code)
	}
}

// MarshalJSON encodes null, the verb string, or the numeric code.
func (s Status) MarshalJSON() ([]byte, error) {
	switch {
	case !s.set:
		return []byte("null"), nil
	case s.verb != "":
		return json.Marshal(string(s.verb))
	default:
		return []byte(strconv.Itoa(s.code)), nil
	}
}

// UnmarshalJSON accepts null, a pending verb string, or a number.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = NoStatus()
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		switch verb := Verb(v); verb {
		case VerbGetting, VerbPosting, VerbPutting, VerbDeleting:
			*s = PendingStatus(verb)
			return nil
		}
		return fmt.Errorf("unknown request status %q", v)
	}
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("invalid request status %s: %w", data, err)
	}
	*s = CodeStatus(code)
	return nil
}

// Request tracks the in-flight status and last response body of one resource
// or one collection.
type Request struct {
	Status Status `json:"status"`
	Body   any    `json:"body,omitempty"`
}

// Merge overlays other onto r. An unset status or nil body in other leaves the
// current value in place.
func (r Request) Merge(other Request) Request {
	if !other.Status.IsNone() {
		r.Status = other.Status
	}
	if other.Body != nil {
		r.Body = other.Body
	}
	return r
}

// Errors maps a field name to its ordered validation messages.
type Errors map[string][]string

// DefaultErrors returns an Errors value with an empty list per field.
func DefaultErrors(fields []string) Errors {
	errs := make(Errors, len(fields))
	for _, f := range fields {
		errs[f] = []string{}
	}
	return errs
}

// Merge returns a new Errors where every field present in other replaces the
// field in e.
func (e Errors) Merge(other Errors) Errors {
	out := make(Errors, len(e)+len(other))
	for k, v := range e {
		out[k] = v
	}
	for k, v := range other {
		out[k] = slices.Clone(v)
	}
	return out
}

// Clone returns a deep copy.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := maps.Clone(e)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}

// Empty reports whether no field carries a message.
func (e Errors) Empty() bool {
	for _, msgs := range e {
		if len(msgs) > 0 {
			return false
		}
	}
	return true
}

// ErrorsFromBody extracts field errors from a response body of the form
// {"errors": {"field": ["msg", ...]}}. A string value counts as one message.
func ErrorsFromBody(body any) (Errors, bool) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := obj["errors"].(map[string]any)
	if !ok {
		return nil, false
	}
	errs := make(Errors, len(raw))
	for field, v := range raw {
		switch msgs := v.(type) {
		case string:
			errs[field] = []string{msgs}
		case []any:
			list := make([]string, 0, len(msgs))
			for _, m := range msgs {
				list = append(list, fmt.Sprint(m))
			}
			errs[field] = list
		case []string:
			errs[field] = slices.Clone(msgs)
		}
	}
	return errs, true
}
