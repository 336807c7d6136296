package activestore

import (
	"fmt"
	"net/http"
	"regexp"
)

// ActionName is one of the five CRUD action names understood by the reducers.
type ActionName string

const (
	ActionIndex   ActionName = "INDEX"
	ActionCreate  ActionName = "CREATE"
	ActionShow    ActionName = "SHOW"
	ActionUpdate  ActionName = "UPDATE"
	ActionDestroy ActionName = "DESTROY"
)

// ActionNames lists every action name in route registration order.
var ActionNames = []ActionName{ActionIndex, ActionCreate, ActionShow, ActionUpdate, ActionDestroy}

// Valid reports whether n is one of the known action names.
func (n ActionName) Valid() bool {
	switch n {
	case ActionIndex, ActionCreate, ActionShow, ActionUpdate, ActionDestroy:
		return true
	}
	return false
}

// PendingVerb returns the in-flight status label for the action.
func (n ActionName) PendingVerb() Verb {
	switch n {
	case ActionIndex, ActionShow:
		return VerbGetting
	case ActionCreate:
		return VerbPosting
	case ActionUpdate:
		return VerbPutting
	case ActionDestroy:
		return VerbDeleting
	}
	return ""
}

// Method returns the HTTP method used on the wire for the action.
func (n ActionName) Method() string {
	switch n {
	case ActionCreate:
		return http.MethodPost
	case ActionUpdate:
		return http.MethodPut
	case ActionDestroy:
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// TargetsMember reports whether the action addresses a single keyed member.
func (n ActionName) TargetsMember() bool {
	return n == ActionShow || n == ActionUpdate || n == ActionDestroy
}

// Phase distinguishes a start action from its completions.
type Phase string

const (
	PhaseStart Phase = ""
	PhaseOK    Phase = "OK"
	PhaseError Phase = "ERROR"
)

// IsCompletion reports whether the phase carries a request outcome.
func (p Phase) IsCompletion() bool {
	return p == PhaseOK || p == PhaseError
}

// ActionType is the parsed form of an action type string such as "@OK_SHOW(Post)".
type ActionType struct {
	Phase Phase
	Name  ActionName
	Model string
}

var actionTypePattern = regexp.MustCompile(`^@(?:(OK|ERROR)_)?(INDEX|CREATE|SHOW|UPDATE|DESTROY)\(([^()]+)\)$`)

// ParseActionType parses s. The second result is false for any string that
// does not follow the action protocol.
func ParseActionType(s string) (ActionType, bool) {
	m := actionTypePattern.FindStringSubmatch(s)
	if m == nil {
		return ActionType{}, false
	}
	return ActionType{Phase: Phase(m[1]), Name: ActionName(m[2]), Model: m[3]}, true
}

// String renders the protocol form of the type.
func (t ActionType) String() string {
	if t.Phase == PhaseStart {
		return fmt.Sprintf("@%s(%s)", t.Name, t.Model)
	}
	return fmt.Sprintf("@%s_%s(%s)", t.Phase, t.Name, t.Model)
}

// WithPhase returns a copy of t in the given phase.
func (t ActionType) WithPhase(p Phase) ActionType {
	t.Phase = p
	return t
}

// Options carries out-of-band directives on an action.
type Options struct {
	// InvalidateCache clears the collection when an INDEX starts.
	InvalidateCache bool `json:"invalidateCache,omitempty"`
	// ClientKey tracks an anonymous create under a temporary member key.
	ClientKey string `json:"clientKey,omitempty"`
}

// Action is the single message shape flowing through the store.
type Action struct {
	Type       string             `json:"type"`
	Attributes map[string]any     `json:"_attributes,omitempty"`
	Collection map[string]*Record `json:"_collection,omitempty"`
	Request    *Request           `json:"_request,omitempty"`
	Errors     Errors             `json:"_errors,omitempty"`
	Options    *Options           `json:"_options,omitempty"`
	Query      map[string]any     `json:"query,omitempty"`
}

// NewAction builds an action of the given phase, name and model.
func NewAction(phase Phase, name ActionName, model string) Action {
	return Action{Type: ActionType{Phase: phase, Name: name, Model: model}.String()}
}

// StartAction builds a start action carrying attributes.
func StartAction(name ActionName, model string, attributes map[string]any) Action {
	a := NewAction(PhaseStart, name, model)
	a.Attributes = attributes
	return a
}

// ParsedType parses the action's type string.
func (a Action) ParsedType() (ActionType, bool) {
	return ParseActionType(a.Type)
}

// InvalidatesCache reports whether the action asks for a cache reset.
func (a Action) InvalidatesCache() bool {
	return a.Options != nil && a.Options.InvalidateCache
}

// ClientKey returns the temporary member key requested for the action, if any.
func (a Action) ClientKey() string {
	if a.Options == nil {
		return ""
	}
	return a.Options.ClientKey
}
