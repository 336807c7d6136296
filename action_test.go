package activestore

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ActionType
		ok    bool
	}{
		{name: "start", input: "@INDEX(Post)", want: ActionType{Phase: PhaseStart, Name: ActionIndex, Model: "Post"}, ok: true},
		{name: "ok completion", input: "@OK_SHOW(CurrentUser)", want: ActionType{Phase: PhaseOK, Name: ActionShow, Model: "CurrentUser"}, ok: true},
		{name: "error completion", input: "@ERROR_DESTROY(Post)", want: ActionType{Phase: PhaseError, Name: ActionDestroy, Model: "Post"}, ok: true},
		{name: "namespaced model", input: "@CREATE(blog.Post)", want: ActionType{Phase: PhaseStart, Name: ActionCreate, Model: "blog.Post"}, ok: true},
		{name: "unknown action", input: "@PATCH(Post)", ok: false},
		{name: "unknown phase", input: "@DONE_INDEX(Post)", ok: false},
		{name: "missing at sign", input: "INDEX(Post)", ok: false},
		{name: "missing model", input: "@INDEX()", ok: false},
		{name: "foreign action", input: "ROUTER_LOCATION_CHANGE", ok: false},
		{name: "trailing text", input: "@INDEX(Post)x", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseActionType(tt.input)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestActionNameVerbsAndMethods(t *testing.T) {
	tests := []struct {
		name   ActionName
		verb   Verb
		method string
		member bool
	}{
		{ActionIndex, VerbGetting, http.MethodGet, false},
		{ActionShow, VerbGetting, http.MethodGet, true},
		{ActionCreate, VerbPosting, http.MethodPost, false},
		{ActionUpdate, VerbPutting, http.MethodPut, true},
		{ActionDestroy, VerbDeleting, http.MethodDelete, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			assert.True(t, tt.name.Valid())
			assert.Equal(t, tt.verb, tt.name.PendingVerb())
			assert.Equal(t, tt.method, tt.name.Method())
			assert.Equal(t, tt.member, tt.name.TargetsMember())
		})
	}

	assert.False(t, ActionName("PATCH").Valid())
	assert.Equal(t, Verb(""), ActionName("PATCH").PendingVerb())
}

func TestActionTypeWithPhase(t *testing.T) {
	start := ActionType{Name: ActionUpdate, Model: "Post"}
	ok := start.WithPhase(PhaseOK)

	assert.Equal(t, "@UPDATE(Post)", start.String())
	assert.Equal(t, "@OK_UPDATE(Post)", ok.String())
	assert.True(t, ok.Phase.IsCompletion())
	assert.False(t, start.Phase.IsCompletion())
}

func TestActionOptions(t *testing.T) {
	a := StartAction(ActionIndex, "Post", nil)
	assert.Equal(t, "@INDEX(Post)", a.Type)
	assert.False(t, a.InvalidatesCache())
	assert.Empty(t, a.ClientKey())

	a.Options = &Options{InvalidateCache: true, ClientKey: "abc"}
	assert.True(t, a.InvalidatesCache())
	assert.Equal(t, "abc", a.ClientKey())

	parsed, ok := NewAction(PhaseError, ActionCreate, "Post").ParsedType()
	require.True(t, ok)
	assert.Equal(t, PhaseError, parsed.Phase)
}
