package internal

import (
	"testing"

	"github.com/lychee-technology/activestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRootReducer() *RootReducer {
	return NewRootReducer(map[string]activestore.Reducer{
		"Post":        NewCollectionReducer("Post", "id", postFields),
		"CurrentUser": NewSingletonReducer("CurrentUser"),
	})
}

func TestRootReducerInit(t *testing.T) {
	root := newTestRootReducer()

	preloaded := &activestore.Record{Attributes: map[string]any{"name": "Ann"}}
	tree := root.Init(activestore.StateTree{"CurrentUser": preloaded, "Unknown": preloaded})

	require.Len(t, tree, 2)
	assert.Same(t, preloaded, tree["CurrentUser"])
	_, ok := tree.Collection("Post")
	assert.True(t, ok)
}

func TestRootReducerReducesOnlyTheNamedModel(t *testing.T) {
	root := newTestRootReducer()
	tree := root.Init(nil)

	next := root.Reduce(tree, activestore.StartAction(activestore.ActionShow, "CurrentUser", nil))
	assert.NotSame(t, tree["CurrentUser"], next["CurrentUser"])
	assert.Same(t, tree["Post"], next["Post"])

	user, ok := next.Singleton("CurrentUser")
	require.True(t, ok)
	assert.Equal(t, activestore.PendingStatus(activestore.VerbGetting), user.Request.Status)

	_, ok = tree.Singleton("CurrentUser")
	assert.True(t, ok)
	assert.True(t, tree["CurrentUser"].(*activestore.Record).Request.Status.IsNone())
}

func TestRootReducerReturnsSameTreeForNoOps(t *testing.T) {
	root := newTestRootReducer()
	tree := root.Init(nil)

	next := root.Reduce(tree, activestore.Action{Type: "@SHOW(Comment)"})
	assert.Equal(t, len(tree), len(next))
	assert.True(t, sameTree(tree, next))
}
