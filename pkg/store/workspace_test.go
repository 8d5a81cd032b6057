package store

import (
	"testing"

	"workspace-cluster-manager/pkg/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceStore(t *testing.T) {
	t.Run("default workspace", func(t *testing.T) {
		ws, err := NewWorkspaceStore(nil, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultWorkspaceID, ws.Current().ID)
	})

	t.Run("unknown current", func(t *testing.T) {
		_, err := NewWorkspaceStore([]models.Workspace{{ID: "a"}}, "b")
		assert.True(t, errors.Is(err, ErrUnknownWorkspace))
	})

	t.Run("switch workspace", func(t *testing.T) {
		ws, err := NewWorkspaceStore([]models.Workspace{{ID: "a"}, {ID: "b", IsManaged: true}}, "")
		require.NoError(t, err)
		assert.Equal(t, "a", ws.Current().ID)

		calls := 0
		ws.Subscribe(func() { calls++ })

		require.NoError(t, ws.SetCurrent("b"))
		assert.True(t, ws.Current().IsManaged)
		require.NoError(t, ws.SetCurrent("b"))
		assert.Equal(t, 1, calls)

		assert.True(t, errors.Is(ws.SetCurrent("c"), ErrUnknownWorkspace))
		assert.Equal(t, "b", ws.Current().ID)
		assert.Len(t, ws.Workspaces(), 2)
	})
}

func TestSelection(t *testing.T) {
	s := NewSelection()
	_, ok := s.ActiveID()
	assert.False(t, ok)

	calls := 0
	s.Subscribe(func() { calls++ })

	s.SetActive("a")
	assert.True(t, s.IsActive("a"))
	assert.False(t, s.IsActive(""))

	assert.False(t, s.CompareAndClear("b"))
	assert.True(t, s.IsActive("a"))

	assert.True(t, s.CompareAndClear("a"))
	_, ok = s.ActiveID()
	assert.False(t, ok)
	assert.False(t, s.CompareAndClear("a"))

	s.SetActive("b")
	s.Clear()
	assert.Equal(t, 4, calls)
}
