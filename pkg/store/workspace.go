package store

import (
	"sync"

	"workspace-cluster-manager/pkg/models"
	"workspace-cluster-manager/pkg/notify"

	"github.com/pkg/errors"
)

// DefaultWorkspaceID is used when no workspaces are configured
const DefaultWorkspaceID = "default"

// WorkspaceStore tracks the known workspaces and the current one
type WorkspaceStore struct {
	mu         sync.RWMutex
	workspaces []models.Workspace
	current    string
	listeners  notify.Listeners
}

// NewWorkspaceStore creates a workspace store. An empty currentID selects the
// first workspace.
func NewWorkspaceStore(workspaces []models.Workspace, currentID string) (*WorkspaceStore, error) {
	if len(workspaces) == 0 {
		workspaces = []models.Workspace{{ID: DefaultWorkspaceID, Name: DefaultWorkspaceID}}
	}
	ws := &WorkspaceStore{
		workspaces: append([]models.Workspace(nil), workspaces...),
		current:    workspaces[0].ID,
	}
	if currentID != "" {
		if _, ok := ws.Get(currentID); !ok {
			return nil, errors.Wrapf(ErrUnknownWorkspace, "workspace %q", currentID)
		}
		ws.current = currentID
	}
	return ws, nil
}

// Subscribe registers fn to be called when the current workspace changes
func (w *WorkspaceStore) Subscribe(fn func()) func() {
	return w.listeners.Add(fn)
}

// Workspaces returns all workspaces
func (w *WorkspaceStore) Workspaces() []models.Workspace {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]models.Workspace, len(w.workspaces))
	copy(result, w.workspaces)
	return result
}

func (w *WorkspaceStore) Get(id string) (models.Workspace, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ws := range w.workspaces {
		if ws.ID == id {
			return ws, true
		}
	}
	return models.Workspace{}, false
}

// Current returns the currently selected workspace
func (w *WorkspaceStore) Current() models.Workspace {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ws := range w.workspaces {
		if ws.ID == w.current {
			return ws
		}
	}
	return models.Workspace{ID: w.current}
}

// SetCurrent switches the current workspace
func (w *WorkspaceStore) SetCurrent(id string) error {
	if _, ok := w.Get(id); !ok {
		return errors.Wrapf(ErrUnknownWorkspace, "workspace %q", id)
	}

	w.mu.Lock()
	changed := w.current != id
	w.current = id
	w.mu.Unlock()

	if changed {
		w.listeners.Notify()
	}
	return nil
}
