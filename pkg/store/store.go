package store

import (
	"sort"
	"sync"
	"time"

	"workspace-cluster-manager/pkg/models"
	"workspace-cluster-manager/pkg/notify"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound         = errors.New("cluster not found")
	ErrAlreadyExists    = errors.New("cluster already exists")
	ErrInvalidIndex     = errors.New("icon order index out of range")
	ErrUnknownWorkspace = errors.New("unknown workspace")

	errUnchanged = errors.New("unchanged")
)

// Backend persists cluster records
type Backend interface {
	Load() ([]models.Cluster, error)
	Save(clusters []models.Cluster) error
	Close() error
}

// Store holds all known clusters and keeps their per-workspace display
// order dense. Every committed mutation is persisted through the backend
// before subscribers are notified.
type Store struct {
	backend   Backend
	mu        sync.RWMutex
	clusters  []models.Cluster
	listeners notify.Listeners
}

// New creates a new Store instance and loads existing records
func New(backend Backend) (*Store, error) {
	s := &Store{
		backend:  backend,
		clusters: make([]models.Cluster, 0),
	}

	clusters, err := backend.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading clusters")
	}
	for _, c := range clusters {
		// connections do not survive a restart
		c.Online = false
		s.clusters = append(s.clusters, c)
	}
	for _, ws := range workspaceIDs(s.clusters) {
		renumber(s.clusters, ws)
	}

	return s, nil
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

// Subscribe registers fn to be called after every committed mutation.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	return s.listeners.Add(fn)
}

// GetClusters returns all clusters
func (s *Store) GetClusters() []models.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Cluster, len(s.clusters))
	copy(result, s.clusters)
	return result
}

// GetCluster returns a cluster by ID
func (s *Store) GetCluster(id string) (*models.Cluster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clusters {
		if c.ID == id {
			return &c, true
		}
	}
	return nil, false
}

// GetByWorkspaceID returns the clusters of a workspace ordered by display order
func (s *Store) GetByWorkspaceID(workspaceID string) []models.Cluster {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := workspaceIndices(s.clusters, workspaceID)
	result := make([]models.Cluster, 0, len(idx))
	for _, i := range idx {
		result = append(result, s.clusters[i])
	}
	return result
}

// AddCluster adds a new cluster at the end of its workspace's order
func (s *Store) AddCluster(cluster models.Cluster) (models.Cluster, error) {
	err := s.mutate(func(clusters []models.Cluster) ([]models.Cluster, error) {
		if cluster.ID == "" {
			cluster.ID = uuid.New().String()
		}
		if indexOf(clusters, cluster.ID) >= 0 {
			return nil, errors.Wrapf(ErrAlreadyExists, "cluster %s", cluster.ID)
		}
		if cluster.CreatedAt.IsZero() {
			cluster.CreatedAt = time.Now()
		}
		cluster.DisplayOrder = len(workspaceIndices(clusters, cluster.WorkspaceID))
		return append(clusters, cluster), nil
	})
	return cluster, err
}

// RemoveByID deletes a cluster and closes the gap it leaves in the order
func (s *Store) RemoveByID(id string) error {
	return s.mutate(func(clusters []models.Cluster) ([]models.Cluster, error) {
		i := indexOf(clusters, id)
		if i < 0 {
			return nil, errors.Wrapf(ErrNotFound, "cluster %s", id)
		}
		ws := clusters[i].WorkspaceID
		clusters = append(clusters[:i], clusters[i+1:]...)
		renumber(clusters, ws)
		return clusters, nil
	})
}

// MoveIconOrder moves cluster movedID into the slot held by targetID within
// the workspace's ordering and renumbers the whole workspace. Both positions
// are resolved under the same lock as the move.
func (s *Store) MoveIconOrder(workspaceID, movedID, targetID string) error {
	return s.mutate(func(clusters []models.Cluster) ([]models.Cluster, error) {
		idx := workspaceIndices(clusters, workspaceID)
		from := positionIn(clusters, idx, movedID)
		to := positionIn(clusters, idx, targetID)
		if from < 0 || to < 0 {
			return nil, errors.Wrapf(ErrNotFound, "move %s -> %s in workspace %s", movedID, targetID, workspaceID)
		}
		if from == to {
			return nil, errUnchanged
		}

		moved := idx[from]
		idx = append(idx[:from], idx[from+1:]...)
		idx = append(idx[:to], append([]int{moved}, idx[to:]...)...)
		for order, i := range idx {
			clusters[i].DisplayOrder = order
		}
		return clusters, nil
	})
}

// SetOnline records the live connection state of a cluster
func (s *Store) SetOnline(id string, online bool) error {
	return s.update(id, func(c *models.Cluster) bool {
		if c.Online == online {
			return false
		}
		c.Online = online
		return true
	})
}

// SetEnabled shows or hides a cluster in the menu
func (s *Store) SetEnabled(id string, enabled bool) error {
	return s.update(id, func(c *models.Cluster) bool {
		if c.Enabled == enabled {
			return false
		}
		c.Enabled = enabled
		return true
	})
}

func (s *Store) update(id string, fn func(c *models.Cluster) bool) error {
	return s.mutate(func(clusters []models.Cluster) ([]models.Cluster, error) {
		i := indexOf(clusters, id)
		if i < 0 {
			return nil, errors.Wrapf(ErrNotFound, "cluster %s", id)
		}
		if !fn(&clusters[i]) {
			return nil, errUnchanged
		}
		return clusters, nil
	})
}

// mutate applies fn to a copy of the records, persists the result and only
// then commits it.
func (s *Store) mutate(fn func(clusters []models.Cluster) ([]models.Cluster, error)) error {
	s.mu.Lock()
	next := make([]models.Cluster, len(s.clusters))
	copy(next, s.clusters)

	next, err := fn(next)
	if err == errUnchanged {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.backend.Save(next); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "saving clusters")
	}
	s.clusters = next
	s.mu.Unlock()

	s.listeners.Notify()
	return nil
}

func indexOf(clusters []models.Cluster, id string) int {
	for i, c := range clusters {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// positionIn returns the position of id among the record indices idx
func positionIn(clusters []models.Cluster, idx []int, id string) int {
	for pos, i := range idx {
		if clusters[i].ID == id {
			return pos
		}
	}
	return -1
}

// workspaceIndices returns the positions of a workspace's clusters in
// ascending display order.
func workspaceIndices(clusters []models.Cluster, workspaceID string) []int {
	idx := make([]int, 0)
	for i, c := range clusters {
		if c.WorkspaceID == workspaceID {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return clusters[idx[a]].DisplayOrder < clusters[idx[b]].DisplayOrder
	})
	return idx
}

func workspaceIDs(clusters []models.Cluster) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range clusters {
		if !seen[c.WorkspaceID] {
			seen[c.WorkspaceID] = true
			ids = append(ids, c.WorkspaceID)
		}
	}
	return ids
}

func renumber(clusters []models.Cluster, workspaceID string) {
	for order, i := range workspaceIndices(clusters, workspaceID) {
		clusters[i].DisplayOrder = order
	}
}
