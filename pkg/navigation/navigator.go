package navigation

import (
	"sync"

	"workspace-cluster-manager/pkg/notify"

	"go.uber.org/zap"
)

const maxHistory = 50

// ClusterViewHook is run when the navigator enters a cluster detail view
type ClusterViewHook func(clusterID string)

// Navigator keeps track of the current view location
type Navigator struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	location string
	history  []string
	hooks    []ClusterViewHook
	changes  notify.Listeners
}

// New creates a navigator positioned at the landing view
func New(logger *zap.Logger) *Navigator {
	return &Navigator{
		logger:   logger,
		location: LandingURL(),
	}
}

// OnClusterView registers a hook for cluster detail navigation
func (n *Navigator) OnClusterView(hook ClusterViewHook) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, hook)
}

// Subscribe registers fn to be called after every navigation
func (n *Navigator) Subscribe(fn func()) func() {
	return n.changes.Add(fn)
}

// Navigate moves to location
func (n *Navigator) Navigate(location string) {
	n.mu.Lock()
	n.history = append(n.history, n.location)
	if len(n.history) > maxHistory {
		n.history = n.history[len(n.history)-maxHistory:]
	}
	n.location = location
	hooks := append([]ClusterViewHook(nil), n.hooks...)
	n.mu.Unlock()

	n.logger.Debug("navigate", zap.String("location", location))

	if clusterID, ok := ParseClusterView(location); ok {
		for _, hook := range hooks {
			hook(clusterID)
		}
	}
	n.changes.Notify()
}

// Location returns the current location
func (n *Navigator) Location() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.location
}

// IsActiveRoute reports whether location is the current one
func (n *Navigator) IsActiveRoute(location string) bool {
	return n.Location() == location
}

// History returns the previously visited locations, oldest first
func (n *Navigator) History() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]string(nil), n.history...)
}
