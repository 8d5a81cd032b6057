package k8s

import (
	"os"
	"sort"
	"sync"

	"workspace-cluster-manager/pkg/models"

	"go.uber.org/zap"
	"k8s.io/client-go/tools/clientcmd"
)

// ClusterLister lists the registered clusters
type ClusterLister interface {
	GetClusters() []models.Cluster
}

// ContextScanner finds contexts in local kubeconfig files that have not been
// registered as clusters.
type ContextScanner struct {
	mu       sync.Mutex
	paths    []string
	clusters ClusterLister
	seen     map[string]bool
	logger   *zap.Logger
}

// NewContextScanner creates a scanner over the given kubeconfig files
func NewContextScanner(paths []string, clusters ClusterLister, logger *zap.Logger) *ContextScanner {
	return &ContextScanner{
		paths:    paths,
		clusters: clusters,
		seen:     make(map[string]bool),
		logger:   logger,
	}
}

// NewContexts returns the sorted names of contexts that are neither
// registered nor marked as seen
func (s *ContextScanner) NewContexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unseen()
}

// MarkSeen stops reporting the contexts that are new right now
func (s *ContextScanner) MarkSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.unseen() {
		s.seen[name] = true
	}
}

func (s *ContextScanner) unseen() []string {
	registered := make(map[string]bool)
	for _, c := range s.clusters.GetClusters() {
		registered[c.ContextName] = true
	}

	found := make(map[string]bool)
	for _, path := range s.paths {
		cfg, err := clientcmd.LoadFromFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.logger.Debug("skipping kubeconfig", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		for name := range cfg.Contexts {
			if !registered[name] && !s.seen[name] {
				found[name] = true
			}
		}
	}

	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
