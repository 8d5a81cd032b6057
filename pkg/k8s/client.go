package k8s

import (
	"context"
	"encoding/base64"
	"sync"

	"workspace-cluster-manager/pkg/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// ClientFactory builds a client from raw kubeconfig bytes
type ClientFactory func(kubeconfig []byte) (kubernetes.Interface, error)

// StatusRecorder receives the online state of clusters
type StatusRecorder interface {
	SetOnline(id string, online bool) error
}

// Manager manages Kubernetes client connections for multiple clusters
type Manager struct {
	mu        sync.RWMutex
	clients   map[string]kubernetes.Interface
	newClient ClientFactory
	status    StatusRecorder
	logger    *zap.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithClientFactory replaces the kubeconfig based client constructor
func WithClientFactory(f ClientFactory) Option {
	return func(m *Manager) {
		m.newClient = f
	}
}

// NewManager creates a new K8s client manager
func NewManager(status StatusRecorder, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		clients:   make(map[string]kubernetes.Interface),
		newClient: newClientset,
		status:    status,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetClient returns a K8s client for the specified cluster
func (m *Manager) GetClient(cluster *models.Cluster) (kubernetes.Interface, error) {
	m.mu.RLock()
	client, exists := m.clients[cluster.ID]
	m.mu.RUnlock()

	if exists {
		return client, nil
	}

	kubeconfig, err := DecodeKubeconfig(cluster.Kubeconfig)
	if err != nil {
		return nil, err
	}
	client, err = m.newClient(kubeconfig)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.clients[cluster.ID] = client
	m.mu.Unlock()

	return client, nil
}

// RemoveClient removes a cached client for the specified cluster
func (m *Manager) RemoveClient(clusterID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clusterID)
}

// Connect probes the cluster's API server and marks the cluster online
func (m *Manager) Connect(ctx context.Context, cluster *models.Cluster) (models.ClusterStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.ClusterStatus{}, err
	}

	client, err := m.GetClient(cluster)
	if err != nil {
		m.markOnline(cluster.ID, false)
		return models.ClusterStatus{Error: err.Error()}, err
	}

	info, err := client.Discovery().ServerVersion()
	if err != nil {
		m.RemoveClient(cluster.ID)
		m.markOnline(cluster.ID, false)
		err = errors.Wrap(err, "failed to connect to cluster")
		return models.ClusterStatus{Error: err.Error()}, err
	}

	m.markOnline(cluster.ID, true)
	m.logger.Info("cluster connected",
		zap.String("cluster_id", cluster.ID),
		zap.String("server_version", info.GitVersion))

	return models.ClusterStatus{Connected: true, ServerVersion: info.GitVersion}, nil
}

// Disconnect drops the cluster's client and marks it offline
func (m *Manager) Disconnect(ctx context.Context, clusterID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.RemoveClient(clusterID)
	if err := m.status.SetOnline(clusterID, false); err != nil {
		return errors.Wrapf(err, "marking cluster %s offline", clusterID)
	}
	m.logger.Info("cluster disconnected", zap.String("cluster_id", clusterID))
	return nil
}

func (m *Manager) markOnline(clusterID string, online bool) {
	if err := m.status.SetOnline(clusterID, online); err != nil {
		m.logger.Warn("could not record cluster status",
			zap.String("cluster_id", clusterID), zap.Bool("online", online), zap.Error(err))
	}
}

// DecodeKubeconfig decodes a base64 encoded kubeconfig
func DecodeKubeconfig(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode kubeconfig")
	}
	return data, nil
}

// ContextName returns the current context of a kubeconfig
func ContextName(kubeconfig []byte) (string, error) {
	cfg, err := clientcmd.Load(kubeconfig)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse kubeconfig")
	}
	if cfg.CurrentContext == "" {
		return "", errors.New("kubeconfig has no current context")
	}
	if _, ok := cfg.Contexts[cfg.CurrentContext]; !ok {
		return "", errors.Errorf("current context %q is not defined", cfg.CurrentContext)
	}
	return cfg.CurrentContext, nil
}

// newClientset creates a new Kubernetes client from kubeconfig
func newClientset(kubeconfig []byte) (kubernetes.Interface, error) {
	config, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build kubeconfig")
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kubernetes client")
	}

	return clientset, nil
}
