package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"workspace-cluster-manager/pkg/models"

	"github.com/pkg/errors"
)

// FileBackend stores clusters as JSON in the data directory
type FileBackend struct {
	dataDir string
}

// NewFileBackend creates a JSON file backend rooted at dataDir
func NewFileBackend(dataDir string) (*FileBackend, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	return &FileBackend{dataDir: dataDir}, nil
}

func (b *FileBackend) clustersFile() string {
	return filepath.Join(b.dataDir, "clusters.json")
}

// Load reads all clusters; a missing file means no clusters yet
func (b *FileBackend) Load() ([]models.Cluster, error) {
	data, err := os.ReadFile(b.clustersFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var clusters []models.Cluster
	if err := json.Unmarshal(data, &clusters); err != nil {
		return nil, errors.Wrap(err, "decoding clusters.json")
	}
	return clusters, nil
}

// Save replaces the stored clusters
func (b *FileBackend) Save(clusters []models.Cluster) error {
	data, err := json.MarshalIndent(clusters, "", "  ")
	if err != nil {
		return err
	}

	tmp := b.clustersFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, b.clustersFile())
}

func (b *FileBackend) Close() error {
	return nil
}
