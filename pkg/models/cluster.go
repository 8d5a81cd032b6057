package models

import "time"

// Cluster represents a registered Kubernetes cluster connection
type Cluster struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	ContextName  string    `json:"context_name"`
	Kubeconfig   string    `json:"kubeconfig,omitempty"` // base64 encoded
	Enabled      bool      `json:"enabled"`
	Online       bool      `json:"online"`
	IsManaged    bool      `json:"is_managed"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// Public returns a copy of the cluster that is safe to send to clients
func (c Cluster) Public() Cluster {
	c.Kubeconfig = ""
	return c
}

// ClusterStatus represents the connection status of a cluster
type ClusterStatus struct {
	Connected     bool   `json:"connected"`
	ServerVersion string `json:"server_version,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Workspace groups clusters that are shown and ordered together
type Workspace struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	IsManaged bool   `json:"is_managed" yaml:"managed"`
}
