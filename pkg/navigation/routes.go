package navigation

import (
	"net/url"
	"strings"
)

const (
	LandingPath    = "/landing"
	AddClusterPath = "/add-cluster"
	clusterPrefix  = "/cluster/"
	extensionRoot  = "/extension/"
	settingsSuffix = "/settings"
)

// LandingURL is the view shown when no cluster is active
func LandingURL() string {
	return LandingPath
}

// AddClusterURL is the cluster-creation flow
func AddClusterURL() string {
	return AddClusterPath
}

// ClusterViewURL is the detail view of a cluster
func ClusterViewURL(clusterID string) string {
	return clusterPrefix + url.PathEscape(clusterID)
}

// ClusterSettingsURL is the settings view of a cluster
func ClusterSettingsURL(clusterID string) string {
	return ClusterViewURL(clusterID) + settingsSuffix
}

// ExtensionPageURL is the location of a page registered by an extension
func ExtensionPageURL(extensionID, pageID string) string {
	u := extensionRoot + url.PathEscape(extensionID)
	if pageID != "" {
		u += "/" + url.PathEscape(pageID)
	}
	return u
}

// ParseClusterView returns the cluster id when location is a cluster detail view
func ParseClusterView(location string) (string, bool) {
	rest, ok := strings.CutPrefix(location, clusterPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return id, true
}
