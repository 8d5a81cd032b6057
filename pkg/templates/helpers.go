// Package templates renders the HTML pages of the cluster manager.
package templates

import (
	"net/url"
	"strings"
)

// clusterURL is the API path of a command on one cluster
func clusterURL(clusterID, command string) string {
	return "/api/clusters/" + url.PathEscape(clusterID) + "/" + command
}

// extensionURL maps an extension page location onto the API call opening it
func extensionURL(location string) string {
	return "/api/extensions/" + strings.TrimPrefix(location, "/extension/")
}

// initials is the short label drawn inside a cluster icon
func initials(name string) string {
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}
