package templates

import (
	"bytes"
	"context"
	"testing"

	"workspace-cluster-manager/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, sidebar models.Sidebar) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, SidebarPage(sidebar).Render(context.Background(), &buf))
	return buf.String()
}

func TestSidebarPage(t *testing.T) {
	sidebar := models.Sidebar{
		Workspace: models.Workspace{ID: "W", Name: "Work"},
		Clusters: []models.SidebarCluster{
			{Cluster: models.Cluster{ID: "a", ContextName: "<prod>", Online: true}, Active: true},
			{Cluster: models.Cluster{ID: "b/c d", ContextName: "staging"}},
		},
		Extensions: []models.ExtensionIcon{{Title: "Metrics", URL: "/extension/metrics/overview", Icon: "bar_chart"}},
	}

	html := render(t, sidebar)

	assert.Contains(t, html, `<title>Work</title>`)
	assert.Contains(t, html, `data-active="true" data-online="true"`)
	assert.Contains(t, html, `data-active="false" data-online="false"`)
	assert.Contains(t, html, "&lt;prod&gt;")
	assert.NotContains(t, html, "<prod>")
	assert.Contains(t, html, `hx-post="/api/clusters/b%2Fc%20d/select"`)
	assert.Contains(t, html, `title="Add Cluster" disabled`)
	assert.Contains(t, html, `data-url="/extension/metrics/overview"`)
	assert.Contains(t, html, `hx-post="/api/extensions/metrics/overview"`)
	assert.NotContains(t, html, "Badge")
}

func TestSidebarNewContextsBadge(t *testing.T) {
	html := render(t, models.Sidebar{AddClusterEnabled: true, NewContexts: 3})

	assert.Contains(t, html, `hx-post="/api/sidebar/add-cluster"`)
	assert.Contains(t, html, `<span class="Badge counter" title="new">3</span>`)
}

func TestLoginPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, LoginPage().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `hx-post="/api/login"`)
	assert.Contains(t, buf.String(), `<title>Sign in</title>`)
}

func TestClusterURL(t *testing.T) {
	assert.Equal(t, "/api/clusters/a/select", clusterURL("a", "select"))
	assert.Equal(t, "/api/clusters/x%3Fy/menu", clusterURL("x?y", "menu"))
}
