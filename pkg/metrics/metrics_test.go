package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := New()
	r.CommandIssued("reorder")
	r.CommandIssued("reorder")
	r.CommandIssued("remove")
	r.VisibleClusters("default", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.commands.WithLabelValues("reorder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("remove")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.visible.WithLabelValues("default")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cluster_menu_commands_total")
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.CommandIssued("select")
		r.VisibleClusters("default", 1)
	})
}
