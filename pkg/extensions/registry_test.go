package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	metrics := PageTarget{ExtensionID: "metrics", PageID: "overview"}

	url := r.AddPage(metrics)
	assert.Equal(t, "/extension/metrics/overview", url)

	r.AddMenuItem(MenuItem{Title: "Metrics", Target: metrics, Icon: "bar_chart"})
	r.AddMenuItem(MenuItem{Title: "Missing", Target: PageTarget{ExtensionID: "ghost"}})

	t.Run("resolves registered target", func(t *testing.T) {
		page, ok := r.GetByPageTarget(metrics)
		require.True(t, ok)
		assert.Equal(t, url, page.URL)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, ok := r.GetByPageTarget(PageTarget{ExtensionID: "ghost"})
		assert.False(t, ok)
	})

	t.Run("menu items keep order", func(t *testing.T) {
		items := r.MenuItems()
		require.Len(t, items, 2)
		assert.Equal(t, "Metrics", items[0].Title)
		assert.Equal(t, "Missing", items[1].Title)
	})

}
