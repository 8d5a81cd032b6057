package extensions

import (
	"sync"

	"workspace-cluster-manager/pkg/navigation"
)

// PageTarget identifies a page registered by an extension
type PageTarget struct {
	ExtensionID string `json:"extension_id" yaml:"extension"`
	PageID      string `json:"page_id" yaml:"page"`
}

// Page is a page registered by an extension
type Page struct {
	Target PageTarget
	URL    string
}

// MenuItem is an icon an extension contributes to the cluster menu
type MenuItem struct {
	Title  string     `yaml:"title"`
	Target PageTarget `yaml:"target"`
	Icon   string     `yaml:"icon"`
}

// Registry holds extension pages and the menu items pointing at them
type Registry struct {
	mu    sync.RWMutex
	pages map[PageTarget]Page
	items []MenuItem
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		pages: make(map[PageTarget]Page),
	}
}

// AddPage registers a page and returns its URL
func (r *Registry) AddPage(target PageTarget) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	page := Page{
		Target: target,
		URL:    navigation.ExtensionPageURL(target.ExtensionID, target.PageID),
	}
	r.pages[target] = page
	return page.URL
}

// AddMenuItem appends an icon to the menu feed. The target does not need to be
// registered yet.
func (r *Registry) AddMenuItem(item MenuItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
}

// MenuItems returns the menu feed in registration order
func (r *Registry) MenuItems() []MenuItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]MenuItem, len(r.items))
	copy(result, r.items)
	return result
}

// GetByPageTarget resolves a target to its registered page
func (r *Registry) GetByPageTarget(target PageTarget) (Page, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, ok := r.pages[target]
	return page, ok
}
