package menu

import (
	"sync"

	"workspace-cluster-manager/pkg/models"

	"github.com/pkg/errors"
)

var (
	ErrNoOpenMenu = errors.New("no context menu is open")
	ErrNoSuchItem = errors.New("no such menu item")
)

// MenuItem is an entry of a context menu
type MenuItem struct {
	Label    string
	OnInvoke func()
}

// ContextMenu is the capability the controller builds menus with
type ContextMenu interface {
	Append(item MenuItem)
	Popup()
}

// PopupHolder keeps the single open context menu. Showing a menu dismisses
// the previous one.
type PopupHolder struct {
	mu   sync.Mutex
	open *Popup
}

// Popup is a context menu owned by a PopupHolder
type Popup struct {
	holder *PopupHolder
	items  []MenuItem
}

// NewMenu returns an empty menu that is shown through h
func (h *PopupHolder) NewMenu() *Popup {
	return &Popup{holder: h}
}

func (p *Popup) Append(item MenuItem) {
	p.items = append(p.items, item)
}

// Popup makes p the open menu
func (p *Popup) Popup() {
	p.holder.mu.Lock()
	defer p.holder.mu.Unlock()
	p.holder.open = p
}

// Items describes the open menu
func (h *PopupHolder) Items() ([]models.MenuItemView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		return nil, ErrNoOpenMenu
	}
	return describe(h.open), nil
}

// Invoke runs an item of the open menu and closes the menu
func (h *PopupHolder) Invoke(index int) error {
	h.mu.Lock()
	open := h.open
	if open == nil {
		h.mu.Unlock()
		return ErrNoOpenMenu
	}
	if index < 0 || index >= len(open.items) {
		h.mu.Unlock()
		return errors.Wrapf(ErrNoSuchItem, "index %d", index)
	}
	h.open = nil
	h.mu.Unlock()

	open.items[index].OnInvoke()
	return nil
}

// Dismiss closes the open menu without running anything
func (h *PopupHolder) Dismiss() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.open = nil
}

func describe(p *Popup) []models.MenuItemView {
	views := make([]models.MenuItemView, 0, len(p.items))
	for i, item := range p.items {
		views = append(views, models.MenuItemView{Index: i, Label: item.Label})
	}
	return views
}
