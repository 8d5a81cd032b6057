package store

import (
	"sync"

	"workspace-cluster-manager/pkg/notify"
)

// Selection holds the single active cluster id
type Selection struct {
	mu        sync.RWMutex
	activeID  string
	listeners notify.Listeners
}

func NewSelection() *Selection {
	return &Selection{}
}

// Subscribe registers fn to be called when the active cluster changes
func (s *Selection) Subscribe(fn func()) func() {
	return s.listeners.Add(fn)
}

// ActiveID returns the active cluster id, if any
func (s *Selection) ActiveID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID, s.activeID != ""
}

func (s *Selection) IsActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return id != "" && s.activeID == id
}

// SetActive makes id the active cluster; an empty id clears the selection
func (s *Selection) SetActive(id string) {
	s.set(func(current string) (string, bool) {
		return id, current != id
	})
}

func (s *Selection) Clear() {
	s.SetActive("")
}

// CompareAndClear clears the selection only if id is the active cluster and
// reports whether it did.
func (s *Selection) CompareAndClear(id string) bool {
	cleared := false
	s.set(func(current string) (string, bool) {
		if id == "" || current != id {
			return current, false
		}
		cleared = true
		return "", true
	})
	return cleared
}

func (s *Selection) set(fn func(current string) (string, bool)) {
	s.mu.Lock()
	next, changed := fn(s.activeID)
	s.activeID = next
	s.mu.Unlock()

	if changed {
		s.listeners.Notify()
	}
}
