package desktop

import "sync"

// BaseZ is the z-index of the back-most window, and of any window that has
// never been focused.
const BaseZ = 100

// WindowID identifies one panel on the desktop.
type WindowID string

const (
	AboutMe     WindowID = "about-me"
	Contact     WindowID = "contact"
	ProjectList WindowID = "project-list"
	Resume      WindowID = "resume"
	Experience  WindowID = "experience"
	MediaPlayer WindowID = "media-player"
	InfoPanel   WindowID = "info-panel"
)

// raise returns the order with id moved to the end. When id is already on
// top prev is returned as is and changed is false.
func raise(prev []WindowID, id WindowID) (next []WindowID, changed bool) {
	if n := len(prev); n > 0 && prev[n-1] == id {
		return prev, false
	}

	next = make([]WindowID, 0, len(prev)+1)
	for _, existing := range prev {
		if existing != id {
			next = append(next, existing)
		}
	}
	return append(next, id), true
}

func indexOf(order []WindowID, id WindowID) int {
	for i, existing := range order {
		if existing == id {
			return i
		}
	}
	return -1
}

// Manager owns the stacking order for one desktop. Every window reads its
// z-index from the manager and raises itself through BringToFront; nothing
// else touches the order.
type Manager struct {
	mu     sync.RWMutex
	order  []WindowID
	closed bool
}

// NewManager returns a manager with an empty order.
func NewManager() *Manager {
	return &Manager{order: make([]WindowID, 0, 8)}
}

// update replaces the order with fn(prev) under the write lock. Mutations
// are always expressed against the order they replace, never against a copy
// read earlier.
func (m *Manager) update(fn func(prev []WindowID) ([]WindowID, bool)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	next, changed := fn(m.order)
	if changed {
		m.order = next
	}
	return changed
}

// BringToFront moves id to the top of the order. It reports whether the
// order changed; raising the window that is already on top is a no-op.
func (m *Manager) BringToFront(id WindowID) bool {
	return m.update(func(prev []WindowID) ([]WindowID, bool) {
		return raise(prev, id)
	})
}

// ZIndexOf returns BaseZ plus the position of id in the order, or BaseZ if
// id has never been raised.
func (m *Manager) ZIndexOf(id WindowID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := indexOf(m.order, id); i >= 0 {
		return BaseZ + i
	}
	return BaseZ
}

// Top returns the most recently focused window.
func (m *Manager) Top() (WindowID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.order) == 0 {
		return "", false
	}
	return m.order[len(m.order)-1], true
}

// Order returns a copy of the order, back to front.
func (m *Manager) Order() []WindowID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]WindowID, len(m.order))
	copy(out, m.order)
	return out
}

// Close freezes the manager when its desktop is torn down. The order stays
// readable; further raises are ignored.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
