package desktop

import "sync"

// WindowConfig describes one panel: its identity, initial geometry and which
// interactions it supports. The panel's content is rendered separately and
// keyed by ID.
type WindowConfig struct {
	ID          WindowID `yaml:"id"`
	Title       string   `yaml:"title"`
	Position    Point    `yaml:"position"`
	Size        Size     `yaml:"size"` // Height 0 means the content decides
	Resizable   bool     `yaml:"resizable"`
	Maximizable bool     `yaml:"maximizable"`
	Visible     bool     `yaml:"visible"`
	Margins     *Margins `yaml:"margins,omitempty"`
}

type dragState struct {
	active bool
	offset Point
}

type resizeState struct {
	active bool
	handle ResizeHandle
}

type geometry struct {
	pos  Point
	size Size
}

// Window is the behavior shared by every floating panel: visibility, drag,
// resize and maximize. Stacking is delegated to the Manager.
type Window struct {
	cfg     WindowConfig
	wm      *Manager
	margins Margins

	mu        sync.Mutex
	visible   bool
	pos       Point
	size      Size
	drag      dragState
	resize    resizeState
	maximized bool
	restore   geometry

	mountOnce sync.Once
}

// NewWindow builds a window from cfg that stacks through wm.
func NewWindow(cfg WindowConfig, wm *Manager) *Window {
	margins := DefaultMargins
	if cfg.Margins != nil {
		margins = *cfg.Margins
	}

	size := cfg.Size
	if cfg.Resizable {
		size.Width = max(size.Width, MinSize.Width)
		size.Height = max(size.Height, MinSize.Height)
	}

	return &Window{
		cfg:     cfg,
		wm:      wm,
		margins: margins,
		visible: cfg.Visible,
		pos:     cfg.Position,
		size:    size,
	}
}

// ID returns the window's identifier.
func (w *Window) ID() WindowID { return w.cfg.ID }

// Title returns the title bar text.
func (w *Window) Title() string { return w.cfg.Title }

// Visible reports whether the window is shown.
func (w *Window) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// mounted runs once the window is known to be shown. The raise carries the
// window's own id and is the last stack mutation of an open.
func (w *Window) mounted() {
	w.wm.BringToFront(w.cfg.ID)
}

// Mount signals that the window has been placed on the desktop for the
// first time. A window that starts visible is raised exactly once; later
// calls do nothing.
func (w *Window) Mount() {
	w.mountOnce.Do(func() {
		if w.Visible() {
			w.mounted()
		}
	})
}

// Open shows the window and raises it. It reports whether the window was
// hidden, which is when its content should be fetched again.
func (w *Window) Open() bool {
	w.mu.Lock()
	wasHidden := !w.visible
	w.visible = true
	w.mu.Unlock()

	w.mounted()
	return wasHidden
}

// Hide takes the window off the desktop. Its stack slot and geometry are
// kept for the next Open.
func (w *Window) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.visible = false
	w.drag = dragState{}
	w.resize = resizeState{}
}

// Minimize is Hide; there is no separate minimized state.
func (w *Window) Minimize() { w.Hide() }

// Close is Hide.
func (w *Window) Close() { w.Hide() }

// PointerDown handles a pointer going down anywhere on a visible window.
// The window is raised; a drag starts only from the title bar and a resize
// only from a corner handle of a resizable window. Hidden windows ignore it.
func (w *Window) PointerDown(p Point, region Region, vp Viewport) {
	if !w.grab(p, region, vp) {
		return
	}
	w.wm.BringToFront(w.cfg.ID)
}

// grab starts a drag or resize for the pointer and reports whether the
// window is visible.
func (w *Window) grab(p Point, region Region, vp Viewport) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.visible {
		return false
	}
	if w.maximized {
		return true
	}

	switch {
	case region == RegionTitleBar:
		if !vp.IsMobile() {
			w.drag = dragState{active: true, offset: p.Sub(w.pos)}
		}
	case region.handle() != HandleNone:
		if w.cfg.Resizable {
			w.resize = resizeState{active: true, handle: region.handle()}
		}
	}
	return true
}

// PointerMove applies a pointer movement to an active drag or resize. It
// reports whether the geometry changed.
func (w *Window) PointerMove(p Point, vp Viewport) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	before := geometry{pos: w.pos, size: w.size}

	switch {
	case w.drag.active:
		w.pos = clampPosition(p.Sub(w.drag.offset), w.size.Width, vp, w.margins)
	case w.resize.active && w.resize.handle == HandleSouthEast:
		w.size = resizeSouthEast(w.pos, p, vp)
	case w.resize.active && w.resize.handle == HandleSouthWest:
		w.pos, w.size = resizeSouthWest(w.pos, w.size, p, vp)
	default:
		return false
	}

	return before != geometry{pos: w.pos, size: w.size}
}

// PointerUp ends any drag or resize. The geometry stays where it is.
func (w *Window) PointerUp() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.drag = dragState{}
	w.resize = resizeState{}
}

// ToggleMaximize fills the viewport above the status bar, or restores the
// geometry saved when the window was maximized. Windows that cannot be
// maximized ignore it.
func (w *Window) ToggleMaximize(vp Viewport) bool {
	if !w.cfg.Maximizable {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.drag = dragState{}
	w.resize = resizeState{}

	if w.maximized {
		w.pos, w.size = w.restore.pos, w.restore.size
		w.maximized = false
		return true
	}

	w.restore = geometry{pos: w.pos, size: w.size}
	w.pos = Point{}
	w.size = Size{
		Width:  max(vp.Width, MinSize.Width),
		Height: max(vp.Height-statusBarHeight, MinSize.Height),
	}
	w.maximized = true
	return true
}

// WindowSnapshot is the render state of one window.
type WindowSnapshot struct {
	ID          WindowID `json:"id"`
	Title       string   `json:"title"`
	Visible     bool     `json:"visible"`
	Position    Point    `json:"position"`
	Size        Size     `json:"size"`
	ZIndex      int      `json:"z_index"`
	Resizable   bool     `json:"resizable"`
	Maximizable bool     `json:"maximizable"`
	Maximized   bool     `json:"maximized"`
	Dragging    bool     `json:"dragging"`
	Resizing    bool     `json:"resizing"`
}

// Snapshot returns the window's current render state with its z-index
// derived from the manager.
func (w *Window) Snapshot() WindowSnapshot {
	z := w.wm.ZIndexOf(w.cfg.ID)

	w.mu.Lock()
	defer w.mu.Unlock()

	return WindowSnapshot{
		ID:          w.cfg.ID,
		Title:       w.cfg.Title,
		Visible:     w.visible,
		Position:    w.pos,
		Size:        w.size,
		ZIndex:      z,
		Resizable:   w.cfg.Resizable,
		Maximizable: w.cfg.Maximizable,
		Maximized:   w.maximized,
		Dragging:    w.drag.active,
		Resizing:    w.resize.active,
	}
}
