package desktop

import "sync"

// Desktop is the root of one visitor's desktop: the stacking manager, every
// panel built from the layout, and the viewport they are laid out in.
type Desktop struct {
	wm      *Manager
	windows map[WindowID]*Window
	ids     []WindowID

	mu       sync.RWMutex
	viewport Viewport
}

// New builds a desktop from layout and mounts every window.
func New(layout *Layout) *Desktop {
	d := &Desktop{
		wm:       NewManager(),
		windows:  make(map[WindowID]*Window, len(layout.Windows)),
		ids:      make([]WindowID, 0, len(layout.Windows)),
		viewport: DefaultViewport,
	}

	for _, cfg := range layout.Windows {
		d.windows[cfg.ID] = NewWindow(cfg, d.wm)
		d.ids = append(d.ids, cfg.ID)
	}
	for _, id := range d.ids {
		d.windows[id].Mount()
	}

	return d
}

// Manager returns the desktop's stacking manager.
func (d *Desktop) Manager() *Manager {
	return d.wm
}

// Window returns the panel with the given id.
func (d *Desktop) Window(id WindowID) (*Window, error) {
	win, ok := d.windows[id]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return win, nil
}

// Windows returns every panel in layout order.
func (d *Desktop) Windows() []*Window {
	out := make([]*Window, 0, len(d.ids))
	for _, id := range d.ids {
		out = append(out, d.windows[id])
	}
	return out
}

// SetViewport records the browser's size. Non-positive sizes are ignored.
func (d *Desktop) SetViewport(v Viewport) {
	if v.Width <= 0 || v.Height <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewport = v
}

// Viewport returns the last reported viewport.
func (d *Desktop) Viewport() Viewport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.viewport
}

// Boot runs once the loading screen has finished: the media player comes to
// the front and the welcome panel opens above it.
func (d *Desktop) Boot() {
	if _, ok := d.windows[MediaPlayer]; ok {
		d.wm.BringToFront(MediaPlayer)
	}
	if win, ok := d.windows[InfoPanel]; ok {
		win.Open()
	}
}

// Snapshot is the full render state of a desktop.
type Snapshot struct {
	Viewport Viewport         `json:"viewport"`
	Mobile   bool             `json:"mobile"`
	Order    []WindowID       `json:"order"`
	Windows  []WindowSnapshot `json:"windows"`
}

// Snapshot captures every window with its derived z-index.
func (d *Desktop) Snapshot() Snapshot {
	vp := d.Viewport()

	snap := Snapshot{
		Viewport: vp,
		Mobile:   vp.IsMobile(),
		Order:    d.wm.Order(),
		Windows:  make([]WindowSnapshot, 0, len(d.ids)),
	}
	for _, id := range d.ids {
		snap.Windows = append(snap.Windows, d.windows[id].Snapshot())
	}
	return snap
}

// Close tears the desktop down with its session.
func (d *Desktop) Close() {
	d.wm.Close()
}
