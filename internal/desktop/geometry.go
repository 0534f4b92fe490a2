package desktop

// Point is a position in viewport pixels.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a width and height in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Viewport is the visible browser area the desktop is laid out in.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultViewport is assumed until the browser reports its real size.
var DefaultViewport = Viewport{Width: 1024, Height: 768}

// MobileBreakpoint is the widest viewport treated as a phone. Dragging is
// disabled at or below it.
const MobileBreakpoint = 768

// IsMobile reports whether v is at or below the mobile breakpoint.
func (v Viewport) IsMobile() bool {
	return v.Width <= MobileBreakpoint
}

// Margins bound how far a window may be dragged off screen.
type Margins struct {
	MinVisibleWidth  int `json:"min_visible_width" yaml:"min_visible_width"`
	MinVisibleHeight int `json:"min_visible_height" yaml:"min_visible_height"`
}

// DefaultMargins keep 200px of a window horizontally and 150px vertically on
// screen.
var DefaultMargins = Margins{MinVisibleWidth: 200, MinVisibleHeight: 150}

// MinSize is the resize floor for resizable windows.
var MinSize = Size{Width: 400, Height: 300}

// statusBarHeight is left uncovered by maximized windows.
const statusBarHeight = 30

// ResizeHandle names the corner grabbed during a resize.
type ResizeHandle string

const (
	HandleNone      ResizeHandle = ""
	HandleSouthEast ResizeHandle = "se"
	HandleSouthWest ResizeHandle = "sw"
)

// Region is the part of a window a pointer went down on.
type Region string

const (
	RegionBody     Region = "body"
	RegionTitleBar Region = "titlebar"
	RegionResizeSE Region = "resize-se"
	RegionResizeSW Region = "resize-sw"
)

func (r Region) handle() ResizeHandle {
	switch r {
	case RegionResizeSE:
		return HandleSouthEast
	case RegionResizeSW:
		return HandleSouthWest
	default:
		return HandleNone
	}
}

func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	// lo wins when the range is empty so the title bar stays reachable on
	// viewports smaller than the margins.
	if v < lo {
		v = lo
	}
	return v
}

// clampPosition keeps at least m of a window of the given width on screen.
func clampPosition(p Point, width int, vp Viewport, m Margins) Point {
	return Point{
		X: clampInt(p.X, -width+m.MinVisibleWidth, vp.Width-m.MinVisibleWidth),
		Y: clampInt(p.Y, 0, vp.Height-m.MinVisibleHeight),
	}
}

// resizeSouthEast grows the window towards the pointer with the top-left
// corner fixed.
func resizeSouthEast(pos Point, pointer Point, vp Viewport) Size {
	w := max(MinSize.Width, pointer.X-pos.X)
	h := max(MinSize.Height, pointer.Y-pos.Y)
	return Size{
		Width:  max(MinSize.Width, min(w, vp.Width-pos.X)),
		Height: max(MinSize.Height, min(h, vp.Height-pos.Y)),
	}
}

// resizeSouthWest grows the window towards the pointer with the right edge
// fixed. The left edge never crosses x=0; when the floor cannot be met
// without crossing it only the height changes.
func resizeSouthWest(pos Point, size Size, pointer Point, vp Viewport) (Point, Size) {
	h := max(MinSize.Height, pointer.Y-pos.Y)
	h = max(MinSize.Height, min(h, vp.Height-pos.Y))

	right := pos.X + size.Width
	w := min(max(MinSize.Width, right-pointer.X), right)
	if w < MinSize.Width || w > vp.Width {
		return pos, Size{Width: size.Width, Height: h}
	}
	return Point{X: right - w, Y: pos.Y}, Size{Width: w, Height: h}
}
