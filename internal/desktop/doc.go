/*
Package desktop implements the window stacking and floating-window behavior
behind the portfolio desktop.

A Manager holds the stacking order: window ids back to front, each at most
once, the last one focused most recently. Windows never leave the order;
hiding a window only clears its visible flag, so it reappears in the same
slot. A window's z-index is derived on demand as BaseZ plus its position.

Every panel is a Window built from a WindowConfig in the Layout. Windows
handle their own visibility, drag, resize and maximize, and clamp geometry
instead of failing.

Example usage:

	layout, err := desktop.DefaultLayout()
	if err != nil {
		// handle error
	}
	d := desktop.New(layout)
	defer d.Close()

	win, _ := d.Window(desktop.AboutMe)
	win.Open()
	win.PointerDown(desktop.Point{X: 150, Y: 70}, desktop.RegionTitleBar, d.Viewport())
	win.PointerMove(desktop.Point{X: 300, Y: 200}, d.Viewport())
	win.PointerUp()
*/
package desktop
