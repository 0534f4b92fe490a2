package desktop

import "errors"

// ErrWindowNotFound is returned when an id names no panel on the desktop.
var ErrWindowNotFound = errors.New("window not found")

// ErrEmptyLayout is returned when a layout declares no windows.
var ErrEmptyLayout = errors.New("layout has no windows")

// ErrDuplicateWindow is returned when a layout declares the same id twice.
var ErrDuplicateWindow = errors.New("duplicate window id")

// ErrInvalidWindowID is returned when a layout entry has no id.
var ErrInvalidWindowID = errors.New("invalid window ID")
