package desktop

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayout []byte

// Layout is the catalogue of panels a desktop is built from.
type Layout struct {
	Windows []WindowConfig `yaml:"windows"`
}

// DefaultLayout returns the built-in panel catalogue.
func DefaultLayout() (*Layout, error) {
	return ParseLayout(defaultLayout)
}

// LoadLayout reads a layout file. An empty path selects the built-in one.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return DefaultLayout()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}

	layout, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return layout, nil
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	if len(layout.Windows) == 0 {
		return nil, ErrEmptyLayout
	}

	seen := make(map[WindowID]bool, len(layout.Windows))
	for i, cfg := range layout.Windows {
		if cfg.ID == "" {
			return nil, fmt.Errorf("windows[%d]: %w", i, ErrInvalidWindowID)
		}
		if seen[cfg.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWindow, cfg.ID)
		}
		seen[cfg.ID] = true

		if cfg.Title == "" {
			layout.Windows[i].Title = string(cfg.ID)
		}
		if cfg.Margins != nil && (cfg.Margins.MinVisibleWidth <= 0 || cfg.Margins.MinVisibleHeight <= 0) {
			return nil, fmt.Errorf("window %s: margins must be positive", cfg.ID)
		}
	}

	return &layout, nil
}
