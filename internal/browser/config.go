package browser

import "time"

// Config holds browser configuration.
type Config struct {
	Bin                 string   `yaml:"bin" json:"bin,omitempty"`
	Flags               []string `yaml:"flags" json:"flags,omitempty"`
	Headless            bool     `yaml:"headless" json:"headless"`
	Proxy               string   `yaml:"proxy" json:"proxy,omitempty"`
	UserDataDir         string   `yaml:"user_data_dir" json:"user_data_dir,omitempty"`
	ViewportWidth       int      `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms" json:"navigation_timeout_ms"`
	ElementTimeoutMs    int      `yaml:"element_timeout_ms" json:"element_timeout_ms"`
}

// DefaultConfig returns sensible defaults. The browser is visible by default,
// matching how the account is normally operated by hand.
func DefaultConfig() Config {
	return Config{
		Headless:            false,
		ViewportWidth:       1920,
		ViewportHeight:      1080,
		NavigationTimeoutMs: 30000,
		ElementTimeoutMs:    10000,
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs == 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// ElementTimeout bounds how long a single element lookup waits.
func (c Config) ElementTimeout() time.Duration {
	if c.ElementTimeoutMs == 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ElementTimeoutMs) * time.Millisecond
}
