package models

import "time"

// Output formats understood by the reporters.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatHTML    = "html"
)

// Browser engines a session can be launched with.
const (
	EngineChrome = "chrome"
	EngineStatic = "static"
)

// CheckerSelection names which checkers run. A type present in both lists
// never runs.
type CheckerSelection struct {
	Enabled  []CheckerType `json:"enabled" yaml:"enabled" toml:"enabled"`
	Disabled []CheckerType `json:"disabled" yaml:"disabled" toml:"disabled"`
}

// Thresholds tune the configurable checkers.
type Thresholds struct {
	ContrastRatio float64 `json:"contrastRatio" yaml:"contrast_ratio" toml:"contrast_ratio"`
	HeadingJump   int     `json:"headingJump" yaml:"heading_jump" toml:"heading_jump"`
}

// OutputConfig controls the reporters.
type OutputConfig struct {
	Formats   []string `json:"formats" yaml:"formats" toml:"formats"`
	Directory string   `json:"directory" yaml:"directory" toml:"directory"`
	Verbose   bool     `json:"verbose" yaml:"verbose" toml:"verbose"`
}

// BrowserConfig controls the page session.
type BrowserConfig struct {
	Engine         string `json:"engine" yaml:"engine" toml:"engine"`
	Headless       bool   `json:"headless" yaml:"headless" toml:"headless"`
	ViewportWidth  int    `json:"viewportWidth" yaml:"viewport_width" toml:"viewport_width"`
	ViewportHeight int    `json:"viewportHeight" yaml:"viewport_height" toml:"viewport_height"`
	UserAgent      string `json:"userAgent,omitempty" yaml:"user_agent" toml:"user_agent"`
}

// HealthCheckConfig is the configuration of one run.
type HealthCheckConfig struct {
	WCAGLevel  WCAGLevel        `json:"wcagLevel" yaml:"wcag_level" toml:"wcag_level"`
	Checkers   CheckerSelection `json:"checkers" yaml:"checkers" toml:"checkers"`
	Thresholds Thresholds       `json:"thresholds" yaml:"thresholds" toml:"thresholds"`
	Output     OutputConfig     `json:"output" yaml:"output" toml:"output"`
	Browser    BrowserConfig    `json:"browser" yaml:"browser" toml:"browser"`

	// TimeoutMS is the per-operation page timeout in milliseconds.
	TimeoutMS  int `json:"timeout" yaml:"timeout" toml:"timeout"`
	Concurrent int `json:"concurrent" yaml:"concurrent" toml:"concurrent"`
}

// Timeout returns TimeoutMS as a duration.
func (c HealthCheckConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// IsEnabled reports whether checker t runs under c. Disabled wins over
// enabled; an empty enabled list means every checker.
func (c HealthCheckConfig) IsEnabled(t CheckerType) bool {
	for _, d := range c.Checkers.Disabled {
		if d == t {
			return false
		}
	}
	if len(c.Checkers.Enabled) == 0 {
		return true
	}
	for _, e := range c.Checkers.Enabled {
		if e == t {
			return true
		}
	}
	return false
}
