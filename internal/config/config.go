package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"a11y-checker/internal/models"
)

// DefaultFileNames are looked up, in order, when no config path is given.
var DefaultFileNames = []string{".a11yrc.json", ".a11yrc.yaml", ".a11yrc.yml", ".a11yrc.toml"}

// Default returns the configuration used when neither file nor flags say
// otherwise.
func Default() models.HealthCheckConfig {
	return models.HealthCheckConfig{
		WCAGLevel: models.LevelAA,
		Checkers: models.CheckerSelection{
			Enabled:  append([]models.CheckerType(nil), models.CheckerTypes...),
			Disabled: []models.CheckerType{},
		},
		Thresholds: models.Thresholds{
			ContrastRatio: 4.5,
			HeadingJump:   1,
		},
		Output: models.OutputConfig{
			Formats:   []string{models.FormatConsole},
			Directory: "./a11y-reports",
		},
		Browser: models.BrowserConfig{
			Engine:         models.EngineChrome,
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 720,
		},
		TimeoutMS:  30000,
		Concurrent: 3,
	}
}

// Load reads the config file at path on top of the defaults. The decoder is
// chosen by extension. Keys absent from the file keep their default value.
func Load(path string) (models.HealthCheckConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config file extension %q (want .json, .yaml, .yml or .toml)", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromDir loads the first default config file found in dir. With no
// such file it returns the defaults and an empty path.
func LoadFromDir(dir string) (models.HealthCheckConfig, string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return Default(), "", nil
}

// Overrides carries the CLI flags the user actually set. Nil fields are
// left alone.
type Overrides struct {
	WCAGLevel      *string
	Formats        []string
	OutputDir      *string
	Verbose        *bool
	Concurrent     *int
	TimeoutMS      *int
	Engine         *string
	Headless       *bool
	Viewport       *string
	UserAgent      *string
	ContrastRatio  *float64
	HeadingJump    *int
	EnableCheckers []string
	SkipCheckers   []string
}

// MergeFlags applies o on top of cfg. Flags take precedence over the file.
func MergeFlags(cfg *models.HealthCheckConfig, o Overrides) error {
	if o.WCAGLevel != nil {
		cfg.WCAGLevel = models.WCAGLevel(strings.ToUpper(*o.WCAGLevel))
	}
	if o.Formats != nil {
		cfg.Output.Formats = o.Formats
	}
	if o.OutputDir != nil {
		cfg.Output.Directory = *o.OutputDir
	}
	if o.Verbose != nil {
		cfg.Output.Verbose = *o.Verbose
	}
	if o.Concurrent != nil {
		cfg.Concurrent = *o.Concurrent
	}
	if o.TimeoutMS != nil {
		cfg.TimeoutMS = *o.TimeoutMS
	}
	if o.Engine != nil {
		cfg.Browser.Engine = *o.Engine
	}
	if o.Headless != nil {
		cfg.Browser.Headless = *o.Headless
	}
	if o.Viewport != nil {
		w, h, err := ParseViewport(*o.Viewport)
		if err != nil {
			return err
		}
		cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight = w, h
	}
	if o.UserAgent != nil {
		cfg.Browser.UserAgent = *o.UserAgent
	}
	if o.ContrastRatio != nil {
		cfg.Thresholds.ContrastRatio = *o.ContrastRatio
	}
	if o.HeadingJump != nil {
		cfg.Thresholds.HeadingJump = *o.HeadingJump
	}
	if o.EnableCheckers != nil {
		cfg.Checkers.Enabled = checkerTypes(o.EnableCheckers)
	}
	if o.SkipCheckers != nil {
		cfg.Checkers.Disabled = checkerTypes(o.SkipCheckers)
	}
	return nil
}

// ParseViewport parses "WIDTHxHEIGHT".
func ParseViewport(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, &ValidationError{Field: "viewport", Message: fmt.Sprintf("want WIDTHxHEIGHT, got %q", s)}
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, &ValidationError{Field: "viewport", Message: fmt.Sprintf("invalid width %q", w)}
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, &ValidationError{Field: "viewport", Message: fmt.Sprintf("invalid height %q", h)}
	}
	return width, height, nil
}

func checkerTypes(names []string) []models.CheckerType {
	out := make([]models.CheckerType, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, models.CheckerType(n))
		}
	}
	return out
}

// ValidationError is a configuration value outside its allowed range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks every field and returns all problems joined.
func Validate(cfg models.HealthCheckConfig) error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !cfg.WCAGLevel.Valid() {
		fail("wcag_level", "must be one of A, AA, AAA, got %q", cfg.WCAGLevel)
	}

	if len(cfg.Output.Formats) == 0 {
		fail("formats", "at least one output format is required")
	}
	for _, f := range cfg.Output.Formats {
		switch f {
		case models.FormatConsole, models.FormatJSON, models.FormatHTML:
		default:
			fail("formats", "unknown format %q, must be one of console, json, html", f)
		}
	}
	if cfg.Output.Directory == "" {
		fail("output.directory", "cannot be empty")
	}

	if r := cfg.Thresholds.ContrastRatio; r < 1 || r > 21 {
		fail("thresholds.contrast_ratio", "must be between 1 and 21, got %v", r)
	}
	if j := cfg.Thresholds.HeadingJump; j < 1 || j > 5 {
		fail("thresholds.heading_jump", "must be between 1 and 5, got %d", j)
	}

	if cfg.TimeoutMS <= 0 {
		fail("timeout", "must be > 0, got %d", cfg.TimeoutMS)
	}
	if cfg.Concurrent < 1 {
		fail("concurrent", "must be >= 1, got %d", cfg.Concurrent)
	}

	if cfg.Browser.ViewportWidth <= 0 || cfg.Browser.ViewportHeight <= 0 {
		fail("viewport", "must be positive, got %dx%d", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	switch cfg.Browser.Engine {
	case models.EngineChrome, models.EngineStatic:
	default:
		fail("browser.engine", "must be chrome or static, got %q", cfg.Browser.Engine)
	}

	for _, t := range cfg.Checkers.Enabled {
		if !t.Valid() {
			fail("checkers.enabled", "unknown checker %q", t)
		}
	}
	for _, t := range cfg.Checkers.Disabled {
		if !t.Valid() {
			fail("checkers.disabled", "unknown checker %q", t)
		}
	}

	return errors.Join(errs...)
}
