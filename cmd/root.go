package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"a11y-checker/internal/analyzer"
	"a11y-checker/internal/browser"
	"a11y-checker/internal/config"
	"a11y-checker/internal/models"
	"a11y-checker/internal/report"
)

// errIssuesFound makes the process exit 1 without printing an error.
var errIssuesFound = errors.New("accessibility issues found")

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11y [flags] URL...",
		Short: "Check web pages for WCAG accessibility issues",
		Long: `a11y loads each URL in a browser, runs the accessibility checkers against
the rendered page and reports the issues found, a 0-100 score per page and
WCAG A/AA/AAA compliance.

Exits 1 when any issue is found or the run fails, 0 when every page is clean.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.PersistentFlags()
	f.String("config", "", "config file (.json, .yaml, .yml, .toml); defaults to .a11yrc.* in the working directory")
	f.StringP("level", "l", string(models.LevelAA), "WCAG level to check against (A, AA, AAA)")
	f.StringSliceP("format", "f", []string{models.FormatConsole}, "output formats (console, json, html)")
	f.StringP("output", "o", "./a11y-reports", "directory for json and html reports")
	f.IntP("concurrent", "c", 3, "pages checked in parallel per batch")
	f.IntP("timeout", "t", 30000, "page operation timeout in milliseconds")
	f.Bool("headless", true, "run the browser without a window")
	f.String("viewport", "1280x720", "browser viewport as WIDTHxHEIGHT")
	f.String("user-agent", "", "override the browser user agent")
	f.String("engine", models.EngineChrome, "page engine: chrome renders with a browser, static fetches HTML only")
	f.Float64("contrast", 4.5, "minimum contrast ratio for normal text")
	f.Int("heading-jump", 1, "largest allowed jump between heading levels")
	f.StringSlice("checkers", nil, "checkers to run (default all)")
	f.StringSlice("skip", nil, "checkers to skip; wins over --checkers")
	f.BoolP("verbose", "v", false, "debug logging and per-issue detail in console output")
	f.String("log-format", "text", "log format (text, json)")

	cmd.AddCommand(newServeCommand(stdout, stderr))
	return cmd
}

// loadConfig resolves file, then changed flags, then validates.
func loadConfig(cmd *cobra.Command) (models.HealthCheckConfig, error) {
	flags := cmd.Flags()

	var (
		cfg models.HealthCheckConfig
		err error
	)
	if path, _ := flags.GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadFromDir(".")
	}
	if err != nil {
		return cfg, err
	}

	var o config.Overrides
	if flags.Changed("level") {
		v, _ := flags.GetString("level")
		o.WCAGLevel = &v
	}
	if flags.Changed("format") {
		o.Formats, _ = flags.GetStringSlice("format")
	}
	if flags.Changed("output") {
		v, _ := flags.GetString("output")
		o.OutputDir = &v
	}
	if flags.Changed("verbose") {
		v, _ := flags.GetBool("verbose")
		o.Verbose = &v
	}
	if flags.Changed("concurrent") {
		v, _ := flags.GetInt("concurrent")
		o.Concurrent = &v
	}
	if flags.Changed("timeout") {
		v, _ := flags.GetInt("timeout")
		o.TimeoutMS = &v
	}
	if flags.Changed("engine") {
		v, _ := flags.GetString("engine")
		o.Engine = &v
	}
	if flags.Changed("headless") {
		v, _ := flags.GetBool("headless")
		o.Headless = &v
	}
	if flags.Changed("viewport") {
		v, _ := flags.GetString("viewport")
		o.Viewport = &v
	}
	if flags.Changed("user-agent") {
		v, _ := flags.GetString("user-agent")
		o.UserAgent = &v
	}
	if flags.Changed("contrast") {
		v, _ := flags.GetFloat64("contrast")
		o.ContrastRatio = &v
	}
	if flags.Changed("heading-jump") {
		v, _ := flags.GetInt("heading-jump")
		o.HeadingJump = &v
	}
	if flags.Changed("checkers") {
		o.EnableCheckers, _ = flags.GetStringSlice("checkers")
	}
	if flags.Changed("skip") {
		o.SkipCheckers, _ = flags.GetStringSlice("skip")
	}

	if err := config.MergeFlags(&cfg, o); err != nil {
		return cfg, err
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, w io.Writer, verbose bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	format, _ := cmd.Flags().GetString("log-format")
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q, must be text or json", format)
	}
}

func validateURLs(urls []string) error {
	for _, raw := range urls {
		u, err := url.ParseRequestURI(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &config.ValidationError{Field: "url", Message: fmt.Sprintf("%q is not an absolute http(s) URL", raw)}
		}
	}
	return nil
}

func newOrchestrator(cfg models.HealthCheckConfig, reporters []report.Reporter, logger *slog.Logger) *analyzer.Orchestrator {
	auditor := analyzer.NewAuditor(cfg)
	if cfg.Browser.Engine == models.EngineStatic {
		// Nothing renders after a static fetch.
		auditor.SettleDelay = 0
	}
	return analyzer.NewOrchestrator(cfg, browser.NewManager(cfg.Browser), auditor, reporters, logger)
}

func runCheck(cmd *cobra.Command, urls []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validateURLs(urls); err != nil {
		return err
	}

	logger, err := newLogger(cmd, stderr, cfg.Output.Verbose)
	if err != nil {
		return err
	}

	reporters, err := report.FromConfig(cfg.Output, stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := newOrchestrator(cfg, reporters, logger).CheckURLs(ctx, urls)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}
	if result.Summary.TotalIssues > 0 {
		return errIssuesFound
	}
	return nil
}
