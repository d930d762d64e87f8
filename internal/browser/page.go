// Package browser owns the browser engine and hands out per-URL page handles.
//
// Two engines implement the same lifecycle: Session drives a Chrome process
// through chromedp, StaticSession fetches markup over plain HTTP without
// running scripts.
package browser

import (
	"context"
	"errors"
	"time"

	"a11y-checker/internal/models"
)

var (
	// ErrNotLaunched is returned when a page is requested before Launch.
	ErrNotLaunched = errors.New("browser session not launched")
	// ErrEvaluateUnsupported is returned by pages that cannot run scripts.
	ErrEvaluateUnsupported = errors.New("script evaluation not supported by this engine")
)

// HelperReadyExpression is true once the injected DOM-inspection helper has
// initialised in the page.
const HelperReadyExpression = `Boolean(window.__a11yHelper && window.__a11yHelper.ready)`

// Page is one open tab. A page is owned by a single caller at a time.
type Page interface {
	// Navigate loads url and waits for the network to go idle.
	Navigate(ctx context.Context, url string) error
	// WaitForHelper injects the DOM-inspection helper and blocks until it
	// reports ready or timeout elapses.
	WaitForHelper(ctx context.Context, timeout time.Duration) error
	// HTML returns the serialised rendered document.
	HTML(ctx context.Context) (string, error)
	// Evaluate runs a script expression and decodes its result into out.
	Evaluate(ctx context.Context, expression string, out any) error
	// Close releases the tab.
	Close() error
}

// Manager is the lifecycle shared by every engine.
type Manager interface {
	Launch(ctx context.Context, cfg models.HealthCheckConfig) error
	NewPage(ctx context.Context) (Page, error)
	Close() error
	IsLaunched() bool
}

// NewManager returns the session for the configured engine.
func NewManager(cfg models.BrowserConfig) Manager {
	if cfg.Engine == models.EngineStatic {
		return NewStaticSession(nil)
	}
	return NewSession()
}

// bound derives a context that ends when either parent or ctx ends, capped at
// timeout when timeout is positive.
func bound(parent, ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(parent, timeout)
	} else {
		runCtx, cancel = context.WithCancel(parent)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
