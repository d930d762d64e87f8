package browser

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"a11y-checker/internal/models"
)

// Locale is sent as Accept-Language on every page.
const Locale = "en-US"

//go:embed helper.js
var helperScript string

// Session owns one Chrome process and one isolated browser context. It moves
// between two states, unlaunched and launched; pages can only be created
// while launched.
type Session struct {
	mu       sync.Mutex
	launched bool

	timeout  time.Duration
	viewport [2]int64

	allocCancel   context.CancelFunc
	engineCancel  context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// NewSession returns an unlaunched Chrome session.
func NewSession() *Session {
	return &Session{}
}

// Launch starts the engine and opens an isolated browser context. Launching
// an already launched session is a no-op.
func (s *Session) Launch(ctx context.Context, cfg models.HealthCheckConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.launched {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.WindowSize(cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight),
	)
	if cfg.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Browser.UserAgent))
	}

	// The engine outlives the call that launched it.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	engineCtx, engineCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(engineCtx); err != nil {
		engineCancel()
		allocCancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	browserCtx, browserCancel := chromedp.NewContext(engineCtx, chromedp.WithNewBrowserContext())
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		engineCancel()
		allocCancel()
		return fmt.Errorf("failed to create browser context: %w", err)
	}

	s.allocCancel = allocCancel
	s.engineCancel = engineCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.timeout = cfg.Timeout()
	s.viewport = [2]int64{int64(cfg.Browser.ViewportWidth), int64(cfg.Browser.ViewportHeight)}
	s.launched = true
	return nil
}

// NewPage opens a new tab in the session's browser context.
func (s *Session) NewPage(ctx context.Context) (Page, error) {
	s.mu.Lock()
	if !s.launched {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create page: %w", ErrNotLaunched)
	}
	parent, timeout, viewport := s.browserCtx, s.timeout, s.viewport
	s.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(parent)
	// The first Run allocates the tab; a deadline on it would close the tab
	// when it fires.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	p := &chromePage{ctx: tabCtx, cancel: cancel, timeout: timeout}
	runCtx, done := bound(tabCtx, ctx, timeout)
	defer done()

	err := chromedp.Run(runCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": Locale}),
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(viewport[0], viewport[1]),
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to configure tab: %w", err)
	}
	return p, nil
}

// Close tears down the browser context, then the engine. Closing an
// unlaunched session does nothing.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.launched {
		return nil
	}
	s.browserCancel()
	s.engineCancel()
	s.allocCancel()
	s.browserCtx = nil
	s.launched = false
	return nil
}

// IsLaunched reports the current state.
func (s *Session) IsLaunched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launched
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	once    sync.Once
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	runCtx, done := bound(p.ctx, ctx, p.timeout)
	defer done()

	idle := waitNetworkIdle(runCtx)

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return err
	}
	if resp != nil && (resp.Status < 200 || resp.Status >= 300) {
		var textLength int
		if err := chromedp.Run(runCtx, chromedp.Evaluate(`document.body ? document.body.innerText.trim().length : 0`, &textLength)); err != nil {
			return fmt.Errorf("status %d: %w", resp.Status, err)
		}
		if textLength == 0 {
			return fmt.Errorf("status %d with empty body", resp.Status)
		}
	}

	select {
	case <-idle:
		return nil
	case <-runCtx.Done():
		return fmt.Errorf("waiting for network idle: %w", runCtx.Err())
	}
}

// waitNetworkIdle closes the returned channel at the first networkIdle
// lifecycle event that follows a new document.
func waitNetworkIdle(ctx context.Context) <-chan struct{} {
	idle := make(chan struct{})
	var started atomic.Bool
	var once sync.Once
	chromedp.ListenTarget(ctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			started.Store(true)
		case "networkIdle":
			if started.Load() {
				once.Do(func() { close(idle) })
			}
		}
	})
	return idle
}

func (p *chromePage) WaitForHelper(ctx context.Context, timeout time.Duration) error {
	runCtx, done := bound(p.ctx, ctx, timeout)
	defer done()

	var ready bool
	return chromedp.Run(runCtx,
		chromedp.Evaluate(helperScript, nil),
		chromedp.Poll(HelperReadyExpression, &ready, chromedp.WithPollingTimeout(timeout)),
	)
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	runCtx, done := bound(p.ctx, ctx, p.timeout)
	defer done()

	var markup string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return markup, nil
}

func (p *chromePage) Evaluate(ctx context.Context, expression string, out any) error {
	runCtx, done := bound(p.ctx, ctx, p.timeout)
	defer done()
	return chromedp.Run(runCtx, chromedp.Evaluate(expression, out))
}

func (p *chromePage) Close() error {
	var err error
	p.once.Do(func() {
		err = chromedp.Cancel(p.ctx)
		p.cancel()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	})
	return err
}
