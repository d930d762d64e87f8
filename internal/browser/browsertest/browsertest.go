// Package browsertest provides in-memory page and session doubles so the
// auditor, checkers and orchestrator can be tested without a browser.
package browsertest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
)

var (
	_ browser.Page    = (*Page)(nil)
	_ browser.Manager = (*Session)(nil)
)

// Page serves fixed markup and canned evaluation results.
type Page struct {
	Markup string
	// EvalResults maps an expression to the value Evaluate decodes into out.
	EvalResults map[string]any
	EvalErr     error

	NavigateErr   error
	NavigateDelay time.Duration
	HelperErr     error

	mu        sync.Mutex
	navigated []string
	closed    bool
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.NavigateDelay > 0 {
		select {
		case <-time.After(p.NavigateDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.mu.Unlock()
	return p.NavigateErr
}

func (p *Page) WaitForHelper(context.Context, time.Duration) error {
	return p.HelperErr
}

func (p *Page) HTML(context.Context) (string, error) {
	return p.Markup, nil
}

func (p *Page) Evaluate(_ context.Context, expression string, out any) error {
	if p.EvalErr != nil {
		return p.EvalErr
	}
	value, ok := p.EvalResults[expression]
	if !ok {
		return browser.ErrEvaluateUnsupported
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Navigated returns the URLs the page was sent to.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Session is a browser.Manager that hands out Pages.
type Session struct {
	// NewPageFunc builds each page; nil yields empty pages.
	NewPageFunc func() *Page
	LaunchErr   error

	mu       sync.Mutex
	launched bool
	launches int
	closes   int
	pages    []*Page
}

func (s *Session) Launch(context.Context, models.HealthCheckConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LaunchErr != nil {
		return s.LaunchErr
	}
	s.launches++
	s.launched = true
	return nil
}

func (s *Session) NewPage(context.Context) (browser.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.launched {
		return nil, browser.ErrNotLaunched
	}
	p := &Page{}
	if s.NewPageFunc != nil {
		p = s.NewPageFunc()
	}
	s.pages = append(s.pages, p)
	return p, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		s.closes++
	}
	s.launched = false
	return nil
}

func (s *Session) IsLaunched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launched
}

// Launches counts successful launches.
func (s *Session) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Closes counts teardowns of a launched session.
func (s *Session) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Pages returns every page handed out so far.
func (s *Session) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Page(nil), s.pages...)
}
