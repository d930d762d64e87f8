package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"a11y-checker/internal/models"
)

const maxBodyBytes = 10 << 20

// StaticSession serves pages fetched over HTTP without executing scripts.
// Computed styles are unavailable, so Evaluate always fails with
// ErrEvaluateUnsupported.
type StaticSession struct {
	mu       sync.Mutex
	launched bool

	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewStaticSession returns an unlaunched static session. A nil client gets a
// default one.
func NewStaticSession(client *http.Client) *StaticSession {
	if client == nil {
		client = &http.Client{}
	}
	return &StaticSession{client: client}
}

func (s *StaticSession) Launch(_ context.Context, cfg models.HealthCheckConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userAgent = cfg.Browser.UserAgent
	s.timeout = cfg.Timeout()
	s.launched = true
	return nil
}

func (s *StaticSession) NewPage(_ context.Context) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.launched {
		return nil, fmt.Errorf("failed to create page: %w", ErrNotLaunched)
	}
	return &staticPage{client: s.client, userAgent: s.userAgent, timeout: s.timeout}, nil
}

func (s *StaticSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.launched {
		s.client.CloseIdleConnections()
	}
	s.launched = false
	return nil
}

func (s *StaticSession) IsLaunched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launched
}

type staticPage struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	markup    string
}

func (p *staticPage) Navigate(ctx context.Context, url string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept-Language", Locale)
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if (resp.StatusCode < 200 || resp.StatusCode >= 300) && strings.TrimSpace(string(body)) == "" {
		return fmt.Errorf("status %d with empty body", resp.StatusCode)
	}
	p.markup = string(body)
	return nil
}

// WaitForHelper has nothing to wait for: static markup is final once fetched.
func (p *staticPage) WaitForHelper(context.Context, time.Duration) error {
	return nil
}

func (p *staticPage) HTML(context.Context) (string, error) {
	return p.markup, nil
}

func (p *staticPage) Evaluate(context.Context, string, any) error {
	return ErrEvaluateUnsupported
}

func (p *staticPage) Close() error {
	p.markup = ""
	return nil
}
