package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/browser/browsertest"
	"a11y-checker/internal/models"
	"a11y-checker/internal/report"
)

// recordingAuditor returns a canned report per URL and records the order in
// which audits start and finish.
type recordingAuditor struct {
	delay  map[string]time.Duration
	scores map[string]int
	fail   map[string]error

	mu        sync.Mutex
	events    []string
	active    int
	maxActive int
}

func (a *recordingAuditor) Audit(ctx context.Context, _ *slog.Logger, page browser.Page, pageURL string) (*models.PageHealthReport, error) {
	a.mu.Lock()
	a.events = append(a.events, "start "+pageURL)
	a.active++
	a.maxActive = max(a.maxActive, a.active)
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.events = append(a.events, "end "+pageURL)
		a.active--
		a.mu.Unlock()
	}()

	if err := page.Navigate(ctx, pageURL); err != nil {
		return nil, err
	}
	time.Sleep(a.delay[pageURL])
	if err := a.fail[pageURL]; err != nil {
		return nil, err
	}

	score, ok := a.scores[pageURL]
	if !ok {
		score = 100
	}
	return &models.PageHealthReport{URL: pageURL, Score: score, TotalIssues: (100 - score) / 10}, nil
}

func (a *recordingAuditor) audited(pageURL string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e == "start "+pageURL {
			return true
		}
	}
	return false
}

func (a *recordingAuditor) position(event string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, e := range a.events {
		if e == event {
			return i
		}
	}
	return -1
}

type recordingReporter struct {
	format string
	err    error
	calls  int
	got    *models.HealthCheckReport
}

func (r *recordingReporter) Format() string { return r.format }

func (r *recordingReporter) Generate(_ context.Context, hc *models.HealthCheckReport) error {
	r.calls++
	r.got = hc
	return r.err
}

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("https://example.com/page-%d", i)
	}
	return out
}

func TestCheckURLsBatching(t *testing.T) {
	in := urls(5)
	auditor := &recordingAuditor{delay: map[string]time.Duration{}}
	for _, u := range in {
		auditor.delay[u] = 40 * time.Millisecond
	}
	session := &browsertest.Session{}
	cfg := testConfig()
	cfg.Concurrent = 2

	result, err := NewOrchestrator(cfg, session, auditor, nil, testLogger).CheckURLs(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, result.Pages, 5)

	assert.Equal(t, 2, auditor.maxActive, "pages of a batch should run together, never more than the limit")

	// Batches are [0 1] [2 3] [4]; no page of a batch starts before the
	// previous batch has finished.
	batches := [][]string{in[0:2], in[2:4], in[4:5]}
	for b := 1; b < len(batches); b++ {
		for _, prev := range batches[b-1] {
			for _, next := range batches[b] {
				assert.Less(t, auditor.position("end "+prev), auditor.position("start "+next),
					"%s started before %s finished", next, prev)
			}
		}
	}
}

func TestCheckURLsKeepsInputOrder(t *testing.T) {
	in := urls(4)
	auditor := &recordingAuditor{delay: map[string]time.Duration{
		in[0]: 60 * time.Millisecond,
		in[1]: 10 * time.Millisecond,
		in[2]: 40 * time.Millisecond,
		in[3]: 0,
	}}
	cfg := testConfig()
	cfg.Concurrent = 4

	result, err := NewOrchestrator(cfg, &browsertest.Session{}, auditor, nil, testLogger).CheckURLs(context.Background(), in)
	require.NoError(t, err)

	var got []string
	for _, p := range result.Pages {
		got = append(got, p.URL)
	}
	assert.Equal(t, in, got)
}

func TestCheckURLsSummary(t *testing.T) {
	in := urls(2)
	auditor := &recordingAuditor{scores: map[string]int{in[0]: 100, in[1]: 70}}
	reporter := &recordingReporter{format: "json"}
	cfg := testConfig()

	result, err := NewOrchestrator(cfg, &browsertest.Session{}, auditor, []report.Reporter{reporter}, testLogger).
		CheckURLs(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.TotalPages)
	assert.Equal(t, 3, result.Summary.TotalIssues)
	assert.Equal(t, 85, result.Summary.OverallScore)
	assert.False(t, result.Summary.Timestamp.IsZero())
	assert.Equal(t, cfg, result.Config)

	assert.Equal(t, 1, reporter.calls)
	assert.Same(t, result, reporter.got)
}

func TestCheckURLsAbortsOnFirstFailure(t *testing.T) {
	in := urls(5)
	boom := &NavigationError{URL: in[2], Err: errors.New("connection refused")}
	auditor := &recordingAuditor{fail: map[string]error{in[2]: boom}}
	reporter := &recordingReporter{format: "console"}
	session := &browsertest.Session{}
	cfg := testConfig()
	cfg.Concurrent = 2

	result, err := NewOrchestrator(cfg, session, auditor, []report.Reporter{reporter}, testLogger).
		CheckURLs(context.Background(), in)

	require.Error(t, err)
	assert.Nil(t, result, "results of earlier batches are discarded")

	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Batch)
	assert.Equal(t, in[2], batchErr.URL)

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, in[2], navErr.URL)

	assert.True(t, auditor.audited(in[3]), "the rest of the failing batch still runs")
	assert.False(t, auditor.audited(in[4]), "later batches never start")
	assert.Zero(t, reporter.calls)
	assert.False(t, session.IsLaunched())
	assert.Equal(t, 1, session.Closes())
}

func TestCheckURLsLaunchesOnce(t *testing.T) {
	session := &browsertest.Session{}
	cfg := testConfig()
	cfg.Concurrent = 4

	_, err := NewOrchestrator(cfg, session, &recordingAuditor{}, nil, testLogger).CheckURLs(context.Background(), urls(8))
	require.NoError(t, err)

	assert.Equal(t, 1, session.Launches())
	assert.Equal(t, 1, session.Closes())
	for _, p := range session.Pages() {
		assert.True(t, p.Closed(), "every page is closed after its audit")
	}
	assert.Len(t, session.Pages(), 8)
}

func TestCheckURLsTearsDownOnReporterFailure(t *testing.T) {
	boom := errors.New("disk full")
	first := &recordingReporter{format: "json", err: boom}
	second := &recordingReporter{format: "html"}
	session := &browsertest.Session{}

	result, err := NewOrchestrator(testConfig(), session, &recordingAuditor{}, []report.Reporter{first, second}, testLogger).
		CheckURLs(context.Background(), urls(1))

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "json reporter")
	require.NotNil(t, result, "the computed report survives a reporter failure")
	assert.Equal(t, 1, result.Summary.TotalPages)
	assert.Zero(t, second.calls)
	assert.False(t, session.IsLaunched())
	assert.Equal(t, 1, session.Closes())
}

func TestCheckURLsLaunchFailure(t *testing.T) {
	boom := errors.New("chrome not found")
	session := &browsertest.Session{LaunchErr: boom}
	auditor := &recordingAuditor{}

	_, err := NewOrchestrator(testConfig(), session, auditor, nil, testLogger).CheckURLs(context.Background(), urls(2))

	require.ErrorIs(t, err, boom)
	assert.Empty(t, auditor.events)
}

func TestCheckURLsEmpty(t *testing.T) {
	session := &browsertest.Session{}

	result, err := NewOrchestrator(testConfig(), session, &recordingAuditor{}, nil, testLogger).CheckURLs(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, result.Summary.TotalPages)
	assert.Equal(t, 100, result.Summary.OverallScore)
	assert.Equal(t, 1, session.Launches())
	assert.Equal(t, 1, session.Closes())
}

func TestCheckURLKeepsSessionOpen(t *testing.T) {
	session := &browsertest.Session{}
	o := NewOrchestrator(testConfig(), session, &recordingAuditor{}, nil, testLogger)

	for _, u := range urls(2) {
		page, err := o.CheckURL(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, u, page.URL)
	}

	assert.True(t, session.IsLaunched())
	assert.Equal(t, 1, session.Launches())

	require.NoError(t, o.Close())
	assert.False(t, session.IsLaunched())
}

func TestCheckURLsWithStaticEngine(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/clean", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cleanPage)
	})
	mux.HandleFunc("/gallery", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, missingAltPage)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testConfig()
	cfg.Browser = models.BrowserConfig{Engine: models.EngineStatic, Headless: true}
	session := browser.NewManager(cfg.Browser)

	o := NewOrchestrator(cfg, session, testAuditor(cfg), nil, testLogger)
	result, err := o.CheckURLs(context.Background(), []string{server.URL + "/clean", server.URL + "/gallery"})
	require.NoError(t, err)

	require.Len(t, result.Pages, 2)
	clean, gallery := result.Pages[0], result.Pages[1]

	assert.Equal(t, 100, clean.Score)
	assert.Zero(t, clean.TotalIssues)

	assert.Equal(t, 90, gallery.Score)
	require.Len(t, gallery.Issues, 1)
	assert.Equal(t, "1.1.1", gallery.Issues[0].WCAGRef)
	assert.Equal(t, "/html[1]/body[1]/main[1]/img[1]", gallery.Issues[0].Location.XPath)

	assert.Equal(t, 95, result.Summary.OverallScore)
	assert.Equal(t, 1, result.Summary.TotalIssues)
	assert.False(t, session.IsLaunched())
}

func TestCheckURLsUnreachableWithStaticEngine(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	cfg := testConfig()
	cfg.Browser = models.BrowserConfig{Engine: models.EngineStatic}

	_, err := NewOrchestrator(cfg, browser.NewManager(cfg.Browser), testAuditor(cfg), nil, testLogger).
		CheckURLs(context.Background(), []string{addr})

	var navErr *NavigationError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, addr, navErr.URL)
}
