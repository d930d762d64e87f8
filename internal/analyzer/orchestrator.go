package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/models"
	"a11y-checker/internal/report"
)

// PageAuditor audits one already-open page.
type PageAuditor interface {
	Audit(ctx context.Context, logger *slog.Logger, page browser.Page, pageURL string) (*models.PageHealthReport, error)
}

// Orchestrator drives single and multi-URL runs over one browser session.
type Orchestrator struct {
	cfg       models.HealthCheckConfig
	session   browser.Manager
	auditor   PageAuditor
	reporters []report.Reporter
	logger    *slog.Logger

	launchMu sync.Mutex
}

// NewOrchestrator wires a run. reporters may be empty.
func NewOrchestrator(cfg models.HealthCheckConfig, session browser.Manager, auditor PageAuditor, reporters []report.Reporter, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		session:   session,
		auditor:   auditor,
		reporters: reporters,
		logger:    logger,
	}
}

// ensureLaunched starts the session on first use. Concurrent callers in the
// same batch launch it only once.
func (o *Orchestrator) ensureLaunched(ctx context.Context) error {
	o.launchMu.Lock()
	defer o.launchMu.Unlock()

	if o.session.IsLaunched() {
		return nil
	}
	o.logger.DebugContext(ctx, "Launching browser session", slog.String("engine", o.cfg.Browser.Engine))
	if err := o.session.Launch(ctx, o.cfg); err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	return nil
}

// CheckURL audits a single page. The session stays open for later calls;
// it is only torn down by CheckURLs or Close.
func (o *Orchestrator) CheckURL(ctx context.Context, pageURL string) (*models.PageHealthReport, error) {
	if err := o.ensureLaunched(ctx); err != nil {
		return nil, err
	}

	page, err := o.session.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page for %s: %w", pageURL, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			o.logger.DebugContext(ctx, "Failed to close page", slog.String("url", pageURL), slog.Any("error", err))
		}
	}()

	return o.auditor.Audit(ctx, o.logger, page, pageURL)
}

// CheckURLs audits urls in sequential batches of cfg.Concurrent pages, the
// pages of a batch in parallel. Page reports keep input order. The first
// failing page aborts the run and discards every result gathered so far.
// On success the aggregate is handed to each reporter in turn. The session
// is closed before returning in every case.
func (o *Orchestrator) CheckURLs(ctx context.Context, urls []string) (*models.HealthCheckReport, error) {
	start := time.Now()

	result, err := o.run(ctx, urls, start)
	if err == nil {
		err = o.dispatch(ctx, result)
	}

	if closeErr := o.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return result, err
}

// Close tears down the browser session.
func (o *Orchestrator) Close() error {
	if err := o.session.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, urls []string, start time.Time) (*models.HealthCheckReport, error) {
	size := o.cfg.Concurrent
	if size < 1 {
		size = 1
	}

	o.logger.InfoContext(ctx, "Starting accessibility check",
		slog.Int("urls", len(urls)),
		slog.Int("concurrent", size),
		slog.String("wcag_level", string(o.cfg.WCAGLevel)),
	)

	if err := o.ensureLaunched(ctx); err != nil {
		return nil, err
	}

	pages := make([]models.PageHealthReport, 0, len(urls))
	for batch, from := 1, 0; from < len(urls); batch, from = batch+1, from+size {
		to := min(from+size, len(urls))
		reports, err := o.runBatch(ctx, batch, urls[from:to])
		if err != nil {
			o.logger.ErrorContext(ctx, "Aborting run", slog.Int("batch", batch), slog.Any("error", err))
			return nil, err
		}
		pages = append(pages, reports...)
	}

	total := 0
	for _, p := range pages {
		total += p.TotalIssues
	}

	result := &models.HealthCheckReport{
		Summary: models.Summary{
			TotalPages:   len(pages),
			TotalIssues:  total,
			OverallScore: models.MeanScore(pages),
			Timestamp:    start,
			DurationMS:   time.Since(start).Milliseconds(),
		},
		Pages:  pages,
		Config: o.cfg,
	}

	o.logger.InfoContext(ctx, "Accessibility check complete",
		slog.Group("summary",
			slog.Int("pages", result.Summary.TotalPages),
			slog.Int("issues", result.Summary.TotalIssues),
			slog.Int("score", result.Summary.OverallScore),
			slog.Int64("duration_ms", result.Summary.DurationMS),
		),
	)
	return result, nil
}

// runBatch audits every URL of one batch in parallel and waits for all of
// them before reporting the first failure in input order.
func (o *Orchestrator) runBatch(ctx context.Context, batch int, urls []string) ([]models.PageHealthReport, error) {
	o.logger.DebugContext(ctx, "Starting batch", slog.Int("batch", batch), slog.Int("size", len(urls)))

	reports := make([]*models.PageHealthReport, len(urls))
	errs := make([]error, len(urls))
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			reports[i], errs[i] = o.CheckURL(ctx, u)
		}(i, u)
	}
	wg.Wait()

	out := make([]models.PageHealthReport, 0, len(urls))
	for i, err := range errs {
		if err != nil {
			return nil, &BatchError{Batch: batch, URL: urls[i], Err: err}
		}
		out = append(out, *reports[i])
	}

	o.logger.DebugContext(ctx, "Batch complete", slog.Int("batch", batch))
	return out, nil
}

// dispatch runs reporters in order and stops at the first failure.
func (o *Orchestrator) dispatch(ctx context.Context, result *models.HealthCheckReport) error {
	for _, r := range o.reporters {
		if err := r.Generate(ctx, result); err != nil {
			o.logger.ErrorContext(ctx, "Reporter failed", slog.String("format", r.Format()), slog.Any("error", err))
			return fmt.Errorf("%s reporter: %w", r.Format(), err)
		}
	}
	return nil
}
