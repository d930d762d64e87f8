package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"a11y-checker/internal/browser"
	"a11y-checker/internal/checks"
	"a11y-checker/internal/models"
)

const (
	DefaultHelperTimeout = 10 * time.Second
	DefaultSettleDelay   = 1 * time.Second
)

// Auditor runs every enabled checker against one open page.
type Auditor struct {
	Config   models.HealthCheckConfig
	Checkers []checks.Checker

	// HelperTimeout bounds the wait for the DOM-inspection helper.
	HelperTimeout time.Duration
	// SettleDelay lets late-rendering content appear before checking.
	SettleDelay time.Duration
}

// NewAuditor returns an auditor over the full checker registry.
func NewAuditor(cfg models.HealthCheckConfig) *Auditor {
	return &Auditor{
		Config:        cfg,
		Checkers:      checks.Registry(),
		HelperTimeout: DefaultHelperTimeout,
		SettleDelay:   DefaultSettleDelay,
	}
}

// Audit navigates page to pageURL, waits for it to stabilize and merges the
// findings of every enabled checker into a report. The caller owns page and
// must close it afterwards.
func (a *Auditor) Audit(ctx context.Context, logger *slog.Logger, page browser.Page, pageURL string) (*models.PageHealthReport, error) {
	logger = logger.With(slog.String("url", pageURL))
	logger.DebugContext(ctx, "Starting page audit")
	start := time.Now()

	// --- 1. Navigate ---
	if err := page.Navigate(ctx, pageURL); err != nil {
		logger.ErrorContext(ctx, "Failed to load page", slog.Any("error", err))
		return nil, &NavigationError{URL: pageURL, Err: err}
	}

	// --- 2. Stabilize ---
	if err := page.WaitForHelper(ctx, a.HelperTimeout); err != nil {
		logger.ErrorContext(ctx, "Inspection helper never became ready", slog.Any("error", err))
		return nil, &StabilizationError{URL: pageURL, Err: err}
	}
	if err := sleep(ctx, a.SettleDelay); err != nil {
		return nil, &StabilizationError{URL: pageURL, Err: err}
	}

	// --- 3. Run enabled checkers ---
	enabled := checks.Enabled(a.Checkers, a.Config)
	logger.DebugContext(ctx, "Running checkers", slog.Int("enabled", len(enabled)))
	results := a.runCheckers(ctx, logger, page, enabled)

	// --- 4. Merge in registry order ---
	issues := []models.AccessibilityIssue{}
	for _, r := range results {
		issues = append(issues, r.Issues...)
	}

	report := &models.PageHealthReport{
		URL:              pageURL,
		Timestamp:        start,
		DurationMS:       time.Since(start).Milliseconds(),
		TotalIssues:      len(issues),
		IssuesBySeverity: models.CountBySeverity(issues),
		IssuesByType:     models.CountByType(issues),
		Compliance:       models.Compliance(issues),
		Issues:           issues,
		Score:            models.CalculateScore(issues),
	}

	logger.InfoContext(ctx, "Page audit complete",
		slog.Group("results",
			slog.Int("total_issues", report.TotalIssues),
			slog.Int("errors", report.IssuesBySeverity[models.SeverityError]),
			slog.Int("warnings", report.IssuesBySeverity[models.SeverityWarning]),
			slog.Int("score", report.Score),
			slog.Int64("duration_ms", report.DurationMS),
		),
	)
	return report, nil
}

// runCheckers runs the checkers concurrently and returns their results in
// the order given. A checker that fails, panics or times out contributes no
// issues.
func (a *Auditor) runCheckers(ctx context.Context, logger *slog.Logger, page browser.Page, enabled []checks.Checker) []models.CheckerResult {
	results := make([]models.CheckerResult, len(enabled))
	var wg sync.WaitGroup

	for i, c := range enabled {
		wg.Add(1)
		go func(i int, c checks.Checker) {
			defer wg.Done()
			checkerLogger := logger.With(slog.String("checker", string(c.Type())))

			result, err := a.runChecker(ctx, checkerLogger, page, c)
			if err != nil {
				checkerLogger.WarnContext(ctx, "Checker failed, counting zero issues", slog.Any("error", err))
				results[i] = models.CheckerResult{Type: c.Type(), Issues: []models.AccessibilityIssue{}, Duration: result.Duration}
				return
			}
			checkerLogger.DebugContext(ctx, "Checker finished",
				slog.Int("issues", len(result.Issues)),
				slog.Duration("duration", result.Duration),
			)
			results[i] = result
		}(i, c)
	}

	wg.Wait()
	return results
}

type checkOutcome struct {
	result models.CheckerResult
	err    error
}

// runChecker gives up on a checker once the timeout passes, whether or not
// the checker watches ctx. A checker that ignores cancellation is left to
// finish in the background and its result is dropped.
func (a *Auditor) runChecker(ctx context.Context, logger *slog.Logger, page browser.Page, c checks.Checker) (models.CheckerResult, error) {
	start := time.Now()

	checkCtx := ctx
	timeout := a.Config.Timeout()
	if timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan checkOutcome, 1)
	go func() {
		var out checkOutcome
		defer func() {
			if r := recover(); r != nil {
				out.err = fmt.Errorf("checker panicked: %v", r)
			}
			done <- out
		}()
		out.result, out.err = c.Check(checkCtx, logger, page, a.Config)
	}()

	select {
	case out := <-done:
		out.result.Duration = time.Since(start)
		if out.err == nil && checkCtx.Err() != nil {
			out.err = fmt.Errorf("checker timed out after %s: %w", timeout, checkCtx.Err())
		}
		return out.result, out.err
	case <-checkCtx.Done():
		return models.CheckerResult{Duration: time.Since(start)}, fmt.Errorf("checker timed out after %s: %w", timeout, checkCtx.Err())
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
