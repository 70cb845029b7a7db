package scraper

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"epin-scraper/config"
	"epin-scraper/models"
	"epin-scraper/profiles"
	"epin-scraper/services"
	"epin-scraper/utils"
)

// ProgressFunc is invoked after each processed URL with the running and
// total counts.
type ProgressFunc func(done, total int)

// Orchestrator runs one batch of URLs to completion, strictly one URL at
// a time, and assembles the batch report. It is stateless across
// invocations; all per-run state lives in the report it returns.
type Orchestrator struct {
	cfg       *config.Config
	rendering Extractor
	bypass    Extractor
	deliverer Deliverer
	classify  ClassifyFunc
	metrics   *Metrics

	// limiter paces consecutive URLs; domainLimiters enforce each
	// profile's own politeness delay on top of it.
	limiter *rate.Limiter

	mu             sync.Mutex
	domainLimiters map[string]*utils.RateLimiter
	resumeURL      string
}

// NewOrchestrator wires the two extraction strategies and the optional
// downstream deliverer.
func NewOrchestrator(cfg *config.Config, rendering, bypass Extractor, deliverer Deliverer) *Orchestrator {
	return &Orchestrator{
		cfg:            cfg,
		rendering:      rendering,
		bypass:         bypass,
		deliverer:      deliverer,
		classify:       DefaultClassify,
		metrics:        NewMetrics(),
		limiter:        rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		domainLimiters: make(map[string]*utils.RateLimiter),
	}
}

// Metrics exposes the Prometheus registry for the HTTP shell.
func (o *Orchestrator) Metrics() *Metrics { return o.metrics }

// SetDeliverer swaps the downstream delivery target. Passing nil
// disables delivery.
func (o *Orchestrator) SetDeliverer(d Deliverer) {
	o.mu.Lock()
	o.deliverer = d
	o.mu.Unlock()
}

// SetResumeURL makes the next batch skip input URLs up to (but not
// including) url, so an interrupted run can be picked up where it
// stopped. Cleared after one use; an unmatched URL has no effect.
func (o *Orchestrator) SetResumeURL(url string) {
	o.mu.Lock()
	o.resumeURL = url
	o.mu.Unlock()
}

// applyResume consumes the resume point and trims urls accordingly.
func (o *Orchestrator) applyResume(urls []string) []string {
	o.mu.Lock()
	resume := o.resumeURL
	o.resumeURL = ""
	o.mu.Unlock()

	if resume == "" {
		return urls
	}
	for i, u := range urls {
		if u == resume {
			slog.Info("resuming batch", slog.String("url", resume), slog.Int("skipped", i))
			return urls[i:]
		}
	}
	slog.Warn("resume url not in input, processing full list", slog.String("url", resume))
	return urls
}

// Initialize verifies the static profile configuration and probes the
// downstream delivery target. A failed probe is logged, not fatal.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	if err := profiles.Validate(); err != nil {
		return fmt.Errorf("profile configuration: %w", err)
	}
	o.mu.Lock()
	deliverer := o.deliverer
	o.mu.Unlock()
	if deliverer != nil {
		if ok := deliverer.TestConnection(ctx); !ok {
			slog.Warn("downstream delivery target unreachable, continuing anyway")
		}
	}
	return nil
}

// ScrapeURLs processes urls in input order and returns the aggregate
// report. No single URL's failure aborts the batch; the only errors that
// escape are none — failures are data in the report.
func (o *Orchestrator) ScrapeURLs(ctx context.Context, urls []string, progress ProgressFunc) *models.BatchReport {
	urls = o.applyResume(urls)
	report := &models.BatchReport{
		BatchID:           services.GenerateBatchID(),
		StartedAt:         time.Now(),
		RequestedURLCount: len(urls),
	}
	deadline := report.StartedAt.Add(o.cfg.MaxExecutionTime)

	slog.Info("starting batch",
		slog.String("batch_id", report.BatchID),
		slog.Int("urls", len(urls)),
	)

	for i, url := range urls {
		if time.Now().After(deadline) {
			report.Outcomes = append(report.Outcomes, models.ScrapeOutcome{
				URL:          url,
				Succeeded:    false,
				ErrorMessage: "batch deadline exceeded",
				SiteDomain:   services.ExtractDomain(url),
			})
			continue
		}

		outcome := o.processURL(ctx, url)
		report.Outcomes = append(report.Outcomes, outcome)
		o.metrics.ObserveOutcome(outcome.Succeeded, len(outcome.Items), outcome.Elapsed)

		if progress != nil {
			progress(i+1, len(urls))
		}
		if i < len(urls)-1 {
			if err := o.limiter.Wait(ctx); err != nil {
				slog.Debug("inter-request wait interrupted", slog.Any("error", err))
			}
		}
	}

	o.finalize(report)
	o.logSummary(report)

	o.mu.Lock()
	deliverer := o.deliverer
	o.mu.Unlock()
	if report.TotalItemCount > 0 && deliverer != nil {
		// Fire and forget: the batch is complete regardless of what
		// happens downstream.
		go func() {
			ok := deliverer.SendBatchData(context.Background(), report)
			o.metrics.ObserveDelivery(ok)
			if !ok {
				slog.Error("downstream delivery failed", slog.String("batch_id", report.BatchID))
			}
		}()
	}

	return report
}

// processURL resolves the domain profile, dispatches to the right
// strategy and converts panics and stray failures into a failed outcome.
func (o *Orchestrator) processURL(ctx context.Context, url string) (outcome models.ScrapeOutcome) {
	start := time.Now()
	domain := services.ExtractDomain(url)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("extractor panicked", slog.String("url", url), slog.Any("panic", r))
			outcome = models.ScrapeOutcome{
				URL:          url,
				Succeeded:    false,
				ErrorMessage: fmt.Sprintf("extractor panic: %v", r),
				Elapsed:      time.Since(start),
				SiteDomain:   domain,
			}
		}
	}()

	profile := profiles.Resolve(domain)
	o.domainLimiter(domain, profile.InterRequestDelay).Wait()

	extractor := o.rendering
	strategy := "rendering"
	if o.classify(domain) {
		extractor = o.bypass
		strategy = "bypass"
	}
	slog.Debug("dispatching url",
		slog.String("url", url),
		slog.String("domain", domain),
		slog.String("strategy", strategy),
	)

	outcome = extractor.Scrape(ctx, url, profile)
	if outcome.URL == "" {
		outcome.URL = url
	}
	if outcome.SiteDomain == "" {
		outcome.SiteDomain = domain
	}
	if outcome.Elapsed == 0 {
		outcome.Elapsed = time.Since(start)
	}
	return outcome
}

func (o *Orchestrator) domainLimiter(domain string, delay time.Duration) *utils.RateLimiter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if rl, ok := o.domainLimiters[domain]; ok {
		return rl
	}
	rl := utils.NewRateLimiter(delay)
	o.domainLimiters[domain] = rl
	return rl
}

// finalize computes the aggregate counts and the flat error list.
func (o *Orchestrator) finalize(report *models.BatchReport) {
	for _, outcome := range report.Outcomes {
		if outcome.Succeeded {
			report.SucceededCount++
			report.TotalItemCount += len(outcome.Items)
		} else {
			report.FailedCount++
			if outcome.ErrorMessage != "" {
				report.ErrorMessages = append(report.ErrorMessages, outcome.ErrorMessage)
			}
		}
	}
}

// logSummary prints a per-domain breakdown, most productive domains
// first, and the five most frequent error messages.
func (o *Orchestrator) logSummary(report *models.BatchReport) {
	type domainStat struct {
		domain    string
		total     int
		succeeded int
		items     int
	}
	byDomain := make(map[string]*domainStat)
	for _, outcome := range report.Outcomes {
		stat, ok := byDomain[outcome.SiteDomain]
		if !ok {
			stat = &domainStat{domain: outcome.SiteDomain}
			byDomain[outcome.SiteDomain] = stat
		}
		stat.total++
		if outcome.Succeeded {
			stat.succeeded++
			stat.items += len(outcome.Items)
		}
	}

	stats := make([]*domainStat, 0, len(byDomain))
	for _, s := range byDomain {
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].items > stats[j].items })

	slog.Info("batch complete",
		slog.String("batch_id", report.BatchID),
		slog.Int("requested", report.RequestedURLCount),
		slog.Int("succeeded", report.SucceededCount),
		slog.Int("failed", report.FailedCount),
		slog.Int("items", report.TotalItemCount),
		slog.Duration("elapsed", time.Since(report.StartedAt)),
	)
	for _, s := range stats {
		slog.Info("domain summary",
			slog.String("domain", s.domain),
			slog.String("success_rate", fmt.Sprintf("%d/%d", s.succeeded, s.total)),
			slog.Int("items", s.items),
		)
	}

	errCounts := make(map[string]int)
	for _, msg := range report.ErrorMessages {
		errCounts[msg]++
	}
	type errStat struct {
		msg   string
		count int
	}
	errs := make([]errStat, 0, len(errCounts))
	for msg, n := range errCounts {
		errs = append(errs, errStat{msg, n})
	}
	sort.Slice(errs, func(i, j int) bool { return errs[i].count > errs[j].count })
	for i, e := range errs {
		if i >= 5 {
			break
		}
		slog.Warn("frequent error", slog.String("message", e.msg), slog.Int("count", e.count))
	}
}

// ScrapeFromFile reads newline-delimited URLs from path, skipping blank
// lines, non-HTTP lines and duplicates, then runs the batch.
func (o *Orchestrator) ScrapeFromFile(ctx context.Context, path string, progress ProgressFunc) (*models.BatchReport, error) {
	urls, err := LoadURLFile(path)
	if err != nil {
		return nil, err
	}
	return o.ScrapeURLs(ctx, urls, progress), nil
}

// LoadURLFile parses a newline-delimited URL list.
func LoadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	tracker := utils.NewURLTracker()
	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "http") {
			continue
		}
		if tracker.Add(line) {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}

// Close tears down any long-lived resources held by the strategies.
func (o *Orchestrator) Close() error {
	var firstErr error
	for _, ex := range []Extractor{o.rendering, o.bypass} {
		if closer, ok := ex.(io.Closer); ok && closer != nil {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
