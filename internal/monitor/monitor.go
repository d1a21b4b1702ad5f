package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/torwatch/internal/database"
	"github.com/nao1215/torwatch/internal/fetch"
	"github.com/nao1215/torwatch/internal/model"
	"github.com/nao1215/torwatch/internal/page"
	"github.com/nao1215/torwatch/internal/target"
)

// Default loop parameters, used when no option overrides them.
const (
	// defaultInterval is the pause between cycles. Five minutes keeps the
	// history dense without hammering slow hidden services.
	defaultInterval = 5 * time.Minute

	// defaultConcurrency of 1 checks targets strictly one at a time.
	defaultConcurrency = 1

	// defaultMirrorLimit caps how many matches a mirror warning names.
	defaultMirrorLimit = 5
)

// Monitor drives the watch loop: load targets, check each through the
// proxying fetcher, append the outcomes to the store, sleep, repeat.
//
// Design decision: Monitor keeps no per-target state between cycles;
// everything it knows about a target lives in the store. Restarting the
// process therefore loses nothing, and the query commands see exactly
// what the loop saw.
type Monitor struct {
	// targets supplies the list to check. It is reloaded at the start of
	// every cycle, so edits take effect without a restart.
	targets target.Source

	// fetcher performs the proxied HTTP fetches.
	fetcher *fetch.Fetcher

	// store is the ledger every outcome is appended to.
	store *database.MonitorDB

	// interval is the pause between cycles.
	interval time.Duration

	// concurrency is the number of targets checked at once within a cycle.
	concurrency int

	// mirrorLimit caps how many matches a mirror warning names.
	mirrorLimit int

	// logger receives the per-check status lines that are the monitor's
	// primary output.
	logger *slog.Logger

	// now is the clock used to stamp checked_at; tests pin it.
	now func() time.Time

	// storeMu keeps the store interactions of one check contiguous when
	// fetches run in parallel, so notices compare against a consistent
	// ledger.
	storeMu sync.Mutex
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the pause between cycles. Default is 5 minutes.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithConcurrency sets how many targets are checked at once within a
// cycle. Default is 1, which checks strictly sequentially.
func WithConcurrency(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithMirrorLimit caps the number of matches a mirror warning names.
// Default is 5.
func WithMirrorLimit(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.mirrorLimit = n
		}
	}
}

// WithLogger sets a custom logger for the status lines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the clock used to stamp checked_at.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a Monitor over the given target source, fetcher, and store.
func New(targets target.Source, fetcher *fetch.Fetcher, store *database.MonitorDB, opts ...Option) *Monitor {
	m := &Monitor{
		targets:     targets,
		fetcher:     fetcher,
		store:       store,
		interval:    defaultInterval,
		concurrency: defaultConcurrency,
		mirrorLimit: defaultMirrorLimit,
		logger:      slog.Default(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// CycleStats summarizes one pass over the target list.
type CycleStats struct {
	// Targets is the number of targets loaded for the cycle.
	Targets int

	// Succeeded is the number of checks that received an HTTP response.
	Succeeded int

	// Failed is the number of checks recorded as transport failures.
	Failed int

	// NewDiscoveries is the number of (source, onion) pairs seen for the
	// first time during the cycle.
	NewDiscoveries int

	// Elapsed is the wall-clock duration of the cycle.
	Elapsed time.Duration
}

// Run executes check cycles forever with the configured pause between
// them. There is no terminal success state.
//
// Run returns only on context cancellation, which the caller treats as
// a clean shutdown, or on a fatal error: an unreadable target list or a
// storage write failure. Per-target problems never end the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started",
		"interval", m.interval,
		"concurrency", m.concurrency,
	)

	for {
		if _, err := m.RunCycle(ctx); err != nil {
			return err
		}

		// The pause starts after the cycle finishes, so a slow cycle
		// delays the next one rather than overlapping it.
		timer := time.NewTimer(m.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("monitor stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle loads the target list and checks every target once.
//
// Design decision: We use errgroup.SetLimit for both the sequential and
// the parallel mode rather than two code paths. With the default
// concurrency of 1 the group degenerates to an ordered loop, and raising
// the limit changes scheduling only, not semantics.
//
// Per-target failures are recorded and never returned. The error return
// is reserved for the conditions that must stop the loop: an unreadable
// target list, a storage write failure, or cancellation.
func (m *Monitor) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	targets, err := m.targets.Load()
	if err != nil {
		return stats, fmt.Errorf("failed to load targets: %w", err)
	}
	stats.Targets = len(targets)

	if len(targets) == 0 {
		m.logger.Warn("target list is empty, nothing to check")
		return stats, nil
	}

	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	var mu sync.Mutex
	for _, targetURL := range targets {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			out, err := m.checkTarget(gctx, targetURL)
			if err != nil {
				return err
			}

			mu.Lock()
			if out.ok {
				stats.Succeeded++
			} else {
				stats.Failed++
			}
			stats.NewDiscoveries += out.newDiscoveries
			mu.Unlock()

			return nil
		})
	}

	err = g.Wait()
	stats.Elapsed = time.Since(startTime)

	m.logger.Info("cycle complete",
		"targets", stats.Targets,
		"ok", stats.Succeeded,
		"failed", stats.Failed,
		"new_discoveries", stats.NewDiscoveries,
		"elapsed", stats.Elapsed,
	)

	return stats, err
}

// checkOutcome summarizes one target's check for cycle accounting.
type checkOutcome struct {
	ok             bool
	newDiscoveries int
}

// checkTarget runs the fetch, analyze, record sequence for one target.
// Transport failures are recorded as failed checks and parse trouble
// degrades the check; neither is returned. The error return is reserved
// for storage write failures and shutdown, which must abort the cycle.
func (m *Monitor) checkTarget(ctx context.Context, targetURL string) (checkOutcome, error) {
	var out checkOutcome

	// Stamp before the fetch so checked_at reflects when the attempt
	// started, not when a slow response finished.
	checkedAt := m.now().UTC()

	res, err := m.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-fetch. The ledger records target behavior,
			// not operator interrupts.
			return out, ctx.Err()
		}
		return out, m.recordFailure(ctx, checkedAt, targetURL, err)
	}

	// Any response is a successful check, whatever its status code. A
	// 404 or 500 page is still the service talking, and its error page
	// is content worth fingerprinting.
	rec := &model.CheckRecord{
		CheckedAt:  checkedAt,
		TargetURL:  targetURL,
		FinalURL:   &res.FinalURL,
		StatusCode: &res.StatusCode,
		OK:         true,
	}

	var candidates []string
	doc, perr := page.Parse(res.FinalURL, res.Body)
	if perr != nil {
		// The target responded; there is just nothing to fingerprint.
		m.logger.Debug("page analysis degraded", "target", targetURL, "error", perr.Error())
	} else {
		if doc.Title != "" {
			title := doc.Title
			rec.Title = &title
		}
		if sig, ok := doc.Fingerprint(); ok {
			rec.ContentSig = &sig
		}
		candidates = doc.OnionCandidates()
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	// The previous fingerprint must be read before this check is
	// inserted, or every check would compare against itself. A failed
	// lookup skips the notice; the check itself is unaffected.
	var previous *string
	if rec.ContentSig != nil {
		previous, err = m.store.LastContentSignature(ctx, targetURL)
		if err != nil {
			m.logger.Error("last fingerprint lookup failed", "target", targetURL, "error", err.Error())
			previous = nil
		}
	}

	if _, err := m.store.RecordCheck(ctx, rec); err != nil {
		return out, fmt.Errorf("failed to record check for %s: %w", targetURL, err)
	}
	out.ok = true

	m.logger.Info("check ok", "target", targetURL, "status", res.StatusCode)

	if rec.Redirected() {
		m.logger.Info("redirect", "target", targetURL, "final", res.FinalURL)
	}

	if previous != nil && rec.ContentSig != nil && *previous != *rec.ContentSig {
		m.logger.Info("content changed", "target", targetURL, "previous", *previous, "current", *rec.ContentSig)
	}

	if len(candidates) > 0 {
		n, err := m.store.RecordDiscoveries(ctx, checkedAt, targetURL, candidates)
		if err != nil {
			return out, fmt.Errorf("failed to record discoveries for %s: %w", targetURL, err)
		}
		out.newDiscoveries = n
		if n > 0 {
			m.logger.Info("new onions discovered", "source", targetURL, "count", n)
		}
	}

	if rec.ContentSig != nil {
		mirrors, err := m.store.FindMirrors(ctx, *rec.ContentSig, targetURL, m.mirrorLimit)
		if err != nil {
			m.logger.Error("mirror lookup failed", "target", targetURL, "error", err.Error())
		} else if len(mirrors) > 0 {
			m.logger.Warn("mirror-like content", "target", targetURL, "matches", mirrors)
		}
	}

	return out, nil
}

// recordFailure appends a failed-check row with every response field
// null. The returned error is nil unless the write itself failed.
func (m *Monitor) recordFailure(ctx context.Context, checkedAt time.Time, targetURL string, cause error) error {
	reason := cause.Error()
	rec := &model.CheckRecord{
		CheckedAt: checkedAt,
		TargetURL: targetURL,
		OK:        false,
		Error:     &reason,
	}

	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	if _, err := m.store.RecordCheck(ctx, rec); err != nil {
		return fmt.Errorf("failed to record check for %s: %w", targetURL, err)
	}

	m.logger.Warn("check failed", "target", targetURL, "error", reason)
	return nil
}
