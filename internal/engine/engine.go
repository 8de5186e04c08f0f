package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"watchpost/internal/models"
	"watchpost/internal/probe"
)

// Store is the persistence surface the engine needs. Lookups that find
// nothing return (nil, nil).
type Store interface {
	MonitorByID(ctx context.Context, id uint) (*models.Monitor, error)
	DueMonitors(ctx context.Context, now time.Time) ([]*models.Monitor, error)
	ActiveMonitors(ctx context.Context) ([]*models.Monitor, error)
	ActiveHTTPSMonitors(ctx context.Context) ([]*models.Monitor, error)

	CreateCheck(ctx context.Context, check *models.Check) error
	LatestCheck(ctx context.Context, monitorID uint) (*models.Check, error)
	AttachCertResult(ctx context.Context, checkID uint, res *probe.CertResult) error
	SetDomainStatus(ctx context.Context, monitorID uint, res *probe.DomainResult, checkedAt time.Time) error

	OpenDowntime(ctx context.Context, monitorID uint) (*models.Downtime, error)
	CreateDowntime(ctx context.Context, dt *models.Downtime) error
	SaveDowntime(ctx context.Context, dt *models.Downtime) error
}

// Notifier delivers human-readable alerts. Implementations must not block
// state transitions: a failed delivery is the notifier's problem, the
// engine never sees it.
type Notifier interface {
	MonitorDown(ctx context.Context, monitor *models.Monitor, reason string)
	MonitorStillDown(ctx context.Context, monitor *models.Monitor, downFor time.Duration)
	MonitorRecovered(ctx context.Context, monitor *models.Monitor, downFor time.Duration)
	CertExpiry(ctx context.Context, monitor *models.Monitor, res *probe.CertResult)
	DomainExpiry(ctx context.Context, monitor *models.Monitor, res *probe.DomainResult)
}

// Connectivity gates all checks on local network reachability.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Config holds the engine's temporal knobs.
type Config struct {
	SettleDelay   time.Duration // wait before the confirmatory retry
	RenotifyAfter time.Duration // still-down notification interval
	FastPoll      time.Duration // recovery poll cadence while down
	BatchSize     int           // concurrent probes per sweep
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SettleDelay:   3 * time.Second,
		RenotifyAfter: 10 * time.Minute,
		FastPoll:      3 * time.Second,
		BatchSize:     10,
	}
}

// Engine is the monitor status state machine. A monitor is logically Up
// when it has no open Downtime and Down when one exists; the engine is the
// sole writer of Downtime transitions.
type Engine struct {
	store        Store
	probers      map[string]probe.Prober
	certs        *probe.CertProber
	domains      *probe.WhoisProber
	notifier     Notifier
	connectivity Connectivity
	log          zerolog.Logger
	cfg          Config

	// Injectable for tests.
	now func() time.Time

	mu       sync.Mutex
	inflight map[uint]bool   // at-most-one processCheck per monitor
	watching map[uint]bool   // at-most-one recovery watcher per monitor
	sweeps   map[string]bool // at-most-one pass per sweep kind

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates an engine.
func New(
	store Store,
	probers []probe.Prober,
	certs *probe.CertProber,
	domains *probe.WhoisProber,
	notifier Notifier,
	connectivity Connectivity,
	log zerolog.Logger,
	cfg Config,
) *Engine {
	byKind := make(map[string]probe.Prober, len(probers))
	for _, p := range probers {
		byKind[p.Kind()] = p
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.FastPoll <= 0 {
		cfg.FastPoll = 3 * time.Second
	}
	return &Engine{
		store:        store,
		probers:      byKind,
		certs:        certs,
		domains:      domains,
		notifier:     notifier,
		connectivity: connectivity,
		log:          log,
		cfg:          cfg,
		now:          time.Now,
		inflight:     make(map[uint]bool),
		watching:     make(map[uint]bool),
		sweeps:       make(map[string]bool),
		done:         make(chan struct{}),
	}
}

// Close stops recovery watchers and waits for them to exit.
func (e *Engine) Close() {
	close(e.done)
	e.wg.Wait()
}

// ProcessCheck runs one full check cycle for a monitor: gate on
// connectivity, probe, debounce with a settle-delay retry, then apply the
// down or up transition.
func (e *Engine) ProcessCheck(ctx context.Context, monitor *models.Monitor) {
	if !e.connectivity.Online(ctx) {
		// Environment condition, not a monitor condition: abort the
		// pass without a Check row or state change.
		e.log.Debug().Msg("no connectivity, skipping check pass")
		return
	}

	if !e.acquire(monitor.ID) {
		return
	}
	defer e.release(monitor.ID)

	result := e.probeAndRecord(ctx, monitor)
	if result.Up() {
		e.transitionUp(ctx, monitor)
		return
	}

	// Debounce: confirm with a second probe after the settle delay so a
	// transient blip never opens a Downtime.
	if !e.settle(ctx) {
		return
	}

	retry := e.probeAndRecord(ctx, monitor)
	if retry.Up() {
		e.transitionUp(ctx, monitor)
		return
	}

	e.transitionDown(ctx, monitor, retry)
}

// probeAndRecord runs the monitor's prober and persists the resulting
// Check. It always returns a result, even when the probe or the insert
// failed.
func (e *Engine) probeAndRecord(ctx context.Context, monitor *models.Monitor) *probe.Result {
	prober, ok := e.probers[monitor.Kind]
	if !ok {
		msg := "no prober for monitor kind " + monitor.Kind
		e.log.Error().Uint("monitor_id", monitor.ID).Str("kind", monitor.Kind).Msg("unknown monitor kind")
		return &probe.Result{Status: models.StatusDown, ErrorMessage: &msg}
	}

	result := prober.Probe(ctx, monitor)

	check := &models.Check{
		MonitorID:    monitor.ID,
		Status:       result.Status,
		ErrorMessage: result.ErrorMessage,
		StatusCode:   result.StatusCode,
		ContentValid: result.ContentValid,
		CheckedAt:    e.now(),
	}
	rt := result.ResponseTime
	check.ResponseTime = &rt
	if result.Body != "" {
		body := result.Body
		check.Body = &body
	}

	if err := e.store.CreateCheck(ctx, check); err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to persist check")
	}

	e.log.Debug().
		Uint("monitor_id", monitor.ID).
		Str("status", result.Status).
		Int64("response_time_ms", result.ResponseTime).
		Msg("check recorded")

	return result
}

// transitionDown opens a Downtime if none exists (with an immediate down
// notification) or re-notifies when the open one has been quiet for the
// renotify interval.
func (e *Engine) transitionDown(ctx context.Context, monitor *models.Monitor, result *probe.Result) {
	dt, err := e.store.OpenDowntime(ctx, monitor.ID)
	if err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to load open downtime")
		return
	}

	now := e.now()

	if dt == nil {
		dt = &models.Downtime{
			MonitorID:      monitor.ID,
			StartedAt:      now,
			LastNotifiedAt: now,
		}
		if err := e.store.CreateDowntime(ctx, dt); err != nil {
			e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to create downtime")
			return
		}

		reason := ""
		if result != nil && result.ErrorMessage != nil {
			reason = *result.ErrorMessage
		}
		e.notifier.MonitorDown(ctx, monitor, reason)
		e.log.Warn().Uint("monitor_id", monitor.ID).Str("reason", reason).Msg("monitor is down")

		e.startRecoveryWatch(monitor.ID)
		return
	}

	// Absolute value tolerates clock jitter between writers.
	elapsed := now.Sub(dt.LastNotifiedAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	if elapsed < e.cfg.RenotifyAfter {
		return
	}

	dt.LastNotifiedAt = now
	if err := e.store.SaveDowntime(ctx, dt); err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to update downtime")
		return
	}
	e.notifier.MonitorStillDown(ctx, monitor, dt.Duration(now))
}

// transitionUp closes the open Downtime if one exists and sends the
// recovery notification. With no open Downtime it is a no-op.
func (e *Engine) transitionUp(ctx context.Context, monitor *models.Monitor) {
	dt, err := e.store.OpenDowntime(ctx, monitor.ID)
	if err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to load open downtime")
		return
	}
	if dt == nil {
		return
	}

	now := e.now()
	dt.Close(now)
	if err := e.store.SaveDowntime(ctx, dt); err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to close downtime")
		return
	}

	total := time.Duration(*dt.DurationSeconds) * time.Second
	e.notifier.MonitorRecovered(ctx, monitor, total)
	e.log.Info().
		Uint("monitor_id", monitor.ID).
		Dur("downtime", total).
		Msg("monitor recovered")
}

// startRecoveryWatch launches the fast-poll loop for a down monitor. The
// loop re-probes on a short cadence until the monitor recovers, is
// deactivated, or disappears; it is bounded by an explicit guard each
// iteration rather than rescheduling itself.
func (e *Engine) startRecoveryWatch(monitorID uint) {
	e.mu.Lock()
	if e.watching[monitorID] {
		e.mu.Unlock()
		return
	}
	e.watching[monitorID] = true
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.watching, monitorID)
			e.mu.Unlock()
		}()
		e.recoveryLoop(monitorID)
	}()
}

func (e *Engine) recoveryLoop(monitorID uint) {
	ticker := time.NewTicker(e.cfg.FastPoll)
	defer ticker.Stop()

	ctx := context.Background()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
		}

		monitor, err := e.store.MonitorByID(ctx, monitorID)
		if err != nil || monitor == nil || !monitor.Active {
			return
		}

		dt, err := e.store.OpenDowntime(ctx, monitorID)
		if err != nil || dt == nil {
			// Recovered through the regular schedule.
			return
		}

		if !e.acquire(monitorID) {
			// A scheduled processCheck is in flight; let it finish.
			continue
		}

		result := e.probeAndRecord(ctx, monitor)
		if result.Up() {
			e.transitionUp(ctx, monitor)
			e.release(monitorID)
			return
		}
		e.transitionDown(ctx, monitor, result)
		e.release(monitorID)
	}
}

func (e *Engine) settle(ctx context.Context) bool {
	if e.cfg.SettleDelay <= 0 {
		return true
	}
	timer := time.NewTimer(e.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-e.done:
		return false
	case <-timer.C:
		return true
	}
}

func (e *Engine) acquire(monitorID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[monitorID] {
		return false
	}
	e.inflight[monitorID] = true
	return true
}

func (e *Engine) release(monitorID uint) {
	e.mu.Lock()
	delete(e.inflight, monitorID)
	e.mu.Unlock()
}

func (e *Engine) acquireSweep(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sweeps[name] {
		return false
	}
	e.sweeps[name] = true
	return true
}

func (e *Engine) releaseSweep(name string) {
	e.mu.Lock()
	delete(e.sweeps, name)
	e.mu.Unlock()
}
