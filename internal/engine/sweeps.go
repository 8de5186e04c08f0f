package engine

import (
	"context"
	"sync"

	"watchpost/internal/models"
	"watchpost/internal/probe"
)

// SweepDueMonitors selects every active monitor whose latest Check is
// absent or older than its interval and runs ProcessCheck for each, in
// bounded concurrent batches. Overlapping invocations are no-ops.
func (e *Engine) SweepDueMonitors(ctx context.Context) {
	if !e.acquireSweep("monitors") {
		return
	}
	defer e.releaseSweep("monitors")

	if !e.connectivity.Online(ctx) {
		e.log.Debug().Msg("no connectivity, skipping monitor sweep")
		return
	}

	monitors, err := e.store.DueMonitors(ctx, e.now())
	if err != nil {
		e.log.Error().Err(err).Msg("failed to select due monitors")
		return
	}
	if len(monitors) == 0 {
		return
	}

	e.log.Debug().Int("count", len(monitors)).Msg("sweeping due monitors")

	sem := make(chan struct{}, e.cfg.BatchSize)
	var wg sync.WaitGroup
	for _, monitor := range monitors {
		m := monitor
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e.ProcessCheck(ctx, m)
		}()
	}
	wg.Wait()
}

// SweepSSL inspects the certificate of every active HTTPS monitor, writes
// the result onto the monitor's latest Check, and notifies on expired or
// soon-expiring certificates. A monitor with no Check yet is skipped.
func (e *Engine) SweepSSL(ctx context.Context) {
	if !e.acquireSweep("ssl") {
		return
	}
	defer e.releaseSweep("ssl")

	monitors, err := e.store.ActiveHTTPSMonitors(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to select HTTPS monitors")
		return
	}

	sem := make(chan struct{}, e.cfg.BatchSize)
	var wg sync.WaitGroup
	for _, monitor := range monitors {
		m := monitor
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e.checkCertificate(ctx, m)
		}()
	}
	wg.Wait()
}

func (e *Engine) checkCertificate(ctx context.Context, monitor *models.Monitor) {
	res := e.certs.Check(monitor.URL)

	latest, err := e.store.LatestCheck(ctx, monitor.ID)
	if err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to load latest check")
		return
	}
	if latest == nil {
		// Nowhere to attach the result yet; not an error.
		return
	}

	if err := e.store.AttachCertResult(ctx, latest.ID, res); err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to attach certificate result")
		return
	}

	if res.Expired() || (res.Valid && probe.ExpiringSoon(&res.DaysLeft)) {
		e.notifier.CertExpiry(ctx, monitor, res)
	}
}

func (e *Engine) checkDomain(ctx context.Context, monitor *models.Monitor) {
	res := e.domains.GetExpiration(ctx, monitor.URL)

	if err := e.store.SetDomainStatus(ctx, monitor.ID, res, e.now()); err != nil {
		e.log.Error().Err(err).Uint("monitor_id", monitor.ID).Msg("failed to record domain status")
		return
	}

	if res.ErrorMessage == nil && probe.ExpiringSoon(res.DaysLeft) {
		e.notifier.DomainExpiry(ctx, monitor, res)
	}
}

// SweepDomains runs the WHOIS prober for every active monitor and records
// the expiration onto the monitor row, notifying on expiring domains. The
// prober's cache keeps repeat sweeps from re-querying WHOIS servers.
func (e *Engine) SweepDomains(ctx context.Context) {
	if !e.acquireSweep("domains") {
		return
	}
	defer e.releaseSweep("domains")

	monitors, err := e.store.ActiveMonitors(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to select active monitors")
		return
	}

	sem := make(chan struct{}, e.cfg.BatchSize)
	var wg sync.WaitGroup
	for _, monitor := range monitors {
		m := monitor
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			e.checkDomain(ctx, m)
		}()
	}
	wg.Wait()
}
