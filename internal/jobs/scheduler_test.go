package jobs

import (
	"testing"

	"github.com/robfig/cron/v3"

	"watchpost/internal/config"
)

func TestDefaultCronSpecsParse(t *testing.T) {
	cfg := config.Load()

	specs := map[string]string{
		"monitor":   cfg.Sweeps.MonitorCron,
		"ssl":       cfg.Sweeps.SSLCron,
		"domain":    cfg.Sweeps.DomainCron,
		"retention": cfg.Sweeps.RetentionCron,
	}

	for name, spec := range specs {
		if _, err := cron.ParseStandard(spec); err != nil {
			t.Errorf("%s cron spec %q does not parse: %v", name, spec, err)
		}
	}
}
