package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omnigate/omnigate/internal/pkg/logs"
)

// cronParser is a standard 5-field cron expression parser (minute hour dom
// month dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

const defaultMaintenanceSchedule = "*/5 * * * *"

// runMaintenance sweeps idle rate limiter windows and refreshes the access
// rule cache on the configured cron schedule until the context ends.
func (gw *Gateway) runMaintenance(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = defaultMaintenanceSchedule
	}
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("parse maintenance schedule %q: %w", schedule, err)
	}

	go func() {
		for {
			next := sched.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			swept := gw.limiter.Sweep()
			metricSweptWindows.Add(float64(swept))

			if err := gw.rules.Reload(ctx); err != nil {
				logs.CtxWarn(ctx, "[maintenance] rule reload failed: %v", err)
			}

			metricSweeps.Inc()
			logs.CtxDebug(ctx, "[maintenance] swept %d idle windows, %d tracked", swept, gw.limiter.Size())
		}
	}()
	return nil
}
