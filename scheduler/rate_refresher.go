package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"arcognition/currency"
)

// RateRefresher re-fetches the FX rate table on a schedule so long-running
// processes don't serve stale rates. The rate cache works without it; a
// failed refresh keeps the previous table.
type RateRefresher struct {
	cron  *cron.Cron
	rates *currency.RateCache
	spec  string
}

// NewRateRefresher creates a refresher with a cron spec like "0 0 */6 * * *".
func NewRateRefresher(rates *currency.RateCache, spec string) *RateRefresher {
	return &RateRefresher{
		cron:  cron.New(cron.WithSeconds()),
		rates: rates,
		spec:  spec,
	}
}

// Start schedules the refresh and warms the table immediately.
func (rr *RateRefresher) Start() {
	_, err := rr.cron.AddFunc(rr.spec, rr.refresh)
	if err != nil {
		log.Printf("Failed to schedule rate refresher: %v", err)
		return
	}

	// Warm the cache on startup so the first request doesn't pay for the
	// fetch.
	go rr.refresh()

	rr.cron.Start()
	log.Printf("Rate refresher scheduled: %s", rr.spec)
}

// Stop stops the scheduled refreshes.
func (rr *RateRefresher) Stop() {
	if rr.cron != nil {
		rr.cron.Stop()
	}
}

func (rr *RateRefresher) refresh() {
	if err := rr.rates.Refresh(context.Background()); err != nil {
		log.Printf("Rate refresh failed, keeping previous table: %v", err)
	}
}
