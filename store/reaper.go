package store

import (
	"log/slog"
	"sync"
	"time"
)

// Reaper periodically evicts empty rooms whose inactivity exceeds the
// threshold. It never touches a room that still has participants.
type Reaper struct {
	store     *Store
	interval  time.Duration
	threshold time.Duration
	stop      chan struct{}
	wg        sync.WaitGroup
}

func NewReaper(store *Store, interval, threshold time.Duration) *Reaper {
	return &Reaper{
		store:     store,
		interval:  interval,
		threshold: threshold,
		stop:      make(chan struct{}),
	}
}

func (r *Reaper) Start() {
	r.wg.Add(1)
	go r.run()
	slog.Info("reaper started", "interval", r.interval, "threshold", r.threshold)
}

func (r *Reaper) Stop() {
	close(r.stop)
	r.wg.Wait()
	slog.Info("reaper stopped")
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep runs one eviction pass and returns the number of rooms removed.
func (r *Reaper) Sweep() int {
	reaped := r.store.Reap(r.threshold)
	if len(reaped) > 0 {
		slog.Info("reaped stale rooms", "count", len(reaped), "rooms", reaped)
	}
	return len(reaped)
}
