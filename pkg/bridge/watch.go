package bridge

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DeviceLister is the part of Client the watcher needs.
type DeviceLister interface {
	ListDevices(ctx context.Context) []string
}

// DeviceChange is emitted when the ready set differs from the previous poll.
// The first poll is always emitted.
type DeviceChange struct {
	Devices []string `json:"devices"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Watcher polls the registry at a bounded rate.
type Watcher struct {
	lister  DeviceLister
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewWatcher polls lister at most once per interval.
func NewWatcher(lister DeviceLister, interval time.Duration, logger zerolog.Logger) *Watcher {
	return &Watcher{
		lister:  lister,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

// SetInterval changes the polling interval of a running watcher.
func (w *Watcher) SetInterval(interval time.Duration) {
	w.limiter.SetLimit(rate.Every(interval))
}

// Run polls until ctx ends and calls onChange for every difference.
func (w *Watcher) Run(ctx context.Context, onChange func(DeviceChange)) {
	var prev []string
	first := true
	for {
		// With a burst of one, Wait only fails because of ctx.
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		cur := w.lister.ListDevices(ctx)
		if ctx.Err() != nil {
			return
		}

		added, removed := diffDevices(prev, cur)
		if first || len(added) > 0 || len(removed) > 0 {
			w.logger.Debug().Strs("added", added).Strs("removed", removed).Msg("Device set changed")
			onChange(DeviceChange{Devices: cur, Added: added, Removed: removed})
		}
		first = false
		prev = cur
	}
}

// diffDevices keeps the reporting order of each side.
func diffDevices(prev, cur []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, id := range prev {
		inPrev[id] = true
	}
	inCur := make(map[string]bool, len(cur))
	for _, id := range cur {
		inCur[id] = true
		if !inPrev[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !inCur[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
