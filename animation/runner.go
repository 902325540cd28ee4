package animation

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/transitviz/railtracker/feed"
)

// Publisher receives every rendered position each frame. Optional.
type Publisher interface {
	PublishPosition(at time.Time, pos VehiclePosition) error
}

// RunnerMetrics instruments the runner's two loops; a nil value disables it.
type RunnerMetrics interface {
	RefreshObserve(d time.Duration)
	TickObserve(d time.Duration)
	FeedErrorInc()
}

// Runner drives the fleet: a refresh ticker fetches the feed and applies
// the sample set, a frame ticker advances the animation and hands rendered
// positions to the publisher. The fleet's mutex gives refreshes
// last-update-wins semantics over in-flight corrections.
type Runner struct {
	fleet           *Fleet
	source          feed.Source
	publisher       Publisher
	metrics         RunnerMetrics
	refreshInterval time.Duration
	frameInterval   time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logrus.Entry
}

// NewRunner wires a fleet to a feed source. publisher and metrics may be nil.
func NewRunner(fleet *Fleet, source feed.Source, publisher Publisher, metrics RunnerMetrics, refreshInterval, frameInterval time.Duration) *Runner {
	if refreshInterval <= 0 {
		refreshInterval = 5 * time.Second
	}
	if frameInterval <= 0 {
		frameInterval = 100 * time.Millisecond
	}
	return &Runner{
		fleet:           fleet,
		source:          source,
		publisher:       publisher,
		metrics:         metrics,
		refreshInterval: refreshInterval,
		frameInterval:   frameInterval,
		log:             logrus.WithField("component", "runner"),
	}
}

// Start launches the refresh and frame loops. The first refresh runs
// immediately so the fleet is populated before the first frame.
func (r *Runner) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.refresh(ctx)
		ticker := time.NewTicker(r.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refresh(ctx)
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.frameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.frame(now)
			}
		}
	}()
}

// Stop cancels both loops and waits for them to drain.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Runner) refresh(ctx context.Context) {
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, r.refreshInterval)
	defer cancel()

	samples, err := r.source.Positions(fetchCtx)
	if err != nil {
		// The previous tick's state keeps serving reads unmodified.
		r.log.WithError(err).Warn("feed refresh failed")
		if r.metrics != nil {
			r.metrics.FeedErrorInc()
		}
		return
	}
	r.fleet.ApplyUpdate(samples, time.Now())
	if r.metrics != nil {
		r.metrics.RefreshObserve(time.Since(start))
	}
}

func (r *Runner) frame(now time.Time) {
	start := time.Now()
	r.fleet.Tick(now)
	if r.metrics != nil {
		r.metrics.TickObserve(time.Since(start))
	}
	if r.publisher == nil {
		return
	}
	for _, pos := range r.fleet.Positions() {
		if err := r.publisher.PublishPosition(now, pos); err != nil {
			r.log.WithError(err).Debug("position publish failed")
		}
	}
}
