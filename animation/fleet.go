package animation

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/transitviz/railtracker/feed"
	"github.com/transitviz/railtracker/geometry"
	"github.com/transitviz/railtracker/track"
)

// Tuning holds the engine's tuned constants. The shipped defaults fit the
// bundled network; they are configuration, not laws.
type Tuning struct {
	// SnapThreshold is the straight-line gap (coordinate units) above
	// which a refresh teleports instead of blending.
	SnapThreshold float64
	// RetireProximity is how close (along the track) a vanished vehicle
	// must be to a dead end to earn exit coasting.
	RetireProximity float64
	// CorrectionDuration is the fixed length of a blend.
	CorrectionDuration time.Duration
	// RetireTimeout removes a coasting vehicle that never reaches its
	// terminus.
	RetireTimeout time.Duration
}

// DefaultTuning matches the bundled network's scale.
func DefaultTuning() Tuning {
	return Tuning{
		SnapThreshold:      0.02,
		RetireProximity:    0.01,
		CorrectionDuration: 4 * time.Second,
		RetireTimeout:      30 * time.Second,
	}
}

// Metrics is the fleet's instrumentation hook; a nil Metrics disables it.
type Metrics interface {
	SetActiveVehicles(n int)
	SetRetiringVehicles(n int)
	SnapInc()
	BlendInc()
	EstimateFallbackInc()
}

// VehiclePosition is the per-frame read surface handed to rendering,
// publishing and the HTTP API.
type VehiclePosition struct {
	ID          string  `json:"id"`
	Line        string  `json:"line"`
	Destination string  `json:"destination,omitempty"`
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
	Heading     float64 `json:"heading"`
	Stopped     bool    `json:"stopped"`
}

// Fleet owns every live vehicle's animation state. One mutex serializes
// refresh writes, frame ticks and HTTP reads, so a refresh's state
// replacement is atomic with respect to everything that reads it.
type Fleet struct {
	mu       sync.Mutex
	networks map[string]*track.Network
	vehicles map[string]*Vehicle
	tuning   Tuning
	metrics  Metrics

	lastTick    time.Time
	lastRefresh time.Time

	log *logrus.Entry
}

// NewFleet creates a fleet over per-line networks. metrics may be nil.
func NewFleet(networks map[string]*track.Network, tuning Tuning, metrics Metrics) *Fleet {
	return &Fleet{
		networks: networks,
		vehicles: map[string]*Vehicle{},
		tuning:   tuning,
		metrics:  metrics,
		log:      logrus.WithField("component", "animation"),
	}
}

// LastRefresh returns when the fleet last applied a feed update.
func (f *Fleet) LastRefresh() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRefresh
}

// ApplyUpdate ingests one refresh's authoritative samples. Present
// vehicles are snapped or blended; previously tracked vehicles missing
// from the sample set either begin exit coasting (when near a dead end)
// or are dropped as feed noise.
func (f *Fleet) ApplyUpdate(samples []feed.Train, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]struct{}, len(samples))
	for _, sample := range samples {
		key := sample.Key()
		seen[key] = struct{}{}
		f.applySample(key, sample, now)
	}

	for key, v := range f.vehicles {
		if _, ok := seen[key]; ok {
			continue
		}
		if v.State == StateRetiring {
			continue // already coasting
		}
		if !f.beginRetirement(v, now) {
			f.log.WithFields(logrus.Fields{"vehicle": key, "line": v.Line}).
				Debug("vehicle vanished mid-route, dropping")
			delete(f.vehicles, key)
		}
	}

	f.lastRefresh = now
	f.updateGauges()
}

func (f *Fleet) applySample(key string, sample feed.Train, now time.Time) {
	net := f.networks[sample.Line]
	v, exists := f.vehicles[key]
	if !exists {
		v = &Vehicle{ID: sample.RunNumber, Line: sample.Line, State: StateFresh}
		f.vehicles[key] = v
	}
	v.Destination = sample.DestName
	v.LastRaw = sample
	v.LastSeen = now
	v.Stopped = false

	if net == nil || net.Empty() {
		// Missing geometry: degrade to raw feed coordinates.
		v.Pos = track.NoPosition
		v.Pos.Lon, v.Pos.Lat = sample.Lon, sample.Lat
		v.State = StateSettled
		v.plan, v.retire = nil, nil
		return
	}

	snapped := net.Snap(sample.Lon, sample.Lat)
	if !exists {
		v.Pos = snapped
		v.Direction = net.DirectionFromHeading(snapped, sample.Heading)
		return
	}

	// Authoritative data wins over any in-flight plan or coast.
	v.plan, v.retire = nil, nil

	rendered := v.Pos
	gap := geometry.Dist(rendered.Point(), snapped.Point())
	if !rendered.Valid() || gap >= f.tuning.SnapThreshold {
		// Feed glitch or vehicle reassignment: teleport rather than
		// slide through implausible track.
		v.Pos = snapped
		v.Direction = net.DirectionFromHeading(snapped, sample.Heading)
		v.State = StateSettled
		if f.metrics != nil {
			f.metrics.SnapInc()
		}
		return
	}
	if gap == 0 {
		v.Pos = snapped
		v.Direction = net.DirectionFromHeading(snapped, sample.Heading)
		v.State = StateSettled
		return
	}

	// The heading is resolved against the edge the blend starts from,
	// since that is where walking begins.
	dir := net.DirectionFromHeading(rendered, sample.Heading)
	dist, fallback := net.DistanceBetween(rendered, snapped, dir)
	v.plan = &CorrectionPlan{
		From:          rendered,
		To:            snapped,
		Direction:     dir,
		TrackDistance: dist,
		Start:         now,
		Duration:      f.tuning.CorrectionDuration,
		Fallback:      fallback,
	}
	v.State = StateCorrecting
	v.Direction = dir
	if f.tuning.CorrectionDuration > 0 {
		v.Speed = dist / f.tuning.CorrectionDuration.Seconds()
	}
	if f.metrics != nil {
		f.metrics.BlendInc()
		if fallback {
			f.metrics.EstimateFallbackInc()
		}
	}
}

// beginRetirement walks both directions from the vehicle's last known
// position with the proximity budget; a walk that halts inside the budget
// found a dead end. The nearer dead end becomes the coast target. Returns
// false when neither direction reaches one, i.e. the vehicle disappeared
// mid-route.
func (f *Fleet) beginRetirement(v *Vehicle, now time.Time) bool {
	net := f.networks[v.Line]
	if net == nil || net.Empty() || !v.Pos.Valid() {
		return false
	}

	type candidate struct {
		pos track.Position
		dir int
	}
	var cands []candidate
	for _, dir := range []int{1, -1} {
		end, _, stopped := net.Advance(v.Pos, f.tuning.RetireProximity, dir)
		if stopped {
			cands = append(cands, candidate{pos: end, dir: dir})
		}
	}
	if len(cands) == 0 {
		return false
	}

	best := cands[0]
	if len(cands) == 2 {
		d0 := geometry.Dist(v.Pos.Point(), cands[0].pos.Point())
		d1 := geometry.Dist(v.Pos.Point(), cands[1].pos.Point())
		if d1 < d0 {
			best = cands[1]
		}
	}

	if v.Speed <= 0 {
		// Never corrected, so no observed speed; coast at a pace that
		// reaches the terminus inside the timeout.
		v.Speed = f.tuning.RetireProximity / (f.tuning.RetireTimeout.Seconds() / 2)
	}
	v.State = StateRetiring
	v.plan = nil
	v.retire = &retirement{
		Target:    best.pos,
		Direction: best.dir,
		Deadline:  now.Add(f.tuning.RetireTimeout),
	}
	f.log.WithFields(logrus.Fields{"vehicle": v.Line + ":" + v.ID}).
		Debug("vehicle left feed near terminus, coasting out")
	return true
}

// Tick advances every vehicle one animation frame.
func (f *Fleet) Tick(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dt := 0.0
	if !f.lastTick.IsZero() {
		dt = now.Sub(f.lastTick).Seconds()
	}
	f.lastTick = now

	for key, v := range f.vehicles {
		switch v.State {
		case StateFresh:
			v.State = StateSettled
		case StateCorrecting:
			f.tickCorrection(v, now)
		case StateSettled:
			// Idempotent: repeated ticks with no refresh leave the
			// position untouched.
		case StateRetiring:
			f.tickRetirement(v, now, dt)
		}
		if v.State == StateRemoved {
			delete(f.vehicles, key)
		}
	}
	f.updateGauges()
}

func (f *Fleet) tickCorrection(v *Vehicle, now time.Time) {
	plan := v.plan
	net := f.networks[v.Line]
	if plan == nil || net == nil {
		v.State = StateSettled
		return
	}

	elapsed := now.Sub(plan.Start)
	if elapsed >= plan.Duration {
		// Land exactly on the authoritative position, discarding the
		// walk's accumulated floating-point error.
		v.Pos = plan.To
		v.Direction = plan.Direction
		v.Stopped = false
		v.State = StateSettled
		v.plan = nil
		return
	}

	u := float64(elapsed) / float64(plan.Duration)
	dist := smoothstep(u) * plan.TrackDistance
	pos, dir, stopped := net.Advance(plan.From, dist, plan.Direction)
	v.Pos = pos
	v.Direction = dir
	v.Stopped = stopped
}

func (f *Fleet) tickRetirement(v *Vehicle, now time.Time, dt float64) {
	ret := v.retire
	net := f.networks[v.Line]
	if ret == nil || net == nil {
		v.State = StateRemoved
		return
	}
	if now.After(ret.Deadline) {
		v.State = StateRemoved
		return
	}
	if dt <= 0 {
		return
	}

	pos, dir, stopped := net.Advance(v.Pos, v.Speed*dt, ret.Direction)
	v.Pos = pos
	ret.Direction = dir
	if stopped || geometry.Dist(pos.Point(), ret.Target.Point()) < 1e-9 {
		v.Stopped = true
		v.State = StateRemoved
	}
}

// Positions returns the current rendered fleet, one entry per live
// vehicle. Vehicles on lines without geometry report their raw feed
// coordinate and heading.
func (f *Fleet) Positions() []VehiclePosition {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]VehiclePosition, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, f.render(v))
	}
	return out
}

func (f *Fleet) render(v *Vehicle) VehiclePosition {
	vp := VehiclePosition{
		ID:          v.ID,
		Line:        v.Line,
		Destination: v.Destination,
		Lon:         v.Pos.Lon,
		Lat:         v.Pos.Lat,
		Heading:     v.LastRaw.Heading,
		Stopped:     v.Stopped,
	}
	net := f.networks[v.Line]
	if v.Pos.Valid() && net != nil && !net.Empty() {
		pts := net.Segments[v.Pos.Segment].Points
		a, b := pts[v.Pos.Edge], pts[v.Pos.Edge+1]
		if v.Direction >= 0 {
			vp.Heading = geometry.Bearing(a, b)
		} else {
			vp.Heading = geometry.Bearing(b, a)
		}
	}
	return vp
}

// VehicleCount returns the number of live vehicles.
func (f *Fleet) VehicleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.vehicles)
}

func (f *Fleet) updateGauges() {
	if f.metrics == nil {
		return
	}
	retiring := 0
	for _, v := range f.vehicles {
		if v.State == StateRetiring {
			retiring++
		}
	}
	f.metrics.SetActiveVehicles(len(f.vehicles))
	f.metrics.SetRetiringVehicles(retiring)
}
