package animation

import (
	"time"

	"github.com/transitviz/railtracker/feed"
	"github.com/transitviz/railtracker/track"
)

// State tags a vehicle's animation lifecycle.
type State int

const (
	// StateFresh is a vehicle just snapped from its first feed sample.
	StateFresh State = iota
	// StateCorrecting is a vehicle sliding along the track toward a newly
	// fetched authoritative position.
	StateCorrecting
	// StateSettled is a vehicle sitting at its authoritative position
	// until the next refresh.
	StateSettled
	// StateRetiring is a vehicle absent from the feed, coasting toward a
	// terminus before removal.
	StateRetiring
	// StateRemoved marks a vehicle for deletion at the end of the tick.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateCorrecting:
		return "correcting"
	case StateSettled:
		return "settled"
	case StateRetiring:
		return "retiring"
	case StateRemoved:
		return "removed"
	}
	return "unknown"
}

// CorrectionPlan describes a bounded-duration slide from one track
// position to another along the graph, never a straight line. Discarded
// once the duration elapses or a newer refresh replaces it.
type CorrectionPlan struct {
	From          track.Position
	To            track.Position
	Direction     int
	TrackDistance float64
	Start         time.Time
	Duration      time.Duration
	// Fallback records that TrackDistance is a straight-line estimate
	// because the walk between the endpoints diverged.
	Fallback bool
}

// retirement is the Retiring state's payload: the dead end being coasted
// toward and the hard removal deadline.
type retirement struct {
	Target    track.Position
	Direction int
	Deadline  time.Time
}

// Vehicle is one live vehicle's animation state. Owned exclusively by the
// fleet; its track position is replaced wholesale on each update.
type Vehicle struct {
	ID          string
	Line        string
	Destination string

	State     State
	Pos       track.Position
	Direction int
	// Speed is the most recent correction's track speed in coordinate
	// units per second; retirement coasting reuses it.
	Speed   float64
	Stopped bool

	LastRaw  feed.Train
	LastSeen time.Time

	plan   *CorrectionPlan
	retire *retirement
}

// smoothstep is the correction ease, t²(3−2t) on [0,1].
func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}
