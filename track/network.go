package track

import (
	"math"

	"github.com/transitviz/railtracker/geometry"
)

const (
	// DefaultConnectTolerance closes real gaps between drawn segments
	// without merging distinct parallel tracks. Projection units, not
	// meters; tuned for the shipped network, configurable per deployment.
	DefaultConnectTolerance = 5e-4

	// maxWalkIterations bounds Advance against cyclic or degenerate
	// geometry.
	maxWalkIterations = 10000
)

// Network is one line's navigable geometry: the segment list from the
// geometry index plus the tuned connectivity tolerance.
type Network struct {
	Segments         []geometry.Segment
	ConnectTolerance float64
}

// NewNetwork wraps a segment list with the default tolerance.
func NewNetwork(segments []geometry.Segment) *Network {
	return &Network{Segments: segments, ConnectTolerance: DefaultConnectTolerance}
}

// Empty reports whether the network has no animable geometry.
func (n *Network) Empty() bool { return len(n.Segments) == 0 }

// Snap projects an arbitrary coordinate onto the nearest point of the
// network. Every edge of every segment is tested with a clamped
// perpendicular projection and the global minimum wins; the first minimum
// found breaks ties. O(total edge count), which is fine for networks of a
// few hundred edges snapped only on feed refresh.
//
// With no segments the input comes back unchanged as NoPosition and the
// caller must not trust direction or advance results derived from it.
func (n *Network) Snap(lon, lat float64) Position {
	if n.Empty() {
		p := NoPosition
		p.Lon, p.Lat = lon, lat
		return p
	}

	best := Position{Segment: 0, Edge: 0, T: 0}
	minDist := math.MaxFloat64

	for si, seg := range n.Segments {
		pts := seg.Points
		for i := 0; i < len(pts)-1; i++ {
			vx := pts[i+1][0] - pts[i][0]
			vy := pts[i+1][1] - pts[i][1]
			wx := lon - pts[i][0]
			wy := lat - pts[i][1]

			t := 0.0
			if denom := vx*vx + vy*vy; denom > 0 {
				t = (wx*vx + wy*vy) / denom
				if t < 0 {
					t = 0
				} else if t > 1 {
					t = 1
				}
			}

			px := pts[i][0] + t*vx
			py := pts[i][1] + t*vy
			dx := lon - px
			dy := lat - py
			dist := dx*dx + dy*dy

			if dist < minDist {
				minDist = dist
				best = Position{Segment: si, Edge: i, T: t, Lon: px, Lat: py}
			}
		}
	}
	return best
}
