package track

import "github.com/transitviz/railtracker/geometry"

// Position identifies a point on the network as a fraction T along the edge
// between vertices Edge and Edge+1 of segment Segment. Lon/Lat is the
// resolved coordinate, kept denormalized for cheap reads. A Position is
// replaced wholesale on every update, never mutated in place.
type Position struct {
	Segment int
	Edge    int
	T       float64
	Lon     float64
	Lat     float64
}

// NoPosition is the explicit "not on the network" case, produced when
// snapping against an empty segment list. Direction and advance results
// derived from it are meaningless; callers must check Valid first.
var NoPosition = Position{Segment: -1}

// Valid reports whether the position refers to actual network geometry.
func (p Position) Valid() bool { return p.Segment >= 0 }

// Point returns the resolved coordinate.
func (p Position) Point() geometry.Point { return geometry.Point{p.Lon, p.Lat} }

// resolve recomputes the denormalized coordinate from segment geometry.
func resolve(segs []geometry.Segment, p Position) Position {
	pts := segs[p.Segment].Points
	c := geometry.Interpolate(pts[p.Edge], pts[p.Edge+1], p.T)
	p.Lon, p.Lat = c[0], c[1]
	return p
}
