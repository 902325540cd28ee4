package track

import "math"

// DirectionFromHeading converts a feed-reported compass heading (degrees,
// clockwise from north) into a walk direction consistent with the local
// edge orientation at p: +1 when the heading points with the edge's vertex
// order, -1 against it. Used only at snap time; during blended motion the
// direction is carried forward from the correction plan because
// interpolated headings are not available.
func (n *Network) DirectionFromHeading(p Position, heading float64) int {
	if !p.Valid() || n.Empty() {
		return 1
	}
	pts := n.Segments[p.Segment].Points
	a, b := pts[p.Edge], pts[p.Edge+1]

	rad := heading * math.Pi / 180
	hx, hy := math.Sin(rad), math.Cos(rad)

	if (b[0]-a[0])*hx+(b[1]-a[1])*hy >= 0 {
		return 1
	}
	return -1
}
