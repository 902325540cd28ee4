package geometry

import "math"

// Point is a planar coordinate, [longitude, latitude].
type Point [2]float64

// Segment is an ordered polyline representing one continuous stretch of
// track. Immutable once built. A segment belongs to a primary line and may
// be shared with others (trunk trackage).
type Segment struct {
	Line       string
	SharedWith []string
	Points     []Point
}

// ServesLine reports whether vehicles of the given line may travel this
// segment, either because it is the segment's own line or because the
// segment is tagged as shared with it.
func (s Segment) ServesLine(line string) bool {
	if s.Line == line {
		return true
	}
	for _, l := range s.SharedWith {
		if l == line {
			return true
		}
	}
	return false
}

// Length returns the planar length of the segment in coordinate units.
func (s Segment) Length() float64 {
	var total float64
	for i := 1; i < len(s.Points); i++ {
		total += Dist(s.Points[i-1], s.Points[i])
	}
	return total
}

// Dist returns the Euclidean distance between two points in coordinate
// units. Network extents are small enough that lon/lat is treated as planar.
func Dist(a, b Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// Interpolate returns the point at fraction t along the edge a->b.
func Interpolate(a, b Point, t float64) Point {
	return Point{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
	}
}

// Bearing returns the compass bearing from a to b in degrees (0-360,
// clockwise from north).
func Bearing(a, b Point) float64 {
	deg := math.Atan2(b[0]-a[0], b[1]-a[1]) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
