package track

import "github.com/transitviz/railtracker/geometry"

// Advance moves p along the network by dist (non-negative) in direction dir
// (+1 toward increasing vertex order, -1 toward decreasing). When a
// segment's own endpoint is reached the walk crosses into whichever other
// segment continues from that boundary point; the continuing segment's
// point order may run the opposite way, so the walk direction can flip at
// a joint. The returned direction is the one the walk ended on and is what
// a caller must use to keep walking.
//
// stopped=true means the walk halted before consuming dist: either no
// continuing segment exists at a boundary (a terminus, or a gap in the
// source data, which the engine cannot tell apart) or the iteration cap was
// hit on degenerate geometry. Zero-length edges are skipped without
// consuming distance.
func (n *Network) Advance(p Position, dist float64, dir int) (Position, int, bool) {
	if !p.Valid() || n.Empty() {
		return p, dir, true
	}
	if dir >= 0 {
		dir = 1
	} else {
		dir = -1
	}

	cur := p
	remaining := dist
	for iter := 0; iter < maxWalkIterations; iter++ {
		if remaining <= 0 {
			return resolve(n.Segments, cur), dir, false
		}

		pts := n.Segments[cur.Segment].Points
		edgeLen := geometry.Dist(pts[cur.Edge], pts[cur.Edge+1])
		if edgeLen > 0 {
			var avail float64
			if dir > 0 {
				avail = (1 - cur.T) * edgeLen
			} else {
				avail = cur.T * edgeLen
			}
			if avail > remaining {
				cur.T += float64(dir) * remaining / edgeLen
				return resolve(n.Segments, cur), dir, false
			}
			remaining -= avail
		}

		// Edge exhausted: move to the adjacent edge, or cross the segment
		// boundary when there is none.
		if dir > 0 {
			if cur.Edge+1 < len(pts)-1 {
				cur.Edge++
				cur.T = 0
				continue
			}
			cur.Edge = len(pts) - 2
			cur.T = 1
			if remaining <= 0 {
				return resolve(n.Segments, cur), dir, false
			}
			next, nextDir, ok := n.connectedSegment(pts[len(pts)-1], cur.Segment)
			if !ok {
				return resolve(n.Segments, cur), dir, true
			}
			cur, dir = next, nextDir
		} else {
			if cur.Edge > 0 {
				cur.Edge--
				cur.T = 1
				continue
			}
			cur.Edge = 0
			cur.T = 0
			if remaining <= 0 {
				return resolve(n.Segments, cur), dir, false
			}
			next, nextDir, ok := n.connectedSegment(pts[0], cur.Segment)
			if !ok {
				return resolve(n.Segments, cur), dir, true
			}
			cur, dir = next, nextDir
		}
	}
	return resolve(n.Segments, cur), dir, true
}

// connectedSegment finds the segment that continues from a boundary point:
// the other segment whose start or end endpoint lies nearest the boundary
// within the connectivity tolerance. Matching the start means continuing
// forward from t=0; matching the end means continuing backward from t=1,
// so the new walk direction is derived from which endpoint matched.
func (n *Network) connectedSegment(boundary geometry.Point, exclude int) (Position, int, bool) {
	tol := n.ConnectTolerance
	if tol <= 0 {
		tol = DefaultConnectTolerance
	}

	bestDist := tol
	bestDir := 0
	var best Position
	found := false

	for si, seg := range n.Segments {
		if si == exclude {
			continue
		}
		pts := seg.Points
		if d := geometry.Dist(pts[0], boundary); d < bestDist {
			bestDist = d
			best = Position{Segment: si, Edge: 0, T: 0}
			bestDir = 1
			found = true
		}
		if d := geometry.Dist(pts[len(pts)-1], boundary); d < bestDist {
			bestDist = d
			best = Position{Segment: si, Edge: len(pts) - 2, T: 1}
			bestDir = -1
			found = true
		}
	}
	if !found {
		return Position{}, 0, false
	}
	return resolve(n.Segments, best), bestDir, true
}
