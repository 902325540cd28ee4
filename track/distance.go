package track

import "github.com/transitviz/railtracker/geometry"

const (
	// distanceStepDivisor sizes the estimator's walk step relative to the
	// straight-line gap between the endpoints.
	distanceStepDivisor = 40

	// minDistanceStep keeps the step from collapsing on near-coincident
	// endpoints.
	minDistanceStep = 1e-5

	// maxDistanceSteps bounds the estimator walk.
	maxDistanceSteps = 2000
)

// DistanceBetween estimates the along-track distance from one position to
// another by walking fixed-size steps in dir and re-measuring the
// straight-line distance to the target after each step. The walk succeeds
// when it comes within half a step of the target.
//
// fallback=true means the estimate is the plain straight-line distance:
// the walk diverged (wrong direction or an unreachable branch), halted at a
// dead end, or hit the step cap. Callers use the result only to scale
// animation progress, so the fallback changes easing feel, never
// correctness.
func (n *Network) DistanceBetween(from, to Position, dir int) (dist float64, fallback bool) {
	direct := geometry.Dist(from.Point(), to.Point())
	if direct == 0 {
		return 0, false
	}
	if !from.Valid() || !to.Valid() || n.Empty() {
		return direct, true
	}

	step := direct / distanceStepDivisor
	if step < minDistanceStep {
		step = minDistanceStep
	}

	cur := from
	curDir := dir
	total := 0.0
	best := direct

	for i := 0; i < maxDistanceSteps; i++ {
		var stopped bool
		cur, curDir, stopped = n.Advance(cur, step, curDir)
		total += step

		d := geometry.Dist(cur.Point(), to.Point())
		if d <= step/2 {
			return total + d, false
		}
		if stopped {
			return direct, true
		}
		if d > best+step/2 {
			// Receding from the target: wrong branch or wrong direction.
			return direct, true
		}
		if d < best {
			best = d
		}
	}
	return direct, true
}
