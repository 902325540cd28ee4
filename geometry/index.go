package geometry

// Index groups the network's segments by the lines allowed to travel them.
type Index struct {
	segments []Segment
	byLine   map[string][]Segment
}

// NewIndex builds the per-line index. For each line the list holds the
// line's own segments followed by every segment shared with it, in input
// order, so iteration is deterministic.
func NewIndex(segments []Segment) *Index {
	idx := &Index{
		segments: segments,
		byLine:   map[string][]Segment{},
	}

	lines := map[string]struct{}{}
	for _, s := range segments {
		if s.Line != "" {
			lines[s.Line] = struct{}{}
		}
		for _, l := range s.SharedWith {
			if l != "" {
				lines[l] = struct{}{}
			}
		}
	}

	for line := range lines {
		var own, shared []Segment
		for _, s := range segments {
			switch {
			case s.Line == line:
				own = append(own, s)
			case s.ServesLine(line):
				shared = append(shared, s)
			}
		}
		idx.byLine[line] = append(own, shared...)
	}
	return idx
}

// SegmentsFor returns the segments vehicle animation for the given line may
// travel on. An empty result means the network has no data for the line and
// callers must not animate geometrically.
func (idx *Index) SegmentsFor(line string) []Segment {
	return idx.byLine[line]
}

// Lines returns every line identifier present in the network.
func (idx *Index) Lines() []string {
	out := make([]string, 0, len(idx.byLine))
	for l := range idx.byLine {
		out = append(out, l)
	}
	return out
}

// Segments returns the full segment collection.
func (idx *Index) Segments() []Segment {
	return idx.segments
}
