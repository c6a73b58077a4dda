package extract

// Tier is the budgeting priority class of a segment.
type Tier int

const (
	// Tier1 segments are never altered: they hold the sink or the sink
	// method.
	Tier1 Tier = 1
	// Tier2 segments may be shrunk toward their trace lines.
	Tier2 Tier = 2
	// Tier3 segments are shrunk to a minimal window first, or dropped
	// when they own no trace line.
	Tier3 Tier = 3
)

// tierOf classifies a segment. Sink content is must-keep; bridge,
// source and intermediate segments are shrinkable; callsite windows and
// padding-only ranges go first.
func tierOf(seg *Segment) Tier {
	if seg.HasRole(RoleSinkMethod) || seg.ContainsSink() {
		return Tier1
	}
	if seg.HasRole(RoleSourceMethod) || seg.HasRole(RoleBridge) || seg.HasRole(RoleIntermediateMethod) {
		if len(seg.TraceLines()) > 0 {
			return Tier2
		}
	}
	return Tier3
}

// TotalLines sums the rendered line counts of all segments.
func TotalLines(segments []Segment) int {
	total := 0
	for i := range segments {
		total += segments[i].Len()
	}
	return total
}

// ApplyBudget shrinks and drops segments by priority tier until the
// total line count fits maxLines. Tier 3 goes first (shrunk to a
// [line-1,line+1] window around a trace line, or dropped entirely when
// trace-free), then Tier 2 is shrunk to its minimal trace-covering
// window. Tier 1 is never altered, even when the budget cannot be met;
// the second return value reports that flagged condition.
//
// The result is always a by-range subset of the input, so the merge
// disjointness invariant is preserved.
func ApplyBudget(segments []Segment, maxLines int) ([]Segment, bool) {
	if maxLines <= 0 || TotalLines(segments) <= maxLines {
		out := make([]Segment, len(segments))
		copy(out, segments)
		return out, false
	}

	working := make([]Segment, len(segments))
	for i := range segments {
		working[i] = copySegment(segments[i])
	}

	dropped := make([]bool, len(working))
	processed := make([]bool, len(working)) // shrunk already, no second pass

	total := func() int {
		sum := 0
		for i := range working {
			if !dropped[i] {
				sum += working[i].Len()
			}
		}
		return sum
	}

	// largest returns the index of the biggest unprocessed segment of
	// the given tier, or -1.
	largest := func(tier Tier) int {
		best := -1
		for i := range working {
			if dropped[i] || processed[i] || tierOf(&working[i]) != tier {
				continue
			}
			if best == -1 || working[i].Len() > working[best].Len() {
				best = i
			}
		}
		return best
	}

	for total() > maxLines {
		if i := largest(Tier3); i != -1 {
			lines := working[i].TraceLines()
			if len(lines) == 0 {
				dropped[i] = true
			} else {
				center := nearestTraceLine(&working[i])
				working[i].StartLine = maxInt(working[i].StartLine, center-1)
				working[i].EndLine = minInt(working[i].EndLine, center+1)
				processed[i] = true
			}
			continue
		}

		if i := largest(Tier2); i != -1 {
			lines := working[i].TraceLines()
			// Never below covering every trace line it owns.
			working[i].StartLine = maxInt(working[i].StartLine, lines[0])
			working[i].EndLine = minInt(working[i].EndLine, lines[len(lines)-1])
			processed[i] = true
			continue
		}

		// Only Tier 1 remains: trace preservation outranks the budget.
		break
	}

	var out []Segment
	for i := range working {
		if !dropped[i] {
			out = append(out, working[i])
		}
	}
	return out, total() > maxLines
}

// nearestTraceLine picks the trace line closest to the segment's
// center, favoring the earlier line on a tie.
func nearestTraceLine(seg *Segment) int {
	lines := seg.TraceLines()
	center := (seg.StartLine + seg.EndLine) / 2
	best := lines[0]
	for _, l := range lines[1:] {
		if abs(l-center) < abs(best-center) {
			best = l
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
