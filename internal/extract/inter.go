package extract

import "vulnctx/internal/trace"

// ExtractInter walks the ordered trace and, for each adjacent pair
// crossing a (file, method) boundary, emits a callsite window of the
// given width centered on the caller-side point. It does not recurse
// further: the callee side is already covered by intra-procedural
// extraction on its own trace points.
func ExtractInter(points []trace.Point, window int) []Segment {
	if window < 0 {
		window = 0
	}
	half := window / 2

	var segments []Segment
	for i := 0; i+1 < len(points); i++ {
		caller := points[i]
		callee := points[i+1]
		if !crossesBoundary(caller, callee) {
			continue
		}

		seg := Segment{
			File:      caller.File,
			StartLine: maxInt(1, caller.Line-half),
			EndLine:   caller.Line + half,
			Method:    caller.Method,
		}
		if caller.Method != nil {
			seg.StartLine = maxInt(seg.StartLine, caller.Method.StartLine)
			seg.EndLine = minInt(seg.EndLine, caller.Method.EndLine)
		}
		seg.addRole(RoleCallsite)
		seg.addPoint(caller)

		segments = append(segments, seg)
	}
	return segments
}

// crossesBoundary reports whether two adjacent trace points live in
// different files or different enclosing methods.
func crossesBoundary(a, b trace.Point) bool {
	if a.File != b.File {
		return true
	}
	return !sameMethod(a.Method, b.Method)
}
