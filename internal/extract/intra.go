package extract

import (
	"fmt"
	"sort"

	"vulnctx/internal/trace"
)

// ExtractIntra computes one bridge segment per (file, enclosing method)
// group of trace points: the union of the group's trace lines plus
// symmetric padding, clamped to the method body. Points with no
// enclosing method become singleton fixed-width windows of
// 2*padding+1 lines, unclamped by any method.
func ExtractIntra(points []trace.Point, padding int) []Segment {
	if padding < 0 {
		padding = 0
	}

	type group struct {
		points []trace.Point
	}
	groups := map[string]*group{}
	var order []string

	key := func(p trace.Point, i int) string {
		if p.Method == nil {
			// Method-less points form singleton groups.
			return fmt.Sprintf("%s\x00none\x00%d", p.File, i)
		}
		return fmt.Sprintf("%s\x00%d-%d", p.File, p.Method.StartLine, p.Method.EndLine)
	}

	for i, p := range points {
		k := key(p, i)
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
			order = append(order, k)
		}
		g.points = append(g.points, p)
	}

	earliest := earliestOrderIndex(points)

	var segments []Segment
	for _, k := range order {
		g := groups[k]
		sort.SliceStable(g.points, func(i, j int) bool { return g.points[i].Line < g.points[j].Line })

		minLine := g.points[0].Line
		maxLine := g.points[len(g.points)-1].Line

		seg := Segment{File: g.points[0].File}
		hasSink := false
		for _, p := range g.points {
			if p.IsSink() {
				hasSink = true
				break
			}
		}

		method := g.points[0].Method
		switch {
		case method != nil && hasSink:
			// The sink's method is kept whole: the consumer patching
			// the sink needs the full body, never a trimmed bridge.
			seg.Method = method
			seg.StartLine = method.StartLine
			seg.EndLine = method.EndLine
		case method != nil:
			seg.Method = method
			seg.StartLine = maxInt(method.StartLine, minLine-padding)
			seg.EndLine = minInt(method.EndLine, maxLine+padding)
		default:
			seg.StartLine = maxInt(1, minLine-padding)
			seg.EndLine = maxLine + padding
		}

		assigned := false
		for _, p := range g.points {
			seg.addPoint(p)
			if p.IsSink() {
				seg.addRole(RoleSinkMethod)
				assigned = true
			}
			if p.OrderIndex == earliest {
				seg.addRole(RoleSourceMethod)
				assigned = true
			}
		}
		if !assigned {
			if len(g.points) > 1 {
				seg.addRole(RoleBridge)
			} else {
				seg.addRole(RoleIntermediateMethod)
			}
		}

		segments = append(segments, seg)
	}

	return segments
}

func earliestOrderIndex(points []trace.Point) int {
	if len(points) == 0 {
		return -1
	}
	min := points[0].OrderIndex
	for _, p := range points[1:] {
		if p.OrderIndex < min {
			min = p.OrderIndex
		}
	}
	return min
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
