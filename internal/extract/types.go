// Package extract selects method-bounded, non-overlapping source
// ranges covering a vulnerability's source-to-sink trace, then
// compresses them under a line budget.
package extract

import (
	"sort"

	"vulnctx/internal/locator"
	"vulnctx/internal/trace"
)

// Role tags why a segment was selected.
type Role string

const (
	RoleSourceMethod       Role = "source_method"
	RoleSinkMethod         Role = "sink_method"
	RoleBridge             Role = "bridge"
	RoleIntermediateMethod Role = "intermediate_method"
	RoleCallsite           Role = "callsite"
)

// Budget bounds the extracted context.
type Budget struct {
	// MaxLines is the hard ceiling on total rendered source lines.
	MaxLines int `json:"maxLines"`
	// Padding is the symmetric context added around trace lines inside
	// a method.
	Padding int `json:"padding"`
	// CallsiteWindow is the width of the window emitted around a
	// cross-method call site.
	CallsiteWindow int `json:"callsiteWindow"`
}

// DefaultBudget returns conservative extraction limits.
func DefaultBudget() Budget {
	return Budget{MaxLines: 400, Padding: 4, CallsiteWindow: 6}
}

// Segment is a role-tagged line range in one file selected for
// inclusion in the final context. StartLine <= EndLine always; when
// Method is set the range never crosses its bounds.
type Segment struct {
	File      string                    `json:"file"`
	StartLine int                       `json:"startLine"`
	EndLine   int                       `json:"endLine"`
	Method    *locator.MethodDescriptor `json:"method,omitempty"`
	Roles     []Role                    `json:"roles"`

	// Points are the trace points that caused this segment to exist.
	Points []trace.Point `json:"points,omitempty"`
}

// Len is the segment's size in lines.
func (s *Segment) Len() int {
	return s.EndLine - s.StartLine + 1
}

// HasRole reports whether the segment carries the role.
func (s *Segment) HasRole(r Role) bool {
	for _, have := range s.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// addRole inserts a role keeping Roles sorted and unique.
func (s *Segment) addRole(r Role) {
	if s.HasRole(r) {
		return
	}
	s.Roles = append(s.Roles, r)
	sort.Slice(s.Roles, func(i, j int) bool { return s.Roles[i] < s.Roles[j] })
}

// TraceLines returns the sorted distinct trace lines that fall inside
// the segment's current range.
func (s *Segment) TraceLines() []int {
	seen := map[int]bool{}
	var lines []int
	for _, p := range s.Points {
		if p.Line >= s.StartLine && p.Line <= s.EndLine && !seen[p.Line] {
			seen[p.Line] = true
			lines = append(lines, p.Line)
		}
	}
	sort.Ints(lines)
	return lines
}

// ContainsSink reports whether the sink line falls inside the segment.
func (s *Segment) ContainsSink() bool {
	for _, p := range s.Points {
		if p.IsSink() && p.Line >= s.StartLine && p.Line <= s.EndLine {
			return true
		}
	}
	return false
}

// addPoint records a trace point, deduplicating exact repeats.
func (s *Segment) addPoint(p trace.Point) {
	for _, have := range s.Points {
		if have.File == p.File && have.Line == p.Line && have.Kind == p.Kind && have.Note == p.Note {
			return
		}
	}
	s.Points = append(s.Points, p)
}

// sortSegments orders segments by file, then start line, then end line.
func sortSegments(segments []Segment) {
	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].File != segments[j].File {
			return segments[i].File < segments[j].File
		}
		if segments[i].StartLine != segments[j].StartLine {
			return segments[i].StartLine < segments[j].StartLine
		}
		return segments[i].EndLine < segments[j].EndLine
	})
}

// sameMethod reports whether two descriptors refer to the same method.
func sameMethod(a, b *locator.MethodDescriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.File == b.File && a.StartLine == b.StartLine && a.EndLine == b.EndLine && a.Name == b.Name
}
