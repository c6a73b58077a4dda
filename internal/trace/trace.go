// Package trace converts vulnerability metadata into an ordered,
// method-augmented list of trace points.
package trace

import (
	"context"

	"vulnctx/internal/locator"
	"vulnctx/internal/vuln"
)

// Kind distinguishes the sink from intermediate flow steps.
type Kind string

const (
	KindSink Kind = "sink"
	KindFlow Kind = "flow"
)

// Point is one step of the source-to-sink path, augmented with its
// enclosing method when the file could be indexed.
type Point struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Kind Kind   `json:"kind"`
	Note string `json:"note,omitempty"`

	// OrderIndex preserves the logical source-to-sink sequence of the
	// input metadata. It is used for tie-breaking only, never for
	// re-sorting.
	OrderIndex int `json:"orderIndex"`

	// Method is the innermost enclosing method, nil for top-level or
	// unparsable code.
	Method *locator.MethodDescriptor `json:"method,omitempty"`
}

// IsSink reports whether the point is the sink.
func (p *Point) IsSink() bool {
	return p.Kind == KindSink
}

// Build converts a VulnerabilityInfo into ordered trace points. Flow
// order is preserved and the sink is appended as the final point unless
// the metadata already places it inside the flow; exact duplicate steps
// are collapsed. Every point is augmented with its enclosing method via
// the locator.
func Build(ctx context.Context, v *vuln.VulnerabilityInfo, loc *locator.Locator) ([]Point, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	type stepKey struct {
		file string
		line int
		note string
	}
	seen := map[stepKey]bool{}

	var points []Point
	sinkPlaced := false

	for _, step := range v.Flow {
		key := stepKey{step.File, step.Line, step.Note}
		if seen[key] {
			continue
		}
		seen[key] = true

		p := Point{File: step.File, Line: step.Line, Kind: KindFlow, Note: step.Note}
		if step.File == v.Sink.File && step.Line == v.Sink.Line {
			p.Kind = KindSink
			if p.Note == "" {
				p.Note = v.Sink.Note
			}
			sinkPlaced = true
		}
		points = append(points, p)
	}

	if !sinkPlaced {
		points = append(points, Point{
			File: v.Sink.File,
			Line: v.Sink.Line,
			Kind: KindSink,
			Note: v.Sink.Note,
		})
	}

	for i := range points {
		points[i].OrderIndex = i
		if m, ok := loc.FindMethodForLine(ctx, points[i].File, points[i].Line); ok {
			method := m
			points[i].Method = &method
		}
	}

	return points, nil
}

// Sink returns the sink point of a built trace.
func Sink(points []Point) (Point, bool) {
	for _, p := range points {
		if p.IsSink() {
			return p, true
		}
	}
	return Point{}, false
}
