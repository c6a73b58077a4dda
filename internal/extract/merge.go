package extract

import "vulnctx/internal/trace"

// Merge deduplicates and merges same-file segments into non-overlapping
// ranges. Segments are partitioned by file, sorted by start line (ties
// by end line), then swept left to right: overlapping or adjacent
// ranges collapse into one, taking the union of roles and trace points.
// The method survives a merge only when both sides share it; otherwise
// the merged segment spans method boundaries and is treated as
// boundary-less from then on.
//
// Merge is deterministic and idempotent: within one file the output is
// sorted and pairwise disjoint with at least a one-line gap.
func Merge(segments []Segment) []Segment {
	if len(segments) == 0 {
		return nil
	}

	byFile := map[string][]Segment{}
	var files []string
	for _, seg := range segments {
		if _, ok := byFile[seg.File]; !ok {
			files = append(files, seg.File)
		}
		byFile[seg.File] = append(byFile[seg.File], copySegment(seg))
	}

	var merged []Segment
	for _, file := range files {
		partition := byFile[file]
		sortSegments(partition)

		acc := partition[0]
		for _, next := range partition[1:] {
			if next.StartLine <= acc.EndLine+1 {
				// Overlapping or adjacent: extend the accumulator.
				if next.EndLine > acc.EndLine {
					acc.EndLine = next.EndLine
				}
				for _, r := range next.Roles {
					acc.addRole(r)
				}
				for _, p := range next.Points {
					acc.addPoint(p)
				}
				if !sameMethod(acc.Method, next.Method) {
					acc.Method = nil
				}
				continue
			}
			merged = append(merged, acc)
			acc = next
		}
		merged = append(merged, acc)
	}

	sortSegments(merged)
	return merged
}

func copySegment(seg Segment) Segment {
	out := seg
	out.Roles = append([]Role(nil), seg.Roles...)
	out.Points = append([]trace.Point(nil), seg.Points...)
	return out
}
