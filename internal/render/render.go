// Package render turns budgeted context segments into annotated source
// text for downstream prompt assembly.
package render

import (
	"fmt"
	"os"
	"sort"
	"strings"

	vcerrors "vulnctx/internal/errors"
	"vulnctx/internal/extract"
	"vulnctx/internal/paths"
	"vulnctx/internal/trace"
)

// Options controls text cleanup during rendering.
type Options struct {
	// CommentElideThreshold removes comment blocks longer than this
	// many lines unless a trace line falls inside the block. Zero
	// disables elision.
	CommentElideThreshold int `json:"commentElideThreshold"`
}

// DefaultOptions returns the standard cleanup settings.
func DefaultOptions() Options {
	return Options{CommentElideThreshold: 8}
}

// RenderedSegment is one annotated snippet of the final output.
type RenderedSegment struct {
	File       string         `json:"file"`
	StartLine  int            `json:"startLine"`
	EndLine    int            `json:"endLine"`
	MethodName string         `json:"methodName,omitempty"`
	Roles      []extract.Role `json:"roles"`
	Text       string         `json:"text"`
}

// Renderer reads source ranges from the repository and emits them with
// identifying headers and trace-point annotations.
type Renderer struct {
	repoRoot string
	opts     Options
}

// New creates a Renderer over the repository at repoRoot.
func New(repoRoot string, opts Options) *Renderer {
	return &Renderer{repoRoot: repoRoot, opts: opts}
}

// Render produces the concatenated annotated text for an extraction
// result: a FILE header per file, then one annotated snippet per
// segment. A truncation marker leads the output when must-keep content
// exceeded the budget.
func (r *Renderer) Render(result *extract.Result) (string, error) {
	rendered, err := r.RenderSegments(result.Segments)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if result.Truncated {
		b.WriteString("// [TRUNCATED] line budget exceeded; must-keep context returned in full\n\n")
	}

	currentFile := ""
	for _, seg := range rendered {
		if seg.File != currentFile {
			if currentFile != "" {
				b.WriteString("\n")
			}
			currentFile = seg.File
			fmt.Fprintf(&b, "// FILE: %s\n\n", seg.File)
		}
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}

	out := strings.TrimRight(b.String(), "\n") + "\n"
	if strings.TrimSpace(out) == "" {
		return "", vcerrors.Newf(vcerrors.EmptyContext, "rendering produced no usable text")
	}
	return out, nil
}

// RenderSegments renders each segment to an annotated snippet,
// preserving the input's file-then-line order.
func (r *Renderer) RenderSegments(segments []extract.Segment) ([]RenderedSegment, error) {
	sources := map[string][]string{}

	var rendered []RenderedSegment
	for i := range segments {
		seg := &segments[i]

		lines, ok := sources[seg.File]
		if !ok {
			data, err := os.ReadFile(paths.JoinRepo(r.repoRoot, seg.File))
			if err != nil {
				return nil, vcerrors.New(vcerrors.RepoUnreadable, "cannot read "+seg.File, err)
			}
			lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
			// A trailing newline splits into a trailing empty element
			// that is not a real line.
			if n := len(lines); n > 0 && lines[n-1] == "" {
				lines = lines[:n-1]
			}
			sources[seg.File] = lines
		}

		rendered = append(rendered, r.renderOne(seg, lines))
	}
	return rendered, nil
}

func (r *Renderer) renderOne(seg *extract.Segment, lines []string) RenderedSegment {
	start := seg.StartLine
	end := seg.EndLine
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	if start < 1 {
		start, end = 1, 0
	}

	var header []string
	if seg.Method != nil {
		header = append(header, fmt.Sprintf("// METHOD: %s [%d-%d] roles: %s",
			seg.Method.Name, start, end, roleList(seg.Roles)))
	} else {
		header = append(header, fmt.Sprintf("// BLOCK: [lines %d-%d] roles: %s",
			start, end, roleList(seg.Roles)))
	}
	header = append(header, tracePointAnnotations(seg.Points)...)

	body := cleanBody(lines[start-1:end], start, seg, r.opts.CommentElideThreshold)

	var b strings.Builder
	for _, h := range header {
		b.WriteString(h)
		b.WriteString("\n")
	}
	for _, l := range body {
		b.WriteString(l)
		b.WriteString("\n")
	}

	out := RenderedSegment{
		File:      seg.File,
		StartLine: start,
		EndLine:   end,
		Roles:     seg.Roles,
		Text:      b.String(),
	}
	if seg.Method != nil {
		out.MethodName = seg.Method.Name
	}
	return out
}

// tracePointAnnotations formats the segment's trace points, sink
// first, then by line.
func tracePointAnnotations(points []trace.Point) []string {
	if len(points) == 0 {
		return nil
	}

	sorted := append([]trace.Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsSink() != sorted[j].IsSink() {
			return sorted[i].IsSink()
		}
		return sorted[i].Line < sorted[j].Line
	})

	out := []string{"// TRACE POINTS:"}
	for _, p := range sorted {
		tag := "TRACE"
		if p.IsSink() {
			tag = "SINK"
		}
		if p.Note != "" {
			out = append(out, fmt.Sprintf("//   - %s line %d: %s", tag, p.Line, p.Note))
		} else {
			out = append(out, fmt.Sprintf("//   - %s line %d", tag, p.Line))
		}
	}
	return out
}

func roleList(roles []extract.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// cleanBody applies the whitespace and comment cleanup: leading and
// trailing blank lines trimmed, runs of more than two blank lines
// collapsed to one, and comment blocks longer than the threshold
// removed unless a trace line falls inside them.
func cleanBody(body []string, startLine int, seg *extract.Segment, elideThreshold int) []string {
	traceLines := map[int]bool{}
	for _, l := range seg.TraceLines() {
		traceLines[l] = true
	}

	kept := elideComments(body, startLine, traceLines, elideThreshold)

	// Trim leading/trailing blanks.
	for len(kept) > 0 && strings.TrimSpace(kept[0]) == "" {
		kept = kept[1:]
	}
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}

	// Collapse long blank runs.
	var out []string
	blanks := 0
	for _, l := range kept {
		if strings.TrimSpace(l) == "" {
			blanks++
			continue
		}
		if blanks > 0 {
			if blanks > 2 {
				blanks = 1
			}
			for ; blanks > 0; blanks-- {
				out = append(out, "")
			}
		}
		out = append(out, l)
	}
	return out
}

// elideComments removes comment-only runs longer than threshold when
// no trace line falls inside the run.
func elideComments(body []string, startLine int, traceLines map[int]bool, threshold int) []string {
	if threshold <= 0 {
		return body
	}

	var out []string
	i := 0
	for i < len(body) {
		if !isCommentLine(body[i]) {
			out = append(out, body[i])
			i++
			continue
		}

		j := i
		hasTrace := false
		for j < len(body) && isCommentLine(body[j]) {
			if traceLines[startLine+j] {
				hasTrace = true
			}
			j++
		}
		if j-i > threshold && !hasTrace {
			i = j
			continue
		}
		out = append(out, body[i:j]...)
		i = j
	}
	return out
}

// isCommentLine is a cross-language heuristic good enough for cleanup;
// it never has to be exact because elision skips any run holding a
// trace line.
func isCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	for _, prefix := range []string{"//", "#", "/*", "*/", "* ", "--"} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return t == "*"
}
