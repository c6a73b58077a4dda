package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vulnctx/internal/extract"
	"vulnctx/internal/locator"
	"vulnctx/internal/trace"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func numberedLines(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString("code line ")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString("\n")
	}
	return b.String()
}

func TestRender_MethodHeaderAndTracePoints(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/App.java", numberedLines(40))

	method := &locator.MethodDescriptor{Name: "process", StartLine: 10, EndLine: 30, File: "src/App.java"}
	seg := extract.Segment{
		File: "src/App.java", StartLine: 10, EndLine: 30, Method: method,
		Roles: []extract.Role{extract.RoleSinkMethod, extract.RoleSourceMethod},
		Points: []trace.Point{
			{File: "src/App.java", Line: 12, Kind: trace.KindFlow, Note: "tainted input"},
			{File: "src/App.java", Line: 20, Kind: trace.KindSink, Note: "exec sink"},
		},
	}

	out, err := New(root, DefaultOptions()).Render(&extract.Result{Segments: []extract.Segment{seg}})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"// FILE: src/App.java",
		"// METHOD: process [10-30] roles: sink_method, source_method",
		"// TRACE POINTS:",
		"//   - SINK line 20: exec sink",
		"//   - TRACE line 12: tainted input",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// Sink annotation comes before the flow annotation.
	if strings.Index(out, "SINK line 20") > strings.Index(out, "TRACE line 12") {
		t.Error("sink annotation not listed first")
	}
}

func TestRender_BlockHeaderForMethodlessSegment(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "script.py", numberedLines(20))

	seg := extract.Segment{
		File: "script.py", StartLine: 7, EndLine: 13,
		Roles:  []extract.Role{extract.RoleSinkMethod},
		Points: []trace.Point{{File: "script.py", Line: 10, Kind: trace.KindSink}},
	}

	out, err := New(root, DefaultOptions()).Render(&extract.Result{Segments: []extract.Segment{seg}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "// BLOCK: [lines 7-13] roles: sink_method") {
		t.Errorf("missing block header:\n%s", out)
	}
	if !strings.Contains(out, "//   - SINK line 10\n") {
		t.Errorf("missing note-less sink annotation:\n%s", out)
	}
}

func TestRender_TruncationMarkerLeadsOutput(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.go", numberedLines(10))

	seg := extract.Segment{File: "a.go", StartLine: 1, EndLine: 5, Roles: []extract.Role{extract.RoleSinkMethod}}
	out, err := New(root, DefaultOptions()).Render(&extract.Result{
		Segments:  []extract.Segment{seg},
		Truncated: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "// [TRUNCATED]") {
		t.Errorf("output does not lead with truncation marker:\n%s", out)
	}
}

func TestRender_EndClampedToFileLength(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.go", numberedLines(10))

	seg := extract.Segment{File: "a.go", StartLine: 8, EndLine: 25, Roles: []extract.Role{extract.RoleBridge}}
	rendered, err := New(root, DefaultOptions()).RenderSegments([]extract.Segment{seg})
	if err != nil {
		t.Fatal(err)
	}
	if rendered[0].EndLine != 10 {
		t.Errorf("end = %d, want clamp to 10", rendered[0].EndLine)
	}
}

func TestRender_BlankLineCleanup(t *testing.T) {
	root := t.TempDir()
	content := "\n\nfirst\n\n\n\n\nsecond\n\n\n"
	writeSource(t, root, "a.go", content)

	seg := extract.Segment{File: "a.go", StartLine: 1, EndLine: 10, Roles: []extract.Role{extract.RoleBridge}}
	rendered, err := New(root, DefaultOptions()).RenderSegments([]extract.Segment{seg})
	if err != nil {
		t.Fatal(err)
	}

	text := rendered[0].Text
	if strings.Contains(text, "\n\n\n") {
		t.Errorf("blank run survived cleanup:\n%q", text)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	// Header, "first", one collapsed blank, "second".
	if lines[1] != "first" {
		t.Errorf("leading blanks not trimmed: %q", lines)
	}
	if lines[len(lines)-1] != "second" {
		t.Errorf("trailing blanks not trimmed: %q", lines)
	}
}

func TestRender_LongCommentBlockElided(t *testing.T) {
	root := t.TempDir()
	var b strings.Builder
	b.WriteString("func a() {\n")
	for i := 0; i < 6; i++ {
		b.WriteString("// license boilerplate\n")
	}
	b.WriteString("doWork()\n")
	b.WriteString("}\n")
	writeSource(t, root, "a.go", b.String())

	seg := extract.Segment{File: "a.go", StartLine: 1, EndLine: 9, Roles: []extract.Role{extract.RoleBridge}}
	rendered, err := New(root, Options{CommentElideThreshold: 3}).RenderSegments([]extract.Segment{seg})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(rendered[0].Text, "license boilerplate") {
		t.Errorf("oversized comment block survived:\n%s", rendered[0].Text)
	}
	if !strings.Contains(rendered[0].Text, "doWork()") {
		t.Errorf("code removed with the comments:\n%s", rendered[0].Text)
	}
}

func TestRender_CommentBlockWithTraceLineKept(t *testing.T) {
	root := t.TempDir()
	var b strings.Builder
	b.WriteString("func a() {\n")
	for i := 0; i < 6; i++ {
		b.WriteString("// tainted data documented here\n")
	}
	b.WriteString("doWork()\n")
	b.WriteString("}\n")
	writeSource(t, root, "a.go", b.String())

	seg := extract.Segment{
		File: "a.go", StartLine: 1, EndLine: 9,
		Roles:  []extract.Role{extract.RoleBridge},
		Points: []trace.Point{{File: "a.go", Line: 4, Kind: trace.KindFlow}},
	}
	rendered, err := New(root, Options{CommentElideThreshold: 3}).RenderSegments([]extract.Segment{seg})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rendered[0].Text, "tainted data documented here") {
		t.Errorf("comment block holding a trace line was elided:\n%s", rendered[0].Text)
	}
}

func TestRender_OneFileHeaderPerFile(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.go", numberedLines(30))

	segments := []extract.Segment{
		{File: "a.go", StartLine: 1, EndLine: 5, Roles: []extract.Role{extract.RoleSourceMethod}},
		{File: "a.go", StartLine: 20, EndLine: 25, Roles: []extract.Role{extract.RoleSinkMethod}},
	}
	out, err := New(root, DefaultOptions()).Render(&extract.Result{Segments: segments})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out, "// FILE: a.go"); got != 1 {
		t.Errorf("FILE header count = %d, want 1", got)
	}
}

func TestRender_MissingFileFails(t *testing.T) {
	root := t.TempDir()
	seg := extract.Segment{File: "gone.go", StartLine: 1, EndLine: 5}
	if _, err := New(root, DefaultOptions()).RenderSegments([]extract.Segment{seg}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
