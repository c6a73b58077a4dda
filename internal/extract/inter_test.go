package extract

import (
	"testing"

	"vulnctx/internal/trace"
)

func TestExtractInter_CrossMethodCallsite(t *testing.T) {
	// Flow in A at 10 calls into B where the sink sits at 60. The
	// boundary crossing yields a callsite window around line 10,
	// inside A's body.
	a := mkMethod("a", 1, 20)
	b := mkMethod("b", 50, 70)
	points := []trace.Point{
		mkPoint("src/App.java", 10, trace.KindFlow, 0, a),
		mkPoint("src/App.java", 60, trace.KindSink, 1, b),
	}

	segments := ExtractInter(points, 4)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}

	seg := segments[0]
	if seg.StartLine != 8 || seg.EndLine != 12 {
		t.Errorf("range = [%d,%d], want [8,12]", seg.StartLine, seg.EndLine)
	}
	if !seg.HasRole(RoleCallsite) {
		t.Errorf("roles = %v, want callsite", seg.Roles)
	}
	if seg.Method == nil || seg.Method.Name != "a" {
		t.Errorf("method = %+v, want caller method a", seg.Method)
	}
}

func TestExtractInter_SameMethodNoCallsite(t *testing.T) {
	m := mkMethod("process", 10, 30)
	points := []trace.Point{
		mkPoint("src/App.java", 12, trace.KindFlow, 0, m),
		mkPoint("src/App.java", 20, trace.KindSink, 1, m),
	}
	if segments := ExtractInter(points, 4); len(segments) != 0 {
		t.Errorf("got %d segments, want none for intra-method steps", len(segments))
	}
}

func TestExtractInter_WindowClampedToCallerMethod(t *testing.T) {
	// Caller point on the method's first line: window cannot extend
	// above the method start.
	a := mkMethod("a", 10, 20)
	b := mkMethod("b", 50, 70)
	points := []trace.Point{
		mkPoint("src/App.java", 10, trace.KindFlow, 0, a),
		mkPoint("src/App.java", 60, trace.KindSink, 1, b),
	}

	segments := ExtractInter(points, 8)
	if segments[0].StartLine != 10 {
		t.Errorf("start = %d, want clamp to method start 10", segments[0].StartLine)
	}
	if segments[0].EndLine != 14 {
		t.Errorf("end = %d, want 14", segments[0].EndLine)
	}
}

func TestExtractInter_CrossFileCallsite(t *testing.T) {
	points := []trace.Point{
		mkPoint("src/Input.java", 5, trace.KindFlow, 0, nil),
		mkPoint("src/Exec.java", 40, trace.KindSink, 1, nil),
	}

	segments := ExtractInter(points, 6)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if segments[0].File != "src/Input.java" {
		t.Errorf("file = %q, want caller side", segments[0].File)
	}
	if segments[0].StartLine != 2 || segments[0].EndLine != 8 {
		t.Errorf("range = [%d,%d], want [2,8]", segments[0].StartLine, segments[0].EndLine)
	}
}

func TestExtractInter_WindowClampedToLineOne(t *testing.T) {
	points := []trace.Point{
		mkPoint("a.go", 2, trace.KindFlow, 0, nil),
		mkPoint("b.go", 9, trace.KindSink, 1, nil),
	}
	segments := ExtractInter(points, 10)
	if segments[0].StartLine != 1 {
		t.Errorf("start = %d, want clamp to 1", segments[0].StartLine)
	}
}
