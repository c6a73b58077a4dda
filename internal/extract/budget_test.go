package extract

import (
	"testing"

	"vulnctx/internal/trace"
)

func sinkSegment(file string, start, end, sinkLine int) Segment {
	seg := Segment{File: file, StartLine: start, EndLine: end}
	seg.addRole(RoleSinkMethod)
	seg.addPoint(mkPoint(file, sinkLine, trace.KindSink, 99, nil))
	return seg
}

func flowSegment(file string, start, end int, role Role, traceLines ...int) Segment {
	seg := Segment{File: file, StartLine: start, EndLine: end}
	seg.addRole(role)
	for i, line := range traceLines {
		seg.addPoint(mkPoint(file, line, trace.KindFlow, i, nil))
	}
	return seg
}

func TestApplyBudget_UnderBudgetUntouched(t *testing.T) {
	segments := []Segment{
		sinkSegment("a.go", 10, 30, 20),
		flowSegment("b.go", 1, 10, RoleSourceMethod, 5),
	}
	out, truncated := ApplyBudget(segments, 400)
	if truncated {
		t.Error("truncated = true, want false under budget")
	}
	if len(out) != 2 || out[0].Len() != 21 || out[1].Len() != 10 {
		t.Errorf("segments altered while under budget: %v", out)
	}
}

func TestApplyBudget_ShrinkOrderTier3FirstThenTier2(t *testing.T) {
	// 40-line sink segment, 30-line source segment with trace lines
	// 110 and 115, 20-line trace-free callsite. Budget 60 forces the
	// callsite out and the source down to its trace span; the sink
	// segment is never altered.
	segments := []Segment{
		sinkSegment("a.go", 1, 40, 20),
		flowSegment("b.go", 100, 129, RoleSourceMethod, 110, 115),
		flowSegment("c.go", 200, 219, RoleCallsite),
	}

	out, truncated := ApplyBudget(segments, 60)
	if truncated {
		t.Error("truncated = true, want false once shrinking satisfies the budget")
	}

	var sink, source *Segment
	for i := range out {
		switch out[i].File {
		case "a.go":
			sink = &out[i]
		case "b.go":
			source = &out[i]
		case "c.go":
			t.Error("trace-free callsite survived, want dropped first")
		}
	}

	if sink == nil || sink.StartLine != 1 || sink.EndLine != 40 {
		t.Errorf("sink segment = %+v, want untouched [1,40]", sink)
	}
	if source == nil || source.StartLine != 110 || source.EndLine != 115 {
		t.Errorf("source segment = %+v, want shrunk to trace span [110,115]", source)
	}
	if total := TotalLines(out); total > 60 {
		t.Errorf("total = %d, want <= 60", total)
	}
}

func TestApplyBudget_CallsiteWithTraceShrinksNotDrops(t *testing.T) {
	segments := []Segment{
		sinkSegment("a.go", 1, 40, 20),
		flowSegment("c.go", 200, 229, RoleCallsite, 215),
	}

	out, _ := ApplyBudget(segments, 50)

	var callsite *Segment
	for i := range out {
		if out[i].File == "c.go" {
			callsite = &out[i]
		}
	}
	if callsite == nil {
		t.Fatal("callsite with trace line dropped, want shrunk")
	}
	if callsite.StartLine != 214 || callsite.EndLine != 216 {
		t.Errorf("callsite = [%d,%d], want [214,216] around trace line", callsite.StartLine, callsite.EndLine)
	}
}

func TestApplyBudget_SinkNeverAltered(t *testing.T) {
	// Even when the sink segment alone exceeds the budget, it stays
	// whole and the result is flagged truncated.
	segments := []Segment{
		sinkSegment("a.go", 1, 100, 50),
	}
	out, truncated := ApplyBudget(segments, 30)
	if !truncated {
		t.Error("truncated = false, want true")
	}
	if len(out) != 1 || out[0].StartLine != 1 || out[0].EndLine != 100 {
		t.Errorf("sink segment = %v, want untouched", out)
	}
}

func TestApplyBudget_LargestTier3GoesFirst(t *testing.T) {
	segments := []Segment{
		sinkSegment("a.go", 1, 10, 5),
		flowSegment("b.go", 1, 30, RoleCallsite),
		flowSegment("c.go", 1, 5, RoleCallsite),
	}
	// Dropping the 30-line callsite alone satisfies the budget.
	out, _ := ApplyBudget(segments, 20)
	for _, seg := range out {
		if seg.File == "b.go" {
			t.Error("largest trace-free segment survived")
		}
	}
	var small bool
	for _, seg := range out {
		if seg.File == "c.go" {
			small = true
		}
	}
	if !small {
		t.Error("smaller callsite dropped unnecessarily")
	}
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		want Tier
	}{
		{"sink role", sinkSegment("a.go", 1, 10, 5), Tier1},
		{"source with trace", flowSegment("a.go", 1, 10, RoleSourceMethod, 5), Tier2},
		{"bridge with trace", flowSegment("a.go", 1, 10, RoleBridge, 5), Tier2},
		{"intermediate with trace", flowSegment("a.go", 1, 10, RoleIntermediateMethod, 5), Tier2},
		{"callsite with trace", flowSegment("a.go", 1, 10, RoleCallsite, 5), Tier3},
		{"trace-free bridge", flowSegment("a.go", 1, 10, RoleBridge), Tier3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tierOf(&tt.seg); got != tt.want {
				t.Errorf("tierOf = %d, want %d", got, tt.want)
			}
		})
	}
}
