// Package locator builds per-file structural indexes that map source
// lines to their enclosing method.
package locator

import "sort"

// MethodDescriptor describes a single method/function in a source file.
// Descriptors are immutable once built; line numbers are 1-based inclusive.
type MethodDescriptor struct {
	Name      string `json:"name"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Signature string `json:"signature"`
	File      string `json:"file"` // repo-relative path
}

// Contains reports whether line falls inside the method body.
func (m *MethodDescriptor) Contains(line int) bool {
	return m.StartLine <= line && line <= m.EndLine
}

// Span is the method's size in lines.
func (m *MethodDescriptor) Span() int {
	return m.EndLine - m.StartLine + 1
}

// sortDescriptors orders descriptors by start line, ties broken by end
// line ascending, matching the index_file contract.
func sortDescriptors(methods []MethodDescriptor) {
	sort.SliceStable(methods, func(i, j int) bool {
		if methods[i].StartLine != methods[j].StartLine {
			return methods[i].StartLine < methods[j].StartLine
		}
		return methods[i].EndLine < methods[j].EndLine
	})
}

// innermost returns the smallest-span descriptor containing line.
// When spans tie (nested declarations sharing boundaries), the later
// start line wins, then the later index, so inner declarations beat
// the outer ones they start inside of.
func innermost(methods []MethodDescriptor, line int) (MethodDescriptor, bool) {
	best := -1
	for i, m := range methods {
		if !m.Contains(line) {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		b := methods[best]
		switch {
		case m.Span() < b.Span():
			best = i
		case m.Span() == b.Span() && m.StartLine >= b.StartLine:
			best = i
		}
	}
	if best == -1 {
		return MethodDescriptor{}, false
	}
	return methods[best], true
}
