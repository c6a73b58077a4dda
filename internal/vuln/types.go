// Package vuln models vulnerability trace metadata and loads it from
// JSON, YAML, or SARIF produced by an upstream finder.
package vuln

import (
	"strings"

	vcerrors "vulnctx/internal/errors"
	"vulnctx/internal/paths"
)

// FlowStep is one step of the reconstructed source-to-sink path.
type FlowStep struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// VulnerabilityInfo is the already-validated input to extraction: a
// sink plus the ordered flow steps leading to it.
type VulnerabilityInfo struct {
	ID     string     `json:"id,omitempty" yaml:"id,omitempty"`
	RuleID string     `json:"ruleId,omitempty" yaml:"ruleId,omitempty"`
	Sink   FlowStep   `json:"sink" yaml:"sink"`
	Flow   []FlowStep `json:"flow" yaml:"flow"`
}

// Normalize canonicalizes all file paths in place.
func (v *VulnerabilityInfo) Normalize() {
	v.Sink.File = paths.Normalize(v.Sink.File)
	for i := range v.Flow {
		v.Flow[i].File = paths.Normalize(v.Flow[i].File)
	}
}

// Validate checks that the sink and every flow step carry a file and a
// positive line. A failure is unrecoverable for this vulnerability.
func (v *VulnerabilityInfo) Validate() error {
	if strings.TrimSpace(v.Sink.File) == "" || v.Sink.Line < 1 {
		return vcerrors.Newf(vcerrors.MalformedVulnInfo,
			"sink missing file/line (file=%q line=%d)", v.Sink.File, v.Sink.Line)
	}
	for i, step := range v.Flow {
		if strings.TrimSpace(step.File) == "" || step.Line < 1 {
			return vcerrors.Newf(vcerrors.MalformedVulnInfo,
				"flow step %d missing file/line (file=%q line=%d)", i, step.File, step.Line)
		}
	}
	return nil
}

// Files returns the distinct set of files referenced by the trace.
func (v *VulnerabilityInfo) Files() []string {
	seen := map[string]bool{}
	var out []string
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, step := range v.Flow {
		add(step.File)
	}
	add(v.Sink.File)
	return out
}
