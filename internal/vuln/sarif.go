package vuln

import (
	"encoding/json"
	"fmt"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// FromSARIFBytes parses a SARIF report and converts every result that
// carries location information into a VulnerabilityInfo.
func FromSARIFBytes(data []byte) ([]VulnerabilityInfo, error) {
	var report sarif.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing SARIF report: %w", err)
	}
	return FromSARIF(&report), nil
}

// FromSARIF converts a finder's SARIF report. The result's primary
// location is the sink; the first thread flow supplies the ordered flow
// steps. Results without any usable location are skipped.
func FromSARIF(report *sarif.Report) []VulnerabilityInfo {
	var vulns []VulnerabilityInfo

	for _, run := range report.Runs {
		if run == nil {
			continue
		}
		for _, result := range run.Results {
			if result == nil {
				continue
			}
			v, ok := fromResult(result)
			if ok {
				vulns = append(vulns, v)
			}
		}
	}
	return vulns
}

func fromResult(result *sarif.Result) (VulnerabilityInfo, bool) {
	var v VulnerabilityInfo
	if result.RuleID != nil {
		v.RuleID = *result.RuleID
	}

	v.Flow = flowSteps(result)

	if sink, ok := primaryLocation(result); ok {
		v.Sink = sink
	} else if len(v.Flow) > 0 {
		// No explicit sink location: the last thread-flow step is the sink.
		v.Sink = v.Flow[len(v.Flow)-1]
		v.Flow = v.Flow[:len(v.Flow)-1]
	} else {
		return VulnerabilityInfo{}, false
	}

	if v.Sink.Note == "" && result.Message.Text != nil {
		v.Sink.Note = *result.Message.Text
	}
	return v, true
}

func primaryLocation(result *sarif.Result) (FlowStep, bool) {
	for _, loc := range result.Locations {
		if step, ok := fromLocation(loc); ok {
			return step, true
		}
	}
	return FlowStep{}, false
}

func flowSteps(result *sarif.Result) []FlowStep {
	var steps []FlowStep
	for _, codeFlow := range result.CodeFlows {
		if codeFlow == nil || len(codeFlow.ThreadFlows) == 0 {
			continue
		}
		for _, threadFlow := range codeFlow.ThreadFlows {
			if threadFlow == nil {
				continue
			}
			for _, tfl := range threadFlow.Locations {
				if tfl == nil {
					continue
				}
				if step, ok := fromLocation(tfl.Location); ok {
					steps = append(steps, step)
				}
			}
			if len(steps) > 0 {
				return steps // first usable thread flow wins
			}
		}
	}
	return steps
}

func fromLocation(loc *sarif.Location) (FlowStep, bool) {
	if loc == nil || loc.PhysicalLocation == nil ||
		loc.PhysicalLocation.ArtifactLocation == nil ||
		loc.PhysicalLocation.ArtifactLocation.URI == nil {
		return FlowStep{}, false
	}

	step := FlowStep{File: *loc.PhysicalLocation.ArtifactLocation.URI}
	if region := loc.PhysicalLocation.Region; region != nil && region.StartLine != nil {
		step.Line = *region.StartLine
	}
	if step.Line < 1 {
		return FlowStep{}, false
	}
	if loc.Message != nil && loc.Message.Text != nil {
		step.Note = *loc.Message.Text
	}
	return step, true
}
