package vuln

import (
	"os"
	"path/filepath"
	"testing"

	vcerrors "vulnctx/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		v       VulnerabilityInfo
		wantErr bool
	}{
		{
			name: "valid",
			v: VulnerabilityInfo{
				Sink: FlowStep{File: "src/App.java", Line: 42},
				Flow: []FlowStep{{File: "src/Input.java", Line: 7}},
			},
		},
		{
			name:    "sink missing file",
			v:       VulnerabilityInfo{Sink: FlowStep{Line: 42}},
			wantErr: true,
		},
		{
			name:    "sink zero line",
			v:       VulnerabilityInfo{Sink: FlowStep{File: "a.java"}},
			wantErr: true,
		},
		{
			name: "flow step missing line",
			v: VulnerabilityInfo{
				Sink: FlowStep{File: "a.java", Line: 1},
				Flow: []FlowStep{{File: "b.java"}},
			},
			wantErr: true,
		},
		{
			name: "no flow is fine",
			v:    VulnerabilityInfo{Sink: FlowStep{File: "a.java", Line: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !vcerrors.IsMalformed(err) {
				t.Errorf("error code = %v, want MALFORMED_VULN_INFO", vcerrors.CodeOf(err))
			}
		})
	}
}

func TestFiles(t *testing.T) {
	v := VulnerabilityInfo{
		Sink: FlowStep{File: "src/B.java", Line: 60},
		Flow: []FlowStep{
			{File: "src/A.java", Line: 10},
			{File: "src/B.java", Line: 55},
			{File: "src/A.java", Line: 12},
		},
	}
	files := v.Files()
	if len(files) != 2 {
		t.Fatalf("Files() = %v, want 2 distinct", files)
	}
	if files[0] != "src/A.java" || files[1] != "src/B.java" {
		t.Errorf("Files() order = %v, want flow order then sink", files)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vuln.json")
	content := `{
  "ruleId": "java/sql-injection",
  "sink": {"file": "src/UserController.java", "line": 13},
  "flow": [
    {"file": "src/UserController.java", "line": 11, "note": "user input"},
    {"file": "src/UserController.java", "line": 12}
  ]
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	vulns, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(vulns) != 1 {
		t.Fatalf("got %d vulns, want 1", len(vulns))
	}
	v := vulns[0]
	if v.Sink.Line != 13 || v.Sink.File != "src/UserController.java" {
		t.Errorf("sink = %+v", v.Sink)
	}
	if len(v.Flow) != 2 || v.Flow[0].Note != "user input" {
		t.Errorf("flow = %+v", v.Flow)
	}
}

func TestLoadJSONList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.json")
	content := `[
  {"sink": {"file": "a.java", "line": 1}},
  {"sink": {"file": "b.java", "line": 2}}
]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	vulns, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(vulns) != 2 {
		t.Fatalf("got %d vulns, want 2", len(vulns))
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vuln.yaml")
	content := `sink:
  file: src/App.java
  line: 42
flow:
  - file: src/Input.java
    line: 7
    note: request parameter
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	vulns, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(vulns) != 1 || vulns[0].Sink.Line != 42 || vulns[0].Flow[0].Note != "request parameter" {
		t.Errorf("vulns = %+v", vulns)
	}
}

func TestNormalize(t *testing.T) {
	v := VulnerabilityInfo{
		Sink: FlowStep{File: "./src/App.java", Line: 1},
		Flow: []FlowStep{{File: `src\win\B.java`, Line: 2}},
	}
	v.Normalize()
	if v.Sink.File != "src/App.java" {
		t.Errorf("sink file = %q", v.Sink.File)
	}
	if v.Flow[0].File != "src/win/B.java" {
		t.Errorf("flow file = %q", v.Flow[0].File)
	}
}
