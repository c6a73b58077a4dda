package vuln

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads vulnerability metadata from a file, dispatching on the
// extension: .sarif for SARIF reports, .yaml/.yml for YAML, anything
// else is treated as plain JSON. Both single objects and arrays are
// accepted for JSON and YAML.
func Load(path string) ([]VulnerabilityInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vulnerability metadata: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".sarif":
		return FromSARIFBytes(data)
	case ".yaml", ".yml":
		return loadYAML(data)
	default:
		return loadJSON(data)
	}
}

func loadJSON(data []byte) ([]VulnerabilityInfo, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []VulnerabilityInfo
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parsing vulnerability JSON list: %w", err)
		}
		return list, nil
	}

	var one VulnerabilityInfo
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parsing vulnerability JSON: %w", err)
	}
	return []VulnerabilityInfo{one}, nil
}

func loadYAML(data []byte) ([]VulnerabilityInfo, error) {
	var list []VulnerabilityInfo
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var one VulnerabilityInfo
	if err := yaml.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parsing vulnerability YAML: %w", err)
	}
	return []VulnerabilityInfo{one}, nil
}
