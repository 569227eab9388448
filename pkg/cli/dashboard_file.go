package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dashquery/internal/domain"
)

// readDashboard loads a dashboard configuration from path, or from stdin when
// path is "-". YAML files are converted to JSON first so both formats share
// the condition decoding.
func readDashboard(path string, stdin io.Reader) (domain.DashboardConfig, error) {
	var cfg domain.DashboardConfig
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // operator-supplied dashboard file
	}
	if err != nil {
		return cfg, fmt.Errorf("read dashboard: %w", err)
	}

	if isYAMLPath(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func isYAMLPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
