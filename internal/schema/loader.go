package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dashquery/internal/domain"
)

// SupportedAPIVersion is the apiVersion accepted in schema documents.
const SupportedAPIVersion = "dashquery/v1"

// KindDataSource is the document kind of a data source schema.
const KindDataSource = "DataSource"

// document is one YAML document describing a data source.
type document struct {
	APIVersion string                  `yaml:"apiVersion"`
	Kind       string                  `yaml:"kind"`
	Spec       domain.DataSourceSchema `yaml:"spec"`
}

// LoadDirectory reads every *.yaml and *.yml file below dir in lexical path
// order and returns the schemas they declare.
func LoadDirectory(dir string) ([]domain.DataSourceSchema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema directory: %s is not a directory", dir)
	}

	var out []domain.DataSourceSchema
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		schemas, err := LoadFile(path)
		if err != nil {
			return err
		}
		out = append(out, schemas...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile reads all DataSource documents of one YAML file. Unknown keys are
// rejected.
func LoadFile(path string) ([]domain.DataSourceSchema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // reading operator-supplied schema files
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) ([]domain.DataSourceSchema, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var out []domain.DataSourceSchema
	for i := 0; ; i++ {
		var doc document
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := validateDocument(path, i, doc); err != nil {
			return nil, err
		}
		if err := doc.Spec.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, doc.Spec)
	}
	return out, nil
}

func validateDocument(path string, index int, doc document) error {
	if doc.APIVersion != SupportedAPIVersion {
		return fmt.Errorf("%s (document %d): unsupported apiVersion %q (expected %q)", path, index, doc.APIVersion, SupportedAPIVersion)
	}
	if doc.Kind != KindDataSource {
		return fmt.Errorf("%s (document %d): unexpected kind %q (expected %q)", path, index, doc.Kind, KindDataSource)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
