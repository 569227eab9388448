package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "dashquery"

// repoRoot is relative to this package directory.
const repoRoot = "../.."

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

var rules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden:    []string{modulePath + "/"},
		hint:         "domain imports no other dashquery package",
	},
	{
		sourcePrefix: modulePath + "/internal/condition",
		forbidden: []string{
			modulePath + "/internal/schema",
			modulePath + "/internal/service",
			modulePath + "/internal/db",
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "condition depends on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/schema",
		forbidden: []string{
			modulePath + "/internal/service",
			modulePath + "/internal/db",
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "schema depends on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/service",
		forbidden: []string{
			modulePath + "/internal/api",
			modulePath + "/internal/db",
			modulePath + "/internal/middleware",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "service runs against a Querier, never a concrete driver",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden: []string{
			modulePath + "/internal/db",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "api depends on service, schema and domain",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden: []string{
			modulePath + "/internal/service",
			modulePath + "/internal/db",
			modulePath + "/internal/api",
		},
		hint: "middleware is independent of the dashboard layers",
	},
	{
		sourcePrefix: modulePath + "/internal/db",
		forbidden: []string{
			modulePath + "/internal/service",
			modulePath + "/internal/api",
			modulePath + "/internal/app",
			modulePath + "/cmd",
			modulePath + "/pkg",
		},
		hint: "db depends on driver packages only",
	},
}

func TestImportBoundaries(t *testing.T) {
	files := collectGoFiles(t, filepath.Join(repoRoot, "internal"))
	require.NotEmpty(t, files)

	violations := make([]string, 0)
	fset := token.NewFileSet()
	for _, file := range files {
		sourcePkg := packageImportPath(t, file)
		rule, ok := findRule(sourcePkg)
		if !ok {
			continue
		}

		parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
		require.NoErrorf(t, err, "parse imports for %s", file)

		for _, imp := range parsed.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			if !strings.HasPrefix(importPath, modulePath+"/") {
				continue
			}
			if hasPathPrefix(importPath, sourcePkg) {
				continue
			}
			if violatesRule(importPath, rule.forbidden) {
				violations = append(violations,
					sourcePkg+" imports "+importPath+" via "+file+"; allowed direction: "+rule.hint)
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

func TestFindRule(t *testing.T) {
	rule, ok := findRule(modulePath + "/internal/service/dashboard")
	require.True(t, ok)
	require.Equal(t, modulePath+"/internal/service", rule.sourcePrefix)

	_, ok = findRule(modulePath + "/internal/app")
	require.False(t, ok)

	require.True(t, violatesRule(modulePath+"/internal/db", []string{modulePath + "/internal/db"}))
	require.False(t, violatesRule(modulePath+"/internal/dbx", []string{modulePath + "/internal/db"}))
}

// collectGoFiles returns the non-test Go files below root. Tests may reach
// across layers to build fixtures.
func collectGoFiles(t *testing.T, root string) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	require.NoError(t, err)
	return files
}

func packageImportPath(t *testing.T, file string) string {
	t.Helper()

	rel, err := filepath.Rel(repoRoot, filepath.Dir(file))
	require.NoError(t, err)
	return modulePath + "/" + filepath.ToSlash(rel)
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range rules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func violatesRule(importPath string, forbidden []string) bool {
	for _, prefix := range forbidden {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(importPath, prefix) {
				return true
			}
			continue
		}
		if hasPathPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}
