package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// packageImports returns the imports of every non-test Go file in dir,
// keyed by file name.
func packageImports(t *testing.T, dir string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		// Skip test files
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			out[entry.Name()] = append(out[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

// TestCoreImportsOnly verifies pkg/core only imports the standard library.
func TestCoreImportsOnly(t *testing.T) {
	for file, imports := range packageImports(t, ".") {
		for _, importPath := range imports {
			// Stdlib paths have no dot in the first element.
			if strings.Contains(strings.SplitN(importPath, "/", 2)[0], ".") {
				t.Errorf("%s imports non-stdlib package: %s", file, importPath)
			}
		}
	}
}

// TestLibraryPackagesDoNotImportInternal verifies that the public packages
// stay usable without the CLI and its supporting internals.
func TestLibraryPackagesDoNotImportInternal(t *testing.T) {
	for _, dir := range []string{".", "../contract", "../drift", "../extract", "../pyast", "../adapter"} {
		for file, imports := range packageImports(t, dir) {
			for _, importPath := range imports {
				if strings.Contains(importPath, "/internal/") {
					t.Errorf("%s/%s imports internal package: %s", dir, file, importPath)
				}
			}
		}
	}
}

// TestDriftDoesNotImportParser verifies the comparator works on schemas
// alone, without the Python front end.
func TestDriftDoesNotImportParser(t *testing.T) {
	for file, imports := range packageImports(t, "../drift") {
		for _, importPath := range imports {
			if strings.HasSuffix(importPath, "/pkg/pyast") || strings.HasSuffix(importPath, "/pkg/extract") {
				t.Errorf("drift/%s imports %s", file, importPath)
			}
		}
	}
}
