package queries

import (
	"io/fs"
	"reflect"
	"strings"
	"testing"
)

func TestQueryHelperAllStringsRecursive(t *testing.T) {
	var paths []string
	collectQueryPaths(reflect.ValueOf(QueryHelper), &paths)

	if len(paths) == 0 {
		t.Fatal("no query paths in QueryHelper found")
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			if content := Get(path); strings.TrimSpace(content) == "" {
				t.Errorf("query file %q is empty", path)
			}
		})
	}

	// every embedded .sql file must be reachable from QueryHelper
	count := 0
	err := fs.WalkDir(Files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("error walking embedded queries: %v", err)
	}

	if count != len(paths) {
		t.Fatalf("number of embedded .sql files does not match number of query paths in QueryHelper (%d != %d)", count, len(paths))
	}
}

func TestGet_PanicsOnUnknownPath(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a missing query file")
		}
	}()
	Get("select/does_not_exist.sql")
}

func collectQueryPaths(v reflect.Value, paths *[]string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)

		if field.Kind() == reflect.String {
			if s := field.String(); s != "" {
				*paths = append(*paths, s)
			}
		} else {
			collectQueryPaths(field, paths)
		}
	}
}
