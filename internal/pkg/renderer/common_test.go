/*
Copyright 2026 The Manifest Builder contributors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package renderer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	"k8c.io/manifest-builder/internal/pkg/manifest"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func newTestWriter(t *testing.T) *manifest.Writer {
	return manifest.NewWriter(zaptest.NewLogger(t).Sugar(), manifest.DefaultOptions())
}

// readObject parses a written manifest.
func readObject(t *testing.T, path string) *unstructured.Unstructured {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	objs, err := kubernetes.ParseDocuments(content)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	return objs[0]
}

// relPaths returns paths relative to root, sorted.
func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()

	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)
	return rel
}

func findPath(t *testing.T, paths []string, fragment string) string {
	t.Helper()

	for _, p := range paths {
		if strings.Contains(filepath.Base(p), fragment) {
			return p
		}
	}
	t.Fatalf("no path containing %q in %v", fragment, paths)
	return ""
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
