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

package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	"k8c.io/manifest-builder/internal/pkg/manifest"
)

// synthesizeNamespaces writes a Namespace object for every namespace directory
// of this run that has none and returns the namespaces it created.
func (g *Generator) synthesizeNamespaces(reg *registry) ([]string, error) {
	var created []string

	for _, ns := range reg.namespaces() {
		if reg.hasNamespace(ns) {
			continue
		}

		obj, err := kubernetes.NewNamespace(ns)
		if err != nil {
			return nil, fmt.Errorf("failed to build namespace %q: %w", ns, err)
		}

		written, ok, err := g.cfg.Writer.Write(obj, g.cfg.OutputDir, "", namespaceOwner)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("failed to place namespace %q", ns)
		}

		rel, err := g.relative([]string{written})
		if err != nil {
			return nil, err
		}

		if conflicts := reg.claim(namespaceOwner, rel); len(conflicts) > 0 {
			return nil, &ConflictError{Conflicts: conflicts}
		}

		g.logger.Debugw("Created namespace", "namespace", ns)
		created = append(created, ns)
	}

	return created, nil
}

// cleanupStale removes manifest files below the output directory that this run
// did not write, then removes directories left empty. Files directly in the
// output directory and hidden directories are never touched.
func (g *Generator) cleanupStale(reg *registry) ([]string, error) {
	root := g.cfg.OutputDir

	var (
		removed []string
		dirs    []string
	)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p == root {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			dirs = append(dirs, p)
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !strings.Contains(rel, "/") || !kubernetes.IsManifestFile(d.Name()) || reg.has(rel) {
			return nil
		}

		if err := os.Remove(p); err != nil {
			return fmt.Errorf("failed to remove stale manifest: %w", err)
		}

		g.logger.Infow("Removed stale manifest", "path", rel)
		removed = append(removed, rel)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clean up output directory: %w", err)
	}

	// deepest first, so parents see their emptied children as gone
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		if err := removeIfEmpty(dir); err != nil {
			return nil, err
		}
	}

	return removed, nil
}

func removeIfEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read directory: %w", err)
	}

	if len(entries) > 0 {
		return nil
	}

	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove empty directory: %w", err)
	}

	return nil
}

// namespaceFile returns the path of the Namespace object for ns in the cluster directory.
func namespaceFile(ns string) string {
	return path.Join(manifest.ClusterDirectory, manifest.FileName("Namespace", ns))
}
