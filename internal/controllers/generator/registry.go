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
	"path"
	"sort"
	"strings"

	"k8c.io/manifest-builder/internal/pkg/manifest"

	"k8s.io/apimachinery/pkg/util/sets"
)

// namespaceOwner owns the Namespace objects the generator writes itself.
const namespaceOwner = "manifest-builder"

// systemNamespaces never get a Namespace object.
var systemNamespaces = sets.New(manifest.ClusterDirectory, "kube-system")

// registry records which app wrote which file during one run.
// Paths are slash-separated and relative to the output directory.
type registry struct {
	owners map[string]string
}

func newRegistry() *registry {
	return &registry{owners: map[string]string{}}
}

// claim records paths for app, unless one of them is owned by another app.
// In that case nothing is recorded and all collisions are returned.
// An app may write the same path more than once.
func (r *registry) claim(app string, paths []string) []Conflict {
	var conflicts []Conflict
	seen := sets.New[string]()

	for _, p := range paths {
		if seen.Has(p) {
			continue
		}
		seen.Insert(p)

		if owner, ok := r.owners[p]; ok && owner != app {
			conflicts = append(conflicts, Conflict{Path: p, Owner: owner, Claimant: app})
		}
	}

	if len(conflicts) > 0 {
		return conflicts
	}

	for _, p := range paths {
		r.owners[p] = app
	}
	return nil
}

func (r *registry) has(p string) bool {
	_, ok := r.owners[p]
	return ok
}

func (r *registry) owner(p string) string {
	return r.owners[p]
}

// paths returns all recorded paths, sorted.
func (r *registry) paths() []string {
	return sets.List(sets.KeySet(r.owners))
}

// namespaces returns the namespace directories that hold at least one
// recorded file, sorted. The cluster and kube-system directories are excluded.
func (r *registry) namespaces() []string {
	dirs := sets.New[string]()
	for p := range r.owners {
		dir, _, found := strings.Cut(p, "/")
		if !found || systemNamespaces.Has(dir) {
			continue
		}
		dirs.Insert(dir)
	}

	list := dirs.UnsortedList()
	sort.Strings(list)
	return list
}

// hasNamespace reports whether a Namespace object for ns was recorded,
// either in the cluster directory or in the namespace's own directory.
func (r *registry) hasNamespace(ns string) bool {
	return r.has(namespaceFile(ns)) || r.has(path.Join(ns, manifest.FileName("Namespace", ns)))
}
