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

	"github.com/xlab/treeprint"
)

// Report summarizes a successful run.
type Report struct {
	// Written lists every manifest of this run, relative to the output directory and sorted.
	Written []string
	// Removed lists the stale manifests that were deleted.
	Removed []string
	// Namespaces lists the namespaces whose Namespace object was generated.
	Namespaces []string

	owners map[string]string
}

func newReport(reg *registry, namespaces, removed []string) *Report {
	written := reg.paths()
	owners := make(map[string]string, len(written))
	for _, p := range written {
		owners[p] = reg.owner(p)
	}

	return &Report{
		Written:    written,
		Removed:    removed,
		Namespaces: namespaces,
		owners:     owners,
	}
}

// Owner returns the app that wrote the manifest at p.
func (r *Report) Owner(p string) string {
	return r.owners[p]
}

// Tree renders the written manifests grouped by directory, each file annotated
// with its owning app.
func (r *Report) Tree(root string) string {
	tree := treeprint.New()
	tree.SetValue(root)

	branches := map[string]treeprint.Tree{}
	for _, p := range r.Written {
		dir, file := path.Split(p)
		dir = path.Clean(dir)

		branch, ok := branches[dir]
		if !ok {
			branch = tree.AddBranch(dir)
			branches[dir] = branch
		}
		branch.AddMetaNode(r.owners[p], file)
	}

	return tree.String()
}
