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

package v1alpha1

import (
	"path"
	"strings"
)

// Helmfile is the subset of a helmfile.yaml used to resolve release references.
type Helmfile struct {
	Repositories []HelmfileRepository `json:"repositories,omitempty"`
	Releases     []HelmfileRelease    `json:"releases,omitempty"`
}

// HelmfileRepository is a named chart repository.
type HelmfileRepository struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// HelmfileRelease declares a chart release.
type HelmfileRelease struct {
	Name string `json:"name"`
	// Chart is either "<repository>/<chart>" or a bare oci:// reference.
	Chart     string `json:"chart"`
	Version   string `json:"version,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// IsOCI reports whether the release points directly at an OCI artifact.
func (r *HelmfileRelease) IsOCI() bool {
	return strings.HasPrefix(r.Chart, OCIScheme)
}

// SplitChart splits a "<repository>/<chart>" reference. It returns false when
// the chart is not in that form.
func (r *HelmfileRelease) SplitChart() (repo, chart string, ok bool) {
	repo, chart, ok = strings.Cut(r.Chart, "/")
	if !ok || repo == "" || chart == "" || strings.Contains(chart, "/") {
		return "", "", false
	}
	return repo, chart, true
}

// OCIChartName returns the last path segment of an OCI reference, with any tag removed.
func OCIChartName(ref string) string {
	name := path.Base(strings.TrimSuffix(strings.TrimPrefix(ref, OCIScheme), "/"))
	if i := strings.LastIndex(name, ":"); i > 0 {
		name = name[:i]
	}
	return name
}

// FindRelease returns the release with the given name.
func (h *Helmfile) FindRelease(name string) (*HelmfileRelease, bool) {
	for i := range h.Releases {
		if h.Releases[i].Name == name {
			return &h.Releases[i], true
		}
	}
	return nil, false
}

// FindRepository returns the repository with the given name.
func (h *Helmfile) FindRepository(name string) (*HelmfileRepository, bool) {
	for i := range h.Repositories {
		if h.Repositories[i].Name == name {
			return &h.Repositories[i], true
		}
	}
	return nil, false
}

// ReleaseNames returns the names of all declared releases.
func (h *Helmfile) ReleaseNames() []string {
	names := make([]string, 0, len(h.Releases))
	for _, r := range h.Releases {
		names = append(names, r.Name)
	}
	return names
}
