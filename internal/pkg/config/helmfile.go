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

package config

import (
	"fmt"
	"os"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	"sigs.k8s.io/yaml"
)

// LoadHelmfile parses the repositories and releases of a helmfile.yaml.
func LoadHelmfile(path string) (*appv1alpha1.Helmfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read helmfile: %w", err)
	}

	hf := &appv1alpha1.Helmfile{}
	if err := yaml.Unmarshal(data, hf); err != nil {
		return nil, newError(path, "", "helmfile.yaml must be a YAML mapping with repositories and releases: %v", err)
	}

	for _, repo := range hf.Repositories {
		if repo.Name == "" || repo.URL == "" {
			return nil, newError(path, "", "each repository entry requires 'name' and 'url'")
		}
	}

	for _, rel := range hf.Releases {
		if rel.Name == "" || rel.Chart == "" {
			return nil, newError(path, "", "each release entry requires 'name' and 'chart'")
		}
	}

	return hf, nil
}
