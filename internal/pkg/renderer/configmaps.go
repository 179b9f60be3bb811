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
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// splitConfigPath splits an absolute container path into its top-level
// directory and the ConfigMap key of the file below it. A path directly
// below the root uses the key ".".
func splitConfigPath(containerPath string) (group, key string, err error) {
	cleaned := strings.TrimPrefix(path.Clean(containerPath), "/")
	if !strings.HasPrefix(containerPath, "/") || cleaned == "" {
		return "", "", fmt.Errorf("config file path must be absolute: %s", containerPath)
	}

	group, key, found := strings.Cut(cleaned, "/")
	if !found {
		key = "."
	}
	return group, key, nil
}

func configMapName(k8sName, group string) (string, error) {
	return kubernetes.ToK8sName(k8sName + "-" + group)
}

// buildConfigMaps reads the local config files and groups them into one
// ConfigMap per top-level container directory, named <k8sName>-<group>.
// It returns the ConfigMaps and the groups, both sorted by group.
func buildConfigMaps(k8sName, namespace string, files map[string]string) ([]*unstructured.Unstructured, []string, error) {
	data := map[string]map[string]string{}
	for containerPath, localPath := range files {
		group, key, err := splitConfigPath(containerPath)
		if err != nil {
			return nil, nil, err
		}

		content, err := os.ReadFile(localPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read config file for %s: %w", containerPath, err)
		}

		if data[group] == nil {
			data[group] = map[string]string{}
		}
		data[group][key] = string(content)
	}

	groups := make([]string, 0, len(data))
	for group := range data {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	configMaps := make([]*unstructured.Unstructured, 0, len(groups))
	for _, group := range groups {
		name, err := configMapName(k8sName, group)
		if err != nil {
			return nil, nil, err
		}

		cm, err := kubernetes.NewConfigMap(name, namespace, data[group])
		if err != nil {
			return nil, nil, err
		}
		configMaps = append(configMaps, cm)
	}

	return configMaps, groups, nil
}
