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

package kubernetes

import (
	"strings"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

var managedMetadataPaths = [][]string{
	{"metadata", "labels"},
	{"metadata", "annotations"},
	{"spec", "template", "metadata", "labels"},
	{"spec", "template", "metadata", "annotations"},
}

// StripManagedMetadata removes Helm-owned labels and annotations from the
// object and from its pod template. Keys under the helm.sh/ prefix are
// removed, as is app.kubernetes.io/managed-by when its value is "Helm".
// Maps left empty are removed from the object.
//
// The maps are edited in place rather than through GetLabels/SetLabels,
// because chart output may carry non-string values that those accessors
// reject.
func StripManagedMetadata(obj *unstructured.Unstructured) {
	for _, path := range managedMetadataPaths {
		field, found, err := unstructured.NestedFieldNoCopy(obj.Object, path...)
		if err != nil || !found {
			continue
		}

		m, ok := field.(map[string]interface{})
		if !ok {
			continue
		}

		for key, value := range m {
			if isManagedKey(key, value) {
				delete(m, key)
			}
		}

		if len(m) == 0 {
			unstructured.RemoveNestedField(obj.Object, path...)
		}
	}
}

func isManagedKey(key string, value interface{}) bool {
	if strings.HasPrefix(key, appv1alpha1.HelmMetadataPrefix) {
		return true
	}

	s, _ := value.(string)
	return key == appv1alpha1.LabelManagedBy && s == appv1alpha1.ManagedByHelm
}

// BackfillNamespace sets metadata.namespace on a namespace-scoped object that
// has none. Cluster-scoped objects and objects with a namespace are left alone.
func BackfillNamespace(obj *unstructured.Unstructured, namespace string) {
	kind := obj.GetKind()
	if kind == "" || IsClusterScoped(kind) {
		return
	}

	if obj.GetNamespace() == "" {
		obj.SetNamespace(namespace)
	}
}

// IsTestHook reports whether the object is a chart test, i.e. its helm.sh/hook
// annotation mentions "test".
func IsTestHook(obj *unstructured.Unstructured) bool {
	hook, found, err := unstructured.NestedFieldNoCopy(obj.Object, "metadata", "annotations", appv1alpha1.AnnotationHelmHook)
	if err != nil || !found {
		return false
	}

	s, ok := hook.(string)
	return ok && strings.Contains(s, "test")
}
