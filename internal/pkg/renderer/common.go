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

	"go.uber.org/zap"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	"k8c.io/manifest-builder/internal/pkg/manifest"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// sink normalizes objects and hands them to the writer.
type sink struct {
	writer *manifest.Writer
	log    *zap.SugaredLogger
}

// write normalizes and writes objs for the app named owner and returns the
// written paths in write order. Objects the writer cannot place are skipped.
func (s *sink) write(objs []*unstructured.Unstructured, outputDir, namespace, owner string) ([]string, error) {
	paths := make([]string, 0, len(objs))
	for _, obj := range objs {
		kubernetes.StripManagedMetadata(obj)
		kubernetes.BackfillNamespace(obj, namespace)

		path, ok, err := s.writer.Write(obj, outputDir, namespace, owner)
		if err != nil {
			return paths, err
		}
		if !ok {
			s.log.Debugw("Skipped object that cannot be placed", "app", owner, "kind", obj.GetKind(), "name", obj.GetName())
			continue
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func objectRef(obj *unstructured.Unstructured) string {
	if ns := obj.GetNamespace(); ns != "" {
		return fmt.Sprintf("%s %s/%s", obj.GetKind(), ns, obj.GetName())
	}
	return fmt.Sprintf("%s %s", obj.GetKind(), obj.GetName())
}
