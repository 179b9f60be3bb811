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
	"context"
	"fmt"

	"go.uber.org/zap"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	"k8c.io/manifest-builder/internal/pkg/manifest"
	"k8c.io/manifest-builder/internal/pkg/template"
	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
)

// SimpleRenderer copies the manifests of simple apps.
type SimpleRenderer struct {
	images   map[string]string
	renderer template.Renderer
	sink     *sink
	log      *zap.SugaredLogger
}

// NewSimpleRenderer returns a renderer for simple apps. If images is not
// empty, every manifest is rendered as a Mustache template with the image
// variables first, and referencing an undefined variable is an error.
func NewSimpleRenderer(log *zap.SugaredLogger, writer *manifest.Writer, images map[string]string) *SimpleRenderer {
	return &SimpleRenderer{
		images:   images,
		renderer: template.Renderer{Strict: true},
		sink:     &sink{writer: writer, log: log},
		log:      log,
	}
}

// Render reads the manifests of app, adds the ConfigMaps of its config files
// and writes everything below outputDir.
func (r *SimpleRenderer) Render(_ context.Context, app *appv1alpha1.SimpleApp, outputDir string) ([]string, error) {
	var transform func(string, []byte) ([]byte, error)
	if len(r.images) > 0 {
		data := template.Context{}.Merge(r.images)
		transform = func(path string, content []byte) ([]byte, error) {
			rendered, err := r.renderer.Render(path, string(content), data)
			if err != nil {
				return nil, err
			}
			return []byte(rendered), nil
		}
	}

	objs, err := kubernetes.ReadManifestDir(app.CopyFrom, transform)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests of app %q: %w", app.Name, err)
	}

	if len(app.Config) > 0 {
		k8sName, err := kubernetes.ToK8sName(app.Name)
		if err != nil {
			return nil, err
		}

		configMaps, _, err := buildConfigMaps(k8sName, app.Namespace, app.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to build config maps of app %q: %w", app.Name, err)
		}
		objs = append(objs, configMaps...)
	}

	r.log.Debugw("Copying manifests", "app", app.Name, "dir", app.CopyFrom, "objects", len(objs))

	return r.sink.write(objs, outputDir, app.Namespace, app.Name)
}
