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

	"k8c.io/manifest-builder/internal/pkg/helm"
	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	"k8c.io/manifest-builder/internal/pkg/manifest"
	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// HelmRenderer renders helm apps with `helm template`.
type HelmRenderer struct {
	client  *helm.Client
	fetcher *helm.Fetcher
	sink    *sink
	log     *zap.SugaredLogger
}

// NewHelmRenderer returns a renderer that templates charts with client and
// pulls charts from remote repositories with fetcher.
func NewHelmRenderer(log *zap.SugaredLogger, writer *manifest.Writer, client *helm.Client, fetcher *helm.Fetcher) *HelmRenderer {
	return &HelmRenderer{
		client:  client,
		fetcher: fetcher,
		sink:    &sink{writer: writer, log: log},
		log:     log,
	}
}

// Render templates the chart of app and writes the resulting objects and the
// app's extra resources below outputDir.
func (r *HelmRenderer) Render(ctx context.Context, app *appv1alpha1.HelmApp, outputDir string) ([]string, error) {
	log := r.log.With("app", app.Name)

	if app.Chart.Chart == "" {
		return nil, fmt.Errorf("app %q has no chart", app.Name)
	}

	req := helm.TemplateRequest{
		ReleaseName: app.Name,
		Chart:       app.Chart.Chart,
		Namespace:   app.Namespace,
		ValuesFiles: app.Values,
		Version:     app.Chart.Version,
	}

	if app.Chart.Repo != "" {
		chartDir, err := r.fetcher.Fetch(ctx, app.Chart)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch chart %s: %w", app.Chart, err)
		}
		req.Chart = chartDir
		req.Version = ""
	}

	log.Debugw("Templating chart", "chart", req.Chart)

	out, err := r.client.Template(ctx, req)
	if err != nil {
		return nil, err
	}

	docs, err := kubernetes.ParseDocuments(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse output of chart %s: %w", app.Chart, err)
	}

	objs := make([]*unstructured.Unstructured, 0, len(docs))
	for _, obj := range docs {
		if kubernetes.IsTestHook(obj) {
			log.Infow("Skipping test hook", "object", objectRef(obj))
			continue
		}
		objs = append(objs, obj)
	}

	if app.ExtraResources != "" {
		extra, err := kubernetes.ReadManifestDir(app.ExtraResources, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read extra resources of app %q: %w", app.Name, err)
		}
		log.Debugw("Adding extra resources", "dir", app.ExtraResources, "objects", len(extra))
		objs = append(objs, extra...)
	}

	return r.sink.write(objs, outputDir, app.Namespace, app.Name)
}
