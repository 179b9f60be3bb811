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
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	"k8c.io/manifest-builder/internal/pkg/manifest"
	"k8c.io/manifest-builder/internal/pkg/template"
	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
	mbimages "k8c.io/manifest-builder/pkg/images"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

//go:embed templates/web
var bundled embed.FS

// fragmentPrefix marks templates that are not written themselves but are
// injected into other objects.
const fragmentPrefix = "_"

// BundledTemplates returns the website templates shipped with the binary.
func BundledTemplates() fs.FS {
	sub, err := fs.Sub(bundled, "templates/web")
	if err != nil {
		panic(err)
	}
	return sub
}

// Fragments are the parsed fragment templates, keyed by file name without
// the leading underscore and the extension.
type Fragments map[string]interface{}

// WebsiteRenderer renders website apps from a directory of Mustache templates.
type WebsiteRenderer struct {
	templates fs.FS
	images    map[string]string
	renderer  template.Renderer
	sink      *sink
	log       *zap.SugaredLogger
}

// NewWebsiteRenderer returns a renderer using the bundled templates.
// images are made available to the templates as variables.
func NewWebsiteRenderer(log *zap.SugaredLogger, writer *manifest.Writer, images map[string]string) *WebsiteRenderer {
	return NewWebsiteRendererWithTemplates(log, writer, images, BundledTemplates())
}

// NewWebsiteRendererWithTemplates returns a renderer using the *.yaml files
// at the root of templates.
func NewWebsiteRendererWithTemplates(log *zap.SugaredLogger, writer *manifest.Writer, images map[string]string, templates fs.FS) *WebsiteRenderer {
	return &WebsiteRenderer{
		templates: templates,
		images:    images,
		sink:      &sink{writer: writer, log: log},
		log:       log,
	}
}

// Render expands the templates for app and writes the objects below outputDir.
func (r *WebsiteRenderer) Render(_ context.Context, app *appv1alpha1.WebsiteApp, outputDir string) ([]string, error) {
	log := r.log.With("app", app.Name)

	data, err := WebsiteContext(app)
	if err != nil {
		return nil, err
	}
	data = data.Merge(mbimages.Effective(r.images))

	names, err := r.templateNames()
	if err != nil {
		return nil, err
	}

	var objs []*unstructured.Unstructured
	fragments := Fragments{}

	for _, name := range names {
		text, err := fs.ReadFile(r.templates, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		rendered, err := r.renderer.Render(name, string(text), data)
		if err != nil {
			return nil, err
		}

		if strings.HasPrefix(name, fragmentPrefix) {
			value, err := kubernetes.ParseValue([]byte(rendered))
			if err != nil {
				return nil, fmt.Errorf("failed to parse fragment %s: %w", name, err)
			}
			if value != nil {
				fragments[fragmentName(name)] = value
			}
			continue
		}

		docs, err := kubernetes.ParseDocuments([]byte(rendered))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		objs = append(objs, docs...)
	}

	log.Debugw("Rendered templates", "templates", len(names), "objects", len(objs), "fragments", len(fragments))

	for _, obj := range objs {
		kubernetes.BackfillNamespace(obj, app.Namespace)

		if app.HugoRepo != "" {
			if err := ApplyHugoFragments(obj, fragments, app.HugoRepo); err != nil {
				return nil, fmt.Errorf("failed to inject hugo fragments into %s: %w", objectRef(obj), err)
			}
		}
	}

	if len(app.Config) > 0 {
		k8sName := data["k8s_name"].(string)

		configMaps, groups, err := buildConfigMaps(k8sName, app.Namespace, app.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to build config maps of app %q: %w", app.Name, err)
		}

		for _, obj := range objs {
			if err := InjectConfigVolumes(obj, k8sName, groups); err != nil {
				return nil, fmt.Errorf("failed to inject config volumes into %s: %w", objectRef(obj), err)
			}
		}
		objs = append(objs, configMaps...)
	}

	if len(app.ExternalSecrets) > 0 {
		for _, obj := range objs {
			if err := InjectExternalSecrets(obj, app.ExternalSecrets); err != nil {
				return nil, fmt.Errorf("failed to inject external secrets into %s: %w", objectRef(obj), err)
			}
		}
	}

	return r.sink.write(objs, outputDir, app.Namespace, app.Name)
}

// templateNames returns the *.yaml files at the template root in name order.
func (r *WebsiteRenderer) templateNames() ([]string, error) {
	entries, err := fs.ReadDir(r.templates, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list website templates: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), manifest.FileExtension) {
			continue
		}
		names = append(names, e.Name())
	}

	sort.Strings(names)
	return names, nil
}

func fragmentName(file string) string {
	return strings.TrimSuffix(strings.TrimPrefix(file, fragmentPrefix), manifest.FileExtension)
}

// WebsiteContext returns the template variables of app.
// A single argument is exposed as a string, several as a list.
func WebsiteContext(app *appv1alpha1.WebsiteApp) (template.Context, error) {
	k8sName, err := kubernetes.ToK8sName(app.Name)
	if err != nil {
		return nil, err
	}

	data := template.Context{
		"name":     app.Name,
		"k8s_name": k8sName,
	}

	if app.Image != "" {
		data["image"] = app.Image
	}

	args := make([]string, 0, len(app.Args))
	for _, arg := range app.Args {
		quoted, err := quoteScalar(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to quote argument %q: %w", arg, err)
		}
		args = append(args, quoted)
	}

	switch len(args) {
	case 0:
	case 1:
		data["args"] = args[0]
		data["has_args"] = true
	default:
		data["args"] = args
		data["has_args"] = true
	}

	if app.HugoRepo != "" {
		data["git_repo"] = app.HugoRepo
	}

	if len(app.ExtraHostnames) > 0 {
		hostnames := make([]map[string]interface{}, 0, len(app.ExtraHostnames))
		for _, host := range app.ExtraHostnames {
			k8sHost, err := kubernetes.ToK8sName(host)
			if err != nil {
				return nil, err
			}
			hostnames = append(hostnames, map[string]interface{}{
				"hostname":     host,
				"k8s_hostname": k8sHost,
			})
		}
		data["extra_hostnames"] = hostnames
		data["has_extra_hostnames"] = true
	}

	return data, nil
}

// quoteScalar renders s as a double-quoted YAML scalar, so it can be placed
// into a template line whatever characters it contains.
func quoteScalar(s string) (string, error) {
	out, err := yaml.Marshal(&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: s})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
