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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	kerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Validate checks the resolved apps before anything is rendered: every local
// file or directory they reference must exist, chart versions must parse and
// derived Kubernetes names must be valid. All problems are reported together.
func Validate(apps []appv1alpha1.App) error {
	var errs []error
	for _, app := range apps {
		errs = append(errs, validateApp(app)...)
	}
	return kerrors.NewAggregate(errs)
}

func validateApp(app appv1alpha1.App) []error {
	v := &validator{app: app.GetName()}

	for _, msg := range validation.IsDNS1123Label(app.GetNamespace()) {
		v.fail("invalid namespace %q: %s", app.GetNamespace(), msg)
	}

	switch a := app.(type) {
	case *appv1alpha1.HelmApp:
		for _, values := range a.Values {
			v.file("values file", values)
		}
		if a.ExtraResources != "" {
			v.dir("extra-resources directory", a.ExtraResources)
		}
		if a.Chart.IsLocal() {
			v.dir("chart directory", a.Chart.Chart)
		}
		if a.Chart.Version != "" {
			v.version(a.Chart.Version)
		}

	case *appv1alpha1.WebsiteApp:
		if a.Image == "" && a.HugoRepo == "" {
			v.fail("website app needs either an image or a hugo repository")
		}
		if _, err := kubernetes.ToK8sName(a.Name); err != nil {
			v.fail("name cannot be used for Kubernetes objects: %v", err)
		}
		for _, host := range a.ExtraHostnames {
			if _, err := kubernetes.ToK8sName(host); err != nil {
				v.fail("extra hostname cannot be used for Kubernetes objects: %v", err)
			}
		}
		for _, mountPath := range a.ExternalSecrets {
			if !strings.HasPrefix(mountPath, "/") {
				v.fail("external secret %q must be an absolute path", mountPath)
			}
		}
		v.configFiles(a.Config)

	case *appv1alpha1.SimpleApp:
		v.dir("copy-from directory", a.CopyFrom)
		v.configFiles(a.Config)
	}

	return v.errs
}

type validator struct {
	app  string
	errs []error
}

func (v *validator) fail(format string, args ...interface{}) {
	v.errs = append(v.errs, newError("", v.app, format, args...))
}

func (v *validator) file(what, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		v.fail("%s not found: %s", what, path)
	case info.IsDir():
		v.fail("%s is a directory: %s", what, path)
	}
}

func (v *validator) dir(what, path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		v.fail("%s not found: %s", what, path)
	case !info.IsDir():
		v.fail("%s is not a directory: %s", what, path)
	}
}

func (v *validator) version(version string) {
	if _, err := semver.NewVersion(version); err == nil {
		return
	}
	if _, err := semver.NewConstraint(version); err != nil {
		v.fail("version %q is neither a semantic version nor a version constraint", version)
	}
}

func (v *validator) configFiles(files map[string]string) {
	containerPaths := make([]string, 0, len(files))
	for p := range files {
		containerPaths = append(containerPaths, p)
	}
	sort.Strings(containerPaths)

	for _, containerPath := range containerPaths {
		if !strings.HasPrefix(containerPath, "/") {
			v.fail("config path %q must be an absolute container path", containerPath)
			continue
		}
		group, key, ok := strings.Cut(strings.TrimPrefix(filepath.Clean(containerPath), "/"), "/")
		if !ok || group == "" {
			v.fail("config path %q must be inside a directory, the file name becomes the ConfigMap key and %q is not a valid key", containerPath, ".")
			continue
		}
		for _, msg := range validation.IsConfigMapKey(key) {
			v.fail("config path %q cannot be stored in a ConfigMap: %s", containerPath, msg)
		}
		v.file("config file", files[containerPath])
	}
}
