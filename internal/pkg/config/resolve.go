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

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	kerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Resolve turns declared apps into renderable apps. Helm apps that reference
// a helmfile release get the chart, repository and version of that release.
// hf may be nil when no helmfile.yaml exists.
func Resolve(declared []appv1alpha1.Declared, hf *appv1alpha1.Helmfile) ([]appv1alpha1.App, error) {
	apps := make([]appv1alpha1.App, 0, len(declared))

	var errs []error
	for _, d := range declared {
		switch app := d.(type) {
		case *appv1alpha1.HelmRelease:
			resolved, err := resolveHelm(app, hf)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			apps = append(apps, resolved)
		case *appv1alpha1.WebsiteApp:
			apps = append(apps, app)
		case *appv1alpha1.SimpleApp:
			apps = append(apps, app)
		default:
			errs = append(errs, fmt.Errorf("app %q has unsupported type %T", d.GetName(), d))
		}
	}

	if len(errs) > 0 {
		return nil, kerrors.NewAggregate(errs)
	}
	return apps, nil
}

func resolveHelm(app *appv1alpha1.HelmRelease, hf *appv1alpha1.Helmfile) (*appv1alpha1.HelmApp, error) {
	resolved := &appv1alpha1.HelmApp{
		Meta:           app.Meta,
		Values:         app.Values,
		ExtraResources: app.ExtraResources,
	}

	switch source := app.Source.(type) {
	case appv1alpha1.ChartRef:
		resolved.Chart = source
		return resolved, nil

	case appv1alpha1.ReleaseRef:
		chart, err := resolveRelease(app.Name, source.Release, hf)
		if err != nil {
			return nil, err
		}
		resolved.Chart = chart
		return resolved, nil

	default:
		return nil, newError("", app.Name, "Must specify either 'release' or 'chart'")
	}
}

func resolveRelease(appName, release string, hf *appv1alpha1.Helmfile) (appv1alpha1.ChartRef, error) {
	if hf == nil {
		return appv1alpha1.ChartRef{}, newError("", appName, "release %q is referenced but no %s was found", release, appv1alpha1.HelmfileName)
	}

	rel, ok := hf.FindRelease(release)
	if !ok {
		return appv1alpha1.ChartRef{}, newError("", appName, "release %q not found in %s%s", release, appv1alpha1.HelmfileName, didYouMean(release, hf.ReleaseNames()))
	}

	if rel.IsOCI() {
		return appv1alpha1.ChartRef{
			Chart:   appv1alpha1.OCIChartName(rel.Chart),
			Repo:    rel.Chart,
			Version: rel.Version,
		}, nil
	}

	repoName, chartName, ok := rel.SplitChart()
	if !ok {
		return appv1alpha1.ChartRef{}, newError("", appName, "release %q has chart %q, expected '<repository>/<chart>' or an %s reference", release, rel.Chart, appv1alpha1.OCIScheme)
	}

	repo, ok := hf.FindRepository(repoName)
	if !ok {
		names := make([]string, 0, len(hf.Repositories))
		for _, r := range hf.Repositories {
			names = append(names, r.Name)
		}
		return appv1alpha1.ChartRef{}, newError("", appName, "release %q uses unknown repository %q%s", release, repoName, didYouMean(repoName, names))
	}

	return appv1alpha1.ChartRef{
		Chart:   chartName,
		Repo:    repo.URL,
		Version: rel.Version,
	}, nil
}
