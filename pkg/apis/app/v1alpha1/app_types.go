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
	"fmt"
	"strings"
)

// AppType identifies the renderer responsible for an app.
type AppType string

const (
	AppTypeHelm    AppType = "helm"
	AppTypeWebsite AppType = "website"
	AppTypeSimple  AppType = "simple"
)

var AvailableAppTypes = []AppType{AppTypeHelm, AppTypeWebsite, AppTypeSimple}

// Meta holds the fields shared by every app.
type Meta struct {
	// Name identifies the app in output comments, conflict messages and
	// derived object names.
	Name string
	// Namespace is the target namespace for namespace-scoped objects that
	// do not set one themselves.
	Namespace string
}

func (m *Meta) GetName() string {
	return m.Name
}

func (m *Meta) GetNamespace() string {
	return m.Namespace
}

// App is an app that is ready to be rendered.
// It is implemented by *HelmApp, *WebsiteApp and *SimpleApp only.
type App interface {
	GetName() string
	GetNamespace() string
	Type() AppType

	isApp()
}

// Declared is an app as it was read from the configuration.
// A *HelmRelease must be resolved into a *HelmApp before it can be rendered,
// the other variants are already complete.
type Declared interface {
	GetName() string
	GetNamespace() string
	Type() AppType

	isDeclared()
}

// ChartSource says where a helm app gets its chart from.
// It is either a ReleaseRef or a ChartRef.
type ChartSource interface {
	isChartSource()
}

// ReleaseRef points at a release entry of the helmfile.
type ReleaseRef struct {
	Release string
}

func (ReleaseRef) isChartSource() {}

// ChartRef is a concrete chart reference.
type ChartRef struct {
	// Chart is a local chart path, a chart name within Repo, or an oci:// reference.
	Chart string
	// Repo is an optional HTTP(S) repository URL or oci:// reference the chart is pulled from.
	Repo string
	// Version is an optional chart version or version constraint.
	Version string
}

func (ChartRef) isChartSource() {}

// IsLocal reports whether the chart is a path on the local filesystem.
func (c ChartRef) IsLocal() bool {
	return c.Repo == "" && IsLocalChartPath(c.Chart)
}

// IsLocalChartPath reports whether a chart reference is a filesystem path.
func IsLocalChartPath(chart string) bool {
	return strings.HasPrefix(chart, "./") || strings.HasPrefix(chart, "../") || strings.HasPrefix(chart, "/")
}

func (c ChartRef) String() string {
	s := c.Chart
	if c.Repo != "" {
		s = fmt.Sprintf("%s (%s)", s, c.Repo)
	}
	if c.Version != "" {
		s = fmt.Sprintf("%s@%s", s, c.Version)
	}
	return s
}

// HelmRelease is a declared helm app, possibly still pointing at a helmfile release.
type HelmRelease struct {
	Meta

	Source ChartSource
	// Values are absolute paths of values files, applied in order.
	Values []string
	// ExtraResources is an optional absolute directory of additional manifests.
	ExtraResources string
}

func (*HelmRelease) Type() AppType {
	return AppTypeHelm
}

func (*HelmRelease) isDeclared() {}

// HelmApp is a helm app with a resolved chart reference.
type HelmApp struct {
	Meta

	Chart ChartRef
	// Values are absolute paths of values files, applied in order.
	Values []string
	// ExtraResources is an optional absolute directory of additional manifests.
	ExtraResources string
}

func (*HelmApp) Type() AppType {
	return AppTypeHelm
}

func (*HelmApp) isApp() {}

// WebsiteApp is rendered from the bundled website templates.
type WebsiteApp struct {
	Meta

	// Image is the container image serving the site. Mutually exclusive with HugoRepo.
	Image string
	// HugoRepo is a git repository holding a Hugo site that is built at pod start.
	HugoRepo string
	// Args are passed to the serving container.
	Args []string
	// Config maps an absolute container path to an absolute local file whose
	// content is shipped in a ConfigMap.
	Config map[string]string
	// ExtraHostnames are served in addition to Name.
	ExtraHostnames []string
	// ExternalSecrets are absolute mount paths of secrets provisioned outside this tool.
	ExternalSecrets []string
}

func (*WebsiteApp) Type() AppType {
	return AppTypeWebsite
}

func (*WebsiteApp) isApp()      {}
func (*WebsiteApp) isDeclared() {}

// SimpleApp copies manifests from a directory.
type SimpleApp struct {
	Meta

	// CopyFrom is the absolute directory the manifests are read from.
	CopyFrom string
	// Config has the same shape as WebsiteApp.Config.
	Config map[string]string
}

func (*SimpleApp) Type() AppType {
	return AppTypeSimple
}

func (*SimpleApp) isApp()      {}
func (*SimpleApp) isDeclared() {}
