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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func load(t *testing.T, dir string) (*Config, error) {
	t.Helper()
	return Load(zap.NewNop().Sugar(), dir)
}

func TestLoadAllAppTypes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "apps", "main.toml"), `
[images]
git_image = "alpine/git:2.47.2"

[[app]]
type = "helm"
name = "cert-manager"
namespace = "cert-manager"
chart = "cert-manager"
repo = "https://charts.jetstack.io"
version = "v1.19.4"
values = ["values/cert-manager.yaml"]

[[app]]
type = "website"
name = "example.com"
namespace = "web"
image = "nginx:1.27"
args = "--verbose"
extra-hostnames = ["www.example.com"]
external-secrets = ["/email-password"]
[app.config]
"/config/app.toml" = "files/app.toml"

[[app]]
type = "simple"
name = "acme-dns"
namespace = "acme-dns"
copy-from = "../manifests/acme-dns"
`)

	cfg, err := load(t, dir)
	require.NoError(t, err)
	require.Len(t, cfg.Apps, 3)
	require.Equal(t, map[string]string{"git_image": "alpine/git:2.47.2"}, cfg.Images)
	require.Nil(t, cfg.Helmfile)

	appsDir := filepath.Join(dir, "apps")

	helm, ok := cfg.Apps[0].(*appv1alpha1.HelmRelease)
	require.True(t, ok, "expected *HelmRelease, got %T", cfg.Apps[0])
	require.Equal(t, appv1alpha1.ChartRef{Chart: "cert-manager", Repo: "https://charts.jetstack.io", Version: "v1.19.4"}, helm.Source)
	require.Equal(t, []string{filepath.Join(appsDir, "values", "cert-manager.yaml")}, helm.Values)

	website, ok := cfg.Apps[1].(*appv1alpha1.WebsiteApp)
	require.True(t, ok, "expected *WebsiteApp, got %T", cfg.Apps[1])
	require.Equal(t, []string{"--verbose"}, website.Args)
	require.Equal(t, []string{"www.example.com"}, website.ExtraHostnames)
	require.Equal(t, map[string]string{"/config/app.toml": filepath.Join(appsDir, "files", "app.toml")}, website.Config)

	simple, ok := cfg.Apps[2].(*appv1alpha1.SimpleApp)
	require.True(t, ok, "expected *SimpleApp, got %T", cfg.Apps[2])
	require.Equal(t, filepath.Join(dir, "manifests", "acme-dns"), simple.CopyFrom)
}

func TestLoadLocalChartResolvesAgainstTOMLDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nested", "apps.toml"), `
[[app]]
type = "helm"
name = "local"
namespace = "default"
chart = "./charts/local"
`)

	cfg, err := load(t, dir)
	require.NoError(t, err)

	helm := cfg.Apps[0].(*appv1alpha1.HelmRelease)
	require.Equal(t, appv1alpha1.ChartRef{Chart: filepath.Join(dir, "nested", "charts", "local")}, helm.Source)
}

func TestLoadRelativeConfigDirYieldsAbsolutePaths(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "conf", "apps.toml"), `
[[app]]
type = "helm"
name = "local"
namespace = "default"
chart = "./charts/local"
values = ["values.yaml"]
extra-resources = "extra"

[[app]]
type = "simple"
name = "copy"
namespace = "default"
copy-from = "manifests"
[app.config]
"/config/app.toml" = "files/app.toml"
`)
	t.Chdir(dir)

	cfg, err := load(t, "conf")
	require.NoError(t, err)

	confDir := filepath.Join(dir, "conf")

	helm := cfg.Apps[0].(*appv1alpha1.HelmRelease)
	require.Equal(t, appv1alpha1.ChartRef{Chart: filepath.Join(confDir, "charts", "local")}, helm.Source)
	require.Equal(t, []string{filepath.Join(confDir, "values.yaml")}, helm.Values)
	require.Equal(t, filepath.Join(confDir, "extra"), helm.ExtraResources)

	simple := cfg.Apps[1].(*appv1alpha1.SimpleApp)
	require.Equal(t, filepath.Join(confDir, "manifests"), simple.CopyFrom)
	require.Equal(t, map[string]string{"/config/app.toml": filepath.Join(confDir, "files", "app.toml")}, simple.Config)
}

func TestLoadFilesInSortedOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b", "a", "c"} {
		writeFile(t, filepath.Join(dir, name+".toml"), `
[[app]]
type = "simple"
name = "`+name+`"
namespace = "default"
copy-from = "manifests"
`)
	}

	cfg, err := load(t, dir)
	require.NoError(t, err)

	var names []string
	for _, app := range cfg.Apps {
		names = append(names, app.GetName())
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name     string
		config   string
		expected []string
	}{
		{
			name:     "missing type",
			config:   "[[app]]\nname = \"x\"\nnamespace = \"default\"\n",
			expected: []string{"Missing required field 'type'"},
		},
		{
			name:     "unknown type with suggestion",
			config:   "[[app]]\ntype = \"hlem\"\nname = \"x\"\nnamespace = \"default\"\n",
			expected: []string{`Unknown app type "hlem"`, `did you mean "helm"?`},
		},
		{
			name:     "missing namespace",
			config:   "[[app]]\ntype = \"website\"\nname = \"x\"\nimage = \"nginx\"\n",
			expected: []string{"Missing required field 'namespace'"},
		},
		{
			name:     "release and chart",
			config:   "[[app]]\ntype = \"helm\"\nname = \"x\"\nnamespace = \"default\"\nrelease = \"r\"\nchart = \"c\"\n",
			expected: []string{"Cannot specify both 'release' and 'chart'"},
		},
		{
			name:     "neither release nor chart",
			config:   "[[app]]\ntype = \"helm\"\nname = \"x\"\nnamespace = \"default\"\n",
			expected: []string{"Must specify either 'release' or 'chart'"},
		},
		{
			name:     "release with version",
			config:   "[[app]]\ntype = \"helm\"\nname = \"x\"\nnamespace = \"default\"\nrelease = \"r\"\nversion = \"1.0.0\"\n",
			expected: []string{"Cannot specify 'repo' or 'version' together with 'release'"},
		},
		{
			name:     "image and hugo repo",
			config:   "[[app]]\ntype = \"website\"\nname = \"x\"\nnamespace = \"default\"\nimage = \"nginx\"\nhugo-repo = \"https://example.com/site\"\n",
			expected: []string{"Cannot specify both 'image' and 'hugo-repo'"},
		},
		{
			name:     "website without image or hugo repo",
			config:   "[[app]]\ntype = \"website\"\nname = \"x\"\nnamespace = \"default\"\n",
			expected: []string{"Must specify either 'image' or 'hugo-repo'"},
		},
		{
			name:     "simple without copy-from",
			config:   "[[app]]\ntype = \"simple\"\nname = \"x\"\nnamespace = \"default\"\n",
			expected: []string{"Missing required field 'copy-from'"},
		},
		{
			name:     "field of another app type",
			config:   "[[app]]\ntype = \"simple\"\nname = \"x\"\nnamespace = \"default\"\ncopy-from = \"m\"\nchart = \"c\"\n",
			expected: []string{"fields not supported by simple apps: chart"},
		},
		{
			name:     "unknown key",
			config:   "[[app]]\ntype = \"simple\"\nname = \"x\"\nnamespace = \"default\"\ncopy-from = \"m\"\ncopy_from = \"m\"\n",
			expected: []string{"unknown keys: app.copy_from"},
		},
		{
			name:     "args of wrong type",
			config:   "[[app]]\ntype = \"website\"\nname = \"x\"\nnamespace = \"default\"\nimage = \"nginx\"\nargs = 3\n",
			expected: []string{"'args' must be a string or a list of strings"},
		},
		{
			name:     "duplicate app names",
			config:   "[[app]]\ntype = \"simple\"\nname = \"x\"\nnamespace = \"a\"\ncopy-from = \"m\"\n[[app]]\ntype = \"simple\"\nname = \"x\"\nnamespace = \"b\"\ncopy-from = \"m\"\n",
			expected: []string{"app name is declared more than once"},
		},
		{
			name:     "invalid image reference",
			config:   "[images]\nbroken = \"UPPER/case\"\n",
			expected: []string{`image "broken" has an invalid reference`},
		},
		{
			name:     "invalid TOML",
			config:   "[[app]\n",
			expected: []string{"invalid TOML"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "apps.toml"), tc.config)

			_, err := load(t, dir)
			require.Error(t, err)
			for _, fragment := range tc.expected {
				require.Contains(t, err.Error(), fragment)
			}
		})
	}
}

func TestLoadReportsAllErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "apps.toml"), `
[[app]]
name = "first"
namespace = "default"

[[app]]
type = "helm"
name = "second"
namespace = "default"
`)

	_, err := load(t, dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Missing required field 'type'")
	require.Contains(t, err.Error(), "Must specify either 'release' or 'chart'")
	require.Contains(t, err.Error(), filepath.Join(dir, "apps.toml"))
}

func TestLoadDirectoryErrors(t *testing.T) {
	t.Parallel()

	_, err := load(t, filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "configuration directory not found")

	empty := t.TempDir()
	writeFile(t, filepath.Join(empty, "README.md"), "nothing here")
	_, err = load(t, empty)
	require.ErrorContains(t, err, "No TOML files found")
}

func TestLoadImagesAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.toml"), "[images]\nhugo_image = \"hugomods/hugo:0.140\"\n")
	writeFile(t, filepath.Join(dir, "b.toml"), "[images]\nhugo_image = \"hugomods/hugo:0.140\"\nstatic_web_server_image = \"joseluisq/static-web-server:2\"\n")

	cfg, err := load(t, dir)
	require.NoError(t, err)
	require.Len(t, cfg.Images, 2)

	writeFile(t, filepath.Join(dir, "c.toml"), "[images]\nhugo_image = \"hugomods/hugo:0.141\"\n")
	_, err = load(t, dir)
	require.ErrorContains(t, err, `image "hugo_image" is already defined in `+filepath.Join(dir, "a.toml"))
}

func TestLoadHelmfileAlongsideApps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "apps.toml"), "[[app]]\ntype = \"helm\"\nname = \"cm\"\nnamespace = \"cert-manager\"\nrelease = \"cert-manager\"\n")
	writeFile(t, filepath.Join(dir, appv1alpha1.HelmfileName), `
repositories:
  - name: jetstack
    url: https://charts.jetstack.io
releases:
  - name: cert-manager
    chart: jetstack/cert-manager
    version: v1.18.2
`)

	cfg, err := load(t, dir)
	require.NoError(t, err)
	require.NotNil(t, cfg.Helmfile)
	require.Equal(t, appv1alpha1.ReleaseRef{Release: "cert-manager"}, cfg.Apps[0].(*appv1alpha1.HelmRelease).Source)
}

func TestStringList(t *testing.T) {
	testCases := []struct {
		input    interface{}
		expected []string
		fails    bool
	}{
		{input: nil, expected: nil},
		{input: "one", expected: []string{"one"}},
		{input: []interface{}{"one", "two"}, expected: []string{"one", "two"}},
		{input: []interface{}{"one", int64(2)}, fails: true},
		{input: int64(3), fails: true},
	}

	for _, tc := range testCases {
		got, err := stringList("args", tc.input)
		if tc.fails {
			if err == nil {
				t.Errorf("stringList(%v): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("stringList(%v): unexpected error: %v", tc.input, err)
			continue
		}
		if diff := cmp.Diff(tc.expected, got); diff != "" {
			t.Errorf("stringList(%v) mismatch (-want +got):\n%s", tc.input, diff)
		}
	}
}
