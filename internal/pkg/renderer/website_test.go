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
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
	mbimages "k8c.io/manifest-builder/pkg/images"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const testDeployment = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: {{k8s_name}}
spec:
  template:
    metadata:
      labels:
        app: {{k8s_name}}
    spec:
      containers:
      - name: {{k8s_name}}
        image: {{image}}
`

func newTestWebsiteRenderer(t *testing.T, templates fstest.MapFS, images map[string]string) *WebsiteRenderer {
	return NewWebsiteRendererWithTemplates(zaptest.NewLogger(t).Sugar(), newTestWriter(t), images, templates)
}

func mapFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func websiteApp(name, namespace string) *appv1alpha1.WebsiteApp {
	return &appv1alpha1.WebsiteApp{Meta: appv1alpha1.Meta{Name: name, Namespace: namespace}}
}

func renderWebsite(t *testing.T, r *WebsiteRenderer, app *appv1alpha1.WebsiteApp) (string, []string) {
	t.Helper()

	outputDir := t.TempDir()
	paths, err := r.Render(context.Background(), app, outputDir)
	require.NoError(t, err)
	return outputDir, paths
}

func TestWebsiteCustomTemplates(t *testing.T) {
	t.Parallel()

	templates := mapFS(map[string]string{
		"deployment.yaml": testDeployment,
		"multi.yaml":      "apiVersion: v1\nkind: Service\nmetadata:\n  name: svc\n---\napiVersion: rbac.authorization.k8s.io/v1\nkind: ClusterRole\nmetadata:\n  name: my-role\n",
		"README.md":       "not a template",
		"_fragment.yaml":  "name: sidecar\n",
	})

	app := websiteApp("my.example.com", "production")
	app.Image = "nginx:1.20"

	outputDir, paths := renderWebsite(t, newTestWebsiteRenderer(t, templates, nil), app)

	assert.Equal(t, []string{
		"cluster/clusterrole-my-role.yaml",
		"production/deployment-my-example-com.yaml",
		"production/service-svc.yaml",
	}, relPaths(t, outputDir, paths))

	content, err := os.ReadFile(filepath.Join(outputDir, "production", "deployment-my-example-com.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# Source: my.example.com\n"))

	deployment := readObject(t, filepath.Join(outputDir, "production", "deployment-my-example-com.yaml"))
	assert.Equal(t, "production", deployment.GetNamespace())
	containers, _, _ := unstructured.NestedSlice(deployment.Object, "spec", "template", "spec", "containers")
	require.Len(t, containers, 1)
	assert.Equal(t, "nginx:1.20", containers[0].(map[string]interface{})["image"])

	role := readObject(t, filepath.Join(outputDir, "cluster", "clusterrole-my-role.yaml"))
	assert.Empty(t, role.GetNamespace())
}

func TestWebsiteEmptyTemplateDirectory(t *testing.T) {
	t.Parallel()

	_, paths := renderWebsite(t, newTestWebsiteRenderer(t, fstest.MapFS{}, nil), websiteApp("site", "web"))
	assert.Empty(t, paths)
}

func TestWebsiteHugoFragments(t *testing.T) {
	t.Parallel()

	templates := mapFS(map[string]string{
		"deployment.yaml":           testDeployment,
		"_hugo_container.yaml":      "name: web\nimage: static-web-server:2.36.1\nvolumeMounts:\n  - mountPath: /public\n    name: public\n",
		"_hugo_initcontainers.yaml": "- name: git\n  image: alpine/git:2.47.2\n  command:\n  - /bin/sh\n  - -c\n  - >\n    git clone {{git_repo}} --recurse-submodules --depth=1 /src\n",
		"_hugo_volumes.yaml":        "- name: public\n  emptyDir: {}\n",
	})

	app := websiteApp("my-website", "production")
	app.HugoRepo = "https://github.com/user/my-website"

	outputDir, paths := renderWebsite(t, newTestWebsiteRenderer(t, templates, nil), app)
	require.Equal(t, []string{"production/deployment-my-website.yaml"}, relPaths(t, outputDir, paths))

	doc := readObject(t, paths[0])

	containers, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "containers")
	require.Len(t, containers, 1)
	assert.Equal(t, "web", containers[0].(map[string]interface{})["name"])

	initContainers, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "initContainers")
	require.Len(t, initContainers, 1)
	command := initContainers[0].(map[string]interface{})["command"].([]interface{})
	assert.Contains(t, command[2], "git clone https://github.com/user/my-website")

	volumes, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "volumes")
	require.Len(t, volumes, 1)
	assert.Equal(t, "public", volumes[0].(map[string]interface{})["name"])

	assert.Equal(t, "https://github.com/user/my-website", doc.GetAnnotations()[appv1alpha1.AnnotationHugoRepo])
}

func TestWebsiteWithoutHugoRepoHasNoAnnotation(t *testing.T) {
	t.Parallel()

	templates := mapFS(map[string]string{
		"deployment.yaml":      testDeployment,
		"_hugo_container.yaml": "name: web\n",
	})

	app := websiteApp("my-website", "production")
	app.Image = "nginx"

	_, paths := renderWebsite(t, newTestWebsiteRenderer(t, templates, nil), app)
	doc := readObject(t, paths[0])

	assert.NotContains(t, doc.GetAnnotations(), appv1alpha1.AnnotationHugoRepo)
	containers, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "containers")
	assert.Equal(t, "my-website", containers[0].(map[string]interface{})["name"])
}

func TestWebsiteConfigMaps(t *testing.T) {
	t.Parallel()

	files := t.TempDir()
	writeTestFile(t, filepath.Join(files, "app.toml"), "[app]\ndebug = true\n")
	writeTestFile(t, filepath.Join(files, "other.toml"), "x = 1\n")
	writeTestFile(t, filepath.Join(files, "hosts"), "127.0.0.1 localhost\n")

	app := websiteApp("my-app", "production")
	app.Config = map[string]string{
		"/config/app.toml":   filepath.Join(files, "app.toml"),
		"/config/other.toml": filepath.Join(files, "other.toml"),
		"/etc/hosts":         filepath.Join(files, "hosts"),
	}

	templates := mapFS(map[string]string{"deployment.yaml": testDeployment})
	outputDir, paths := renderWebsite(t, newTestWebsiteRenderer(t, templates, nil), app)

	assert.Equal(t, []string{
		"production/configmap-my-app-config.yaml",
		"production/configmap-my-app-etc.yaml",
		"production/deployment-my-app.yaml",
	}, relPaths(t, outputDir, paths))

	cm := readObject(t, filepath.Join(outputDir, "production", "configmap-my-app-config.yaml"))
	assert.Equal(t, "production", cm.GetNamespace())
	data, _, _ := unstructured.NestedStringMap(cm.Object, "data")
	assert.Equal(t, map[string]string{"app.toml": "[app]\ndebug = true\n", "other.toml": "x = 1\n"}, data)

	deployment := readObject(t, filepath.Join(outputDir, "production", "deployment-my-app.yaml"))
	volumes, _, _ := unstructured.NestedSlice(deployment.Object, "spec", "template", "spec", "volumes")
	assert.Equal(t, []interface{}{
		map[string]interface{}{"name": "my-app-config", "configMap": map[string]interface{}{"name": "my-app-config"}},
		map[string]interface{}{"name": "my-app-etc", "configMap": map[string]interface{}{"name": "my-app-etc"}},
	}, volumes)

	containers, _, _ := unstructured.NestedSlice(deployment.Object, "spec", "template", "spec", "containers")
	assert.Equal(t, []interface{}{
		map[string]interface{}{"name": "my-app-config", "mountPath": "/config"},
		map[string]interface{}{"name": "my-app-etc", "mountPath": "/etc"},
	}, containers[0].(map[string]interface{})["volumeMounts"])
}

func TestWebsiteImagesAreTemplateVariables(t *testing.T) {
	t.Parallel()

	templates := mapFS(map[string]string{
		"configmap.yaml": "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: images\ndata:\n  git: \"{{git_image}}\"\n  custom: \"{{custom_image}}\"\n",
	})

	images := map[string]string{"custom_image": "registry.example.com/custom:1.0"}
	_, paths := renderWebsite(t, newTestWebsiteRenderer(t, templates, images), websiteApp("site", "web"))

	data, _, _ := unstructured.NestedStringMap(readObject(t, paths[0]).Object, "data")
	assert.Equal(t, mbimages.Defaults()["git_image"], data["git"])
	assert.Equal(t, "registry.example.com/custom:1.0", data["custom"])
}

func TestWebsiteConfiguredImagesOverrideDefaults(t *testing.T) {
	t.Parallel()

	app := websiteApp("blog.example.com", "web")
	app.HugoRepo = "https://github.com/user/blog"

	images := map[string]string{"static_web_server_image": "registry.example.com/sws:2.36.1"}
	r := NewWebsiteRenderer(zaptest.NewLogger(t).Sugar(), newTestWriter(t), images)
	outputDir, _ := renderWebsite(t, r, app)

	deployment := readObject(t, filepath.Join(outputDir, "web", "deployment-blog-example-com.yaml"))
	containers, _, _ := unstructured.NestedSlice(deployment.Object, "spec", "template", "spec", "containers")
	require.NotEmpty(t, containers)
	assert.Equal(t, "registry.example.com/sws:2.36.1", containers[0].(map[string]interface{})["image"])
}

func TestWebsiteInvalidName(t *testing.T) {
	t.Parallel()

	r := newTestWebsiteRenderer(t, mapFS(map[string]string{"deployment.yaml": testDeployment}), nil)
	_, err := r.Render(context.Background(), websiteApp(".example.com", "web"), t.TempDir())
	require.ErrorContains(t, err, "must start with an alphanumeric character")
}

func bundledDeploymentContainer(t *testing.T, app *appv1alpha1.WebsiteApp) map[string]interface{} {
	t.Helper()

	r := NewWebsiteRenderer(zaptest.NewLogger(t).Sugar(), newTestWriter(t), nil)
	_, paths := renderWebsite(t, r, app)

	doc := readObject(t, findPath(t, paths, "deployment"))
	containers, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "containers")
	require.NotEmpty(t, containers)
	return containers[0].(map[string]interface{})
}

func TestBundledTemplatesArgs(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		expected interface{}
	}{
		{name: "no args", args: nil, expected: nil},
		{name: "single string", args: []string{"--debug --log-level=info"}, expected: []interface{}{"--debug --log-level=info"}},
		{name: "list", args: []string{"--debug", "--log-level=info", "--port=8080"}, expected: []interface{}{"--debug", "--log-level=info", "--port=8080"}},
		{name: "single quote", args: []string{"--title=it's"}, expected: []interface{}{"--title=it's"}},
		{name: "yaml special characters", args: []string{`--greeting="hi"`, "--x: y #z", "- dash", "{{not}}"}, expected: []interface{}{`--greeting="hi"`, "--x: y #z", "- dash", "{{not}}"}},
		{name: "backslash and newline", args: []string{"C:\\dir", "line1\nline2"}, expected: []interface{}{"C:\\dir", "line1\nline2"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := websiteApp("my-app", "production")
			app.Image = "nginx:latest"
			app.Args = tc.args

			container := bundledDeploymentContainer(t, app)
			assert.Equal(t, "nginx:latest", container["image"])
			assert.Equal(t, tc.expected, container["args"])
		})
	}
}

func TestBundledTemplatesExtraHostnames(t *testing.T) {
	t.Parallel()

	app := websiteApp("my-app", "production")
	app.Image = "nginx:latest"
	app.ExtraHostnames = []string{"www.example.com", "app.example.com"}

	r := NewWebsiteRenderer(zaptest.NewLogger(t).Sugar(), newTestWriter(t), nil)
	outputDir, paths := renderWebsite(t, r, app)

	assert.Equal(t, []string{
		"production/certificate-my-app-extra.yaml",
		"production/certificate-my-app.yaml",
		"production/deployment-my-app.yaml",
		"production/gateway-my-app.yaml",
		"production/httproute-my-app.yaml",
		"production/service-my-app.yaml",
	}, relPaths(t, outputDir, paths))

	extra := readObject(t, filepath.Join(outputDir, "production", "certificate-my-app-extra.yaml"))
	secretName, _, _ := unstructured.NestedString(extra.Object, "spec", "secretName")
	assert.Equal(t, "my-app-extra-tls", secretName)
	dnsNames, _, _ := unstructured.NestedStringSlice(extra.Object, "spec", "dnsNames")
	assert.Equal(t, []string{"www.example.com", "app.example.com"}, dnsNames)

	gateway := readObject(t, filepath.Join(outputDir, "production", "gateway-my-app.yaml"))
	listeners, _, _ := unstructured.NestedSlice(gateway.Object, "spec", "listeners")
	require.Len(t, listeners, 3)

	expected := []struct{ hostname, secret string }{
		{"my-app", "my-app-tls"},
		{"www.example.com", "my-app-extra-tls"},
		{"app.example.com", "my-app-extra-tls"},
	}
	for i, e := range expected {
		listener := listeners[i].(map[string]interface{})
		assert.Equal(t, e.hostname, listener["hostname"])
		refs, _, _ := unstructured.NestedSlice(listener, "tls", "certificateRefs")
		require.Len(t, refs, 1)
		assert.Equal(t, e.secret, refs[0].(map[string]interface{})["name"])
	}

	route := readObject(t, filepath.Join(outputDir, "production", "httproute-my-app.yaml"))
	hostnames, _, _ := unstructured.NestedStringSlice(route.Object, "spec", "hostnames")
	assert.Equal(t, []string{"my-app", "www.example.com", "app.example.com"}, hostnames)
}

func TestBundledTemplatesWithoutExtraHostnames(t *testing.T) {
	t.Parallel()

	app := websiteApp("example.com", "web")
	app.Image = "nginx:latest"

	r := NewWebsiteRenderer(zaptest.NewLogger(t).Sugar(), newTestWriter(t), nil)
	outputDir, paths := renderWebsite(t, r, app)

	assert.Equal(t, []string{
		"web/certificate-example-com.yaml",
		"web/deployment-example-com.yaml",
		"web/gateway-example-com.yaml",
		"web/httproute-example-com.yaml",
		"web/service-example-com.yaml",
	}, relPaths(t, outputDir, paths))

	gateway := readObject(t, filepath.Join(outputDir, "web", "gateway-example-com.yaml"))
	listeners, _, _ := unstructured.NestedSlice(gateway.Object, "spec", "listeners")
	assert.Len(t, listeners, 1)
}

func TestBundledTemplatesHugo(t *testing.T) {
	t.Parallel()

	app := websiteApp("blog.example.com", "web")
	app.HugoRepo = "https://github.com/user/blog"

	container := bundledDeploymentContainer(t, app)
	assert.Equal(t, mbimages.Defaults()["static_web_server_image"], container["image"])
}

func TestBundledTemplatesExternalSecrets(t *testing.T) {
	t.Parallel()

	app := websiteApp("my-app", "production")
	app.Image = "nginx:latest"
	app.ExternalSecrets = []string{"/email-password", "/db/credentials"}

	r := NewWebsiteRenderer(zaptest.NewLogger(t).Sugar(), newTestWriter(t), nil)
	_, paths := renderWebsite(t, r, app)

	doc := readObject(t, findPath(t, paths, "deployment"))

	containers, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "containers")
	mounts := map[string]string{}
	for _, m := range containers[0].(map[string]interface{})["volumeMounts"].([]interface{}) {
		mount := m.(map[string]interface{})
		mounts[mount["mountPath"].(string)] = mount["name"].(string)
	}
	assert.Equal(t, map[string]string{"/email-password": "email-password", "/db/credentials": "db-credentials"}, mounts)

	volumes, _, _ := unstructured.NestedSlice(doc.Object, "spec", "template", "spec", "volumes")
	secrets := map[string]string{}
	for _, v := range volumes {
		volume := v.(map[string]interface{})
		secretName, _, _ := unstructured.NestedString(volume, "secret", "secretName")
		secrets[volume["name"].(string)] = secretName
	}
	assert.Equal(t, map[string]string{"email-password": "email-password", "db-credentials": "db-credentials"}, secrets)
}
