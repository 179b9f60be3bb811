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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/distribution/reference"
	"go.uber.org/zap"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	kerrors "k8s.io/apimachinery/pkg/util/errors"
)

// Config is everything declared in a configuration directory.
type Config struct {
	// Apps in declaration order: files sorted by path, apps in file order.
	Apps []appv1alpha1.Declared
	// Images maps template variable names to image references.
	Images map[string]string
	// Helmfile is nil when the directory has no helmfile.yaml.
	Helmfile *appv1alpha1.Helmfile
}

// file is the schema of one TOML configuration file.
type file struct {
	Images map[string]string `toml:"images"`
	Apps   []appDecl         `toml:"app"`
}

type appDecl struct {
	Type      string `toml:"type"`
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`

	// helm
	Release        string   `toml:"release"`
	Chart          string   `toml:"chart"`
	Repo           string   `toml:"repo"`
	Version        string   `toml:"version"`
	Values         []string `toml:"values"`
	ExtraResources string   `toml:"extra-resources"`

	// website
	Image           string      `toml:"image"`
	HugoRepo        string      `toml:"hugo-repo"`
	Args            interface{} `toml:"args"`
	ExtraHostnames  interface{} `toml:"extra-hostnames"`
	ExternalSecrets []string    `toml:"external-secrets"`

	// website and simple
	Config map[string]string `toml:"config"`

	// simple
	CopyFrom string `toml:"copy-from"`
}

// Load reads every *.toml file below configDir and the optional helmfile.yaml
// in it. All problems found in the declarations are reported together.
func Load(log *zap.SugaredLogger, configDir string) (*Config, error) {
	configDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configuration directory: %w", err)
	}

	info, err := os.Stat(configDir)
	if err != nil {
		return nil, fmt.Errorf("configuration directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("configuration path %s is not a directory", configDir)
	}

	files, err := findTOMLFiles(configDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("No TOML files found in %s", configDir)
	}

	cfg := &Config{Images: map[string]string{}}
	imageSources := map[string]string{}

	var errs []error
	for _, path := range files {
		log.Debugw("Loading configuration", "file", path)

		f, err := decodeFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		for _, key := range sortedKeys(f.Images) {
			value := f.Images[key]
			if previous, ok := imageSources[key]; ok && cfg.Images[key] != value {
				errs = append(errs, newError(path, "", "image %q is already defined in %s", key, previous))
				continue
			}
			if _, err := reference.ParseNormalizedNamed(value); err != nil {
				errs = append(errs, newError(path, "", "image %q has an invalid reference %q: %v", key, value, err))
				continue
			}
			cfg.Images[key] = value
			imageSources[key] = path
		}

		for i := range f.Apps {
			app, err := f.Apps[i].toDeclared(filepath.Dir(path))
			if err != nil {
				errs = append(errs, withFile(err, path))
				continue
			}
			cfg.Apps = append(cfg.Apps, app)
		}
	}

	errs = append(errs, checkUniqueNames(cfg.Apps)...)

	helmfilePath := filepath.Join(configDir, appv1alpha1.HelmfileName)
	if _, err := os.Stat(helmfilePath); err == nil {
		hf, err := LoadHelmfile(helmfilePath)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.Helmfile = hf
	}

	if len(errs) > 0 {
		return nil, kerrors.NewAggregate(errs)
	}

	log.Debugw("Loaded configuration", "files", len(files), "apps", len(cfg.Apps), "images", len(cfg.Images))

	return cfg, nil
}

func findTOMLFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".toml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan configuration directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func decodeFile(path string) (*file, error) {
	f := &file{}
	md, err := toml.DecodeFile(path, f)
	if err != nil {
		return nil, newError(path, "", "invalid TOML: %v", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, newError(path, "", "unknown keys: %s", strings.Join(keys, ", "))
	}

	return f, nil
}

func (a *appDecl) toDeclared(baseDir string) (appv1alpha1.Declared, error) {
	if a.Type == "" {
		return nil, newError("", a.Name, "Missing required field 'type'")
	}

	appType := appv1alpha1.AppType(a.Type)
	switch appType {
	case appv1alpha1.AppTypeHelm, appv1alpha1.AppTypeWebsite, appv1alpha1.AppTypeSimple:
	default:
		candidates := make([]string, 0, len(appv1alpha1.AvailableAppTypes))
		for _, t := range appv1alpha1.AvailableAppTypes {
			candidates = append(candidates, string(t))
		}
		return nil, newError("", a.Name, "Unknown app type %q%s, expected one of %s", a.Type, didYouMean(a.Type, candidates), strings.Join(candidates, ", "))
	}

	if a.Name == "" {
		return nil, newError("", "", "Missing required field 'name' in %s app", a.Type)
	}
	if a.Namespace == "" {
		return nil, newError("", a.Name, "Missing required field 'namespace'")
	}

	var errs []error
	check := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	check(a.onlyFor(appType))

	meta := appv1alpha1.Meta{Name: a.Name, Namespace: a.Namespace}

	var app appv1alpha1.Declared
	switch appType {
	case appv1alpha1.AppTypeHelm:
		release := &appv1alpha1.HelmRelease{
			Meta:           meta,
			Values:         resolvePaths(baseDir, a.Values),
			ExtraResources: resolvePath(baseDir, a.ExtraResources),
		}

		switch {
		case a.Release != "" && a.Chart != "":
			check(newError("", a.Name, "Cannot specify both 'release' and 'chart'"))
		case a.Release == "" && a.Chart == "":
			check(newError("", a.Name, "Must specify either 'release' or 'chart'"))
		case a.Release != "":
			if a.Repo != "" || a.Version != "" {
				check(newError("", a.Name, "Cannot specify 'repo' or 'version' together with 'release', they are taken from %s", appv1alpha1.HelmfileName))
			}
			release.Source = appv1alpha1.ReleaseRef{Release: a.Release}
		default:
			chart := a.Chart
			if appv1alpha1.IsLocalChartPath(chart) {
				chart = resolvePath(baseDir, chart)
			}
			release.Source = appv1alpha1.ChartRef{Chart: chart, Repo: a.Repo, Version: a.Version}
		}
		app = release

	case appv1alpha1.AppTypeWebsite:
		switch {
		case a.Image != "" && a.HugoRepo != "":
			check(newError("", a.Name, "Cannot specify both 'image' and 'hugo-repo'"))
		case a.Image == "" && a.HugoRepo == "":
			check(newError("", a.Name, "Must specify either 'image' or 'hugo-repo'"))
		}

		args, err := stringList("args", a.Args)
		check(withApp(err, a.Name))
		hostnames, err := stringList("extra-hostnames", a.ExtraHostnames)
		check(withApp(err, a.Name))

		app = &appv1alpha1.WebsiteApp{
			Meta:            meta,
			Image:           a.Image,
			HugoRepo:        a.HugoRepo,
			Args:            args,
			Config:          resolveConfigFiles(baseDir, a.Config),
			ExtraHostnames:  hostnames,
			ExternalSecrets: a.ExternalSecrets,
		}

	case appv1alpha1.AppTypeSimple:
		if a.CopyFrom == "" {
			check(newError("", a.Name, "Missing required field 'copy-from'"))
		}

		app = &appv1alpha1.SimpleApp{
			Meta:     meta,
			CopyFrom: resolvePath(baseDir, a.CopyFrom),
			Config:   resolveConfigFiles(baseDir, a.Config),
		}
	}

	if len(errs) > 0 {
		return nil, kerrors.NewAggregate(errs)
	}

	return app, nil
}

// onlyFor rejects fields that belong to another app type.
func (a *appDecl) onlyFor(t appv1alpha1.AppType) error {
	fields := map[appv1alpha1.AppType]map[string]bool{
		appv1alpha1.AppTypeHelm: {
			"release": a.Release != "", "chart": a.Chart != "", "repo": a.Repo != "", "version": a.Version != "",
			"values": len(a.Values) > 0, "extra-resources": a.ExtraResources != "",
		},
		appv1alpha1.AppTypeWebsite: {
			"image": a.Image != "", "hugo-repo": a.HugoRepo != "", "args": a.Args != nil,
			"extra-hostnames": a.ExtraHostnames != nil, "external-secrets": len(a.ExternalSecrets) > 0,
		},
		appv1alpha1.AppTypeSimple: {
			"copy-from": a.CopyFrom != "",
		},
	}

	var misplaced []string
	for owner, set := range fields {
		if owner == t {
			continue
		}
		for field, isSet := range set {
			if isSet {
				misplaced = append(misplaced, field)
			}
		}
	}

	if t == appv1alpha1.AppTypeHelm && len(a.Config) > 0 {
		misplaced = append(misplaced, "config")
	}

	if len(misplaced) == 0 {
		return nil
	}

	sort.Strings(misplaced)
	return newError("", a.Name, "fields not supported by %s apps: %s", t, strings.Join(misplaced, ", "))
}

// stringList accepts a single string or a list of strings.
func stringList(field string, v interface{}) ([]string, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{value}, nil
	case []interface{}:
		out := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("'%s' must be a string or a list of strings, found item %v", field, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' must be a string or a list of strings, found %T", field, v)
	}
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func resolvePaths(baseDir string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, resolvePath(baseDir, p))
	}
	return out
}

func resolveConfigFiles(baseDir string, files map[string]string) map[string]string {
	if len(files) == 0 {
		return nil
	}

	out := make(map[string]string, len(files))
	for containerPath, local := range files {
		out[containerPath] = resolvePath(baseDir, local)
	}
	return out
}

func checkUniqueNames(apps []appv1alpha1.Declared) []error {
	seen := map[string]bool{}

	var errs []error
	for _, app := range apps {
		if seen[app.GetName()] {
			errs = append(errs, newError("", app.GetName(), "app name is declared more than once"))
			continue
		}
		seen[app.GetName()] = true
	}
	return errs
}

func withFile(err error, path string) error {
	var agg kerrors.Aggregate
	if errors.As(err, &agg) {
		errs := agg.Errors()
		out := make([]error, 0, len(errs))
		for _, e := range errs {
			out = append(out, withFile(e, path))
		}
		return kerrors.NewAggregate(out)
	}

	var cfgErr *Error
	if errors.As(err, &cfgErr) && cfgErr.File == "" {
		copied := *cfgErr
		copied.File = path
		return &copied
	}
	return err
}

func withApp(err error, app string) error {
	if err == nil {
		return nil
	}
	return &Error{App: app, Message: err.Error()}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
