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

package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"k8c.io/manifest-builder/internal/pkg/config"
	"k8c.io/manifest-builder/internal/pkg/manifest"
	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
)

// AppRenderer writes the manifests of one app type and returns their paths.
type AppRenderer[T appv1alpha1.App] interface {
	Render(ctx context.Context, app T, outputDir string) ([]string, error)
}

// Config holds the configuration for the generator.
type Config struct {
	Log *zap.SugaredLogger

	// OutputDir is the root of the generated manifests. It is created if needed.
	OutputDir string

	// Writer writes the synthesized Namespace objects.
	Writer *manifest.Writer

	Helm    AppRenderer[*appv1alpha1.HelmApp]
	Website AppRenderer[*appv1alpha1.WebsiteApp]
	Simple  AppRenderer[*appv1alpha1.SimpleApp]
}

func (c *Config) validate() error {
	if c.Log == nil {
		return fmt.Errorf("log cannot be nil")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if c.Writer == nil {
		return fmt.Errorf("writer cannot be nil")
	}

	if c.Helm == nil || c.Website == nil || c.Simple == nil {
		return fmt.Errorf("a renderer is required for every app type")
	}

	return nil
}

// Generator renders apps into an output directory.
type Generator struct {
	cfg    *Config
	logger *zap.SugaredLogger
}

// New returns a Generator for cfg.
func New(cfg *Config) (*Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("failed to instantiate generator: config is nil")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("failed to instantiate generator: %w", err)
	}

	return &Generator{
		cfg:    cfg,
		logger: cfg.Log,
	}, nil
}

// Run renders apps in order and reconciles the output directory with the
// result. It returns the report of a successful run.
func (g *Generator) Run(ctx context.Context, apps []appv1alpha1.App) (*Report, error) {
	g.logger.Infow("Generating manifests", "apps", len(apps), "output", g.cfg.OutputDir)

	if err := config.Validate(apps); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	reg := newRegistry()

	for _, app := range apps {
		l := g.logger.With("app", app.GetName(), "type", app.Type())
		l.Debug("Rendering app")

		paths, err := g.render(ctx, app)
		if err != nil {
			return nil, fmt.Errorf("failed to render app %q: %w", app.GetName(), err)
		}

		rel, err := g.relative(paths)
		if err != nil {
			return nil, err
		}

		if conflicts := reg.claim(app.GetName(), rel); len(conflicts) > 0 {
			l.Warnw("Output conflicts detected", "conflicts", len(conflicts))
			return nil, &ConflictError{Conflicts: conflicts}
		}

		l.Infow("Rendered app", "manifests", len(rel))
	}

	namespaces, err := g.synthesizeNamespaces(reg)
	if err != nil {
		return nil, err
	}

	removed, err := g.cleanupStale(reg)
	if err != nil {
		return nil, err
	}

	report := newReport(reg, namespaces, removed)
	g.logger.Infow("Generation complete", "manifests", len(report.Written), "namespaces", len(namespaces), "removed", len(removed))

	return report, nil
}

func (g *Generator) render(ctx context.Context, app appv1alpha1.App) ([]string, error) {
	switch a := app.(type) {
	case *appv1alpha1.HelmApp:
		return g.cfg.Helm.Render(ctx, a, g.cfg.OutputDir)
	case *appv1alpha1.WebsiteApp:
		return g.cfg.Website.Render(ctx, a, g.cfg.OutputDir)
	case *appv1alpha1.SimpleApp:
		return g.cfg.Simple.Render(ctx, a, g.cfg.OutputDir)
	default:
		return nil, fmt.Errorf("unsupported app type %T", app)
	}
}

// relative converts written paths into slash-separated paths below the output directory.
func (g *Generator) relative(paths []string) ([]string, error) {
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := filepath.Rel(g.cfg.OutputDir, p)
		if err != nil {
			return nil, fmt.Errorf("failed to relate %s to the output directory: %w", p, err)
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel, nil
}
