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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"k8c.io/manifest-builder/internal/controllers/generator"
	"k8c.io/manifest-builder/internal/pkg/config"
	"k8c.io/manifest-builder/internal/pkg/helm"
	mblog "k8c.io/manifest-builder/internal/pkg/log"
	"k8c.io/manifest-builder/internal/pkg/manifest"
	"k8c.io/manifest-builder/internal/pkg/renderer"

	"sigs.k8s.io/controller-runtime/pkg/manager/signals"
)

type flags struct {
	configDir  string
	outputDir  string
	cacheDir   string
	helmBinary string
	ociNative  bool
	verbose    bool
	log        mblog.Options
}

func main() {
	cmd := newRootCommand(os.Stdout)
	if err := cmd.ExecuteContext(signals.SetupSignalHandler()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	f := flags{log: mblog.NewDefaultOptions()}

	cmd := &cobra.Command{
		Use:   "manifest-builder",
		Short: "Generate Kubernetes manifests from Helm charts, websites and plain manifest directories",
		Long: `manifest-builder reads app declarations from the TOML files of a configuration
directory and writes one YAML file per Kubernetes object into the output directory,
laid out as <namespace>/<kind>-<name>.yaml and cluster/<kind>-<name>.yaml.

Manifests written by earlier runs that are no longer produced are removed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.log.Validate(); err != nil {
				return err
			}

			rawLog := mblog.New(f.log, cmd.ErrOrStderr())
			defer func() {
				_ = rawLog.Sync()
			}()
			l := rawLog.Sugar()

			if err := run(cmd.Context(), l, f, out); err != nil {
				l.Errorw("Generation failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configDir, "config-dir", "c", "conf", "Directory holding the TOML app declarations and an optional helmfile.yaml")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "output", "Directory the manifests are written to")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "Directory pulled charts are cached in (default: .chart-cache next to the output directory)")
	fs.StringVar(&f.helmBinary, "helm-binary", "helm", "Helm binary used to template and pull charts")
	fs.BoolVar(&f.ociNative, "oci-native", false, "Pull oci:// charts with the built-in registry client instead of helm")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Print a tree of the written manifests")
	f.log.AddPFlags(fs)

	return cmd
}

// defaultCacheDir places the chart cache next to the output directory.
func defaultCacheDir(outputDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(outputDir)), ".chart-cache")
}

func run(ctx context.Context, l *zap.SugaredLogger, f flags, out io.Writer) error {
	cfg, err := config.Load(l.Named("config"), f.configDir)
	if err != nil {
		return err
	}

	apps, err := config.Resolve(cfg.Apps, cfg.Helmfile)
	if err != nil {
		return err
	}

	cacheDir := f.cacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir(f.outputDir)
	}

	helmLog := l.Named("helm")
	client := helm.NewClient(helmLog, f.helmBinary, nil, helm.DefaultTimeouts())

	var puller helm.ChartPuller
	if f.ociNative {
		puller = helm.NewOCIPuller(helmLog, false)
	}
	fetcher := helm.NewFetcher(helmLog, cacheDir, client, puller)

	writer := manifest.NewWriter(l.Named("writer"), manifest.DefaultOptions())
	renderLog := l.Named("renderer")

	gen, err := generator.New(&generator.Config{
		Log:       l.Named("generator"),
		OutputDir: f.outputDir,
		Writer:    writer,
		Helm:      renderer.NewHelmRenderer(renderLog, writer, client, fetcher),
		Website:   renderer.NewWebsiteRenderer(renderLog, writer, cfg.Images),
		Simple:    renderer.NewSimpleRenderer(renderLog, writer, cfg.Images),
	})
	if err != nil {
		return err
	}

	report, err := gen.Run(ctx, apps)
	if err != nil {
		return err
	}

	if f.verbose {
		fmt.Fprint(out, report.Tree(f.outputDir))
	}
	fmt.Fprintf(out, "Wrote %d manifest(s), removed %d stale manifest(s)\n", len(report.Written), len(report.Removed))

	return nil
}
