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

package helm

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
	"go.uber.org/zap"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
)

// ChartPuller downloads a chart from an OCI registry and unpacks it into dest,
// returning the chart directory.
type ChartPuller interface {
	Pull(ctx context.Context, ref, version, dest string) (string, error)
}

// Fetcher materializes remote charts in a local cache directory.
//
// Entries are keyed by chart name and version and live in
// <cacheDir>/<chart>-<version|latest>. An existing chart directory is a
// cache hit; its content is never checked or refreshed.
type Fetcher struct {
	cacheDir string
	client   *Client
	oci      ChartPuller
	log      *zap.SugaredLogger
}

// NewFetcher returns a Fetcher. If oci is not nil, oci:// charts are pulled
// with it instead of `helm pull`.
func NewFetcher(log *zap.SugaredLogger, cacheDir string, client *Client, oci ChartPuller) *Fetcher {
	return &Fetcher{
		cacheDir: cacheDir,
		client:   client,
		oci:      oci,
		log:      log,
	}
}

// Fetch returns the local directory of the chart, pulling it if needed.
func (f *Fetcher) Fetch(ctx context.Context, chart appv1alpha1.ChartRef) (string, error) {
	if chart.Repo == "" {
		return "", fmt.Errorf("chart %q has no repository to fetch from", chart.Chart)
	}

	dest := f.CacheEntry(chart)
	chartDir := filepath.Join(dest, ChartDirName(chart))

	log := f.log.With("chart", chart.Chart, "repo", chart.Repo, "version", chart.Version)

	if info, err := os.Stat(chartDir); err == nil && info.IsDir() {
		log.Debugw("Using cached chart", "path", chartDir)
		return chartDir, nil
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create chart cache directory: %w", err)
	}

	if isOCI(chart.Repo) && f.oci != nil {
		log.Infow("Pulling chart from OCI registry")
		return f.oci.Pull(ctx, chart.Repo, chart.Version, dest)
	}

	log.Infow("Pulling chart")
	err := f.client.Pull(ctx, PullRequest{
		Chart:   chart.Chart,
		Repo:    chart.Repo,
		Version: chart.Version,
		Dest:    dest,
	})
	if err != nil {
		return "", err
	}

	return chartDir, nil
}

// CacheEntry returns the cache directory of a chart and version.
func (f *Fetcher) CacheEntry(chart appv1alpha1.ChartRef) string {
	version := chart.Version
	if version == "" {
		version = "latest"
	}

	name := strings.ReplaceAll(chart.Chart, "/", "-")
	return filepath.Join(f.cacheDir, fmt.Sprintf("%s-%s", name, version))
}

// ChartDirName returns the directory name a pulled chart is unpacked to.
// Charts from HTTP repositories unpack into a directory named after the chart.
// For OCI repositories the chart name is taken from the last path segment of
// the reference, which is assumed to match the name in Chart.yaml.
func ChartDirName(chart appv1alpha1.ChartRef) string {
	if !isOCI(chart.Repo) {
		return chart.Chart
	}

	named, err := reference.ParseNormalizedNamed(strings.TrimPrefix(chart.Repo, appv1alpha1.OCIScheme))
	if err != nil {
		return appv1alpha1.OCIChartName(chart.Repo)
	}

	return path.Base(reference.Path(named))
}

func isOCI(ref string) bool {
	return strings.HasPrefix(ref, appv1alpha1.OCIScheme)
}
