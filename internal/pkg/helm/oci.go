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
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/distribution/reference"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"

	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"
)

const (
	// ChartConfigMediaType is the config media type of a Helm chart artifact.
	ChartConfigMediaType = "application/vnd.cncf.helm.config.v1+json"
	// ChartLayerMediaType is the media type of the packaged chart layer.
	ChartLayerMediaType = "application/vnd.cncf.helm.chart.content.v1.tar+gzip"
)

// TargetFactory returns the repository holding the charts of a reference
// without scheme and tag, e.g. "ghcr.io/org/charts/app".
type TargetFactory func(repository string) (oras.ReadOnlyTarget, error)

// OCIPuller pulls Helm charts from OCI registries without the helm binary.
type OCIPuller struct {
	newTarget TargetFactory
	log       *zap.SugaredLogger
}

// NewOCIPuller returns a puller talking to remote registries.
func NewOCIPuller(log *zap.SugaredLogger, plainHTTP bool) *OCIPuller {
	return NewOCIPullerWithTargets(log, func(repository string) (oras.ReadOnlyTarget, error) {
		repo, err := remote.NewRepository(repository)
		if err != nil {
			return nil, err
		}
		repo.PlainHTTP = plainHTTP
		return repo, nil
	})
}

// NewOCIPullerWithTargets returns a puller reading from the targets returned by newTarget.
func NewOCIPullerWithTargets(log *zap.SugaredLogger, newTarget TargetFactory) *OCIPuller {
	return &OCIPuller{
		newTarget: newTarget,
		log:       log,
	}
}

// Pull resolves ref at version, extracts its chart layer into dest and
// returns the chart directory. version may be an exact version or a
// constraint; constraints and an empty version select the highest matching
// tag, which requires a target that can list tags.
func (p *OCIPuller) Pull(ctx context.Context, ref, version, dest string) (string, error) {
	named, err := reference.ParseNormalizedNamed(strings.TrimPrefix(ref, appv1alpha1.OCIScheme))
	if err != nil {
		return "", fmt.Errorf("invalid OCI reference %q: %w", ref, err)
	}

	if tagged, ok := named.(reference.Tagged); ok && version == "" {
		version = tagged.Tag()
	}

	target, err := p.newTarget(named.Name())
	if err != nil {
		return "", fmt.Errorf("failed to access repository %s: %w", named.Name(), err)
	}

	tag, err := p.selectTag(ctx, target, version)
	if err != nil {
		return "", fmt.Errorf("failed to select a version of %s: %w", ref, err)
	}

	p.log.Debugw("Resolving chart", "repository", named.Name(), "tag", tag)

	manifestDesc, err := oras.Resolve(ctx, target, tag, oras.DefaultResolveOptions)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s:%s: %w", named.Name(), tag, err)
	}

	manifestBytes, err := content.FetchAll(ctx, target, manifestDesc)
	if err != nil {
		return "", fmt.Errorf("failed to fetch manifest of %s:%s: %w", named.Name(), tag, err)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return "", fmt.Errorf("failed to decode manifest of %s:%s: %w", named.Name(), tag, err)
	}

	layer, err := chartLayer(manifest)
	if err != nil {
		return "", fmt.Errorf("%s:%s: %w", named.Name(), tag, err)
	}

	archive, err := content.FetchAll(ctx, target, layer)
	if err != nil {
		return "", fmt.Errorf("failed to fetch chart of %s:%s: %w", named.Name(), tag, err)
	}

	root, err := untar(bytes.NewReader(archive), dest)
	if err != nil {
		return "", fmt.Errorf("failed to unpack chart of %s:%s: %w", named.Name(), tag, err)
	}

	return filepath.Join(dest, root), nil
}

func chartLayer(manifest ocispec.Manifest) (ocispec.Descriptor, error) {
	for _, layer := range manifest.Layers {
		if layer.MediaType == ChartLayerMediaType {
			return layer, nil
		}
	}
	return ocispec.Descriptor{}, fmt.Errorf("artifact has no layer of type %s", ChartLayerMediaType)
}

// selectTag maps a chart version to a registry tag. Helm stores the "+" of
// build metadata as "_" in tags.
func (p *OCIPuller) selectTag(ctx context.Context, target oras.ReadOnlyTarget, version string) (string, error) {
	if version != "" {
		if _, err := semver.StrictNewVersion(strings.TrimPrefix(version, "v")); err == nil {
			return strings.ReplaceAll(version, "+", "_"), nil
		}
	}

	constraint := "*"
	if version != "" {
		constraint = version
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		// Not a version at all, use it as a plain tag.
		return version, nil
	}

	lister, ok := target.(registry.TagLister)
	if !ok {
		return "", errors.New("version constraints require a registry that lists tags")
	}

	tags, err := registry.Tags(ctx, lister)
	if err != nil {
		return "", fmt.Errorf("failed to list tags: %w", err)
	}

	var best *semver.Version
	var bestTag string
	for _, tag := range tags {
		v, err := semver.NewVersion(strings.ReplaceAll(tag, "_", "+"))
		if err != nil || !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestTag = v, tag
		}
	}

	if best == nil {
		return "", fmt.Errorf("no tag matches %q", constraint)
	}

	return bestTag, nil
}

// untar extracts a gzipped tarball into dest and returns the name of its
// top-level directory. Entries escaping dest are rejected.
func untar(r io.Reader, dest string) (string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return "", err
	}
	defer gz.Close()

	var root string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		name := filepath.Clean(filepath.FromSlash(hdr.Name))
		if name == "." || filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("illegal path %q in archive", hdr.Name)
		}

		top := strings.SplitN(filepath.ToSlash(name), "/", 2)[0]
		if root == "" {
			root = top
		} else if root != top {
			return "", fmt.Errorf("archive has more than one top-level directory: %s, %s", root, top)
		}

		target := filepath.Join(dest, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", err
			}
			if err := writeFile(target, tr); err != nil {
				return "", err
			}
		default:
			// Charts only contain directories and regular files.
		}
	}

	if root == "" {
		return "", errors.New("archive is empty")
	}

	return root, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
