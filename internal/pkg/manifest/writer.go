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

package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"

	apipath "k8s.io/apimachinery/pkg/api/validation/path"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/validation"
)

const (
	// ClusterDirectory holds all cluster-scoped objects.
	ClusterDirectory = "cluster"

	// FileExtension is the extension of every written manifest.
	FileExtension = ".yaml"

	filePermissions = 0o644
	dirPermissions  = 0o755
)

// Writer writes one object per file below an output directory.
type Writer struct {
	opts Options
	log  *zap.SugaredLogger
}

// NewWriter returns a Writer using the given serialization options.
func NewWriter(log *zap.SugaredLogger, opts Options) *Writer {
	return &Writer{
		opts: opts,
		log:  log,
	}
}

// Path returns the file an object is written to:
// <outputDir>/<cluster|namespace>/<kind>-<name>.yaml.
// Cluster-scoped objects go to the cluster directory, others to their own
// namespace or, if unset, to fallbackNamespace. It returns false for objects
// without kind or name, and for namespaced objects with no namespace at all.
// A namespace that is not a DNS label, or a kind and name that do not form a
// single file name, is an error.
func Path(obj *unstructured.Unstructured, outputDir, fallbackNamespace string) (string, bool, error) {
	kind, name := obj.GetKind(), obj.GetName()
	if kind == "" || name == "" {
		return "", false, nil
	}

	dir := ClusterDirectory
	if !kubernetes.IsClusterScoped(kind) {
		dir = obj.GetNamespace()
		if dir == "" {
			dir = fallbackNamespace
		}
	}
	if dir == "" {
		return "", false, nil
	}

	if msgs := validation.IsDNS1123Label(dir); len(msgs) > 0 {
		return "", false, fmt.Errorf("%s %q has invalid namespace %q: %s", kind, name, dir, strings.Join(msgs, ", "))
	}

	file := FileName(kind, name)
	if msgs := apipath.IsValidPathSegmentName(file); len(msgs) > 0 {
		return "", false, fmt.Errorf("%s %q cannot be stored as a file: %s", kind, name, strings.Join(msgs, ", "))
	}

	return filepath.Join(outputDir, dir, file), true, nil
}

// FileName returns the base name of the manifest of an object.
func FileName(kind, name string) string {
	return strings.ToLower(kind) + "-" + name + FileExtension
}

// Write serializes obj to its path below outputDir. If owner is not empty,
// the file starts with a "# Source: <owner>" comment line.
// Objects that cannot be placed are skipped and reported with ok=false.
func (w *Writer) Write(obj *unstructured.Unstructured, outputDir, fallbackNamespace, owner string) (path string, ok bool, err error) {
	path, ok, err = Path(obj, outputDir, fallbackNamespace)
	if err != nil {
		return "", false, err
	}
	if !ok {
		w.log.Debugw("Skipping object without kind, name or namespace", "kind", obj.GetKind(), "name", obj.GetName())
		return "", false, nil
	}

	data, err := Marshal(obj.Object, w.opts)
	if err != nil {
		return "", false, fmt.Errorf("failed to serialize %s/%s: %w", obj.GetKind(), obj.GetName(), err)
	}

	var buf bytes.Buffer
	if owner != "" {
		fmt.Fprintf(&buf, "# Source: %s\n", owner)
	}
	buf.Write(data)

	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return "", false, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", false, fmt.Errorf("failed to write manifest %s: %w", path, err)
	}

	// atomic.WriteFile creates files through a private temp file.
	if err := os.Chmod(path, filePermissions); err != nil {
		return "", false, fmt.Errorf("failed to write manifest %s: %w", path, err)
	}

	w.log.Debugw("Wrote manifest", "path", path, "owner", owner)

	return path, true, nil
}
