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

package kubernetes

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// ParseDocuments splits multi-document YAML into objects. Empty documents
// are dropped. Integers are decoded as int64 so that the objects can be
// deep-copied and serialized without losing their type.
func ParseDocuments(data []byte) ([]*unstructured.Unstructured, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))

	var objs []*unstructured.Unstructured
	for i := 0; ; i++ {
		chunk, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %w", i, err)
		}

		if len(bytes.TrimSpace(chunk)) == 0 {
			continue
		}

		content := map[string]interface{}{}
		if err := utilyaml.Unmarshal(chunk, &content); err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", i, err)
		}

		if len(content) == 0 {
			continue
		}

		objs = append(objs, &unstructured.Unstructured{Object: content})
	}

	return objs, nil
}

// ParseValue decodes a single YAML value of any shape.
func ParseValue(data []byte) (interface{}, error) {
	var v interface{}
	if err := utilyaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListManifestFiles returns the YAML files directly inside dir, sorted by name.
func ListManifestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsManifestFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	return files, nil
}

// IsManifestFile reports whether a file name has a YAML extension.
func IsManifestFile(name string) bool {
	ext := filepath.Ext(name)
	return strings.EqualFold(ext, ".yaml") || strings.EqualFold(ext, ".yml")
}

// ReadManifestDir parses every YAML file in dir in name order.
// The transform function, if set, is applied to each file's raw content
// before it is parsed.
func ReadManifestDir(dir string, transform func(path string, content []byte) ([]byte, error)) ([]*unstructured.Unstructured, error) {
	files, err := ListManifestFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}

	var objs []*unstructured.Unstructured
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}

		if transform != nil {
			if content, err = transform(file, content); err != nil {
				return nil, err
			}
		}

		docs, err := ParseDocuments(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		objs = append(objs, docs...)
	}

	return objs, nil
}

// NewNamespace returns a minimal Namespace object.
func NewNamespace(name string) (*unstructured.Unstructured, error) {
	ns := &corev1.Namespace{
		TypeMeta: metav1.TypeMeta{
			APIVersion: corev1.SchemeGroupVersion.String(),
			Kind:       "Namespace",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}

	return ToUnstructured(ns)
}

// NewConfigMap returns a ConfigMap holding the given data.
func NewConfigMap(name, namespace string, data map[string]string) (*unstructured.Unstructured, error) {
	cm := &corev1.ConfigMap{
		TypeMeta: metav1.TypeMeta{
			APIVersion: corev1.SchemeGroupVersion.String(),
			Kind:       "ConfigMap",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Data: data,
	}

	return ToUnstructured(cm)
}

// ToUnstructured converts a typed object. Zero-valued fields the converter
// always emits (creationTimestamp, empty spec and status) are pruned so the
// output only contains what was set.
func ToUnstructured(obj runtime.Object) (*unstructured.Unstructured, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T: %w", obj, err)
	}

	unstructured.RemoveNestedField(content, "metadata", "creationTimestamp")
	for _, field := range []string{"spec", "status"} {
		if m, ok := content[field].(map[string]interface{}); ok && len(m) == 0 {
			delete(content, field)
		}
	}

	return &unstructured.Unstructured{Object: content}, nil
}

// ToValue converts a pointer to a typed value such as a *corev1.Volume into its
// unstructured form, suitable for embedding into an object.
func ToValue(v interface{}) (map[string]interface{}, error) {
	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %T: %w", v, err)
	}
	return content, nil
}
