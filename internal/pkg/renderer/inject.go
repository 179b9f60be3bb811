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
	"sort"
	"strings"

	"k8c.io/manifest-builder/internal/pkg/kubernetes"
	appv1alpha1 "k8c.io/manifest-builder/pkg/apis/app/v1alpha1"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	fragmentHugoContainer      = "hugo_container"
	fragmentHugoInitContainers = "hugo_initcontainers"
	fragmentHugoVolumes        = "hugo_volumes"

	kindDeployment = "Deployment"
)

func podSpecField(field string) []string {
	return []string{"spec", "template", "spec", field}
}

// ApplyHugoFragments turns a Deployment into one that builds and serves the
// Hugo site in repo. Its containers, init containers and volumes are replaced
// by the matching fragments, where present, and the repository is recorded in
// an annotation. Other objects are left alone.
func ApplyHugoFragments(obj *unstructured.Unstructured, fragments Fragments, repo string) error {
	if obj.GetKind() != kindDeployment {
		return nil
	}

	if initContainers, ok := fragments[fragmentHugoInitContainers]; ok {
		if err := unstructured.SetNestedField(obj.Object, initContainers, podSpecField("initContainers")...); err != nil {
			return err
		}
	}

	if container, ok := fragments[fragmentHugoContainer]; ok {
		if err := unstructured.SetNestedField(obj.Object, []interface{}{container}, podSpecField("containers")...); err != nil {
			return err
		}
	}

	if volumes, ok := fragments[fragmentHugoVolumes]; ok {
		if err := unstructured.SetNestedField(obj.Object, volumes, podSpecField("volumes")...); err != nil {
			return err
		}
	}

	return unstructured.SetNestedField(obj.Object, repo, "metadata", "annotations", appv1alpha1.AnnotationHugoRepo)
}

// InjectConfigVolumes mounts the ConfigMap of every config group into all
// containers of a Deployment, at /<group>.
func InjectConfigVolumes(obj *unstructured.Unstructured, k8sName string, groups []string) error {
	if obj.GetKind() != kindDeployment || len(groups) == 0 {
		return nil
	}

	sorted := append([]string(nil), groups...)
	sort.Strings(sorted)

	var (
		volumes []corev1.Volume
		mounts  []corev1.VolumeMount
	)
	for _, group := range sorted {
		name, err := configMapName(k8sName, group)
		if err != nil {
			return err
		}

		volumes = append(volumes, corev1.Volume{
			Name: name,
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: name},
				},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{
			Name:      name,
			MountPath: "/" + group,
		})
	}

	return addVolumes(obj, volumes, mounts)
}

// InjectExternalSecrets mounts a Secret at each of mountPaths into all
// containers of a Deployment. The Secret and its volume are named after the
// mount path, so /db/credentials mounts the Secret db-credentials.
func InjectExternalSecrets(obj *unstructured.Unstructured, mountPaths []string) error {
	if obj.GetKind() != kindDeployment || len(mountPaths) == 0 {
		return nil
	}

	var (
		volumes []corev1.Volume
		mounts  []corev1.VolumeMount
	)
	for _, mountPath := range mountPaths {
		name, err := SecretVolumeName(mountPath)
		if err != nil {
			return err
		}

		volumes = append(volumes, corev1.Volume{
			Name: name,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{SecretName: name},
			},
		})
		mounts = append(mounts, corev1.VolumeMount{
			Name:      name,
			MountPath: mountPath,
		})
	}

	return addVolumes(obj, volumes, mounts)
}

// SecretVolumeName derives the Secret name of an external secret from its mount path.
func SecretVolumeName(mountPath string) (string, error) {
	return kubernetes.ToK8sName(strings.ReplaceAll(strings.Trim(mountPath, "/"), "/", "-"))
}

// addVolumes appends volumes to the pod spec and mounts to every container.
func addVolumes(obj *unstructured.Unstructured, volumes []corev1.Volume, mounts []corev1.VolumeMount) error {
	mountValues := make([]interface{}, 0, len(mounts))
	for i := range mounts {
		v, err := kubernetes.ToValue(&mounts[i])
		if err != nil {
			return err
		}
		mountValues = append(mountValues, v)
	}

	containers, _, err := unstructured.NestedSlice(obj.Object, podSpecField("containers")...)
	if err != nil {
		return err
	}
	for _, c := range containers {
		container, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		existing, _ := container["volumeMounts"].([]interface{})
		container["volumeMounts"] = append(existing, mountValues...)
	}
	if len(containers) > 0 {
		if err := unstructured.SetNestedSlice(obj.Object, containers, podSpecField("containers")...); err != nil {
			return err
		}
	}

	podVolumes, _, err := unstructured.NestedSlice(obj.Object, podSpecField("volumes")...)
	if err != nil {
		return err
	}
	for i := range volumes {
		v, err := kubernetes.ToValue(&volumes[i])
		if err != nil {
			return err
		}
		podVolumes = append(podVolumes, v)
	}

	return unstructured.SetNestedSlice(obj.Object, podVolumes, podSpecField("volumes")...)
}
