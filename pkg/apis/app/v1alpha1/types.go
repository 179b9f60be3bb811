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

package v1alpha1

const (
	// HelmMetadataPrefix is the prefix of every label and annotation key owned by Helm.
	HelmMetadataPrefix = "helm.sh/"

	// LabelManagedBy is the well-known label naming the tool that manages an object.
	LabelManagedBy = "app.kubernetes.io/managed-by"

	// ManagedByHelm is the LabelManagedBy value set by Helm. Other values are preserved.
	ManagedByHelm = "Helm"

	// AnnotationHelmHook marks chart hook resources. Hooks whose value contains
	// "test" are chart tests and never written to the output.
	AnnotationHelmHook = "helm.sh/hook"
)

const (
	// AnnotationHugoRepo is set on website Deployments built from a Hugo repository.
	AnnotationHugoRepo = "hugo"
)

const (
	// HelmfileName is the release declaration file looked up in the configuration directory.
	HelmfileName = "helmfile.yaml"

	// OCIScheme prefixes chart references served from an OCI registry.
	OCIScheme = "oci://"
)
