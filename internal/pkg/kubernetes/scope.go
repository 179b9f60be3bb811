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
	"k8s.io/apimachinery/pkg/util/sets"
)

// clusterScopedKinds lists the built-in and commonly installed kinds that
// live outside of any namespace. Kinds not listed here are treated as
// namespace-scoped; there is no discovery against a live cluster.
var clusterScopedKinds = sets.New(
	// core/v1
	"ComponentStatus",
	"Namespace",
	"Node",
	"PersistentVolume",

	// apiextensions.k8s.io, apiregistration.k8s.io
	"APIService",
	"CustomResourceDefinition",

	// admissionregistration.k8s.io
	"MutatingWebhookConfiguration",
	"ValidatingWebhookConfiguration",
	"ValidatingAdmissionPolicy",
	"ValidatingAdmissionPolicyBinding",
	"MutatingAdmissionPolicy",
	"MutatingAdmissionPolicyBinding",

	// rbac.authorization.k8s.io
	"ClusterRole",
	"ClusterRoleBinding",

	// storage.k8s.io
	"CSIDriver",
	"CSINode",
	"StorageClass",
	"VolumeAttachment",
	"VolumeAttributesClass",

	// scheduling.k8s.io, node.k8s.io
	"PriorityClass",
	"RuntimeClass",

	// flowcontrol.apiserver.k8s.io
	"FlowSchema",
	"PriorityLevelConfiguration",

	// certificates.k8s.io, networking.k8s.io
	"CertificateSigningRequest",
	"ClusterTrustBundle",
	"IngressClass",
	"IPAddress",
	"ServiceCIDR",

	// resource.k8s.io
	"DeviceClass",
	"ResourceSlice",

	// authentication and authorization reviews
	"SelfSubjectReview",
	"SelfSubjectAccessReview",
	"SelfSubjectRulesReview",
	"SubjectAccessReview",
	"TokenReview",

	// gateway.networking.k8s.io
	"GatewayClass",

	// cert-manager.io
	"ClusterIssuer",
)

// IsClusterScoped reports whether objects of the given kind are cluster-scoped.
func IsClusterScoped(kind string) bool {
	return clusterScopedKinds.Has(kind)
}
