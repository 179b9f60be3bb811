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

// Package renderer turns one app into manifest files.
//
// There is one renderer per app type:
// - HelmRenderer runs `helm template` on a local or fetched chart
// - WebsiteRenderer expands the bundled website templates
// - SimpleRenderer copies manifests from a directory
//
// Every rendered object is stripped of Helm-owned metadata, gets the app
// namespace if it is namespaced and has none, and is written to its own file
// with the app name as its source comment. Renderers return the written paths
// so the caller can detect conflicts between apps.
package renderer
