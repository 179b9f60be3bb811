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

// Package generator implements the run that turns all configured apps into
// manifest files and brings the output directory in line with them.
//
// A run goes through these steps, and any error aborts it:
//   - validate every app before anything is rendered
//   - render each app in order and record which app wrote which file
//   - fail if two apps write the same file, naming every colliding file
//   - write a Namespace for every namespace directory that has none
//   - delete manifest files from earlier runs that were not written again,
//     then remove directories left empty
//
// Files that are not manifests, such as a README, are never touched. A failed
// run does not clean up, so files written before the failure stay on disk.
package generator
