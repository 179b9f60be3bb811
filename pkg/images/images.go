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

// Package images provides public access to the container images the bundled
// website templates use.
//
// This allows external tooling, such as image mirroring scripts, to list the
// images a configuration pulls without rendering any manifests.
package images

import "maps"

var defaults = map[string]string{
	"git_image":               "alpine/git:2.47.2",
	"hugo_image":              "hugomods/hugo:exts-0.145.0",
	"static_web_server_image": "joseluisq/static-web-server:2.36.1",
}

// Defaults returns the images used by website apps when the configuration
// does not override them.
func Defaults() map[string]string {
	return maps.Clone(defaults)
}

// Effective returns the images website apps are rendered with for the given
// [images] table: configured values win over the defaults.
func Effective(configured map[string]string) map[string]string {
	images := Defaults()
	maps.Copy(images, configured)
	return images
}
