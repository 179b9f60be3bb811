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

// Package template renders Mustache templates into manifest text.
package template

import (
	"fmt"
	"sync"

	"github.com/cbroglie/mustache"
)

// Context is the data a template is rendered with. Values are strings,
// booleans, lists or nested maps.
type Context map[string]interface{}

// Merge returns a new context holding c overlaid with other.
func (c Context) Merge(other map[string]string) Context {
	merged := make(Context, len(c)+len(other))
	for k, v := range other {
		merged[k] = v
	}
	for k, v := range c {
		merged[k] = v
	}
	return merged
}

// Renderer renders Mustache templates without HTML escaping.
type Renderer struct {
	// Strict makes references to undefined variables an error instead of
	// rendering them as empty strings.
	Strict bool
}

// The mustache package only exposes missing-variable handling as a package
// variable, so renders that need a specific setting are serialized.
var strictness sync.Mutex

// Render renders text with ctx.
func (r Renderer) Render(name, text string, ctx Context) (string, error) {
	strictness.Lock()
	defer strictness.Unlock()

	previous := mustache.AllowMissingVariables
	mustache.AllowMissingVariables = !r.Strict
	defer func() { mustache.AllowMissingVariables = previous }()

	tmpl, err := mustache.ParseStringRaw(text, true)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	out, err := tmpl.Render(map[string]interface{}(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return out, nil
}
