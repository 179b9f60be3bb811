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

// Package config loads app declarations from TOML files and the optional
// helmfile.yaml, resolves release references and validates the result.
package config

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Error is a configuration error: a malformed or contradictory app
// declaration, or a missing local file.
type Error struct {
	// File is the configuration file the error was found in, if known.
	File string
	// App is the name of the affected app, if known.
	App string
	// Message describes the problem.
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.App != "" {
		fmt.Fprintf(&b, "app %q: ", e.App)
	}
	b.WriteString(e.Message)
	return b.String()
}

func newError(file, app, format string, args ...interface{}) *Error {
	return &Error{
		File:    file,
		App:     app,
		Message: fmt.Sprintf(format, args...),
	}
}

// suggest returns the candidate closest to input, or an empty string if
// none is close enough to be a likely typo.
func suggest(input string, candidates []string) string {
	best, bestDistance := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(strings.ToLower(input), strings.ToLower(c))
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = c, d
		}
	}

	limit := len(input) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDistance < 0 || bestDistance > limit {
		return ""
	}
	return best
}

func didYouMean(input string, candidates []string) string {
	if s := suggest(input, candidates); s != "" {
		return fmt.Sprintf(" (did you mean %q?)", s)
	}
	return ""
}
