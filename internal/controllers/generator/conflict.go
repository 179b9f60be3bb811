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

package generator

import (
	"fmt"
	"strings"
)

// Conflict is a file that two apps write.
type Conflict struct {
	// Path is relative to the output directory.
	Path string
	// Owner is the app that wrote the file first.
	Owner string
	// Claimant is the app that wrote it again.
	Claimant string
}

// ConflictError is returned when apps write the same files.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	return formatConflictMessage(e.Conflicts)
}

// formatConflictMessage formats the conflicts into a message that lists
// every colliding file.
func formatConflictMessage(conflicts []Conflict) string {
	if len(conflicts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("output file conflicts detected:\n")

	for _, c := range conflicts {
		sb.WriteString(fmt.Sprintf("  - %s is written by app %q and app %q\n", c.Path, c.Owner, c.Claimant))
	}

	sb.WriteString("\nTo resolve this conflict, either:\n")
	sb.WriteString("  1. Remove the duplicated object from one of the apps\n")
	sb.WriteString("  2. Rename the object in one of the apps\n")
	sb.WriteString("  3. Deploy one of the apps into a different namespace")

	return sb.String()
}
