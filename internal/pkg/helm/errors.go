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

package helm

import (
	"fmt"
	"strings"
	"time"
)

// ToolError is returned when an external tool is missing, times out or
// exits with an error.
type ToolError struct {
	// Tool is the executable that was run.
	Tool string
	// Args are the arguments the tool was run with.
	Args []string
	// Stderr is the captured standard error output.
	Stderr string
	// Timeout is set when the tool was killed after running for this long.
	Timeout time.Duration
	// Err is the underlying error.
	Err error
}

func (e *ToolError) Error() string {
	cmd := strings.TrimSpace(e.Tool + " " + strings.Join(e.Args, " "))

	if e.Timeout > 0 {
		return fmt.Sprintf("%s timed out after %s", cmd, e.Timeout)
	}

	msg := fmt.Sprintf("%s failed: %v", cmd, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
