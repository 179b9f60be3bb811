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
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// InvalidNameError is returned when a name derived from user input is not a
// valid Kubernetes object name.
type InvalidNameError struct {
	// Input is the original value, usually a domain name.
	Input string
	// Name is the derived name that failed validation.
	Name string
	// Reason is the first violated rule.
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid Kubernetes name %q derived from %q: %s", e.Name, e.Input, e.Reason)
}

// ToK8sName converts a name such as "example.com" into a valid object name
// ("example-com") by replacing dots with dashes and lowercasing.
func ToK8sName(input string) (string, error) {
	name := strings.ToLower(strings.ReplaceAll(input, ".", "-"))

	if reason := validateName(name); reason != "" {
		return "", &InvalidNameError{Input: input, Name: name, Reason: reason}
	}

	return name, nil
}

// validateName checks the rules in a fixed order and returns the first
// violation, or an empty string.
func validateName(name string) string {
	switch {
	case name == "":
		return "must not be empty"
	case len(name) > validation.DNS1123LabelMaxLength:
		return fmt.Sprintf("must be no more than %d characters", validation.DNS1123LabelMaxLength)
	case !isAlphanumeric(name[0]):
		return "must start with an alphanumeric character"
	case !isAlphanumeric(name[len(name)-1]):
		return "must end with an alphanumeric character"
	}

	for i := 0; i < len(name); i++ {
		if c := name[i]; !isAlphanumeric(c) && c != '-' {
			return fmt.Sprintf("must consist of lower case alphanumeric characters or '-', found %q", string(c))
		}
	}

	return ""
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
