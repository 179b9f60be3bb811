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

package manifest

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Options controls how objects are serialized. It is passed explicitly to
// every writer so serialization never depends on process-wide state.
type Options struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// LiteralBlocks renders strings containing newlines as literal block
	// scalars (|). When false they are written as double-quoted strings.
	LiteralBlocks bool
}

// DefaultOptions returns the options used for all written manifests.
func DefaultOptions() Options {
	return Options{
		Indent:        2,
		LiteralBlocks: true,
	}
}

// Marshal serializes an object. Map keys are emitted in sorted order, so the
// same object always produces the same bytes.
func Marshal(obj map[string]interface{}, opts Options) ([]byte, error) {
	node := &yaml.Node{}
	if err := node.Encode(obj); err != nil {
		return nil, fmt.Errorf("failed to encode object: %w", err)
	}

	style := yaml.DoubleQuotedStyle
	if opts.LiteralBlocks {
		style = yaml.LiteralStyle
	}
	setMultilineStyle(node, style)

	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("failed to serialize object: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize object: %w", err)
	}

	return buf.Bytes(), nil
}

func setMultilineStyle(node *yaml.Node, style yaml.Style) {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" && strings.Contains(node.Value, "\n") {
		node.Style = style
	}

	for _, child := range node.Content {
		setMultilineStyle(child, style)
	}
}
