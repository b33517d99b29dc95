package formatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLFormatOptions control YAML rendering.
type YAMLFormatOptions struct {
	Indent                int
	LiteralBlockStrings   bool
	ExpandEscapedNewlines bool
}

// FormatYAML renders an object as YAML text for the text-block formatters. Multi-line strings
// can be emitted as literal blocks ("|") so they read naturally in the info pane.
func FormatYAML(v any, opts YAMLFormatOptions) (string, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return "", err
	}

	// each level is a mapping, a sequence or a scalar; walk it with an explicit stack
	stack := []*yaml.Node{&node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
			if opts.ExpandEscapedNewlines && strings.Contains(n.Value, "\\n") {
				n.Value = strings.ReplaceAll(n.Value, "\\n", "\n")
			}
			if opts.LiteralBlockStrings && strings.Contains(n.Value, "\n") {
				n.Style = yaml.LiteralStyle
			}
		}
		stack = append(stack, n.Content...)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(&node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
