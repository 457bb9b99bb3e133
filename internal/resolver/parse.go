package resolver

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned by Parse for output that holds no mapping.
var ErrEmptyDocument = errors.New("resolver output contains no configuration document")

// ExtractYAML strips the banner and trailing notices the serverless CLI mixes
// into stdout. The document starts at the first "service:" or
// "frameworkVersion:" line and ends before a "Serverless:" notice or a
// deprecation warning. Without a recognisable start the input is returned unchanged.
func ExtractYAML(stdout string) string {
	var lines []string
	started := false

	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if !started {
			if strings.HasPrefix(trimmed, "service:") || strings.HasPrefix(trimmed, "frameworkVersion:") {
				started = true
				lines = append(lines, strings.TrimRight(line, "\r"))
			}
			continue
		}
		if strings.HasPrefix(trimmed, "Serverless:") || strings.Contains(line, "Deprecation warning:") {
			break
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
	}

	if len(lines) == 0 {
		return stdout
	}
	return strings.Join(lines, "\n") + "\n"
}

// Parse decodes a YAML document into a string-keyed nested mapping.
func Parse(data []byte) (map[string]any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		return nil, ErrEmptyDocument
	}
	doc, ok := Normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T", ErrEmptyDocument, raw)
	}
	return doc, nil
}

// Normalize converts map[any]any nodes into map[string]any so the document
// can be encoded as JSON.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = Normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = Normalize(child)
		}
		return out
	case []any:
		for i, child := range t {
			t[i] = Normalize(child)
		}
		return t
	default:
		return v
	}
}
