// Package analysis looks for database references in a resolved configuration.
package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPrefixes are the database name prefixes searched for when none are configured.
var DefaultPrefixes = []string{"AX", "AE", "SAS", "RSA"}

// MatchType tells whether a prefix matched a key or a value.
type MatchType string

const (
	KeyMatch   MatchType = "key_match"
	ValueMatch MatchType = "value_match"
)

// Finding is one prefix match inside the document.
type Finding struct {
	Type   MatchType `json:"type"`
	Prefix string    `json:"prefix"`
	Path   string    `json:"path"`
	Key    string    `json:"key,omitempty"`
	Value  any       `json:"value"`
}

// Scan walks doc and reports every key and string value containing one of
// prefixes, compared case-insensitively. Map keys are visited in sorted order
// so results are stable.
func Scan(doc map[string]any, prefixes []string) []Finding {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	s := scanner{prefixes: prefixes, lower: make([]string, len(prefixes))}
	for i, p := range prefixes {
		s.lower[i] = strings.ToLower(p)
	}
	s.walk(doc, "")
	if s.findings == nil {
		return []Finding{}
	}
	return s.findings
}

type scanner struct {
	prefixes []string
	lower    []string
	findings []Finding
}

func (s *scanner) walk(v any, path string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := t[k]
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			for i, lp := range s.lower {
				if strings.Contains(strings.ToLower(k), lp) {
					s.findings = append(s.findings, Finding{
						Type:   KeyMatch,
						Prefix: s.prefixes[i],
						Path:   childPath,
						Key:    k,
						Value:  describe(child),
					})
				}
			}
			s.walk(child, childPath)
		}
	case []any:
		for i, item := range t {
			s.walk(item, fmt.Sprintf("%s[%d]", path, i))
		}
	case string:
		lv := strings.ToLower(t)
		for i, lp := range s.lower {
			if strings.Contains(lv, lp) {
				s.findings = append(s.findings, Finding{
					Type:   ValueMatch,
					Prefix: s.prefixes[i],
					Path:   path,
					Value:  t,
				})
			}
		}
	}
}

// describe returns scalars unchanged and a placeholder for compound values.
func describe(v any) any {
	switch v.(type) {
	case map[string]any:
		return "<map>"
	case []any:
		return "<list>"
	default:
		return v
	}
}
