package resolver

import (
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Summary is a compact view of a resolved serverless document.
type Summary struct {
	Service          string   `json:"service,omitempty"`
	FrameworkVersion string   `json:"framework_version,omitempty"`
	Provider         Provider `json:"provider"`
	Functions        []string `json:"functions"`
	EventCount       int      `json:"event_count"`
	ResourceCount    int      `json:"resource_count"`
}

// Provider holds the provider settings most callers care about.
type Provider struct {
	Name    string `json:"name,omitempty" mapstructure:"name"`
	Runtime string `json:"runtime,omitempty" mapstructure:"runtime"`
	Region  string `json:"region,omitempty" mapstructure:"region"`
	Stage   string `json:"stage,omitempty" mapstructure:"stage"`
}

type document struct {
	Service          any                       `mapstructure:"service"`
	FrameworkVersion string                    `mapstructure:"frameworkVersion"`
	Provider         Provider                  `mapstructure:"provider"`
	Functions        map[string]functionConfig `mapstructure:"functions"`
	Resources        struct {
		Resources map[string]any `mapstructure:"Resources"`
	} `mapstructure:"resources"`
}

type functionConfig struct {
	Events []any `mapstructure:"events"`
}

// Summarize extracts a Summary. Fields that do not decode are left empty.
func Summarize(doc map[string]any) Summary {
	var d document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &d,
	})
	if err == nil {
		// Partial results are still useful; a mismatched field only leaves it empty.
		_ = decoder.Decode(doc)
	}

	s := Summary{
		Service:          serviceName(d.Service),
		FrameworkVersion: d.FrameworkVersion,
		Provider:         d.Provider,
		Functions:        make([]string, 0, len(d.Functions)),
		ResourceCount:    len(d.Resources.Resources),
	}
	for name, fn := range d.Functions {
		s.Functions = append(s.Functions, name)
		s.EventCount += len(fn.Events)
	}
	sort.Strings(s.Functions)
	return s
}

// serviceName accepts both "service: name" and the older "service: {name: ...}".
func serviceName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if name, ok := t["name"].(string); ok {
			return name
		}
	}
	return ""
}
