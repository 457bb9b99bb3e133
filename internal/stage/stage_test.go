package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		resolver Resolver
		explicit string
		want     string
	}{
		{"explicit wins over env", Resolver{Override: "DESA"}, "PROD", "PROD"},
		{"env used without explicit", Resolver{Override: "DESA"}, "", "DESA"},
		{"fallback when nothing set", Resolver{}, "", "TEST"},
		{"configured default", Resolver{Default: "QA"}, "", "QA"},
		{"env wins over configured default", Resolver{Default: "QA", Override: "DESA"}, "", "DESA"},
		{"blank explicit ignored", Resolver{Override: "DESA"}, "   ", "DESA"},
		{"explicit trimmed", Resolver{}, " PROD ", "PROD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resolver.Resolve(tt.explicit))
		})
	}
}
