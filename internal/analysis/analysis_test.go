package analysis

import (
	"errors"
	"testing"

	"migrationmcp/internal/persist"
	"migrationmcp/internal/resolver"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	doc, err := resolver.Parse([]byte(`
provider:
  environment:
    AX_DB_HOST: ax-db.internal
    LOG_LEVEL: info
functions:
  sync:
    events:
      - sqs: arn:aws:sqs:us-east-1:1:rsa-queue
    port: 5432
`))
	require.NoError(t, err)

	got := Scan(doc, nil)
	want := []Finding{
		{Type: ValueMatch, Prefix: "RSA", Path: "functions.sync.events[0].sqs", Value: "arn:aws:sqs:us-east-1:1:rsa-queue"},
		{Type: KeyMatch, Prefix: "AX", Path: "provider.environment.AX_DB_HOST", Key: "AX_DB_HOST", Value: "ax-db.internal"},
		{Type: ValueMatch, Prefix: "AX", Path: "provider.environment.AX_DB_HOST", Value: "ax-db.internal"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestScan_CompoundValuesAndCustomPrefixes(t *testing.T) {
	doc := map[string]any{
		"saleStore": map[string]any{"host": "h"},
		"oracleList": []any{1, 2},
		"count":      3,
	}

	got := Scan(doc, []string{"ORACLE", "sale"})
	require.Len(t, got, 2)
	assert.Equal(t, "<list>", got[0].Value)
	assert.Equal(t, "ORACLE", got[0].Prefix)
	assert.Equal(t, "<map>", got[1].Value)
	assert.Equal(t, "sale", got[1].Prefix)

	assert.Empty(t, Scan(map[string]any{"plain": "value"}, nil))
	assert.NotNil(t, Scan(map[string]any{}, nil))
}

func TestAnalyzer(t *testing.T) {
	root := t.TempDir()
	m := persist.NewManager()
	a := NewAnalyzer(m, nil)

	_, err := a.Analyze(root, "TEST")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.True(t, errors.Is(err, ErrResolvedConfigNotFound))
	assert.Contains(t, err.Error(), "get_serverless_config")

	raw := "service: api\ncustom:\n  sasUser: admin\n"
	doc, err := resolver.Parse([]byte(raw))
	require.NoError(t, err)
	_, err = m.Persist(root, "TEST", &resolver.ResolvedConfig{Stage: "TEST", Document: doc, Raw: []byte(raw)})
	require.NoError(t, err)

	report, err := a.Analyze(root, "TEST")
	require.NoError(t, err)
	assert.Equal(t, 1, report.FindingsCount)
	assert.Equal(t, "custom.sasUser", report.Findings[0].Path)
	assert.Equal(t, "admin", report.Findings[0].Value)
}
