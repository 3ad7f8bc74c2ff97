package config

import (
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("should return the defaults without a file", func(t *testing.T) {
		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, cfg.Pipeline.GroupingWindow)
		assert.Equal(t, ":8081", cfg.Server.HTTPAddress)
		assert.Equal(t, 90.0, cfg.Health.LimitCriticalPercent)
	})

	t.Run("should overlay the yaml file on the defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debuglens.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  workers: 8
  grouping_window: 15s
parser:
  unresolved_exception_severity: Warning
health:
  slow_transaction_ms: 2500
`), 0o600))

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Pipeline.Workers)
		assert.Equal(t, 15*time.Second, cfg.Pipeline.GroupingWindow)
		assert.Equal(t, 2500.0, cfg.Health.SlowTransactionMs)
		assert.Equal(t, 70.0, cfg.Health.LimitHighPercent)
		assert.Equal(t, ":4317", cfg.Server.GRPCAddress)
	})

	t.Run("should let the environment win over the file", func(t *testing.T) {
		t.Setenv("DEBUGLENS_WORKERS", "2")
		t.Setenv("ELASTICSEARCH_ADDRESSES", "http://es-1:9200, http://es-2:9200")

		cfg, err := Load("")

		require.NoError(t, err)
		assert.Equal(t, 2, cfg.Pipeline.Workers)
		assert.Equal(t, []string{"http://es-1:9200", "http://es-2:9200"}, cfg.Elasticsearch.Addresses)
	})

	t.Run("should reject malformed environment values", func(t *testing.T) {
		t.Setenv("DEBUGLENS_GROUPING_WINDOW", "soon")

		_, err := Load("")

		assert.ErrorContains(t, err, "DEBUGLENS_GROUPING_WINDOW")
	})

	t.Run("should reject an unknown exception severity", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "debuglens.yaml")
		require.NoError(t, os.WriteFile(path, []byte("parser:\n  unresolved_exception_severity: Fatal\n"), 0o600))

		_, err := Load(path)

		assert.ErrorIs(t, err, ErrInvalidSeverity)
	})
}

func TestParserOptions(t *testing.T) {
	t.Run("should carry markers severity and thresholds into the parser options", func(t *testing.T) {
		cfg := Default()
		cfg.Parser.SoftFailureMarkers = []string{"VALIDATION_FAIL"}
		cfg.Parser.UnresolvedExceptionSeverity = "Handled"
		cfg.Health.DebugStatementLimit = 5

		opts := cfg.ParserOptions()

		assert.Equal(t, map[parserModel.EventCode]bool{parserModel.ValidationFail: true}, opts.Tree.SoftFailureMarkers)
		assert.Equal(t, parserModel.SeverityHandled, opts.Exceptions.UnresolvedSeverity)
		assert.Equal(t, 5, opts.Health.DebugStatementLimit)
	})
}
