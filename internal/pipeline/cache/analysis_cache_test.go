package cache

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"testing"
)

const smallLog = `09:00:00.000 (1000000)|EXECUTION_STARTED
09:00:00.000 (1500000)|CODE_UNIT_STARTED|[EXTERNAL]|AccountTrigger on Account trigger event BeforeInsert
09:00:00.004 (5000000)|CODE_UNIT_FINISHED|AccountTrigger on Account trigger event BeforeInsert
09:00:00.005 (6000000)|EXECUTION_FINISHED`

type countingParser struct {
	calls int
	inner service.LogParserService
}

func (cp *countingParser) Parse(text string, name string) *model.LogAnalysis {
	cp.calls++
	return cp.inner.Parse(text, name)
}

func TestCachingLogParser(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	t.Run("should parse identical text only once", func(t *testing.T) {
		analysisCache, err := NewAnalysisCache(16, logger)
		require.NoError(t, err)
		defer analysisCache.Close()
		counting := &countingParser{inner: service.NewLogParserService(service.DefaultOptions(), logger)}
		parser := NewCachingLogParser(counting, analysisCache)

		first := parser.Parse(smallLog, "first.log")
		second := parser.Parse(smallLog, "second.log")

		assert.Equal(t, 1, counting.calls)
		assert.Equal(t, "first.log", first.Name)
		assert.Equal(t, "second.log", second.Name)
		assert.NotEqual(t, first.Id, second.Id)
		assert.Equal(t, first.DurationMs, second.DurationMs)
	})

	t.Run("should parse different text separately", func(t *testing.T) {
		analysisCache, err := NewAnalysisCache(16, logger)
		require.NoError(t, err)
		defer analysisCache.Close()
		counting := &countingParser{inner: service.NewLogParserService(service.DefaultOptions(), logger)}
		parser := NewCachingLogParser(counting, analysisCache)

		parser.Parse(smallLog, "a.log")
		parser.Parse(smallLog+"\n", "b.log")

		assert.Equal(t, 2, counting.calls)
	})

	t.Run("should reject a non positive size", func(t *testing.T) {
		_, err := NewAnalysisCache(0, logger)

		assert.ErrorIs(t, err, ErrInvalidCacheSize)
	})
}
