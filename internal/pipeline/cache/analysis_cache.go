package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/metrics"
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisCache remembers analyses by the content of the trace they came from.
// Eviction is based on LRU and LFU policies.
type AnalysisCache interface {
	Get(text string) (*model.LogAnalysis, bool)
	Put(text string, analysis *model.LogAnalysis)
	Close()
}

type AnalysisCacheImpl struct {
	cache  *ristretto.Cache
	logger *zap.Logger
}

// NewAnalysisCache holds at most maxEntries analyses.
func NewAnalysisCache(maxEntries int64, logger *zap.Logger) (*AnalysisCacheImpl, error) {
	if maxEntries <= 0 {
		return nil, ErrInvalidCacheSize
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}
	return &AnalysisCacheImpl{cache: cache, logger: logger}, nil
}

func (ac *AnalysisCacheImpl) Get(text string) (*model.LogAnalysis, bool) {
	value, found := ac.cache.Get(contentKey(text))
	if !found {
		return nil, false
	}
	analysis, ok := value.(*model.LogAnalysis)
	if !ok {
		ac.logger.Error("Value not of expected type returned from analysis cache", zap.Any("value", value))
		return nil, false
	}
	return analysis, true
}

func (ac *AnalysisCacheImpl) Put(text string, analysis *model.LogAnalysis) {
	if !ac.cache.Set(contentKey(text), analysis, 1) {
		ac.logger.Debug("Analysis cache dropped an entry", zap.String("log_name", analysis.Name))
		return
	}
	ac.cache.Wait()
}

func (ac *AnalysisCacheImpl) Close() {
	ac.cache.Close()
}

func contentKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// CachingLogParser answers repeated traces from the cache. A hit is a shallow
// copy of the cached analysis under a fresh id and the requested name.
type CachingLogParser struct {
	parser service.LogParserService
	cache  AnalysisCache
}

func NewCachingLogParser(parser service.LogParserService, cache AnalysisCache) service.LogParserService {
	return &CachingLogParser{parser: parser, cache: cache}
}

func (clp *CachingLogParser) Parse(text string, name string) *model.LogAnalysis {
	if cached, ok := clp.cache.Get(text); ok {
		metrics.CacheHits.Inc()
		copied := *cached
		copied.Id = uuid.NewString()
		copied.Name = name
		return &copied
	}
	analysis := clp.parser.Parse(text, name)
	clp.cache.Put(text, analysis)
	return analysis
}

var (
	ErrInvalidCacheSize = errors.New("analysis cache size must be positive")
)
