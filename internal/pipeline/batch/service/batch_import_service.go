package service

import (
	"context"
	"errors"
	"fmt"
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	"github.com/Avi18971911/DebugLens/internal/metrics"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/Avi18971911/DebugLens/internal/pipeline/batch/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"runtime/debug"
	"strings"
	"time"
)

const defaultWorkers = 4

type Options struct {
	Workers int
	// MaxParseLines is the largest trace given a full parse. Zero disables
	// the guard.
	MaxParseLines int
}

type BatchImportService interface {
	Import(ctx context.Context, sources []model.TraceSource) model.ImportResult
}

type BatchImportServiceImpl struct {
	opts      Options
	parser    parserService.LogParserService
	extractor metadataService.MetadataExtractorService
	logger    *zap.Logger
}

func NewBatchImportService(
	opts Options,
	parser parserService.LogParserService,
	extractor metadataService.MetadataExtractorService,
	logger *zap.Logger,
) BatchImportService {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &BatchImportServiceImpl{
		opts:      opts,
		parser:    parser,
		extractor: extractor,
		logger:    logger,
	}
}

type importOutcome struct {
	analysis *parserModel.LogAnalysis
	metadata metadataModel.DebugLogMetadata
	err      error
}

func (bis *BatchImportServiceImpl) Import(ctx context.Context, sources []model.TraceSource) model.ImportResult {
	outcomes := make([]importOutcome, len(sources))
	var g errgroup.Group
	g.SetLimit(bis.opts.Workers)
	for i, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = importOutcome{err: err}
				return nil
			}
			outcomes[i] = bis.importOne(source)
			return nil
		})
	}
	_ = g.Wait()

	result := model.ImportResult{
		Analyses: []*parserModel.LogAnalysis{},
		Metadata: []metadataModel.DebugLogMetadata{},
		Failures: []model.ImportFailure{},
	}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			metrics.ImportFailures.Inc()
			bis.logger.Error(
				"Failed to import trace",
				zap.String("log_name", sources[i].Name),
				zap.Error(outcome.err),
			)
			result.Failures = append(result.Failures, model.ImportFailure{Name: sources[i].Name, Err: outcome.err})
			continue
		}
		if outcome.analysis != nil {
			result.Analyses = append(result.Analyses, outcome.analysis)
		}
		result.Metadata = append(result.Metadata, outcome.metadata)
	}
	bis.logger.Info(
		"Finished batch import",
		zap.Int("traces", len(sources)),
		zap.Int("parsed", len(result.Analyses)),
		zap.Int("failed", len(result.Failures)),
	)
	return result
}

func (bis *BatchImportServiceImpl) importOne(source model.TraceSource) (outcome importOutcome) {
	defer func() {
		if r := recover(); r != nil {
			bis.logger.Error(
				"Recovered from panic while importing trace",
				zap.String("log_name", source.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			outcome = importOutcome{err: fmt.Errorf("%w: %v", ErrParsePanicked, r)}
		}
	}()

	metadata := bis.extractor.ExtractMetadataAt(source.Text, source.Name, source.LogDate)
	if lines := countLines(source.Text); bis.opts.MaxParseLines > 0 && lines > bis.opts.MaxParseLines {
		metrics.MetadataOnly.Inc()
		bis.logger.Info(
			"Trace exceeds the parse line limit, extracting metadata only",
			zap.String("log_name", source.Name),
			zap.Int("lines", lines),
			zap.Int("max_parse_lines", bis.opts.MaxParseLines),
		)
		return importOutcome{metadata: metadata}
	}

	started := time.Now()
	analysis := bis.parser.Parse(source.Text, source.Name)
	metrics.ObserveParse("batch", started, analysis.IsLogTruncated)

	full := metadataService.FromAnalysis(analysis, metadata.Timestamp)
	if full.RecordId == "" {
		full.RecordId = metadata.RecordId
	}
	if full.UserId == "" {
		full.UserId = metadata.UserId
	}
	return importOutcome{analysis: analysis, metadata: full}
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(text, "\n"), "\n") + 1
}

var (
	ErrParsePanicked = errors.New("parser panicked")
)
