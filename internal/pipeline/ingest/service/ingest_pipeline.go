package service

import (
	"context"
	"errors"
	"fmt"
	esModel "github.com/Avi18971911/DebugLens/internal/db/elasticsearch/model"
	"github.com/Avi18971911/DebugLens/internal/db/write_buffer"
	"github.com/Avi18971911/DebugLens/internal/event_bus"
	groupingService "github.com/Avi18971911/DebugLens/internal/grouping/service"
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	"github.com/Avi18971911/DebugLens/internal/metrics"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/Avi18971911/DebugLens/internal/pipeline/ingest/model"
	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

type Options struct {
	Workers        int64
	MaxParseLines  int
	GroupingWindow time.Duration
}

// IngestPipeline parses traces as they arrive, stores their analyses and
// periodically reconstructs user transactions from the metadata seen so far.
// A transaction is stored once no later trace can still join it.
type IngestPipeline struct {
	parser         parserService.LogParserService
	extractor      metadataService.MetadataExtractorService
	grouper        groupingService.TransactionGrouperService
	analysisBuffer write_buffer.DatabaseWriteBuffer[esModel.AnalysisDocument]
	groupBuffer    write_buffer.DatabaseWriteBuffer[esModel.GroupDocument]
	traceBus       event_bus.DebugLensEventBus[model.TraceReceived, model.TraceReceived]
	analysisBus    event_bus.DebugLensEventBus[esModel.AnalysisDocument, esModel.AnalysisDocument]
	metadataBus    event_bus.DebugLensEventBus[metadataModel.DebugLogMetadata, metadataModel.DebugLogMetadata]
	eventBus       EventBus.Bus
	workers        *semaphore.Weighted
	opts           Options
	mu             sync.Mutex
	pending        []metadataModel.DebugLogMetadata
	done           chan struct{}
	logger         *zap.Logger
}

func NewIngestPipeline(
	opts Options,
	parser parserService.LogParserService,
	extractor metadataService.MetadataExtractorService,
	grouper groupingService.TransactionGrouperService,
	analysisBuffer write_buffer.DatabaseWriteBuffer[esModel.AnalysisDocument],
	groupBuffer write_buffer.DatabaseWriteBuffer[esModel.GroupDocument],
	eventBus EventBus.Bus,
	logger *zap.Logger,
) *IngestPipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.GroupingWindow <= 0 {
		opts.GroupingWindow = groupingService.DefaultWindow
	}
	return &IngestPipeline{
		parser:         parser,
		extractor:      extractor,
		grouper:        grouper,
		analysisBuffer: analysisBuffer,
		groupBuffer:    groupBuffer,
		traceBus:       event_bus.NewDebugLensEventBus[model.TraceReceived, model.TraceReceived](eventBus, logger),
		analysisBus:    event_bus.NewDebugLensEventBus[esModel.AnalysisDocument, esModel.AnalysisDocument](eventBus, logger),
		metadataBus:    event_bus.NewDebugLensEventBus[metadataModel.DebugLogMetadata, metadataModel.DebugLogMetadata](eventBus, logger),
		eventBus:       eventBus,
		workers:        semaphore.NewWeighted(opts.Workers),
		opts:           opts,
		pending:        []metadataModel.DebugLogMetadata{},
		done:           make(chan struct{}),
		logger:         logger,
	}
}

// Start subscribes every stage and groups pending metadata on each tick
// until ctx is done.
func (ip *IngestPipeline) Start(ctx context.Context, ticker *time.Ticker) error {
	err := ip.startParser()
	if err != nil {
		return fmt.Errorf("failed to start parser: %w", err)
	}
	err = ip.startAnalysisSink()
	if err != nil {
		return fmt.Errorf("failed to start analysis sink: %w", err)
	}
	err = ip.startMetadataCollector()
	if err != nil {
		return fmt.Errorf("failed to start metadata collector: %w", err)
	}

	go func() {
		defer close(ip.done)
		for {
			select {
			case <-ctx.Done():
				ip.logger.Info("Stopping transaction grouping", zap.Error(ctx.Err()))
				return
			case <-ticker.C:
				ip.GroupClosed()
			}
		}
	}()
	return nil
}

// Done is closed once the grouping loop started by Start has exited.
func (ip *IngestPipeline) Done() <-chan struct{} {
	return ip.done
}

func (ip *IngestPipeline) Submit(trace model.TraceReceived) error {
	if strings.TrimSpace(trace.Name) == "" {
		return ErrNoName
	}
	if trace.ReceivedAt.IsZero() {
		trace.ReceivedAt = time.Now().UTC()
	}
	err := ip.traceBus.Publish(event_bus.TopicTraceReceived, trace)
	if err != nil {
		return fmt.Errorf("failed to publish received trace: %w", err)
	}
	return nil
}

func (ip *IngestPipeline) startParser() error {
	err := ip.traceBus.Subscribe(
		event_bus.TopicTraceReceived,
		func(input model.TraceReceived) error {
			if err := ip.workers.Acquire(context.Background(), 1); err != nil {
				return fmt.Errorf("failed to acquire parse worker: %w", err)
			}
			defer ip.workers.Release(1)
			return ip.process(input)
		},
		false,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to input topic for parser: %w", err)
	}
	return nil
}

func (ip *IngestPipeline) process(input model.TraceReceived) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ip.logger.Error(
				"Recovered from panic while processing trace",
				zap.String("log_name", input.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("%w: %s: %v", ErrParsePanicked, input.Name, r)
		}
	}()

	metadata := ip.extractor.ExtractMetadataAt(input.Text, input.Name, input.LogDate)
	lines := strings.Count(input.Text, "\n") + 1
	if ip.opts.MaxParseLines > 0 && lines > ip.opts.MaxParseLines {
		metrics.MetadataOnly.Inc()
		ip.logger.Info(
			"Trace exceeds the parse line limit, extracting metadata only",
			zap.String("log_name", input.Name),
			zap.Int("lines", lines),
		)
	} else {
		started := time.Now()
		analysis := ip.parser.Parse(input.Text, input.Name)
		metrics.ObserveParse("ingest", started, analysis.IsLogTruncated)
		full := metadataService.FromAnalysis(analysis, metadata.Timestamp)
		if full.RecordId == "" {
			full.RecordId = metadata.RecordId
		}
		if full.UserId == "" {
			full.UserId = metadata.UserId
		}
		metadata = full
		err = ip.analysisBus.Publish(event_bus.TopicAnalysisOutput, esModel.NewAnalysisDocument(analysis))
		if err != nil {
			return fmt.Errorf("failed to publish analysis output: %w", err)
		}
	}
	err = ip.metadataBus.Publish(event_bus.TopicMetadataOutput, metadata)
	if err != nil {
		return fmt.Errorf("failed to publish metadata output: %w", err)
	}
	return nil
}

func (ip *IngestPipeline) startAnalysisSink() error {
	err := ip.analysisBus.Subscribe(
		event_bus.TopicAnalysisOutput,
		func(input esModel.AnalysisDocument) error {
			ip.analysisBuffer.WriteToBuffer([]esModel.AnalysisDocument{input})
			return nil
		},
		true,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to input topic for analysis sink: %w", err)
	}
	return nil
}

func (ip *IngestPipeline) startMetadataCollector() error {
	err := ip.metadataBus.Subscribe(
		event_bus.TopicMetadataOutput,
		func(input metadataModel.DebugLogMetadata) error {
			ip.mu.Lock()
			defer ip.mu.Unlock()
			ip.pending = append(ip.pending, input)
			return nil
		},
		true,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to input topic for metadata collector: %w", err)
	}
	return nil
}

// GroupClosed stores every group that ended more than one grouping window
// before the latest trace seen, and keeps the rest pending.
func (ip *IngestPipeline) GroupClosed() int {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if len(ip.pending) == 0 {
		return 0
	}
	watermark := ip.pending[0].Timestamp
	for _, record := range ip.pending {
		if record.Timestamp.After(watermark) {
			watermark = record.Timestamp
		}
	}

	groups := ip.grouper.Group(ip.pending, ip.opts.GroupingWindow)
	var closed []esModel.GroupDocument
	remaining := []metadataModel.DebugLogMetadata{}
	for _, group := range groups {
		if watermark.Sub(group.End) > ip.opts.GroupingWindow {
			closed = append(closed, esModel.NewGroupDocument(group))
			continue
		}
		remaining = append(remaining, group.Members...)
	}
	ip.pending = remaining
	ip.store(closed)
	return len(closed)
}

// Flush groups everything still pending and writes all buffered documents.
func (ip *IngestPipeline) Flush(ctx context.Context) error {
	ip.eventBus.WaitAsync()
	ip.mu.Lock()
	groups := ip.grouper.Group(ip.pending, ip.opts.GroupingWindow)
	ip.pending = []metadataModel.DebugLogMetadata{}
	documents := make([]esModel.GroupDocument, len(groups))
	for i, group := range groups {
		documents[i] = esModel.NewGroupDocument(group)
	}
	ip.store(documents)
	ip.mu.Unlock()

	return errors.Join(ip.analysisBuffer.Flush(ctx), ip.groupBuffer.Flush(ctx))
}

func (ip *IngestPipeline) store(documents []esModel.GroupDocument) {
	if len(documents) == 0 {
		return
	}
	metrics.GroupsBuilt.Add(float64(len(documents)))
	ip.logger.Info("Storing transaction groups", zap.Int("groups", len(documents)))
	ip.groupBuffer.WriteToBuffer(documents)
}

var (
	ErrNoName        = errors.New("received trace has no name")
	ErrParsePanicked = errors.New("parser panicked")
)
