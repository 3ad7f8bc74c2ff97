package service

import (
	"github.com/Avi18971911/DebugLens/internal/metadata/model"
	"github.com/Avi18971911/DebugLens/internal/parser/classifier"
	"github.com/Avi18971911/DebugLens/internal/parser/ledger"
	parserModel "github.com/Avi18971911/DebugLens/internal/parser/model"
	"go.uber.org/zap"
	"regexp"
	"strings"
	"time"
)

const (
	defaultPrefixLines = 5000
	defaultSuffixLines = 1000
)

var idCandidate = regexp.MustCompile(`\b[a-zA-Z0-9]{15}(?:[a-zA-Z0-9]{3})?\b`)

type Options struct {
	PrefixLines int
	SuffixLines int
}

func DefaultOptions() Options {
	return Options{PrefixLines: defaultPrefixLines, SuffixLines: defaultSuffixLines}
}

type MetadataExtractorService interface {
	ExtractMetadata(text string, name string) model.DebugLogMetadata
	// ExtractMetadataAt anchors the trace's wall clock times on logDate's calendar day.
	ExtractMetadataAt(text string, name string, logDate time.Time) model.DebugLogMetadata
}

type MetadataExtractorServiceImpl struct {
	opts   Options
	logger *zap.Logger
}

func NewMetadataExtractorService(opts Options, logger *zap.Logger) MetadataExtractorService {
	if opts.PrefixLines <= 0 {
		opts.PrefixLines = defaultPrefixLines
	}
	if opts.SuffixLines <= 0 {
		opts.SuffixLines = defaultSuffixLines
	}
	return &MetadataExtractorServiceImpl{
		opts:   opts,
		logger: logger,
	}
}

func (mes *MetadataExtractorServiceImpl) ExtractMetadata(text string, name string) model.DebugLogMetadata {
	return mes.ExtractMetadataAt(text, name, time.Time{})
}

type scanState struct {
	firstWallClock string
	firstNanos     int64
	lastNanos      int64
	startNanos     int64
	finishNanos    int64
	anyEvent       bool
	startSeen      bool
	finishSeen     bool
}

func (mes *MetadataExtractorServiceImpl) ExtractMetadataAt(
	text string,
	name string,
	logDate time.Time,
) model.DebugLogMetadata {
	prefix, suffix, partial := splitPrefixSuffix(text, mes.opts.PrefixLines, mes.opts.SuffixLines)
	metadata := model.DebugLogMetadata{
		LogName:        name,
		Context:        parserModel.ContextInteractive,
		EntryPointType: parserModel.EntryUnknown,
		PartialRead:    partial,
	}
	state := &scanState{}
	limits := ledger.NewLedger()

	for event := range classifier.NewEventStream(prefix).Events() {
		mes.observe(event, state, &metadata, limits)
	}
	if suffix != "" {
		for event := range classifier.NewEventStream(suffix).Events() {
			mes.observe(event, state, &metadata, limits)
		}
	}

	if final := limits.Result().Defaults; len(final) > 0 {
		last := final[len(final)-1]
		metadata.SoqlQueries = last.SoqlQueries.Used
		metadata.DmlStatements = last.DmlStatements.Used
		metadata.QueryRows = last.QueryRows.Used
		metadata.CpuTimeMs = float64(last.CpuTime.Used)
	}

	switch {
	case state.startSeen && state.finishSeen:
		metadata.DurationMs = parserModel.NanosToMillis(state.finishNanos - state.startNanos)
	case state.anyEvent:
		metadata.DurationMs = parserModel.NanosToMillis(state.lastNanos - state.firstNanos)
	}
	if metadata.DurationMs < 0 {
		metadata.DurationMs = 0
	}

	if state.anyEvent {
		start, err := anchorWallClock(state.firstWallClock, logDate)
		if err != nil {
			mes.logger.Debug(
				"Failed to read wall clock time",
				zap.String("log_name", name),
				zap.String("timestamp", state.firstWallClock),
				zap.Error(err),
			)
		} else {
			metadata.Timestamp = start
			metadata.EndTimestamp = start.Add(time.Duration(metadata.DurationMs * float64(time.Millisecond)))
		}
	}
	return metadata
}

func (mes *MetadataExtractorServiceImpl) observe(
	event parserModel.RawEvent,
	state *scanState,
	metadata *model.DebugLogMetadata,
	limits *ledger.Ledger,
) {
	if event.Category == parserModel.CategoryUnrecognized {
		return
	}
	if !state.anyEvent {
		state.anyEvent = true
		state.firstWallClock = event.Timestamp
		state.firstNanos = event.Nanos
	}
	if event.Nanos > state.lastNanos {
		state.lastNanos = event.Nanos
	}
	limits.Consume(event)

	switch event.Code {
	case parserModel.ExecutionStarted:
		if !state.startSeen {
			state.startSeen = true
			state.startNanos = event.Nanos
		}
	case parserModel.ExecutionFinished:
		state.finishSeen = true
		state.finishNanos = event.Nanos
	case parserModel.UserInfo:
		for i, field := range event.Fields {
			if parserModel.IsUserId(field) {
				metadata.UserId = field
				if i+1 < len(event.Fields) {
					metadata.UserName = strings.TrimSpace(event.Fields[i+1])
				}
				break
			}
		}
		return
	case parserModel.CodeUnitStarted:
		if metadata.EntryPoint == "" {
			metadata.EntryPoint = parserModel.CodeUnitName(event.Fields)
			metadata.EntryPointType = parserModel.ClassifyEntryPoint(metadata.EntryPoint)
			metadata.Context = metadata.EntryPointType.Context()
		}
	case parserModel.FatalError:
		metadata.HasErrors = true
	}
	if metadata.RecordId == "" {
		metadata.RecordId = findRecordId(event)
	}
}

func findRecordId(event parserModel.RawEvent) string {
	for _, field := range event.Fields {
		for _, candidate := range idCandidate.FindAllString(field, -1) {
			if parserModel.IsRecordId(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// splitPrefixSuffix returns the first prefixLines lines and the last
// suffixLines lines. When the two overlap the whole text is the prefix and
// the suffix is empty.
func splitPrefixSuffix(text string, prefixLines int, suffixLines int) (string, string, bool) {
	prefixEnd := 0
	for i := 0; i < prefixLines && prefixEnd < len(text); i++ {
		next := strings.IndexByte(text[prefixEnd:], '\n')
		if next < 0 {
			prefixEnd = len(text)
			break
		}
		prefixEnd += next + 1
	}
	if prefixEnd >= len(text) {
		return text, "", false
	}

	suffixStart := len(strings.TrimRight(text, "\n"))
	for i := 0; i < suffixLines && suffixStart > 0; i++ {
		suffixStart = strings.LastIndexByte(text[:suffixStart], '\n')
		if suffixStart < 0 {
			suffixStart = 0
			break
		}
	}
	if suffixStart > 0 {
		suffixStart++
	}
	if suffixStart <= prefixEnd {
		return text, "", false
	}
	return text[:prefixEnd], text[suffixStart:], true
}

func anchorWallClock(wallClock string, logDate time.Time) (time.Time, error) {
	clock, err := time.Parse("15:04:05.999999999", wallClock)
	if err != nil {
		return time.Time{}, err
	}
	location := time.UTC
	year, month, day := 1, time.January, 1
	if !logDate.IsZero() {
		location = logDate.Location()
		year, month, day = logDate.Date()
	}
	return time.Date(
		year, month, day,
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(),
		location,
	), nil
}
