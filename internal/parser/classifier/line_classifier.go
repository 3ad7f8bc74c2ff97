package classifier

import (
	"github.com/Avi18971911/DebugLens/internal/parser/model"
	"iter"
	"regexp"
	"strconv"
	"strings"
)

var headerPattern = regexp.MustCompile(`^(\d+\.\d+)\s+((?:[A-Za-z_]+,[A-Za-z]+;?)+)\s*$`)

type Header struct {
	APIVersion string
	LogLevels  map[string]string
}

type Stats struct {
	LineCount          int
	EventCount         int
	SkippedLines       int
	UnrecognizedEvents int
	ContinuationLines  int
	HasContent         bool
}

// EventStream lazily classifies a trace. Events can be iterated any number of
// times; every iteration rescans the text and refreshes Stats and Header.
type EventStream struct {
	text   string
	header Header
	stats  Stats
}

func NewEventStream(text string) *EventStream {
	return &EventStream{text: text}
}

// Stats is complete only after an iteration of Events ran to the end.
func (es *EventStream) Stats() Stats {
	return es.stats
}

func (es *EventStream) Header() Header {
	return es.header
}

func (es *EventStream) Events() iter.Seq[model.RawEvent] {
	return func(yield func(model.RawEvent) bool) {
		es.stats = Stats{}
		es.header = Header{}
		var pending *model.RawEvent
		for lineNumber, line := range Lines(es.text) {
			es.stats.LineCount = lineNumber
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			es.stats.HasContent = true
			if event, ok := ParseEventLine(line, lineNumber); ok {
				if pending != nil && !es.emit(*pending, yield) {
					return
				}
				pending = &event
				continue
			}
			if pending == nil {
				if header, ok := ParseHeader(trimmed); ok && es.header.APIVersion == "" {
					es.header = header
					continue
				}
				es.stats.SkippedLines++
				continue
			}
			pending.Continuation = append(pending.Continuation, trimmed)
			es.stats.ContinuationLines++
		}
		if pending != nil {
			es.emit(*pending, yield)
		}
	}
}

func (es *EventStream) emit(event model.RawEvent, yield func(model.RawEvent) bool) bool {
	es.stats.EventCount++
	if event.Category == model.CategoryUnrecognized {
		es.stats.UnrecognizedEvents++
	}
	return yield(event)
}

// Lines yields 1-based line numbers with the line content, without splitting
// the whole text up front.
func Lines(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		lineNumber := 0
		for len(text) > 0 {
			lineNumber++
			var line string
			if idx := strings.IndexByte(text, '\n'); idx >= 0 {
				line, text = text[:idx], text[idx+1:]
			} else {
				line, text = text, ""
			}
			if !yield(lineNumber, strings.TrimSuffix(line, "\r")) {
				return
			}
		}
	}
}

// ParseEventLine recognises "HH:MM:SS.f (NANOS)|CODE|field|...". Anything
// else returns false and is left to the caller to treat as a continuation or skip.
func ParseEventLine(line string, lineNumber int) (model.RawEvent, bool) {
	line = strings.TrimRight(line, "\r\n")
	space := strings.IndexByte(line, ' ')
	if space <= 0 || !isWallClock(line[:space]) {
		return model.RawEvent{}, false
	}
	rest := strings.TrimLeft(line[space+1:], " ")
	if !strings.HasPrefix(rest, "(") {
		return model.RawEvent{}, false
	}
	closing := strings.IndexByte(rest, ')')
	if closing < 2 {
		return model.RawEvent{}, false
	}
	nanos, err := strconv.ParseInt(rest[1:closing], 10, 64)
	if err != nil || nanos < 0 {
		return model.RawEvent{}, false
	}
	rest = rest[closing+1:]
	if !strings.HasPrefix(rest, "|") {
		return model.RawEvent{}, false
	}
	parts := strings.Split(rest[1:], "|")
	if !isEventCode(parts[0]) {
		return model.RawEvent{}, false
	}
	code := model.EventCode(parts[0])
	return model.RawEvent{
		Timestamp:  line[:space],
		Nanos:      nanos,
		Code:       code,
		Category:   CategoryOf(code),
		Fields:     parts[1:],
		LineNumber: lineNumber,
	}, true
}

func ParseHeader(line string) (Header, bool) {
	match := headerPattern.FindStringSubmatch(strings.TrimSpace(line))
	if match == nil {
		return Header{}, false
	}
	levels := make(map[string]string)
	for _, pair := range strings.Split(match[2], ";") {
		category, level, ok := strings.Cut(pair, ",")
		if ok {
			levels[category] = level
		}
	}
	return Header{APIVersion: match[1], LogLevels: levels}, true
}

func isWallClock(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != ':' && r != '.' {
			return false
		}
	}
	return true
}

func isEventCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}
