package event_bus

import (
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/metrics"
	"github.com/asaskevich/EventBus"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"runtime/debug"
)

// Topic names one stage boundary of the ingest pipeline.
type Topic string

const (
	TopicTraceReceived  Topic = "trace_received"
	TopicAnalysisOutput Topic = "analysis_output"
	TopicMetadataOutput Topic = "metadata_output"
)

const (
	OutcomePublished   = "published"
	OutcomeHandled     = "handled"
	OutcomeFailed      = "failed"
	OutcomeUndecodable = "undecodable"
	OutcomePanicked    = "panicked"
)

// DebugLensEventBus is a typed view over a shared EventBus. Payloads travel as
// JSON strings so each subscriber receives its own copy. A handler that fails
// or panics is logged and counted; the bus keeps delivering.
type DebugLensEventBus[InputType any, OutputType any] interface {
	Subscribe(topic Topic, handler func(input InputType) error, transactional bool) error
	Publish(topic Topic, arg OutputType) error
}

type DebugLensEventBusImpl[InputType any, OutputType any] struct {
	eventBus EventBus.Bus
	logger   *zap.Logger
}

func NewDebugLensEventBus[InputType any, OutputType any](
	eventBus EventBus.Bus,
	logger *zap.Logger,
) DebugLensEventBus[InputType, OutputType] {
	return &DebugLensEventBusImpl[InputType, OutputType]{
		eventBus: eventBus,
		logger:   logger,
	}
}

func (ev *DebugLensEventBusImpl[InputType, OutputType]) Subscribe(
	topic Topic,
	handler func(input InputType) error,
	transactional bool,
) error {
	err := ev.eventBus.SubscribeAsync(
		string(topic),
		func(arg string) {
			metrics.BusEvents.WithLabelValues(string(topic), ev.deliver(topic, arg, handler)).Inc()
		},
		transactional,
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

func (ev *DebugLensEventBusImpl[InputType, OutputType]) deliver(
	topic Topic,
	arg string,
	handler func(input InputType) error,
) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			ev.logger.Error("Recovered from panic in handler of topic",
				zap.String("topic", string(topic)),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			outcome = OutcomePanicked
		}
	}()

	var input InputType
	err := json.Unmarshal([]byte(arg), &input)
	if err != nil {
		ev.logger.Error("Failed to unmarshal input during subscription of topic",
			zap.String("topic", string(topic)),
			zap.Int("payload_bytes", len(arg)),
			zap.Error(err),
		)
		return OutcomeUndecodable
	}
	err = handler(input)
	if err != nil {
		ev.logger.Error("Failed to handle input during subscription of topic",
			zap.String("topic", string(topic)),
			zap.Error(err),
		)
		return OutcomeFailed
	}
	return OutcomeHandled
}

func (ev *DebugLensEventBusImpl[InputType, OutputType]) Publish(
	topic Topic,
	arg OutputType,
) error {
	argBytes, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("failed to marshal output during publishing of topic %s: %w", topic, err)
	}
	ev.eventBus.Publish(string(topic), string(argBytes))
	metrics.BusEvents.WithLabelValues(string(topic), OutcomePublished).Inc()
	return nil
}
