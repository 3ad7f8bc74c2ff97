package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"github.com/Avi18971911/DebugLens/internal/pipeline/ingest/model"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonV1 "go.opentelemetry.io/proto/otlp/common/v1"
	v1 "go.opentelemetry.io/proto/otlp/logs/v1"
	"go.uber.org/zap"
	"time"
)

// LogNameAttribute names the trace carried in a log record's body.
const LogNameAttribute = "log.name"

type TraceSubmitter interface {
	Submit(trace model.TraceReceived) error
}

// LogServiceServerImpl receives debug logs over OTLP. Every log record body
// is one complete raw trace.
type LogServiceServerImpl struct {
	protoLogs.UnimplementedLogsServiceServer
	submitter TraceSubmitter
	logger    *zap.Logger
}

func NewLogServiceServerImpl(
	logger *zap.Logger,
	submitter TraceSubmitter,
) *LogServiceServerImpl {
	logger.Info("Creating new LogServiceServerImpl")
	return &LogServiceServerImpl{
		logger:    logger,
		submitter: submitter,
	}
}

func (lss *LogServiceServerImpl) Export(
	ctx context.Context,
	req *protoLogs.ExportLogsServiceRequest,
) (*protoLogs.ExportLogsServiceResponse, error) {
	var rejected int64
	var lastErr error
	receivedAt := time.Now().UTC()
	for _, resourceLogs := range req.ResourceLogs {
		for _, scopeLog := range resourceLogs.ScopeLogs {
			for _, record := range scopeLog.LogRecords {
				trace := typeTrace(record, receivedAt)
				if trace.Text == "" {
					rejected++
					lastErr = fmt.Errorf("log record %s has no body", trace.Name)
					continue
				}
				if err := lss.submitter.Submit(trace); err != nil {
					lss.logger.Error("Failed to submit received trace", zap.String("log_name", trace.Name), zap.Error(err))
					rejected++
					lastErr = err
				}
			}
		}
	}
	if rejected == 0 {
		return &protoLogs.ExportLogsServiceResponse{}, nil
	}
	return &protoLogs.ExportLogsServiceResponse{
		PartialSuccess: &protoLogs.ExportLogsPartialSuccess{
			RejectedLogRecords: rejected,
			ErrorMessage:       lastErr.Error(),
		},
	}, nil
}

func typeTrace(record *v1.LogRecord, receivedAt time.Time) model.TraceReceived {
	text := record.GetBody().GetStringValue()
	timestamp := record.TimeUnixNano
	if timestamp == 0 {
		timestamp = record.ObservedTimeUnixNano
	}
	var logDate time.Time
	if timestamp != 0 {
		at := time.Unix(0, int64(timestamp)).UTC()
		logDate = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	}
	name := stringAttribute(record.Attributes, LogNameAttribute)
	if name == "" {
		name = generateLogName(text)
	}
	return model.TraceReceived{
		Name:       name,
		Text:       text,
		LogDate:    logDate,
		ReceivedAt: receivedAt,
	}
}

func stringAttribute(attributes []*commonV1.KeyValue, key string) string {
	for _, attribute := range attributes {
		if attribute.GetKey() == key {
			return attribute.GetValue().GetStringValue()
		}
	}
	return ""
}

func generateLogName(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:8]) + ".log"
}
