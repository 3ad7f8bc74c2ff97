package handler

import (
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	"github.com/Avi18971911/DebugLens/internal/metrics"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"go.uber.org/zap"
	"net/http"
	"time"
)

// AnalyzeHandler creates a handler that fully parses one trace.
// @Summary Parse a debug log into an execution tree with detected issues and a health score.
// @Tags analysis
// @Accept json
// @Produce json
// @Param trace body TraceRequestDTO true "The trace to analyze"
// @Success 200 {object} model.LogAnalysis "The complete analysis"
// @Failure 400 {object} ErrorMessage "Invalid request payload"
// @Router /analyze [post]
func AnalyzeHandler(
	parser parserService.LogParserService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TraceRequestDTO
		if !decodeBody(w, r, &req, logger) {
			return
		}
		name := traceName(req.Name)
		logger.Info("Received analyze request", zap.String("log_name", name), zap.Int("bytes", len(req.Text)))

		started := time.Now()
		analysis := parser.Parse(req.Text, name)
		metrics.ObserveParse("http", started, analysis.IsLogTruncated)
		writeJSON(w, analysis, logger)
	}
}

// MetadataHandler creates a handler that extracts lightweight metadata from one trace.
// @Summary Extract the identity, timing and counters of a debug log without a full parse.
// @Tags analysis
// @Accept json
// @Produce json
// @Param trace body TraceRequestDTO true "The trace to read"
// @Success 200 {object} model.DebugLogMetadata "The trace metadata"
// @Failure 400 {object} ErrorMessage "Invalid request payload"
// @Router /metadata [post]
func MetadataHandler(
	extractor metadataService.MetadataExtractorService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TraceRequestDTO
		if !decodeBody(w, r, &req, logger) {
			return
		}
		var logDate time.Time
		if req.LogDate != nil {
			logDate = *req.LogDate
		}
		metadata := extractor.ExtractMetadataAt(req.Text, traceName(req.Name), logDate)
		writeJSON(w, metadata, logger)
	}
}
