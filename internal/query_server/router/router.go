package router

import (
	groupingService "github.com/Avi18971911/DebugLens/internal/grouping/service"
	metadataService "github.com/Avi18971911/DebugLens/internal/metadata/service"
	parserService "github.com/Avi18971911/DebugLens/internal/parser/service"
	"github.com/Avi18971911/DebugLens/internal/query_server/handler"
	"github.com/Avi18971911/DebugLens/internal/query_server/service/report"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"net/http"
)

// CreateRouter wires every endpoint. The report endpoints are only served
// when reportService is not nil.
func CreateRouter(
	parser parserService.LogParserService,
	extractor metadataService.MetadataExtractorService,
	grouper groupingService.TransactionGrouperService,
	reportService report.ReportQueryService,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle("/analyze", handler.AnalyzeHandler(parser, logger)).Methods("POST")
	r.Handle("/metadata", handler.MetadataHandler(extractor, logger)).Methods("POST")
	r.Handle("/group", handler.GroupHandler(grouper, logger)).Methods("POST")

	if reportService != nil {
		r.Handle("/analyses", handler.AnalysesHandler(reportService, logger)).Methods("GET")
		r.Handle("/analyses/count", handler.AnalysesCountHandler(reportService, logger)).Methods("GET")
		r.Handle("/groups", handler.GroupsHandler(reportService, logger)).Methods("GET")
	}

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return r
}
