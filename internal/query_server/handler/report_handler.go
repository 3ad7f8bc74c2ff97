package handler

import (
	"github.com/Avi18971911/DebugLens/internal/query_server/service/report"
	"go.uber.org/zap"
	"net/http"
)

// AnalysesHandler creates a handler for searching stored analyses.
// @Summary Search analyses stored by the ingest pipeline, newest first.
// @Tags reports
// @Produce json
// @Param user_id query string false "Only analyses of this user"
// @Param grade query string false "Only analyses with this health grade"
// @Param transaction_failed query bool false "Only failed or only successful transactions"
// @Param start_time query string false "Parsed at or after"
// @Param end_time query string false "Parsed at or before"
// @Param limit query int false "Maximum number of results"
// @Success 200 {array} model.AnalysisDocument "Matching analyses"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /analyses [get]
func AnalysesHandler(
	s report.ReportQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := readSearchParams(w, r, logger)
		if !ok {
			return
		}
		documents, err := s.SearchAnalyses(r.Context(), params)
		if err != nil {
			logger.Error("Error encountered when searching analyses", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		writeJSON(w, documents, logger)
	}
}

// AnalysesCountHandler creates a handler for counting stored analyses.
// @Summary Count analyses matching the same filters as /analyses.
// @Tags reports
// @Produce json
// @Success 200 {object} CountResponseDTO "Number of matching analyses"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /analyses/count [get]
func AnalysesCountHandler(
	s report.ReportQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := readSearchParams(w, r, logger)
		if !ok {
			return
		}
		count, err := s.CountAnalyses(r.Context(), params)
		if err != nil {
			logger.Error("Error encountered when counting analyses", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		writeJSON(w, CountResponseDTO{Count: count}, logger)
	}
}

// GroupsHandler creates a handler for searching stored transaction groups.
// @Summary Search transaction groups stored by the ingest pipeline, newest first.
// @Tags reports
// @Produce json
// @Success 200 {array} model.GroupDocument "Matching groups"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /groups [get]
func GroupsHandler(
	s report.ReportQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, ok := readSearchParams(w, r, logger)
		if !ok {
			return
		}
		groups, err := s.SearchGroups(r.Context(), params)
		if err != nil {
			logger.Error("Error encountered when searching groups", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
		writeJSON(w, groups, logger)
	}
}

func readSearchParams(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (report.SearchParams, bool) {
	params, err := searchParamsFromQuery(r)
	if err != nil {
		logger.Error("Error encountered when validating request", zap.Error(err))
		HttpError(w, err.Error(), http.StatusBadRequest, logger)
		return report.SearchParams{}, false
	}
	return params, true
}
