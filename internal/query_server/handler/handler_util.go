package handler

import (
	"errors"
	"github.com/Avi18971911/DebugLens/internal/query_server/service/report"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 64 << 20
const defaultTraceName = "untitled.log"

func HttpError(w http.ResponseWriter, message string, code int, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(ErrorMessage{Message: message})
	if err != nil {
		logger.Error("Error encountered when encoding error message", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, value interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		logger.Error("Error encountered when encoding response", zap.Error(err))
	}
}

// decodeBody reads a JSON request body into req and closes it.
func decodeBody(w http.ResponseWriter, r *http.Request, req interface{}, logger *zap.Logger) bool {
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Error("Error encountered when closing request body", zap.Error(err))
		}
	}(r.Body)

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(req)
	if err != nil {
		logger.Error("Error encountered when decoding request body", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HttpError(w, "Request body too large", http.StatusRequestEntityTooLarge, logger)
			return false
		}
		HttpError(w, "Invalid request payload", http.StatusBadRequest, logger)
		return false
	}
	return true
}

func traceName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return defaultTraceName
	}
	return name
}

func searchParamsFromQuery(r *http.Request) (report.SearchParams, error) {
	query := r.URL.Query()
	var params report.SearchParams
	if v := query.Get("user_id"); v != "" {
		params.UserId = &v
	}
	if v := query.Get("grade"); v != "" {
		grade := strings.ToUpper(v)
		params.Grade = &grade
	}
	if v := query.Get("start_time"); v != "" {
		params.StartTime = &v
	}
	if v := query.Get("end_time"); v != "" {
		params.EndTime = &v
	}
	if v := query.Get("transaction_failed"); v != "" {
		failed, err := strconv.ParseBool(v)
		if err != nil {
			return report.SearchParams{}, ErrInvalidFailedFilter
		}
		params.TransactionFailed = &failed
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return report.SearchParams{}, ErrInvalidLimit
		}
		params.Limit = limit
	}
	return params, nil
}

var (
	ErrNoMetadata          = errors.New("no metadata provided")
	ErrNegativeWindow      = errors.New("window_seconds must not be negative")
	ErrInvalidFailedFilter = errors.New("transaction_failed must be true or false")
	ErrInvalidLimit        = errors.New("limit must be a non-negative integer")
)
