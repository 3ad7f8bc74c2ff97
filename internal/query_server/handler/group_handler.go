package handler

import (
	groupingService "github.com/Avi18971911/DebugLens/internal/grouping/service"
	"github.com/Avi18971911/DebugLens/internal/metrics"
	"go.uber.org/zap"
	"net/http"
	"time"
)

// GroupHandler creates a handler that reconstructs user transactions.
// @Summary Group trace metadata into per-user transactions with phases and recommendations.
// @Tags grouping
// @Accept json
// @Produce json
// @Param metadata body GroupRequestDTO true "The metadata to group"
// @Success 200 {object} model.Interaction "The groups and the span they cover"
// @Failure 400 {object} ErrorMessage "Invalid request payload"
// @Router /group [post]
func GroupHandler(
	grouper groupingService.TransactionGrouperService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GroupRequestDTO
		if !decodeBody(w, r, &req, logger) {
			return
		}
		if err := validateGroupRequest(req); err != nil {
			logger.Error("Error encountered when validating request", zap.Error(err))
			HttpError(w, err.Error(), http.StatusBadRequest, logger)
			return
		}
		window := time.Duration(req.WindowSeconds * float64(time.Second))
		interaction := grouper.BuildInteraction(req.Metadata, nil, window)
		metrics.GroupsBuilt.Add(float64(len(interaction.Groups)))
		writeJSON(w, interaction, logger)
	}
}

func validateGroupRequest(req GroupRequestDTO) error {
	if len(req.Metadata) == 0 {
		return ErrNoMetadata
	}
	if req.WindowSeconds < 0 {
		return ErrNegativeWindow
	}
	return nil
}
