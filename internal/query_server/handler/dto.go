package handler

import (
	metadataModel "github.com/Avi18971911/DebugLens/internal/metadata/model"
	"time"
)

// TraceRequestDTO carries one raw trace
// @swagger:model TraceRequestDTO
type TraceRequestDTO struct {
	// The name of the trace, usually its file name
	Name string `json:"name"`
	// The raw debug log text
	Text string `json:"text"`
	// The calendar day the trace ran on, used to anchor its wall clock times
	LogDate *time.Time `json:"log_date,omitempty"`
}

// GroupRequestDTO carries the metadata of the traces to group
// @swagger:model GroupRequestDTO
type GroupRequestDTO struct {
	Metadata []metadataModel.DebugLogMetadata `json:"metadata"`
	// The maximum gap between two traces of one transaction, 10 seconds if omitted
	WindowSeconds float64 `json:"window_seconds,omitempty"`
}

// CountResponseDTO is the number of stored analyses matching a search
// @swagger:model CountResponseDTO
type CountResponseDTO struct {
	Count int64 `json:"count"`
}

// ErrorMessage is the body of every failed request
// @swagger:model ErrorMessage
type ErrorMessage struct {
	Message string `json:"message"`
}
