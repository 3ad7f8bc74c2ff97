package model

import "time"

// TraceReceived is a raw trace that arrived over a live transport.
type TraceReceived struct {
	Name       string    `json:"name"`
	Text       string    `json:"text"`
	LogDate    time.Time `json:"log_date,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}
