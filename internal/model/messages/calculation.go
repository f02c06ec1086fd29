package messages

import (
	"time"

	"github.com/goccy/go-json"
)

// CalculationRequest arrives on advisor/request/{request_id}.
type CalculationRequest struct {
	RequestID string    `json:"request_id,omitempty"` // falls back to the topic suffix
	PotType   string    `json:"pot_type"`
	PlantType string    `json:"plant_type"`
	Season    string    `json:"season"`
	Diameter  float64   `json:"diameter"`
	Height    float64   `json:"height"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// CalculationResult is published by the advisor on advisor/result/{request_id}.
type CalculationResult struct {
	RequestID string          `json:"request_id"`
	Status    string          `json:"status"`           // "OK" | "FAIL"
	Code      string          `json:"code,omitempty"`   // machine-readable failure code
	Reason    string          `json:"reason,omitempty"` // human-readable failure reason
	Report    json.RawMessage `json:"report,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	StatusOK   = "OK"
	StatusFail = "FAIL"
)
