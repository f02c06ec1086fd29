package advisor

import (
	"context"
	"errors"

	"github.com/LeonardoBeccarini/plantcare/internal/calculator"
	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/validation"
)

// Error codes shared by every transport.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnknownSelection = "UNKNOWN_SELECTION"
	CodeDataUnavailable  = "DATA_UNAVAILABLE"
	CodeInternal         = "INTERNAL"
)

// ErrorCode classifies err into one of the codes above.
func ErrorCode(err error) string {
	var (
		verr *validation.Error
		lerr *calculator.LookupError
		ferr *datasource.FetchError
	)
	switch {
	case errors.As(err, &verr):
		return CodeInvalidInput
	case errors.As(err, &lerr):
		return CodeUnknownSelection
	case errors.As(err, &ferr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CodeDataUnavailable
	default:
		return CodeInternal
	}
}

// ErrorDetails returns structured detail for validation and lookup errors.
func ErrorDetails(err error) map[string]any {
	var (
		verr *validation.Error
		lerr *calculator.LookupError
	)
	switch {
	case errors.As(err, &verr):
		return map[string]any{"fields": verr.Fields}
	case errors.As(err, &lerr):
		return map[string]any{"datatype": string(lerr.Datatype), "name": lerr.Name}
	default:
		return nil
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	switch ErrorCode(err) {
	case CodeInvalidInput:
		return metrics.OutcomeInvalid
	case CodeUnknownSelection:
		return metrics.OutcomeLookup
	case CodeDataUnavailable:
		return metrics.OutcomeFetchError
	default:
		return metrics.OutcomeError
	}
}
