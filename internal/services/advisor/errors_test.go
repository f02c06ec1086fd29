package advisor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeonardoBeccarini/plantcare/internal/calculator"
	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/metrics"
	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
	"github.com/LeonardoBeccarini/plantcare/internal/validation"
)

func TestErrorCode(t *testing.T) {
	lookup := &calculator.LookupError{Datatype: entities.DatatypePot, Name: "Tin"}
	tests := []struct {
		name    string
		err     error
		code    string
		outcome string
	}{
		{"validation", &validation.Error{}, CodeInvalidInput, metrics.OutcomeInvalid},
		{"lookup", lookup, CodeUnknownSelection, metrics.OutcomeLookup},
		{"wrapped lookup", fmt.Errorf("calc: %w", lookup), CodeUnknownSelection, metrics.OutcomeLookup},
		{"fetch", unavailable(datasource.TableConstants), CodeDataUnavailable, metrics.OutcomeFetchError},
		{"deadline", context.DeadlineExceeded, CodeDataUnavailable, metrics.OutcomeFetchError},
		{"other", errors.New("boom"), CodeInternal, metrics.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
			assert.Equal(t, tt.outcome, outcome(tt.err))
		})
	}
	assert.Equal(t, metrics.OutcomeOK, outcome(nil))
}

func TestErrorDetails(t *testing.T) {
	d := ErrorDetails(&calculator.LookupError{Datatype: entities.DatatypeSeason, Name: "Monsoon"})
	assert.Equal(t, map[string]any{"datatype": "season", "name": "Monsoon"}, d)

	verr := &validation.Error{Fields: []validation.FieldError{{Field: "height", Tag: "gte"}}}
	assert.Equal(t, verr.Fields, ErrorDetails(verr)["fields"])

	assert.Nil(t, ErrorDetails(errors.New("boom")))
}
