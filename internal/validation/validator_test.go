package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string  `json:"name" validate:"required"`
	Size   float64 `json:"size" validate:"finite,gte=0"`
	Mode   string  `koanf:"mode" validate:"oneof=file http"`
	Hidden string  `json:"-"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "Clay", Size: 0, Mode: "file"}))
}

func TestStruct_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		field   string
		tag     string
		message string
	}{
		{"missing name", sample{Size: 1, Mode: "file"}, "name", "required", "name is required"},
		{"negative size", sample{Name: "x", Size: -1, Mode: "file"}, "size", "gte", "size must be greater than or equal to 0"},
		{"nan size", sample{Name: "x", Size: math.NaN(), Mode: "file"}, "size", "finite", "size must be a finite number"},
		{"inf size", sample{Name: "x", Size: math.Inf(1), Mode: "file"}, "size", "finite", "size must be a finite number"},
		{"bad mode", sample{Name: "x", Mode: "ftp"}, "mode", "oneof", "mode must be one of: file http"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			require.Error(t, err)

			var verr *Error
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.tag, verr.Fields[0].Tag)
			assert.Equal(t, tt.message, verr.Fields[0].Message)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestStruct_MultipleFields(t *testing.T) {
	err := Struct(sample{Size: -2, Mode: "file"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, "name is required; size must be greater than or equal to 0", err.Error())
}

func TestGetValidator_Singleton(t *testing.T) {
	assert.Same(t, GetValidator(), GetValidator())
}
