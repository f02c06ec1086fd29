package datasource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToF64(t *testing.T) {
	tests := []struct {
		in      any
		want    float64
		wantErr bool
	}{
		{nil, 0, false},
		{1.5, 1.5, false},
		{int64(3), 3, false},
		{"2.25", 2.25, false},
		{" 0.5 ", 0.5, false},
		{"0,5", 0, true},
		{"abc", 0, true},
		{true, 0, true},
		{[]any{1.0}, 0, true},
	}
	for _, tt := range tests {
		got, err := toF64(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDecodeConstants_RowErrors(t *testing.T) {
	tests := map[string]string{
		"bad number": `[{"datatype":"pot","name":"Clay","datafield_1":"lots","datafield_2":0}]`,
		"bad name":   `[{"datatype":"pot","name":7,"datafield_1":1,"datafield_2":0}]`,
		"not json":   `[{`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeConstants([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestDecodeConstants_ReportsRow(t *testing.T) {
	raw := `[
		{"datatype":"pot","name":"Clay","datafield_1":1,"datafield_2":0},
		{"datatype":"pot","name":"Steel","datafield_1":{},"datafield_2":0}
	]`

	_, err := decodeConstants([]byte(raw))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
	assert.Contains(t, err.Error(), "datafield_1")
}

func TestDecodeRecords_Empty(t *testing.T) {
	records, err := decodeRecords([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, records)
}
