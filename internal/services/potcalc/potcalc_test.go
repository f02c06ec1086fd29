package potcalc

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/plantcare/internal/datasource"
	"github.com/LeonardoBeccarini/plantcare/internal/services/advisor"
)

const constantsJSON = `[
  {"datatype":"pot","name":"Clay","datafield_1":1.2,"datafield_2":0},
  {"datatype":"pot","name":"Plastic","datafield_1":1.0,"datafield_2":0},
  {"datatype":"species","name":"Tomato","datafield_1":1.5,"datafield_2":0.8},
  {"datatype":"season","name":"Summer","datafield_1":1.5,"datafield_2":0.3}
]`

const recordsJSON = `[
  {"pot_type":"Clay","plant_type":"Tomato","time_of_year":"Summer","pot_volume":5600,"actual_water":1.0,"recommended_water":1.0,"growth_rate":2.5,"crop_yield":4.0},
  {"pot_type":"Clay","plant_type":"Tomato","time_of_year":"Summer","pot_volume":5800,"actual_water":0.7,"recommended_water":1.0,"growth_rate":1.5,"crop_yield":2.0},
  {"pot_type":"Clay","plant_type":"Tomato","time_of_year":"Summer","pot_volume":5500,"actual_water":1.3,"recommended_water":1.0,"growth_rate":2.0,"crop_yield":3.0}
]`

func writeTables(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, datasource.ConstantsFile), []byte(constantsJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, datasource.RecordsFile), []byte(recordsJSON), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var calcArgs = []string{"calc", "--pot", "Clay", "--plant", "Tomato", "--season", "Summer", "--diameter", "20", "--height", "18"}

func TestCalcTable(t *testing.T) {
	dir := writeTables(t)
	out, err := execute(t, append(calcArgs, "--data", dir)...)
	require.NoError(t, err)

	assert.Contains(t, out, "Pot size:    5.7")
	assert.Contains(t, out, "Water:       1.0 liters")
	assert.Contains(t, out, "Fertilizer:  0.31 units")
	assert.Regexp(t, `similar\s+3\s+2.0\s+3.0`, out)
	assert.Regexp(t, `similar water\s+1\s+2.5\s+4.0`, out)
	assert.Regexp(t, `less water\s+1\s+1.5\s+2.0`, out)
	assert.Regexp(t, `more water\s+1\s+2.0\s+3.0`, out)
}

func TestCalcJSON(t *testing.T) {
	dir := writeTables(t)
	out, err := execute(t, append(calcArgs, "--data", dir, "--json")...)
	require.NoError(t, err)

	var rep advisor.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 3, rep.Similarity.Similar.Count)
	assert.InDelta(t, 1.0178760197630929, rep.Recommendation.Water, 1e-9)
}

func TestCalcErrors(t *testing.T) {
	dir := writeTables(t)

	_, err := execute(t, "calc", "--data", dir, "--pot", "Tin", "--plant", "Tomato", "--season", "Summer", "-d", "1", "-H", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown pot type "Tin"`)

	_, err = execute(t, "calc", "--data", dir, "--pot", "Clay", "--plant", "Tomato", "--season", "Summer", "-d", "-1", "-H", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diameter")

	_, err = execute(t, "calc", "--data", dir, "--pot", "Clay")
	require.Error(t, err, "required flags are enforced")

	_, err = execute(t, append(calcArgs, "--data", filepath.Join(dir, "missing"))...)
	var ferr *datasource.FetchError
	assert.ErrorAs(t, err, &ferr)
}

func TestOptions(t *testing.T) {
	dir := writeTables(t)
	out, err := execute(t, "options", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Pot types:      Clay, Plastic")
	assert.Contains(t, out, "Plant species:  Tomato")
	assert.Contains(t, out, "Seasons:        Summer")
}

func TestRemote(t *testing.T) {
	dir := writeTables(t)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := advisor.NewGRPCServer(advisor.NewService(datasource.NewFileSource(dir)))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	out, err := execute(t, append(calcArgs, "--remote", lis.Addr().String(), "--json")...)
	require.NoError(t, err)
	var rep advisor.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "5.7", rep.Display.PotSize)
	assert.NotEmpty(t, rep.RequestID)

	_, err = execute(t, "calc", "--remote", lis.Addr().String(), "--pot", "Clay", "--plant", "Fern", "--season", "Summer", "-d", "1", "-H", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), advisor.CodeUnknownSelection)
}
