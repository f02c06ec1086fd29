// Package datasource fetches the two read-only tables the advisor works on:
// the constants table (pot, species and season coefficients) and the
// historical planting records.
//
// Every implementation reports failures as *FetchError; an unreachable or
// malformed table is never returned as an empty one.
package datasource

import (
	"context"
	"fmt"

	"github.com/LeonardoBeccarini/plantcare/internal/model/entities"
)

// Table identifies one of the two tables.
type Table string

const (
	TableConstants Table = "constants"
	TableRecords   Table = "records"
)

// Source provides both tables.
type Source interface {
	Constants(ctx context.Context) ([]entities.ConstantRecord, error)
	Records(ctx context.Context) ([]entities.HistoricalRecord, error)
	// Name labels the source in logs and metrics.
	Name() string
}

// FetchError reports a failed table fetch.
type FetchError struct {
	Source string
	Table  Table
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Table, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func fetchErr(source string, table Table, err error) error {
	return &FetchError{Source: source, Table: table, Err: err}
}
