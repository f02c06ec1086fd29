// Package calculator holds the pot watering arithmetic: pot volume from its
// dimensions, water and fertilizer recommendations from the constants table,
// and statistics over similar historical plantings.
//
// Every function is pure. Tables are passed in by the caller and never
// modified, so calls are safe to run concurrently. Inputs are not validated
// here: a NaN or negative dimension yields a degenerate number, not an error.
package calculator
