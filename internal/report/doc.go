// Package report turns a flat collection of ledger entries into the derived
// views shown on the dashboard and in exports: period totals, a trailing
// twelve month series with savings and expense ratios, category breakdowns,
// filtered and paginated tables, and export payloads.
//
// Every function here is pure. The current time is always a parameter and
// the input slices are never modified.
package report
