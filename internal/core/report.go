package core

import (
	"fmt"
	"sort"
)

// RowStatus is the final state of one row after persistence.
type RowStatus int

const (
	RowSucceeded RowStatus = iota
	RowSkipped
	RowPersistFailed
)

// rowResult is what a row worker hands to the aggregator.
type rowResult struct {
	index      int // 0-based data row index
	status     RowStatus
	inserted   bool
	errors     []RowError
	notStarted bool // the import stopped before this row
}

// Aggregator accumulates per-row results into an ImportResult.
// It is not safe for concurrent use; the import loop owns it.
type Aggregator struct {
	totalRows int
	processed int
	inserted  int
	errors    []RowError
}

// NewAggregator creates an aggregator for an import of totalRows rows.
func NewAggregator(totalRows int) *Aggregator {
	return &Aggregator{totalRows: totalRows}
}

// Add records one row. Rows must be added in row order.
func (a *Aggregator) Add(status RowStatus, errs []RowError) {
	if status == RowSucceeded {
		a.processed++
	}
	a.errors = append(a.errors, errs...)
}

// AddError records an error that belongs to no single processed row,
// such as early termination.
func (a *Aggregator) AddError(err RowError) {
	a.errors = append(a.errors, err)
}

func (a *Aggregator) addResult(r rowResult) {
	a.Add(r.status, r.errors)
	if r.status == RowSucceeded && r.inserted {
		a.inserted++
	}
}

// Inserted returns how many persisted rows created a new document.
func (a *Aggregator) Inserted() int {
	return a.inserted
}

// Processed returns the number of rows persisted so far.
func (a *Aggregator) Processed() int {
	return a.processed
}

// Result builds the final ImportResult.
func (a *Aggregator) Result() *ImportResult {
	messages := make([]string, len(a.errors))
	for i, e := range a.errors {
		messages[i] = e.Message()
	}

	return &ImportResult{
		Message:        summarize(a.processed, len(messages)),
		ProcessedCount: a.processed,
		TotalRows:      a.totalRows,
		Errors:         messages,
		Success:        a.processed > 0,
	}
}

func summarize(processed, errCount int) string {
	switch {
	case processed == 0 && errCount == 0:
		return "No rows were imported"
	case errCount == 0:
		return fmt.Sprintf("Import completed successfully: %d rows processed", processed)
	default:
		return fmt.Sprintf("Import completed with %d successes and %d failures", processed, errCount)
	}
}

// sortResults orders worker output by row index. Row errors inside one
// result are already in field order.
func sortResults(results []rowResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})
}
