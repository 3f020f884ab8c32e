package model

import "time"

// BatchSummary collects the reports of one batch run in input order.
type BatchSummary struct {
	// InputRoot is the directory (or file) the batch was started on.
	InputRoot string `json:"input_root"`

	// OutputRoot is the directory every document directory is created in.
	OutputRoot string `json:"output_root"`

	// Started is when the batch started.
	Started time.Time `json:"started"`

	// Elapsed is the total wall time of the batch, pauses included.
	Elapsed time.Duration `json:"elapsed"`

	// Documents holds one report per input file. Entries for documents that
	// were never started (cancelled batch) are nil.
	Documents []*DocumentReport `json:"documents"`
}

// NewBatchSummary creates an empty summary.
func NewBatchSummary(inputRoot, outputRoot string) *BatchSummary {
	return &BatchSummary{
		InputRoot:  inputRoot,
		OutputRoot: outputRoot,
		Started:    time.Now(),
		Documents:  make([]*DocumentReport, 0),
	}
}

// Succeeded returns the number of documents processed without error.
func (b *BatchSummary) Succeeded() int {
	n := 0
	for _, d := range b.Documents {
		if d != nil && !d.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of documents that failed.
func (b *BatchSummary) Failed() int {
	n := 0
	for _, d := range b.Documents {
		if d != nil && d.Failed() {
			n++
		}
	}
	return n
}

// Skipped returns the number of documents never started.
func (b *BatchSummary) Skipped() int {
	n := 0
	for _, d := range b.Documents {
		if d == nil {
			n++
		}
	}
	return n
}

// ResourceTotals returns the fetched and placeholder counts across all documents.
func (b *BatchSummary) ResourceTotals() (fetched, placeholders int) {
	for _, d := range b.Documents {
		if d == nil {
			continue
		}
		fetched += d.FetchedCount()
		placeholders += d.PlaceholderCount()
	}
	return fetched, placeholders
}
