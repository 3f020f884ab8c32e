package report

import (
	"io"

	"github.com/nao1215/offlinify/internal/model"
)

// Writer defines the interface for report output.
// Implementations write batch results in various formats.
type Writer interface {
	// Write outputs the summary of a whole batch.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.BatchSummary) (int, error)

	// WriteDocument outputs the report of a single document.
	WriteDocument(report *model.DocumentReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface writes reports,
// not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.BatchSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteDocument outputs the document report to all configured Writers.
func (m *MultiWriter) WriteDocument(report *model.DocumentReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteDocument(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// documentStatus returns a short status for a document slot of a batch.
func documentStatus(report *model.DocumentReport) string {
	switch {
	case report == nil:
		return "skipped"
	case report.Failed():
		return "failed"
	default:
		return "ok"
	}
}

// gpsTotal returns the number of localized images carrying GPS data.
func gpsTotal(summary *model.BatchSummary) int {
	n := 0
	for _, d := range summary.Documents {
		if d != nil {
			n += d.GPSCount()
		}
	}
	return n
}
