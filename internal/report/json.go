package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/offlinify/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is written into batch reports when non-empty.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the generating offlinify version in batch reports.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// BatchTotals are the aggregate counters of a batch.
type BatchTotals struct {
	Documents    int `json:"documents"`
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
	Fetched      int `json:"fetched"`
	Placeholders int `json:"placeholders"`
	GPSImages    int `json:"gps_images"`
}

// JSONReport wraps a batch summary with version and totals.
//
// Design decision: We wrap the summary rather than adding fields to
// BatchSummary so that output-only data stays out of the model.
type JSONReport struct {
	// Version is the offlinify version that generated this report.
	Version string `json:"version,omitempty"`

	// Totals are the aggregate counters.
	Totals BatchTotals `json:"totals"`

	// Batch is the full batch summary.
	Batch *model.BatchSummary `json:"batch"`
}

// NewJSONReport creates a JSONReport for summary.
func NewJSONReport(summary *model.BatchSummary, version string) *JSONReport {
	fetched, placeholders := summary.ResourceTotals()
	return &JSONReport{
		Version: version,
		Totals: BatchTotals{
			Documents:    len(summary.Documents),
			Succeeded:    summary.Succeeded(),
			Failed:       summary.Failed(),
			Skipped:      summary.Skipped(),
			Fetched:      fetched,
			Placeholders: placeholders,
			GPSImages:    gpsTotal(summary),
		},
		Batch: summary,
	}
}

// Write outputs the batch summary in JSON format.
func (w *JSONWriter) Write(summary *model.BatchSummary) (int, error) {
	return w.writeJSON(NewJSONReport(summary, w.version))
}

// WriteDocument outputs a single document report in JSON format.
func (w *JSONWriter) WriteDocument(report *model.DocumentReport) (int, error) {
	return w.writeJSON(report)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}
