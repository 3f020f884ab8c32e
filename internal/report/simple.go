package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/offlinify/internal/model"
)

// timeLayout is the timestamp layout used by the text and Markdown reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output can be piped to files unchanged.
type SimpleWriter struct {
	baseWriter

	// verbose lists every resource of every document.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-resource details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the batch summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.BatchSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeTotals(&sb, summary)

	writeRule(&sb, "-")
	sb.WriteString("DOCUMENTS\n")
	writeRule(&sb, "-")
	sb.WriteString("\n")
	for i, d := range summary.Documents {
		if d == nil {
			sb.WriteString(fmt.Sprintf("  [%d] skipped (batch cancelled)\n\n", i+1))
			continue
		}
		w.writeDocument(&sb, d)
	}

	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteDocument outputs a single document report in human-readable format.
func (w *SimpleWriter) WriteDocument(report *model.DocumentReport) (int, error) {
	var sb strings.Builder
	w.writeDocument(&sb, report)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with batch information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.BatchSummary) {
	sb.WriteString("\n")
	writeRule(sb, "=")
	sb.WriteString("                         OFFLINIFY REPORT\n")
	writeRule(sb, "=")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Input:    %s\n", summary.InputRoot))
	sb.WriteString(fmt.Sprintf("Output:   %s\n", summary.OutputRoot))
	sb.WriteString(fmt.Sprintf("Started:  %s\n", summary.Started.Format(timeLayout)))
	sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", summary.Elapsed.Round(time.Millisecond)))
	sb.WriteString("\n")
}

// writeTotals writes the aggregate counters.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, summary *model.BatchSummary) {
	fetched, placeholders := summary.ResourceTotals()

	writeRule(sb, "-")
	sb.WriteString("SUMMARY\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  DOCUMENTS:    %d\n", len(summary.Documents)))
	sb.WriteString(fmt.Sprintf("  SUCCEEDED:    %d\n", summary.Succeeded()))
	sb.WriteString(fmt.Sprintf("  FAILED:       %d\n", summary.Failed()))
	if skipped := summary.Skipped(); skipped > 0 {
		sb.WriteString(fmt.Sprintf("  SKIPPED:      %d\n", skipped))
	}
	sb.WriteString(fmt.Sprintf("  FETCHED:      %d\n", fetched))
	sb.WriteString(fmt.Sprintf("  PLACEHOLDERS: %d\n", placeholders))
	if gps := gpsTotal(summary); gps > 0 {
		sb.WriteString(fmt.Sprintf("  GPS IMAGES:   %d (location metadata kept in files)\n", gps))
	}
	sb.WriteString("\n")
}

// writeDocument writes the details of one document.
func (w *SimpleWriter) writeDocument(sb *strings.Builder, d *model.DocumentReport) {
	sb.WriteString(fmt.Sprintf("[%s] %s\n", strings.ToUpper(documentStatus(d)), d.Source))
	if d.Failed() {
		sb.WriteString(fmt.Sprintf("    Error:       %s\n", d.ErrorMessage))
		sb.WriteString("\n")
		return
	}

	sb.WriteString(fmt.Sprintf("    Output:      %s\n", d.OutputDir))
	sb.WriteString(fmt.Sprintf("    Resources:   %d (%d placeholder)\n", len(d.Resources), d.PlaceholderCount()))
	sb.WriteString(fmt.Sprintf("    Removed:     %d elements, %d attributes, %d wall images\n",
		d.RemovedElements, d.RemovedAttributes, d.RemovedWallImages))
	sb.WriteString(fmt.Sprintf("    Anchors:     %d rewritten\n", d.RewrittenAnchors))
	sb.WriteString(fmt.Sprintf("    Scrubbed:    %d URLs\n", d.ScrubbedURLs))

	if w.verbose {
		for _, r := range d.Resources {
			line := fmt.Sprintf("      %s <- %s", r.LocalPath, r.URL)
			if r.Placeholder {
				line += " (placeholder: " + r.FailureReason + ")"
			}
			if r.HasGPS {
				line += " (GPS)"
			}
			sb.WriteString(line + "\n")
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	writeRule(sb, "=")
	sb.WriteString("Report generated by offlinify\n")
	sb.WriteString("https://github.com/nao1215/offlinify\n")
	writeRule(sb, "=")
}

// writeRule writes a 70 character horizontal rule.
func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, 70))
	sb.WriteString("\n")
}
