package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/offlinify/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which covers tables, alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the batch summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.BatchSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeDocuments(md, summary)
	w.writeFailures(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteDocument outputs a single document report in Markdown format.
func (w *MarkdownWriter) WriteDocument(report *model.DocumentReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("offlinify Document Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + report.Source + "`"},
			{"Output", "`" + report.OutputDir + "`"},
			{"Processed", report.DateProcessed.Format(timeLayout)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
	w.writeResources(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with batch information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.BatchSummary) {
	md.H1("offlinify Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Input", "`" + summary.InputRoot + "`"},
			{"Output", "`" + summary.OutputRoot + "`"},
			{"Started", summary.Started.Format(timeLayout)},
			{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
		},
	})
	md.PlainText("")
}

// writeSummary writes the counters, the resource pie chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.BatchSummary) {
	fetched, placeholders := summary.ResourceTotals()

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(len(summary.Documents))},
			{"✅ Succeeded", strconv.Itoa(summary.Succeeded())},
			{"❌ Failed", strconv.Itoa(summary.Failed())},
			{"⏭️ Skipped", strconv.Itoa(summary.Skipped())},
			{"Fetched resources", strconv.Itoa(fetched)},
			{"Placeholder resources", strconv.Itoa(placeholders)},
		},
	})
	md.PlainText("")

	if fetched+placeholders > 0 {
		w.writePieChart(md, fetched, placeholders)
	}

	w.writeAlert(md, summary, placeholders)
}

// writePieChart writes a mermaid pie chart of fetched versus placeholder resources.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, fetched, placeholders int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Localized Resources"),
		piechart.WithShowData(true),
	)

	if fetched > 0 {
		chart.LabelAndIntValue("Fetched", uint64(fetched))
	}
	if placeholders > 0 {
		chart.LabelAndIntValue("Placeholder", uint64(placeholders))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert for the most important problem of the batch.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.BatchSummary, placeholders int) {
	switch {
	case summary.Failed() > 0:
		md.Cautionf("%d document(s) could not be cleaned and have no output directory.", summary.Failed())
	case gpsTotal(summary) > 0:
		md.Warningf("%d localized image(s) carry GPS coordinates in their EXIF metadata.", gpsTotal(summary))
	case placeholders > 0:
		md.Importantf("%d resource(s) could not be downloaded and were replaced by a placeholder.", placeholders)
	case summary.Skipped() > 0:
		md.Note("The batch was cancelled before every document was started.")
	default:
		md.Tip("Every document was cleaned and every resource was downloaded.")
	}
	md.PlainText("")
}

// writeDocuments writes one table row per document.
func (w *MarkdownWriter) writeDocuments(md *markdown.Markdown, summary *model.BatchSummary) {
	md.H2("Documents")
	md.PlainText("")

	if len(summary.Documents) == 0 {
		md.PlainText("No documents processed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(summary.Documents))
	for _, d := range summary.Documents {
		if d == nil {
			rows = append(rows, []string{"-", "⏭️ Skipped", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			"`" + d.Stem + "`",
			statusText(d),
			strconv.Itoa(len(d.Resources)),
			strconv.Itoa(d.PlaceholderCount()),
			strconv.Itoa(d.RemovedWallImages),
			strconv.Itoa(d.RemovedElements),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Stem", "Status", "Resources", "Placeholders", "Wall Images", "Removed Elements"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the error of every failed document.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.BatchSummary) {
	if summary.Failed() == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	for _, d := range summary.Documents {
		if d != nil && d.Failed() {
			md.Details(d.Source, d.ErrorMessage)
		}
	}
	md.PlainText("")
}

// writeResources writes the resource table of one document.
func (w *MarkdownWriter) writeResources(md *markdown.Markdown, report *model.DocumentReport) {
	md.H2("Resources")
	md.PlainText("")

	if len(report.Resources) == 0 {
		md.PlainText("No remote resources were referenced.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Resources))
	for i, r := range report.Resources {
		note := "-"
		switch {
		case r.Placeholder:
			note = "placeholder: " + truncateString(r.FailureReason, 40)
		case r.HasGPS:
			note = "⚠️ GPS in EXIF"
		}
		rows[i] = []string{
			"`" + r.LocalPath + "`",
			truncateString(r.URL, 60),
			strconv.Itoa(r.Size),
			note,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Local Path", "Source URL", "Bytes", "Note"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [offlinify](https://github.com/nao1215/offlinify)*")
}

// statusText returns the Markdown status of a document.
func statusText(report *model.DocumentReport) string {
	if report.Failed() {
		return "❌ Failed"
	}
	return "✅ Cleaned"
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
