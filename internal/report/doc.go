// Package report provides batch report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: GitHub flavored Markdown with tables and a pie chart
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so that new output formats never touch
// the pipeline that fills the reports in.
package report
