package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/offlinify/internal/config"
	"github.com/nao1215/offlinify/internal/database"
	"github.com/nao1215/offlinify/internal/report"
)

// NewHistoryCmd creates the history command.
// This command reads the run ledger written by clean.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [stem]",
		Short: "Show previously cleaned documents",
		Long: `History lists what clean has recorded in the history database.

Without arguments it lists every stem that has been cleaned. With a stem it
lists every run of that document, newest first. Output directories are
replaced on each run, so the history is the only record of earlier runs.

Examples:
  # List all cleaned documents
  offlinify history

  # Show every run of one document
  offlinify history my-article

  # Show the full report of one run, including its resources
  offlinify history --id 12

  # Machine readable output
  offlinify history --json my-article`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Show the full report of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the --id report in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	// Reading never creates the database.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No history recorded yet. Run 'offlinify clean' first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	switch {
	case id > 0:
		return showRun(ctx, db, id, out, jsonOutput, markdownOutput)
	case len(args) == 1:
		return listRuns(ctx, db, args[0], out, jsonOutput)
	default:
		return listStems(ctx, db, out, jsonOutput)
	}
}

// listStems prints every stem in the ledger.
func listStems(ctx context.Context, db *database.Ledger, out io.Writer, jsonOutput bool) error {
	stems, err := db.ListStems(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		if stems == nil {
			stems = []string{}
		}
		return writeJSON(out, stems)
	}

	if len(stems) == 0 {
		fmt.Fprintln(out, "No documents in history.")
		return nil
	}

	fmt.Fprintf(out, "Cleaned documents (%d):\n\n", len(stems))
	for _, stem := range stems {
		fmt.Fprintf(out, "  • %s\n", stem)
	}
	return nil
}

// listRuns prints the run history of one stem.
func listRuns(ctx context.Context, db *database.Ledger, stem string, out io.Writer, jsonOutput bool) error {
	runs, err := db.GetDocumentHistory(ctx, stem)
	if err != nil {
		return err
	}

	if jsonOutput {
		if runs == nil {
			runs = []database.DocumentRecord{}
		}
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", stem)
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d runs):\n\n", stem, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-9s  %-9s  %-12s  %s\n",
		"ID", "Date", "Status", "Resources", "Placeholders", "Duration")
	for _, run := range runs {
		status := "ok"
		if run.Failed() {
			status = "failed"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-9s  %-9d  %-12d  %s\n",
			run.ID,
			run.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			run.Resources,
			run.Placeholders,
			run.Duration.Round(time.Millisecond),
		)
	}

	for _, run := range runs {
		if run.Failed() {
			fmt.Fprintf(out, "\n  Run %d failed: %s\n", run.ID, run.Error)
		}
	}
	return nil
}

// showRun prints the stored report of one run.
func showRun(ctx context.Context, db *database.Ledger, id int64, out io.Writer, jsonOutput, markdownOutput bool) error {
	rep, err := db.GetDocumentReportByID(ctx, id)
	if err != nil {
		return err
	}
	if rep == nil {
		return fmt.Errorf("run %d not found (use 'offlinify history <stem>' to see run IDs)", id)
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	_, err = w.WriteDocument(rep)
	return err
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
