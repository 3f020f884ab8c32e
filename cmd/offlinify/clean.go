package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/offlinify/internal/collect"
	"github.com/nao1215/offlinify/internal/config"
	"github.com/nao1215/offlinify/internal/database"
	"github.com/nao1215/offlinify/internal/fetch"
	"github.com/nao1215/offlinify/internal/log"
	"github.com/nao1215/offlinify/internal/model"
	"github.com/nao1215/offlinify/internal/pipeline"
	"github.com/nao1215/offlinify/internal/report"
)

// ErrDocumentsFailed is returned by clean when at least one document failed.
// Every other document of the batch has still been processed.
var ErrDocumentsFailed = errors.New("some documents could not be cleaned")

// NewCleanCmd creates the clean command.
func NewCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <file-or-directory>",
		Short: "Localize images and strip network references from saved articles",
		Long: `Clean processes one HTML file or every .html/.htm file below a directory.

For each document it:
- Downloads every remote image (img, srcset, og:image, CSS url()) into image/
- Replaces images that cannot be downloaded with a transparent placeholder
- Removes the trailing wall of recommendation thumbnails
- Removes scripts, remote stylesheets, embeds and URL-valued attributes
- Rewrites remote anchors to "#"

Output is written to <output>/<stem>/index.html. An existing directory for
the same stem is replaced. Documents are processed one after another with
a short random pause after every two documents.

Examples:
  # Clean a directory of saved articles
  offlinify clean ./saved

  # Clean into a custom directory without pauses
  offlinify clean -o ./offline --pause-every 0 ./saved

  # Write a Markdown report to a file
  offlinify clean -m --report-file report.md ./saved

Configuration file (.offlinify) example:
  fetch:
    timeout: 30s
    cookie: "name=value"
  batch:
    pauseEvery: 2
    pauseMin: 10s
    pauseMax: 20s`,
		Args: cobra.ExactArgs(1),
		RunE: runCleanCmd,
	}

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir(),
		"Directory receiving one <stem>/ directory per document")

	// Request flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each resource request")
	cmd.Flags().String("user-agent", fetch.DefaultUserAgent,
		"User-Agent header for resource requests")
	cmd.Flags().String("referer", fetch.DefaultReferer,
		"Referer for documents without an og:url meta tag")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size of one resource in bytes")

	// Batch flags
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of documents processed at the same time")
	cmd.Flags().Int("pause-every", config.DefaultPauseEvery,
		"Pause after this many documents (0 disables pausing)")
	cmd.Flags().Duration("pause-min", config.DefaultPauseMin,
		"Shortest pause between documents")
	cmd.Flags().Duration("pause-max", config.DefaultPauseMax,
		"Longest pause between documents")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .offlinify in current, home or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().String("report-file", "",
		"Write report to specified file path (creates directories if needed)")

	// Ledger flags
	cmd.Flags().Bool("no-db", false,
		"Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runCleanCmd executes the clean command.
func runCleanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, finishing current document...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runClean(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file and
// the command flags, in that order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.InputPath = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is only an error when the user named it.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.File.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// Flags override the file only when given explicitly.
	if err := changedString(cmd, "output", &cfg.OutputDir); err != nil {
		return nil, err
	}
	if err := changedDuration(cmd, "timeout", &cfg.Timeout); err != nil {
		return nil, err
	}
	if err := changedString(cmd, "user-agent", &cfg.UserAgent); err != nil {
		return nil, err
	}
	if err := changedString(cmd, "referer", &cfg.Referer); err != nil {
		return nil, err
	}
	if err := changedString(cmd, "proxy", &cfg.ProxyAddress); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("max-body-size") {
		if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if err := changedInt(cmd, "concurrency", &cfg.Concurrency); err != nil {
		return nil, err
	}
	if err := changedInt(cmd, "pause-every", &cfg.PauseEvery); err != nil {
		return nil, err
	}
	if err := changedDuration(cmd, "pause-min", &cfg.PauseMin); err != nil {
		return nil, err
	}
	if err := changedDuration(cmd, "pause-max", &cfg.PauseMax); err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report-file")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.DBDir, err = cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// changedString copies a string flag into dst if it was set explicitly.
func changedString(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// changedInt copies an int flag into dst if it was set explicitly.
func changedInt(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// changedDuration copies a duration flag into dst if it was set explicitly.
func changedDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// runClean cleans every document below cfg.InputPath.
// Progress goes to stdout, per-document errors to stderr. When a JSON or
// Markdown report is printed to stdout, progress moves to stderr so the
// report stays machine readable.
func runClean(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	paths, err := collect.HTMLFiles(cfg.InputPath)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(stdout, "No HTML files found in %s\n", cfg.InputPath)
		return nil
	}

	logger.Info("starting clean",
		"input", cfg.InputPath,
		"output", cfg.OutputDir,
		"documents", len(paths),
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	client, err := fetch.NewClient(cfg.Timeout, cfg.FetchOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	processor := pipeline.NewProcessor(client, cfg.OutputDir,
		pipeline.WithProcessorLogger(logger),
	)

	progress := stdout
	if cfg.ReportFile == "" && (cfg.JSONReport || cfg.MarkdownReport) {
		progress = stderr
	}

	// Hooks run on worker goroutines.
	var mu sync.Mutex
	opts := append(cfg.BatchOptions(),
		pipeline.WithBatchLogger(logger),
		pipeline.WithStartHook(func(index, total int, path string) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(progress, "[%d/%d] Cleaning: %s\n", index+1, total, path)
		}),
		pipeline.WithDoneHook(func(index int, _ *model.DocumentReport, err error) {
			if err == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(stderr, "Error cleaning %s: %v\n", paths[index], err)
		}),
		pipeline.WithPauseHook(func(d time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(progress, "Pausing for %s...\n", d.Round(time.Second))
		}),
	)

	bp := pipeline.NewBatchProcessor(processor, opts...)
	summary, batchErr := bp.ProcessBatch(ctx, paths)
	summary.InputRoot = cfg.InputPath
	summary.OutputRoot = cfg.OutputDir

	if cfg.SaveToDB {
		// Record what was done even when the batch was interrupted.
		if err := saveSummary(context.WithoutCancel(ctx), cfg.DBDir, summary, logger); err != nil {
			logger.Error("failed to save history", "error", err)
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	if err := outputReport(cfg, summary, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}
	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d failed", ErrDocumentsFailed, failed, len(paths))
	}
	return nil
}

// outputReport outputs the batch report in the requested format.
func outputReport(cfg *config.Config, summary *model.BatchSummary, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		// Reports list source URLs and local paths; keep them private.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := w.Write(summary)
	return err
}

// saveSummary records the batch in the history database.
func saveSummary(ctx context.Context, dbDir string, summary *model.BatchSummary, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	saved, err := db.SaveBatch(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	logger.Info("history saved", "documents", saved, "database", db.Path())
	return nil
}
