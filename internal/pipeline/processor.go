package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/offlinify/internal/document"
	"github.com/nao1215/offlinify/internal/fetch"
	"github.com/nao1215/offlinify/internal/model"
	"github.com/nao1215/offlinify/internal/resource"
	"github.com/nao1215/offlinify/internal/sanitize"
)

// IndexFileName is the name of the rewritten page inside a document directory.
const IndexFileName = "index.html"

// ErrEmptyOutputRoot is returned when a Processor has no output root.
var ErrEmptyOutputRoot = errors.New("output root is empty")

// Processor cleans single documents into <outputRoot>/<stem>.
// It is safe for concurrent use as long as no two calls share a stem.
type Processor struct {
	// client fetches resources; a per-document copy carries the referer.
	client *fetch.Client

	// outputRoot is the directory document directories are created in.
	outputRoot string

	// steps builds the step list for each document.
	steps func() []Step

	// logger is used for document-level logging.
	logger *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger used for documents and their steps.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithSteps replaces the default step list. The factory is called once per document.
func WithSteps(factory func() []Step) ProcessorOption {
	return func(p *Processor) {
		if factory != nil {
			p.steps = factory
		}
	}
}

// NewProcessor creates a Processor writing below outputRoot.
func NewProcessor(client *fetch.Client, outputRoot string, opts ...ProcessorOption) *Processor {
	p := &Processor{
		client:     client,
		outputRoot: outputRoot,
		steps:      DefaultSteps,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// OutputRoot returns the directory document directories are created in.
func (p *Processor) OutputRoot() string {
	return p.outputRoot
}

// Process cleans the HTML file at path.
//
// Any existing <outputRoot>/<stem> directory is deleted first. The new
// output is assembled in a hidden staging directory and renamed into place
// on success; on failure the staging directory is removed, so no partial
// output is ever left behind. The returned report is never nil.
func (p *Processor) Process(ctx context.Context, path string) (*model.DocumentReport, error) {
	stem := document.Stem(path)
	report := model.NewDocumentReport(path, stem)
	report.OutputDir = filepath.Join(p.outputRoot, stem)

	start := time.Now()
	err := p.process(ctx, path, report)
	report.Duration = time.Since(start)

	if err != nil {
		report.SetError(err)
		return report, err
	}
	return report, nil
}

// process does the work of Process.
func (p *Processor) process(ctx context.Context, path string, report *model.DocumentReport) error {
	if p.outputRoot == "" {
		return ErrEmptyOutputRoot
	}

	logger := p.logger.With("document", path)

	if err := os.MkdirAll(p.outputRoot, 0750); err != nil {
		return fmt.Errorf("failed to create output root: %w", err)
	}
	if err := os.RemoveAll(report.OutputDir); err != nil {
		return fmt.Errorf("failed to remove stale output %s: %w", report.OutputDir, err)
	}

	staging, err := os.MkdirTemp(p.outputRoot, "."+report.Stem+".partial-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			logger.Warn("failed to remove staging directory",
				"dir", staging,
				"error", rmErr,
			)
		}
	}()

	if err := os.MkdirAll(filepath.Join(staging, resource.ImageDirName), 0750); err != nil {
		return fmt.Errorf("failed to create image directory: %w", err)
	}

	doc, err := document.Load(path)
	if err != nil {
		return err
	}

	client := p.client.ForDocument(doc.CanonicalURL())
	report.Referer = client.Referer()

	cache := resource.NewCache(client, staging, resource.WithLogger(logger))
	job := &Job{
		Doc:    doc,
		Cache:  cache,
		Report: report,
		Logger: logger,
	}

	pl := New(WithLogger(logger))
	pl.AddSteps(p.steps()...)
	execErr := pl.Execute(ctx, job)
	report.Resources = cache.Records()
	if execErr != nil {
		return execErr
	}
	if err := cache.Err(); err != nil {
		return err
	}

	out, err := doc.Render()
	if err != nil {
		return err
	}
	out, report.ScrubbedURLs = sanitize.Scrub(out)

	if err := os.WriteFile(filepath.Join(staging, IndexFileName), []byte(out), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", IndexFileName, err)
	}

	// MkdirTemp creates 0700 directories; match the rest of the output tree.
	if err := os.Chmod(staging, 0750); err != nil { //nolint:gosec // directory, not a file
		return fmt.Errorf("failed to set permissions on output: %w", err)
	}
	if err := os.Rename(staging, report.OutputDir); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	committed = true

	logger.Info("document cleaned",
		"output", report.OutputDir,
		"resources", len(report.Resources),
		"placeholders", report.PlaceholderCount(),
	)
	return nil
}
