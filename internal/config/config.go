package config

import (
	"net"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/offlinify/internal/fetch"
	"github.com/nao1215/offlinify/internal/pipeline"
)

// Default configuration values.
// Request and batch defaults come from the packages that use them so the
// CLI help, the configuration file and the engine cannot drift apart.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "offlinify"

	// DefaultOutputDirName is the directory below the XDG data directory
	// that receives cleaned documents when --out is not given.
	DefaultOutputDirName = "pages"

	// DefaultTimeout bounds a single resource request.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultMaxBodySize limits the size of one downloaded resource.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultConcurrency is the number of documents cleaned at once.
	// One keeps request bursts towards the image hosts small.
	DefaultConcurrency = pipeline.DefaultConcurrency

	// DefaultPauseEvery is the number of documents between pauses.
	DefaultPauseEvery = pipeline.DefaultPauseEvery

	// DefaultPauseMin is the shortest pause between document groups.
	DefaultPauseMin = pipeline.DefaultPauseMin

	// DefaultPauseMax is the longest pause between document groups.
	DefaultPauseMax = pipeline.DefaultPauseMax
)

// Config holds all configuration options for offlinify.
// This struct is populated from CLI flags and the optional configuration
// file, then passed through the application rather than kept as global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, BatchConfig). The YAML file has sections, but once
// merged the options are few enough that nesting only adds indirection.
type Config struct {
	// InputPath is the file or directory holding the HTML documents.
	// A directory is walked recursively for .html and .htm files.
	InputPath string

	// OutputDir is the directory every <stem> output directory is created in.
	// Defaults to the XDG data directory (~/.local/share/offlinify/pages on Linux).
	OutputDir string

	// Timeout is the limit for each resource request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with resource requests.
	// Image hosts often reject non-browser agents, so the default mimics Chrome.
	UserAgent string

	// Referer is sent with requests for documents without a canonical URL.
	// Documents with an og:url meta tag use that URL instead.
	Referer string

	// Cookie is an optional Cookie header sent with every resource request.
	Cookie string

	// Headers are extra request headers from the configuration file.
	Headers map[string]string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// MaxBodySize is the maximum resource size in bytes.
	// Larger resources are replaced by the placeholder image.
	MaxBodySize int64

	// Concurrency is the number of documents processed at once.
	Concurrency int

	// PauseEvery is the number of documents between pauses.
	// Zero disables pausing.
	PauseEvery int

	// PauseMin and PauseMax bound the random pause between document groups.
	PauseMin time.Duration
	PauseMax time.Duration

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches the current directory, the home
	// directory and the XDG config directory for .offlinify.
	ConfigFilePath string

	// File holds the configuration file contents, if one was loaded.
	File *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output with tables and a pie chart.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite ledger of processed documents.
	DBDir string

	// SaveToDB indicates whether batch results are recorded in the ledger.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero (timeout, pacing, paths).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:   DefaultOutputDir(),
		Timeout:     DefaultTimeout,
		UserAgent:   fetch.DefaultUserAgent,
		Referer:     fetch.DefaultReferer,
		MaxBodySize: DefaultMaxBodySize,
		Concurrency: DefaultConcurrency,
		PauseEvery:  DefaultPauseEvery,
		PauseMin:    DefaultPauseMin,
		PauseMax:    DefaultPauseMax,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for offlinify.
// On Linux: ~/.local/share/offlinify
// On macOS: ~/Library/Application Support/offlinify
// On Windows: %LOCALAPPDATA%\offlinify
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for offlinify.
// On Linux: ~/.config/offlinify
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultOutputDir returns the output root used when none is configured.
func DefaultOutputDir() string {
	return filepath.Join(XDGDataDir(), DefaultOutputDirName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
//
// Design decision: We validate once after flags and the configuration file
// are merged, before any output directory is touched, to fail fast.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return ErrNoInput
	}

	if c.OutputDir == "" {
		return ErrNoOutput
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.PauseEvery < 0 || c.PauseMin < 0 || c.PauseMax < c.PauseMin {
		return ErrInvalidPause
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}

	return nil
}

// FetchOptions converts the request settings into fetch client options.
func (c *Config) FetchOptions() []fetch.Option {
	opts := []fetch.Option{
		fetch.WithUserAgent(c.UserAgent),
		fetch.WithReferer(c.Referer),
		fetch.WithMaxBodySize(c.MaxBodySize),
	}
	if c.Cookie != "" {
		opts = append(opts, fetch.WithCookie(c.Cookie))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, fetch.WithHeaders(c.Headers))
	}
	if c.ProxyAddress != "" {
		opts = append(opts, fetch.WithProxy(c.ProxyAddress))
	}
	return opts
}

// BatchOptions converts the batch settings into batch processor options.
func (c *Config) BatchOptions() []pipeline.BatchOption {
	return []pipeline.BatchOption{
		pipeline.WithConcurrency(c.Concurrency),
		pipeline.WithPacing(c.PauseEvery, c.PauseMin, c.PauseMax),
	}
}
