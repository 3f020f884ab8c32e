package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/offlinify/internal/collect"
	"github.com/nao1215/offlinify/internal/config"
	"github.com/nao1215/offlinify/internal/database"
	"github.com/nao1215/offlinify/internal/report"
	"github.com/nao1215/offlinify/internal/resource"
)

// newImageServer serves /a.png and answers 404 for anything else.
func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(resource.Placeholder()) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return srv
}

// cleanFixture is an input directory, an output root, a database directory
// and an empty configuration file isolated from the user's environment.
type cleanFixture struct {
	input  string
	output string
	dbDir  string
	config string
}

func newCleanFixture(t *testing.T, docs map[string]string) cleanFixture {
	t.Helper()
	base := t.TempDir()
	f := cleanFixture{
		input:  filepath.Join(base, "in"),
		output: filepath.Join(base, "out"),
		dbDir:  filepath.Join(base, "db"),
		config: filepath.Join(base, "empty.yaml"),
	}
	if err := os.MkdirAll(f.input, 0750); err != nil {
		t.Fatal(err)
	}
	for name, content := range docs {
		if err := os.WriteFile(filepath.Join(f.input, name), []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(f.config, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return f
}

// args returns the clean arguments for the fixture followed by extra flags.
func (f cleanFixture) args(extra ...string) []string {
	args := []string{"clean",
		"-c", f.config,
		"-o", f.output,
		"--db-dir", f.dbDir,
		"--pause-every", "0",
		"--timeout", "5s",
	}
	args = append(args, extra...)
	return append(args, f.input)
}

// runRoot executes the root command and returns stdout, stderr and the error.
func runRoot(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestNewCleanCmd tests the clean command flags.
func TestNewCleanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCleanCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"output", "o", config.DefaultOutputDir()},
		{"timeout", "t", "30s"},
		{"concurrency", "n", "1"},
		{"pause-every", "", "2"},
		{"pause-min", "", "10s"},
		{"pause-max", "", "20s"},
		{"config", "c", ""},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"report-file", "", ""},
		{"no-db", "", "false"},
		{"proxy", "", ""},
		{"user-agent", "", ""},
		{"referer", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if tt.defValue != "" && flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestBuildConfig tests the precedence of defaults, file and flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("file overrides defaults and explicit flags override file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		content := "fetch:\n  timeout: 5s\n  cookie: sid=1\nbatch:\n  concurrency: 3\n  pauseEvery: 4\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewCleanCmd()
		if err := cmd.ParseFlags([]string{"-c", path, "-n", "2", "--no-db"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"input"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.InputPath != "input" {
			t.Errorf("unexpected input %q", cfg.InputPath)
		}
		if cfg.Timeout != 5*time.Second || cfg.Cookie != "sid=1" || cfg.PauseEvery != 4 {
			t.Errorf("file values not applied: %+v", cfg)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected flag to win with 2, got %d", cfg.Concurrency)
		}
		if cfg.PauseMin != config.DefaultPauseMin {
			t.Errorf("unset values must keep defaults, got %v", cfg.PauseMin)
		}
		if cfg.SaveToDB {
			t.Error("--no-db must disable the ledger")
		}
		if cfg.File == nil {
			t.Error("expected loaded file to be kept")
		}
	})

	t.Run("explicit missing config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewCleanCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml")}); err != nil {
			t.Fatal(err)
		}

		_, err := buildConfig(cmd, []string{"input"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

// TestRunClean tests the clean command end to end.
func TestRunClean(t *testing.T) {
	t.Parallel()

	t.Run("cleans every document and records history", func(t *testing.T) {
		t.Parallel()

		srv := newImageServer(t)
		doc := `<!DOCTYPE html><html><head><script src="` + srv.URL + `/app.js"></script></head>` +
			`<body><p>text</p><img src="` + srv.URL + `/a.png"><img src="` + srv.URL + `/gone.png"></body></html>`
		f := newCleanFixture(t, map[string]string{"first.html": doc, "second.htm": doc})

		stdout, stderr, err := runRoot(t, f.args())
		if err != nil {
			t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
		}

		for _, want := range []string{"[1/2] Cleaning:", "[2/2] Cleaning:", "OFFLINIFY REPORT", "SUCCEEDED:    2"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected stdout to contain %q:\n%s", want, stdout)
			}
		}

		for _, stem := range []string{"first", "second"} {
			index, err := os.ReadFile(filepath.Join(f.output, stem, "index.html"))
			if err != nil {
				t.Fatalf("missing output for %s: %v", stem, err)
			}
			if strings.Contains(string(index), "<script") || strings.Contains(string(index), srv.URL) {
				t.Errorf("output of %s still references the network:\n%s", stem, index)
			}
			for _, name := range []string{"img001.png", "img002.png"} {
				if _, err := os.Stat(filepath.Join(f.output, stem, "image", name)); err != nil {
					t.Errorf("missing %s for %s: %v", name, stem, err)
				}
			}
		}

		db, err := database.Open(f.dbDir, database.Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("expected history database: %v", err)
		}
		defer db.Close()

		stems, err := db.ListStems(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if len(stems) != 2 || stems[0] != "first" || stems[1] != "second" {
			t.Errorf("expected [first second], got %v", stems)
		}
	})

	t.Run("JSON report keeps stdout machine readable", func(t *testing.T) {
		t.Parallel()

		srv := newImageServer(t)
		doc := `<html><body><img src="` + srv.URL + `/a.png"></body></html>`
		f := newCleanFixture(t, map[string]string{"only.html": doc})

		stdout, stderr, err := runRoot(t, f.args("--json", "--no-db"))
		if err != nil {
			t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
		}

		var got report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
		}
		if got.Totals.Succeeded != 1 || got.Totals.Fetched != 1 {
			t.Errorf("unexpected totals %+v", got.Totals)
		}
		if !strings.Contains(stderr, "[1/1] Cleaning:") {
			t.Errorf("expected progress on stderr, got %q", stderr)
		}
		if _, err := os.Stat(f.dbDir); !os.IsNotExist(err) {
			t.Error("--no-db must not create the database")
		}
	})

	t.Run("report file", func(t *testing.T) {
		t.Parallel()

		f := newCleanFixture(t, map[string]string{"plain.html": "<html><body><p>offline</p></body></html>"})
		reportPath := filepath.Join(t.TempDir(), "reports", "run.md")

		stdout, _, err := runRoot(t, f.args("-m", "--report-file", reportPath, "--no-db"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "[1/1] Cleaning:") {
			t.Errorf("expected progress on stdout, got %q", stdout)
		}

		content, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("report file not written: %v", err)
		}
		if !strings.Contains(string(content), "# offlinify Report") {
			t.Errorf("unexpected report:\n%s", content)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		f := newCleanFixture(t, nil)
		stdout, _, err := runRoot(t, f.args("--no-db"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No HTML files found") {
			t.Errorf("unexpected output %q", stdout)
		}
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()

		f := newCleanFixture(t, nil)
		f.input = filepath.Join(f.input, "missing")
		_, _, err := runRoot(t, f.args("--no-db"))
		if !errors.Is(err, collect.ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", err)
		}
	})

	t.Run("conflicting report formats", func(t *testing.T) {
		t.Parallel()

		f := newCleanFixture(t, nil)
		_, _, err := runRoot(t, f.args("-j", "-m", "--no-db"))
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})
}
