package resource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/offlinify/internal/fetch"
	"github.com/nao1215/offlinify/internal/model"
	"github.com/nao1215/offlinify/internal/urlclass"
)

// ImageDirName is the name of the per-document directory holding local resources.
const ImageDirName = "image"

// filePerm is the permission of every written resource file.
const filePerm = 0600

// Fetcher retrieves a remote resource. *fetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Payload, error)
}

// Cache maps remote URLs to local files for one document.
// A Cache is not safe for concurrent use; each document gets its own.
type Cache struct {
	// fetcher performs the network requests.
	fetcher Fetcher

	// imageDir is the absolute directory the files are written to.
	imageDir string

	// paths maps normalized URLs to relative local paths.
	paths map[string]string

	// next is the number of the next allocated file.
	next int

	// records holds one entry per allocated file in allocation order.
	records []model.Resource

	// err is the first filesystem error seen by Resolve.
	err error

	// logger receives per-resource diagnostics.
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for per-resource diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache creates an empty cache writing into <documentDir>/image.
// The image directory must already exist.
func NewCache(fetcher Fetcher, documentDir string, opts ...Option) *Cache {
	c := &Cache{
		fetcher:  fetcher,
		imageDir: filepath.Join(documentDir, ImageDirName),
		paths:    make(map[string]string),
		next:     1,
		records:  make([]model.Resource, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Resolve returns the local relative path for rawURL, fetching it on first use.
//
// The URL is normalized before lookup, so "//host/a.png" and
// "https://host/a.png" share one file. A failed fetch writes the placeholder
// PNG and the URL stays mapped to it; it is never retried for this document.
// Resolve always returns a path. Filesystem errors are available from Err.
func (c *Cache) Resolve(ctx context.Context, rawURL string) string {
	u := urlclass.Normalize(rawURL)
	if local, ok := c.paths[u]; ok {
		return local
	}

	n := c.next
	c.next++

	rec := model.Resource{URL: u}
	var (
		data []byte
		ext  string
	)

	payload, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		c.logger.Debug("resource fetch failed, using placeholder",
			"url", u,
			"error", err,
		)
		rec.Placeholder = true
		rec.FailureReason = err.Error()
		data = Placeholder()
		ext = placeholderExtension
	} else {
		data = payload.Body
		rec.ContentType = payload.ContentType
		ext = urlclass.GuessExtension(u, payload.ContentType)

		info := inspectEXIF(data)
		rec.HasEXIF = info.present
		rec.HasGPS = info.gps
		if info.gps {
			c.logger.Warn("image carries GPS coordinates in EXIF metadata",
				"url", u,
			)
		}
	}

	name := fmt.Sprintf("img%03d%s", n, ext)
	local := urlclass.LocalImagePrefix + name

	if err := os.WriteFile(filepath.Join(c.imageDir, name), data, filePerm); err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("failed to write resource %s: %w", name, err)
		}
		c.logger.Error("failed to write resource",
			"file", name,
			"error", err,
		)
	}

	rec.LocalPath = local
	rec.Size = len(data)
	rec.ComputeDigest(data)

	c.paths[u] = local
	c.records = append(c.records, rec)
	return local
}

// Records returns the resources allocated so far in first-seen order.
func (c *Cache) Records() []model.Resource {
	out := make([]model.Resource, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of distinct URLs resolved.
func (c *Cache) Len() int {
	return len(c.paths)
}

// Err returns the first filesystem error encountered by Resolve, if any.
func (c *Cache) Err() error {
	return c.err
}
