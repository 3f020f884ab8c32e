package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// DefaultDoctype is used when the source has no doctype declaration.
const DefaultDoctype = "<!DOCTYPE html>"

// doctypePattern matches a doctype declaration at the very start of a document.
var doctypePattern = regexp.MustCompile(`(?i)^\s*(<!doctype[^>]*>\s*)`)

// canonicalSelector finds the Open Graph URL of the article.
var canonicalSelector = cascadia.MustCompile(`meta[property="og:url"]`)

// Document is one parsed HTML file.
// It is created per input file, mutated by the pipeline and discarded after
// it has been written.
type Document struct {
	// Root is the document node of the parsed tree.
	Root *html.Node

	// Doctype is the declaration written before the tree, without surrounding whitespace.
	Doctype string

	// Source is the path the document was loaded from.
	Source string
}

// Load reads and parses the HTML file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the enumerated input tree
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes data to UTF-8 and parses it. source is only recorded.
func Parse(data []byte, source string) (*Document, error) {
	text, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, source, err)
	}

	// Scripting off: <noscript> children are parsed as elements, so lazy
	// images inside them are localized like any other <img>.
	root, err := html.ParseWithOptions(strings.NewReader(text), html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, source, err)
	}

	return &Document{
		Root:    root,
		Doctype: ExtractDoctype(text),
		Source:  source,
	}, nil
}

// decode converts data to a UTF-8 string.
// Valid UTF-8 is returned as is. Otherwise the encoding is sniffed from the
// byte order mark and <meta charset> declarations; bytes that still do not
// decode are dropped.
func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	enc, name, _ := charset.DetermineEncoding(data, "")
	if name == "utf-8" {
		return strings.ToValidUTF8(string(data), ""), nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(decoded), ""), nil
}

// ExtractDoctype returns the doctype declaration at the start of text, or
// DefaultDoctype when there is none.
func ExtractDoctype(text string) string {
	m := doctypePattern.FindStringSubmatch(text)
	if m == nil {
		return DefaultDoctype
	}
	return strings.TrimSpace(m[1])
}

// Render serializes the document as doctype, newline, tree, newline.
// Doctype nodes inside the tree are skipped.
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(d.Doctype)
	buf.WriteString("\n")

	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			continue
		}
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render %s: %w", d.Source, err)
		}
	}

	buf.WriteString("\n")
	return buf.String(), nil
}

// CanonicalURL returns the trimmed content of the first og:url meta tag,
// or "" when there is none.
func (d *Document) CanonicalURL() string {
	n := canonicalSelector.MatchFirst(d.Root)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(Attr(n, "content"))
}

// Stem returns the file name of path without its final extension.
// Dot files such as ".html" keep their full name.
func Stem(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return base
	}
	return base[:i]
}
