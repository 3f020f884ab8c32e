package rewrite

import (
	"context"
	"fmt"
	"testing"
)

// mapResolver hands out sequential local paths and records every call.
type mapResolver struct {
	paths map[string]string
	calls []string
}

func newMapResolver() *mapResolver {
	return &mapResolver{paths: make(map[string]string)}
}

func (m *mapResolver) Resolve(_ context.Context, rawURL string) string {
	m.calls = append(m.calls, rawURL)
	if p, ok := m.paths[rawURL]; ok {
		return p
	}
	p := fmt.Sprintf("image/img%03d.png", len(m.paths)+1)
	m.paths[rawURL] = p
	return p
}

// TestRewriteCSS tests url() rewriting.
func TestRewriteCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		css      string
		expected string
		resolves int
	}{
		{
			name:     "remote image is localized",
			css:      "body{background:url(https://host/a.png)}",
			expected: "body{background:url('image/img001.png')}",
			resolves: 1,
		},
		{
			name:     "quoted remote image is localized",
			css:      `div{background-image: url( "//host/b.jpg?x=1" )}`,
			expected: "div{background-image: url('image/img001.png')}",
			resolves: 1,
		},
		{
			name:     "remote non-image is blanked",
			css:      "div{background:url(https://host/a.php)}",
			expected: "div{background:url()}",
			resolves: 0,
		},
		{
			name:     "data uri is kept",
			css:      "i{background:url(data:image/png;base64,AAAA)}",
			expected: "i{background:url(data:image/png;base64,AAAA)}",
			resolves: 0,
		},
		{
			name:     "local path is kept",
			css:      "i{background:url('image/img004.png')}",
			expected: "i{background:url('image/img004.png')}",
			resolves: 0,
		},
		{
			name:     "upper case URL token is matched",
			css:      "i{background:URL(https://mmbiz.qpic.cn/x)}",
			expected: "i{background:url('image/img001.png')}",
			resolves: 1,
		},
		{
			name:     "no url tokens",
			css:      "p{color:red}",
			expected: "p{color:red}",
			resolves: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newMapResolver()
			got := RewriteCSS(context.Background(), tt.css, r)
			if got != tt.expected {
				t.Errorf("RewriteCSS(%q) = %q, expected %q", tt.css, got, tt.expected)
			}
			if len(r.calls) != tt.resolves {
				t.Errorf("expected %d resolves, got %d", tt.resolves, len(r.calls))
			}
		})
	}
}

// TestRewriteCSSSharesResolver tests that repeated URLs map to one file.
func TestRewriteCSSSharesResolver(t *testing.T) {
	t.Parallel()

	r := newMapResolver()
	css := "a{background:url(https://h/a.png)} b{background:url(https://h/b.png)} c{background:url(https://h/a.png)}"
	got := RewriteCSS(context.Background(), css, r)
	expected := "a{background:url('image/img001.png')} b{background:url('image/img002.png')} c{background:url('image/img001.png')}"
	if got != expected {
		t.Errorf("got %q, expected %q", got, expected)
	}
}

// TestRewriteSrcset tests srcset candidate rewriting.
func TestRewriteSrcset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcset   string
		expected string
	}{
		{
			name:     "remote images with descriptors and a dropped non-image",
			srcset:   "https://h/a.jpg 1x, https://h/b.cgi 2x, local.png 3x",
			expected: "image/img001.png 1x, local.png 3x",
		},
		{
			name:     "descriptor is optional",
			srcset:   "//h/a.webp",
			expected: "image/img001.png",
		},
		{
			name:     "quoted url and empty entries",
			srcset:   ` 'https://h/a.gif' 480w , , `,
			expected: "image/img001.png 480w",
		},
		{
			name:     "all remote non-images gives empty value",
			srcset:   "https://h/a.cgi 1x, https://h/b.asp 2x",
			expected: "",
		},
		{
			name:     "empty input",
			srcset:   "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := RewriteSrcset(context.Background(), tt.srcset, newMapResolver())
			if got != tt.expected {
				t.Errorf("RewriteSrcset(%q) = %q, expected %q", tt.srcset, got, tt.expected)
			}
		})
	}
}

// TestHasCSSURL tests the url( detector.
func TestHasCSSURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected bool
	}{
		{in: "background:url(x)", expected: true},
		{in: "background:URL(x)", expected: true},
		{in: "color:red", expected: false},
		{in: "", expected: false},
	}

	for _, tt := range tests {
		if got := HasCSSURL(tt.in); got != tt.expected {
			t.Errorf("HasCSSURL(%q) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}
