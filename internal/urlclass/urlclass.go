package urlclass

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// DefaultExtension is returned by GuessExtension when nothing else matches.
const DefaultExtension = ".jpg"

// LocalImagePrefix is the relative directory every localized resource lives under.
const LocalImagePrefix = "image/"

// imageMarkers are substrings of CDN URLs that serve images without a
// recognizable file extension.
var imageMarkers = []string{"wx_fmt=", "mmbiz_", "qpic.cn"}

// imageExtPattern matches an image file extension at the end of the URL or
// right before its query string.
var imageExtPattern = regexp.MustCompile(`\.(jpg|jpeg|png|gif|webp|svg|bmp|ico)(\?|$)`)

// contentTypeExtensions maps image MIME types to file extensions.
var contentTypeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// allowedExtensions is the set of URL path suffixes accepted as image extensions.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
	".ico":  true,
}

// IsRemote reports whether u refers to a resource on another host.
// An empty string is never remote.
func IsRemote(u string) bool {
	u = strings.TrimSpace(u)
	if u == "" {
		return false
	}
	return strings.HasPrefix(u, "http://") ||
		strings.HasPrefix(u, "https://") ||
		strings.HasPrefix(u, "//")
}

// Normalize trims u and turns a scheme-relative URL into an https URL.
// Any other input is returned trimmed but otherwise unchanged.
func Normalize(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// LooksLikeImage reports whether u is likely to point at an image.
func LooksLikeImage(u string) bool {
	lower := strings.ToLower(u)
	for _, marker := range imageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return imageExtPattern.MatchString(lower)
}

// GuessExtension picks the file extension for a fetched resource.
// The content type wins when it is a known image type. Otherwise the URL
// path suffix is used if it is an image extension. It never fails and
// falls back to DefaultExtension.
func GuessExtension(rawURL, contentType string) string {
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if ext, ok := contentTypeExtensions[strings.TrimSpace(ct)]; ok {
		return ext
	}

	ext := pathExtension(rawURL)
	if allowedExtensions[ext] {
		if ext == ".jpeg" {
			return ".jpg"
		}
		return ext
	}
	return DefaultExtension
}

// pathExtension returns the lower-cased suffix of the last path segment of
// rawURL, or "" if it has none. Dot files such as "/.png" have no suffix.
func pathExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}

	base := path.Base(p)
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i:])
}

// ContainsURL reports whether v embeds an absolute or scheme-relative URL.
func ContainsURL(v string) bool {
	return strings.Contains(v, "http://") ||
		strings.Contains(v, "https://") ||
		strings.HasPrefix(strings.TrimSpace(v), "//")
}

// IsLocalImage reports whether src already points into the local image directory.
func IsLocalImage(src string) bool {
	return strings.HasPrefix(strings.TrimSpace(src), LocalImagePrefix)
}
