package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// MaskValue replaces every redacted value.
const MaskValue = "***REDACTED***"

// maskedKeys are attribute keys whose values are never logged.
// Cookies and headers come straight from the fetch configuration.
var maskedKeys = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"x-auth-token",
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"access_token",
	"session",
	"session_id",
	"sessionid",
	"sid",
}

// maskedKeywords mask any key containing them. A bare "key" is not listed:
// it would hide attributes such as "cache_key".
var maskedKeywords = []string{"password", "passwd", "secret", "token", "auth", "credential"}

// ticketParams are query parameters that carry per-reader tickets or
// signatures on article image hosts.
var ticketParams = map[string]bool{
	"key":          true,
	"pass_ticket":  true,
	"appmsg_token": true,
	"token":        true,
	"sig":          true,
	"signature":    true,
	"access_token": true,
	"uin":          true,
}

// credentialPatterns match whole values that are credentials on their own.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// urlPattern finds http(s) URLs inside free text such as error messages.
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// SecureHandler redacts credentials and URL tickets before a record reaches
// the wrapped handler. Messages, attributes, group members and error values
// are all covered.
//
// Design decision: Redaction sits in a handler so that packages keep taking
// a plain *slog.Logger and any output format can be wrapped.
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps next. A nil next wraps slog.Default().Handler().
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled defers to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle forwards a redacted copy of r.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, RedactURLs(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs redacts attrs once, when they are bound.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		clean = append(clean, redactAttr(a))
	}
	return &SecureHandler{next: h.next.WithAttrs(clean)}
}

// WithGroup opens a group on the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

// redactAttr returns a with every sensitive value masked.
func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		clean := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			clean = append(clean, redactAttr(m))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(clean...)}
	}

	key := strings.ToLower(a.Key)
	if slices.Contains(maskedKeys, key) || containsSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}

	var text string
	switch a.Value.Kind() {
	case slog.KindString:
		text = a.Value.String()
		if isSensitiveValue(text) {
			return slog.String(a.Key, MaskValue)
		}
	case slog.KindAny:
		// Fetch errors quote the request URL.
		err, ok := a.Value.Any().(error)
		if !ok || err == nil {
			return a
		}
		text = err.Error()
	default:
		return a
	}

	if redacted := RedactURLs(text); redacted != text {
		return slog.String(a.Key, redacted)
	}
	return a
}

// containsSensitiveKeyword reports whether key contains a masked keyword.
func containsSensitiveKeyword(key string) bool {
	return slices.ContainsFunc(maskedKeywords, func(kw string) bool {
		return strings.Contains(key, kw)
	})
}

// isSensitiveValue reports whether value is a credential by itself.
func isSensitiveValue(value string) bool {
	return slices.ContainsFunc(credentialPatterns, func(re *regexp.Regexp) bool {
		return re.MatchString(value)
	})
}

// RedactURLs masks ticket query parameters in every http(s) URL found in s.
// Anything else in s is left as written.
func RedactURLs(s string) string {
	if !strings.Contains(s, "://") {
		return s
	}
	return urlPattern.ReplaceAllStringFunc(s, redactURL)
}

// redactURL masks the ticket parameters of one URL, keeping their order.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	pairs := strings.Split(u.RawQuery, "&")
	masked := false
	for i, pair := range pairs {
		name, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if !ticketParams[strings.ToLower(name)] {
			continue
		}
		pairs[i] = pair[:strings.IndexByte(pair, '=')+1] + MaskValue
		masked = true
	}
	if !masked {
		return raw
	}

	u.RawQuery = strings.Join(pairs, "&")
	return u.String()
}

// NewSecureLogger returns a text logger on w that redacts sensitive data.
// verbose enables debug output; otherwise only warnings and errors are shown.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, levelOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, levelOptions(verbose))))
}

// levelOptions maps the verbose flag to a minimum level.
func levelOptions(verbose bool) *slog.HandlerOptions {
	if verbose {
		return &slog.HandlerOptions{Level: slog.LevelDebug}
	}
	return &slog.HandlerOptions{Level: slog.LevelWarn}
}
