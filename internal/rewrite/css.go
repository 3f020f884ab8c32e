package rewrite

import (
	"context"
	"regexp"
	"strings"

	"github.com/nao1215/offlinify/internal/urlclass"
)

// cssURLPattern matches a CSS url() token and captures its inner value.
var cssURLPattern = regexp.MustCompile(`(?i)url\(\s*([^)]+?)\s*\)`)

// quoteChars are stripped from both ends of url() values and srcset URLs.
const quoteChars = `"'`

// RewriteCSS rewrites every url() token in css.
//
//   - empty, data: and local values are kept
//   - remote values that do not look like images become url()
//   - remote images become url('<local path>')
func RewriteCSS(ctx context.Context, css string, r Resolver) string {
	return cssURLPattern.ReplaceAllStringFunc(css, func(match string) string {
		groups := cssURLPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		raw := groups[1]
		u := strings.Trim(strings.TrimSpace(raw), quoteChars)

		if u == "" || strings.HasPrefix(u, "data:") || !urlclass.IsRemote(u) {
			return "url(" + raw + ")"
		}
		if !urlclass.LooksLikeImage(u) {
			return "url()"
		}
		return "url('" + r.Resolve(ctx, u) + "')"
	})
}

// HasCSSURL reports whether s contains a url( token, ignoring case.
func HasCSSURL(s string) bool {
	return strings.Contains(strings.ToLower(s), "url(")
}
