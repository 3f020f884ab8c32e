package rewrite

import (
	"context"
	"strings"

	"github.com/nao1215/offlinify/internal/urlclass"
)

// RewriteSrcset rewrites the candidates of a srcset attribute value.
// Remote image candidates are localized and keep their descriptor, remote
// candidates that are not images are dropped, and anything else is kept as
// written. The result may be empty.
func RewriteSrcset(ctx context.Context, srcset string, r Resolver) string {
	parts := strings.Split(srcset, ",")
	out := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Fields(part)
		u := strings.Trim(fields[0], quoteChars)
		desc := strings.Join(fields[1:], " ")

		switch {
		case urlclass.IsRemote(u) && urlclass.LooksLikeImage(u):
			local := r.Resolve(ctx, u)
			if desc != "" {
				local += " " + desc
			}
			out = append(out, local)
		case urlclass.IsRemote(u):
			// dropped
		default:
			out = append(out, part)
		}
	}

	return strings.Join(out, ", ")
}
