// Package rewrite replaces remote resource references inside CSS text and
// srcset attribute values with local paths.
//
// Both rewriters are pure text transformations over a Resolver, which maps a
// remote URL to a local relative path. They never fail: references that
// cannot be localized are either left untouched (local and data: values) or
// blanked (remote values that are not images).
package rewrite

import "context"

// Resolver maps a remote URL to the local relative path of its copy.
// *resource.Cache satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) string
}
