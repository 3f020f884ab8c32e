// Package sanitize removes every remaining reference to remote hosts from a
// parsed HTML document.
//
// Three passes are provided and the document orchestrator runs them in this
// order:
//
//	RemoveTrailingImageWall  drops the thumbnail grid many article pages end with
//	Sanitize                 removes remote elements and URL-bearing attributes
//	Scrub                    regex safety net over the serialized output
//
// # Two-Phase Edits
//
// Every DOM pass first walks the tree without modifying it and collects the
// edits it wants to make, then applies them. Mutating an x/net/html tree while
// iterating its sibling links skips nodes, so the passes never do that.
//
// # Scope
//
// Sanitize is intentionally blunt: an attribute is removed when its value
// contains an absolute or scheme-relative URL anywhere, even inside prose
// such as a title. Scrub is not HTML-aware at all and also strips URLs that
// appear as visible text. The output favors "nothing points outside" over
// preserving the original markup.
package sanitize
