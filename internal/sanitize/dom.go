package sanitize

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/nao1215/offlinify/internal/urlclass"
)

// Stats counts the edits made by Sanitize.
type Stats struct {
	// RemovedElements is the number of element subtrees deleted.
	RemovedElements int

	// RemovedAttributes is the number of attributes deleted.
	RemovedAttributes int

	// RewrittenAnchors is the number of anchors whose href became "#".
	RewrittenAnchors int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.RemovedElements += other.RemovedElements
	s.RemovedAttributes += other.RemovedAttributes
	s.RewrittenAnchors += other.RewrittenAnchors
}

var (
	scriptSelector  = cascadia.MustCompile("script")
	linkSelector    = cascadia.MustCompile("link")
	embedSelector   = cascadia.MustCompile("iframe, embed, object")
	anchorSelector  = cascadia.MustCompile("a")
	elementSelector = cascadia.MustCompile("*")
)

// tokenListAttributes lists attributes whose values are whitespace separated
// token lists rather than single strings. The final sweep leaves them alone.
// The "*" entry applies to every element.
var tokenListAttributes = map[string][]string{
	"*":      {"class", "accesskey", "dropzone"},
	"a":      {"rel", "rev"},
	"link":   {"rel", "rev"},
	"td":     {"headers"},
	"th":     {"headers"},
	"form":   {"accept-charset"},
	"object": {"archive"},
	"area":   {"rel"},
	"icon":   {"sizes"},
	"iframe": {"sandbox"},
	"output": {"for"},
}

// IsTokenListAttribute reports whether attribute a of element tag holds a
// whitespace separated token list.
func IsTokenListAttribute(tag string, a html.Attribute) bool {
	if a.Namespace != "" {
		return false
	}
	for _, k := range tokenListAttributes["*"] {
		if a.Key == k {
			return true
		}
	}
	for _, k := range tokenListAttributes[tag] {
		if a.Key == k {
			return true
		}
	}
	return false
}

// isXMLNS reports whether a is a namespace declaration.
func isXMLNS(a html.Attribute) bool {
	return a.Namespace == "xmlns" || a.Key == "xmlns" || strings.HasPrefix(a.Key, "xmlns:")
}

// Sanitize removes remote references from the tree rooted at root.
//
// The steps run in a fixed order, each one on the result of the previous:
// scripts, namespace declarations, remote stylesheets, remote embeds,
// anchors, and finally a sweep over every attribute of every element.
func Sanitize(root *html.Node) Stats {
	var stats Stats

	stats.RemovedElements += removeNodes(scriptSelector.MatchAll(root))
	stats.RemovedAttributes += removeAttributes(root, func(_ *html.Node, a html.Attribute) bool {
		return isXMLNS(a)
	})

	stats.RemovedElements += removeNodes(filterNodes(linkSelector.MatchAll(root), func(n *html.Node) bool {
		return urlclass.IsRemote(attrValue(n, "href"))
	}))

	stats.RemovedElements += removeNodes(filterNodes(embedSelector.MatchAll(root), func(n *html.Node) bool {
		return urlclass.IsRemote(attrValue(n, "src")) || urlclass.IsRemote(attrValue(n, "data"))
	}))

	anchors := sanitizeAnchors(root)
	stats.RewrittenAnchors += anchors.RewrittenAnchors
	stats.RemovedAttributes += anchors.RemovedAttributes

	stats.RemovedAttributes += removeAttributes(root, func(n *html.Node, a html.Attribute) bool {
		if IsTokenListAttribute(n.Data, a) {
			return false
		}
		return urlclass.ContainsURL(a.Val)
	})

	return stats
}

// sanitizeAnchors rewrites remote hrefs to "#" and drops every other
// attribute of an anchor that embeds a URL.
func sanitizeAnchors(root *html.Node) Stats {
	var stats Stats
	anchors := anchorSelector.MatchAll(root)

	// Collect first; the href rewrite and the attribute removals are applied
	// after the walk.
	rewrite := make([]*html.Node, 0)
	for _, a := range anchors {
		if urlclass.IsRemote(attrValue(a, "href")) {
			rewrite = append(rewrite, a)
		}
	}

	for _, a := range rewrite {
		for i := range a.Attr {
			if a.Attr[i].Namespace == "" && a.Attr[i].Key == "href" {
				a.Attr[i].Val = "#"
			}
		}
	}
	stats.RewrittenAnchors = len(rewrite)

	for _, a := range anchors {
		stats.RemovedAttributes += dropAttributes(a, func(attr html.Attribute) bool {
			if attr.Namespace == "" && attr.Key == "href" {
				return false
			}
			if IsTokenListAttribute("a", attr) {
				return false
			}
			return urlclass.ContainsURL(attr.Val)
		})
	}

	return stats
}

// removeAttributes drops every attribute matching drop from every element
// under root and returns how many were removed.
func removeAttributes(root *html.Node, drop func(n *html.Node, a html.Attribute) bool) int {
	elements := elementSelector.MatchAll(root)
	removed := 0
	for _, n := range elements {
		removed += dropAttributes(n, func(a html.Attribute) bool {
			return drop(n, a)
		})
	}
	return removed
}

// dropAttributes rebuilds n.Attr without the attributes matching drop.
func dropAttributes(n *html.Node, drop func(a html.Attribute) bool) int {
	if len(n.Attr) == 0 {
		return 0
	}
	kept := n.Attr[:0:0]
	for _, a := range n.Attr {
		if drop(a) {
			continue
		}
		kept = append(kept, a)
	}
	removed := len(n.Attr) - len(kept)
	if removed > 0 {
		n.Attr = kept
	}
	return removed
}

// filterNodes returns the nodes for which keep is true.
func filterNodes(nodes []*html.Node, keep func(n *html.Node) bool) []*html.Node {
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
