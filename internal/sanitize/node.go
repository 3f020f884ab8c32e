package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// attrValue returns the value of the attribute key (no namespace) on n.
func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// isBlank reports whether n is a whitespace-only text or comment node.
func isBlank(n *html.Node) bool {
	switch n.Type {
	case html.TextNode, html.CommentNode:
		return strings.TrimSpace(n.Data) == ""
	default:
		return false
	}
}

// removeNodes detaches nodes from the tree and returns how many subtrees were
// removed. A node nested inside another node of the set is not counted
// separately because it leaves together with its ancestor.
func removeNodes(nodes []*html.Node) int {
	set := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}

	removed := 0
	for _, n := range nodes {
		if hasAncestorIn(n, set) || n.Parent == nil {
			continue
		}
		n.Parent.RemoveChild(n)
		removed++
	}
	return removed
}

// hasAncestorIn reports whether any ancestor of n is in set.
func hasAncestorIn(n *html.Node, set map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if set[p] {
			return true
		}
	}
	return false
}
