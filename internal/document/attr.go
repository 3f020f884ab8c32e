package document

import "golang.org/x/net/html"

// Attr returns the value of the attribute key on n, or "".
// Namespaced attributes are ignored.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries the attribute key.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets the attribute key on n, appending it when missing.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttrs removes every attribute for which drop returns true and
// reports how many were removed.
func RemoveAttrs(n *html.Node, drop func(a html.Attribute) bool) int {
	kept := make([]html.Attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		if !drop(a) {
			kept = append(kept, a)
		}
	}
	removed := len(n.Attr) - len(kept)
	if removed > 0 {
		n.Attr = kept
	}
	return removed
}
