package sanitize

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/offlinify/internal/urlclass"
)

// minWallImages is the smallest number of images treated as a wall.
const minWallImages = 3

var (
	bodySelector = cascadia.MustCompile("body")
	imgSelector  = cascadia.MustCompile("img")
)

// RemoveTrailingImageWall deletes the block of already-localized images that
// ends many saved articles (recommended posts, QR codes, ads) and returns the
// number of images removed.
//
// Only the end of <body> is inspected. If the last element is a div, section
// or p holding at least three images, all pointing into image/, and no text,
// the whole element goes. Otherwise a trailing run of at least three direct
// <img> children with local sources is removed. Anything less certain is
// left alone.
func RemoveTrailingImageWall(root *html.Node) int {
	body := bodySelector.MatchFirst(root)
	if body == nil {
		return 0
	}

	if last := lastSignificantChild(body); last != nil && isWallContainer(last) {
		imgs := imgSelector.MatchAll(last)
		if len(imgs) >= minWallImages && allLocal(imgs) && strings.TrimSpace(textContent(last)) == "" {
			body.RemoveChild(last)
			return len(imgs)
		}
	}

	tail := trailingLocalImages(body)
	if len(tail) < minWallImages {
		return 0
	}
	return removeNodes(tail)
}

// lastSignificantChild returns the last element child of body when only
// blank text and blank comments follow it, or nil.
func lastSignificantChild(body *html.Node) *html.Node {
	for c := body.LastChild; c != nil; c = c.PrevSibling {
		if isBlank(c) {
			continue
		}
		if c.Type == html.ElementNode {
			return c
		}
		return nil
	}
	return nil
}

// isWallContainer reports whether n can hold an image wall.
func isWallContainer(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Div, atom.Section, atom.P:
		return true
	default:
		return false
	}
}

// trailingLocalImages collects the run of local <img> children at the end of body.
func trailingLocalImages(body *html.Node) []*html.Node {
	imgs := make([]*html.Node, 0)
	for c := body.LastChild; c != nil; c = c.PrevSibling {
		if isBlank(c) {
			continue
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.Img && urlclass.IsLocalImage(attrValue(c, "src")) {
			imgs = append(imgs, c)
			continue
		}
		break
	}
	return imgs
}

// allLocal reports whether every image source points into the image directory.
func allLocal(imgs []*html.Node) bool {
	for _, img := range imgs {
		if !urlclass.IsLocalImage(attrValue(img, "src")) {
			return false
		}
	}
	return true
}

// textContent concatenates the text nodes under n. Comments and the bodies
// of script and style elements are not text.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
