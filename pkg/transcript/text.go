package transcript

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const nbsp = "\u00a0"

// normalizeSpace collapses whitespace runs (non-breaking spaces included) to one space
// and trims the ends.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, nbsp, " ")), " ")
}

func replaceNBSP(s string) string {
	return strings.ReplaceAll(s, nbsp, " ")
}

func selection(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// textNodes returns every descendant text node's data, in document order.
func textNodes(sel *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// ownText returns the text nodes that are direct children of the selected elements.
func ownText(sel *goquery.Selection) []string {
	var out []string
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if n := s.Get(0); n.Type == html.TextNode {
			out = append(out, n.Data)
		}
	})
	return out
}

func hasDescendant(n *html.Node, tag string) bool {
	return selection(n).Find(tag).Length() > 0
}
