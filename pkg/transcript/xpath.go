package transcript

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"foolcalls/pkg/selector"
)

// queryAll evaluates expr against top and returns the matches in document order.
//
// Expressions are compiled per call instead of going through htmlquery's selector
// cache, so concurrent scrapes share nothing.
func queryAll(top *html.Node, expr string) (nodes []*html.Node, err error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}

	defer func() {
		if r := recover(); r != nil {
			nodes, err = nil, fmt.Errorf("evaluate %q: %v", expr, r)
		}
	}()

	return documentOrder(htmlquery.QuerySelectorAll(top, compiled)), nil
}

func find(parent *html.Node, expr string) (*html.Node, error) {
	return selector.RequireOne(func() ([]*html.Node, error) {
		return queryAll(parent, expr)
	}, true)
}

func findAll(parent *html.Node, expr string) ([]*html.Node, error) {
	return selector.RequireMany(func() ([]*html.Node, error) {
		return queryAll(parent, expr)
	}, true)
}

// documentOrder drops duplicates and sorts nodes by their position in the tree.
// Reverse axes in antchfx/xpath yield nearest-first.
func documentOrder(nodes []*html.Node) []*html.Node {
	if len(nodes) < 2 {
		return nodes
	}

	root := nodes[0]
	for root.Parent != nil {
		root = root.Parent
	}

	pos := make(map[*html.Node]int)
	i := 0
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		pos[n] = i
		i++
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	seen := make(map[*html.Node]bool, len(nodes))
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.SliceStable(out, func(a, b int) bool { return pos[out[a]] < pos[out[b]] })
	return out
}

// concatNodes renders nodes back to markup and reparses them as the children of a
// single detached <div>.
func concatNodes(nodes []*html.Node) (*html.Node, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("render node: %w", err)
		}
	}

	div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	children, err := html.ParseFragment(strings.NewReader(buf.String()), div)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, c := range children {
		div.AppendChild(c)
	}
	return div, nil
}
