package transcript

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"foolcalls/pkg/selector"
)

const siblings = `<html><body><span class="article-content">` +
	`<p>a</p><h2>Contents:</h2><p>b</p><p>c</p><h2>End</h2><p>d</p>` +
	`</span></body></html>`

func texts(nodes []*html.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = htmlquery.InnerText(n)
	}
	return out
}

func parse(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestQueryAll_DocumentOrder(t *testing.T) {
	t.Parallel()

	doc := parse(t, siblings)
	body, err := find(doc, `.//span[@class="article-content"]`)
	require.NoError(t, err)

	// preceding-sibling is a reverse axis; results still come back in document order.
	nodes, err := queryAll(body, `./h2[text()="End"]/preceding-sibling::p`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, texts(nodes))
}

func TestQueryAll_CompileError(t *testing.T) {
	t.Parallel()

	doc := parse(t, siblings)
	_, err := findAll(doc, `./p[`)

	var qe *selector.QueryError
	require.True(t, errors.As(err, &qe))
	assert.False(t, errors.Is(err, selector.ErrNotFound))
}

func TestFindSection_FallsBackOnQueryError(t *testing.T) {
	t.Parallel()

	doc := parse(t, siblings)
	body, err := find(doc, `.//span[@class="article-content"]`)
	require.NoError(t, err)

	nodes, name, err := findSection(body, []sectionStrategy{
		{name: "broken", start: `./h2[`, end: `./h2`},
		{name: "empty", start: `./div`, end: `./h2`},
		{name: "reversed", start: `./h2[text()="End"]`, end: `./h2[text()="Contents:"]`},
		{name: "working", start: `./h2[text()="Contents:"]`, end: `./h2[text()="End"]`},
	})
	require.NoError(t, err)
	assert.Equal(t, "working", name)
	assert.Equal(t, []string{"b", "c"}, texts(nodes))

	_, _, err = findSection(body, []sectionStrategy{{name: "empty", start: `./div`, end: `./h2`}})
	require.ErrorIs(t, err, selector.ErrNotFound)
}

func TestParagraphsBetween_EveryParagraph(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString(`<html><body><span class="article-content"><h2>Start</h2>`)
	for i := 0; i < 9; i++ {
		b.WriteString(`<p>x</p>`)
	}
	b.WriteString(`<ul><li>skip</li></ul><p>y</p><h2>Stop</h2><p>after</p></span></body></html>`)

	doc := parse(t, b.String())
	body, err := find(doc, `.//span[@class="article-content"]`)
	require.NoError(t, err)

	nodes, err := sectionParagraphs(body, sectionStrategy{start: `./h2[text()="Start"]`, end: `./h2[text()="Stop"]`})
	require.NoError(t, err)
	assert.Len(t, nodes, 10)
	assert.Equal(t, "y", htmlquery.InnerText(nodes[9]))
}

func TestConcatNodes(t *testing.T) {
	t.Parallel()

	doc := parse(t, siblings)
	nodes, err := queryAll(doc, `.//p[following-sibling::h2[text()="End"]]`)
	require.NoError(t, err)

	div, err := concatNodes(nodes)
	require.NoError(t, err)
	assert.Nil(t, div.Parent)

	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, div))
	assert.Equal(t, `<div><p>a</p><p>b</p><p>c</p></div>`, buf.String())
}
