package transcript

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"foolcalls/pkg/selector"
)

const (
	publicationInfoXPath = `.//div[@class="author-and-date"]`
	articleHeaderXPath   = `.//section[@class="usmf-new article-header"]/header`
	articleBodyXPath     = `.//section[@class="usmf-new article-body"]/span[@class="article-content"]`
	contentsMarkerXPath  = `./h2[text()="Contents:"]`
)

// Section markers. Keep each query to a single, non-nested predicate: antchfx/xpath
// skips every other node when a sibling-axis predicate nests another one.
const (
	preparedHeading  = `./h2[contains(., "Prepared")]`
	questionsHeading = `./h2[contains(., "Questions")]`
	callHeading      = `./h2[contains(., "Call")]`
	questionsStrong  = `./p/strong[contains(., "Questions")]/..`
	callStrong       = `./p/strong[contains(., "Call")]/..`
)

// sectionStrategy is one way of bounding a section's paragraphs. Older pages mark
// sections with <h2> headings; newer ones use a paragraph holding <strong> text.
// A section is every <p> after the first start marker and before the last end marker.
type sectionStrategy struct {
	name  string
	start string
	end   string
}

var presentationStrategies = []sectionStrategy{
	{name: "heading", start: preparedHeading, end: questionsHeading},
	{name: "strong", start: preparedHeading, end: questionsStrong},
}

var qaStrategies = []sectionStrategy{
	{name: "heading", start: questionsHeading, end: callHeading},
	{name: "strong", start: questionsStrong, end: callStrong},
}

// containers are the structural sub-trees every field extractor works from.
type containers struct {
	publicationInfo  *html.Node
	articleHeader    *html.Node
	articleBody      *html.Node
	transcriptHeader *html.Node
	presentation     []*html.Node
	qa               []*html.Node
	duration         *html.Node

	// strategies records which section strategy matched, for logging.
	strategies map[string]string
}

func locateContainers(raw []byte) (*containers, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, stageError(StageParse, err)
	}

	c := &containers{strategies: make(map[string]string, 2)}

	if c.publicationInfo, err = find(doc, publicationInfoXPath); err != nil {
		return nil, stageError(StagePublicationInfo, err)
	}
	if c.articleHeader, err = find(doc, articleHeaderXPath); err != nil {
		return nil, stageError(StageArticleHeader, err)
	}
	if c.articleBody, err = find(doc, articleBodyXPath); err != nil {
		return nil, stageError(StageArticleBody, err)
	}

	headerParagraphs, err := transcriptHeaderParagraphs(c.articleBody)
	if err != nil {
		return nil, stageError(StageTranscriptHeader, err)
	}
	if c.transcriptHeader, err = concatNodes(headerParagraphs); err != nil {
		return nil, stageError(StageTranscriptHeader, err)
	}

	var strategy string
	if c.presentation, strategy, err = findSection(c.articleBody, presentationStrategies); err != nil {
		return nil, stageError(StagePresentation, err)
	}
	c.strategies[StagePresentation] = strategy

	qaRaw, strategy, err := findSection(c.articleBody, qaStrategies)
	if err != nil {
		return nil, stageError(StageQA, err)
	}
	c.strategies[StageQA] = strategy

	// The closing paragraph before the "Call participants" marker carries the duration.
	last := len(qaRaw) - 1
	c.qa, c.duration = qaRaw[:last], qaRaw[last]

	return c, nil
}

// findSection tries each strategy in order. Any failure of a strategy, whether the query
// could not be evaluated or matched nothing, moves on to the next one.
func findSection(body *html.Node, strategies []sectionStrategy) ([]*html.Node, string, error) {
	var errs []error
	for _, s := range strategies {
		nodes, err := sectionParagraphs(body, s)
		if err == nil {
			return nodes, s.name, nil
		}
		errs = append(errs, fmt.Errorf("%s strategy: %w", s.name, err))
	}
	return nil, "", errors.Join(errs...)
}

func sectionParagraphs(body *html.Node, s sectionStrategy) ([]*html.Node, error) {
	starts, err := findAll(body, s.start)
	if err != nil {
		return nil, fmt.Errorf("start marker: %w", err)
	}
	ends, err := findAll(body, s.end)
	if err != nil {
		return nil, fmt.Errorf("end marker: %w", err)
	}
	return selector.RequireMany(func() ([]*html.Node, error) {
		return paragraphsBetween(starts[0].NextSibling, ends[len(ends)-1]), nil
	}, true)
}

// transcriptHeaderParagraphs returns the <p> siblings ahead of the last "Contents:" heading.
func transcriptHeaderParagraphs(body *html.Node) ([]*html.Node, error) {
	markers, err := findAll(body, contentsMarkerXPath)
	if err != nil {
		return nil, err
	}
	marker := markers[len(markers)-1]
	return selector.RequireMany(func() ([]*html.Node, error) {
		return paragraphsBetween(marker.Parent.FirstChild, marker), nil
	}, true)
}

// paragraphsBetween collects the <p> elements from first up to, not including, end.
// It returns nil when end is not a later sibling of first.
func paragraphsBetween(first, end *html.Node) []*html.Node {
	var out []*html.Node
	for n := first; n != nil; n = n.NextSibling {
		if n == end {
			return out
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			out = append(out, n)
		}
	}
	return nil
}
