package transcript

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"foolcalls/pkg/logger"
)

var (
	updatedRe   = regexp.MustCompile(`^Updated: (.*) Published:`)
	publishedRe = regexp.MustCompile(`Published: (.*)$`)
	periodEndRe = regexp.MustCompile(`period ending ([a-zA-Z ]+\d{1,2}, 20\d\d)\.$`)
	callTypeRe  = regexp.MustCompile(`(earnings call)|(conference call)|(earnings conference)`)
	fiscalRe    = regexp.MustCompile(`Q\d 20\d\d`)
	callDateRe  = regexp.MustCompile(`20\d\d.{0,3}$`)
	callTimeRe  = regexp.MustCompile(`^\d\d?:\d\d`)
	durationRe  = regexp.MustCompile(`Duration: (\d{1,3}) minutes`)
)

type publicationMetadata struct {
	author    string
	published string
	updated   string
}

// extractPublication reads the author block. The date text is either a single
// timestamp or "Updated: <t1> Published: <t2>".
func extractPublication(n *html.Node) publicationMetadata {
	sel := selection(n)

	author := normalizeSpace(strings.Join(textNodes(sel.Find("div.author-name")), " "))
	raw := normalizeSpace(strings.Join(textNodes(sel.Find("div.publication-date")), " "))

	published, updated := raw, raw
	if m := updatedRe.FindStringSubmatch(raw); m != nil && m[1] != "" {
		updated = m[1]
		published = ""
		if p := publishedRe.FindStringSubmatch(raw); p != nil {
			published = p[1]
		}
	}

	return publicationMetadata{
		author:    author,
		published: formatTimestamp(published),
		updated:   formatTimestamp(updated),
	}
}

type titleMetadata struct {
	title     string
	subtitle  string
	periodEnd string
}

func extractTitle(n *html.Node) titleMetadata {
	sel := selection(n)

	md := titleMetadata{
		title:    normalizeSpace(strings.Join(ownText(sel.ChildrenFiltered("h1")), "")),
		subtitle: normalizeSpace(strings.Join(ownText(sel.ChildrenFiltered("h2")), "")),
	}
	if m := periodEndRe.FindStringSubmatch(md.subtitle); m != nil {
		md.periodEnd = formatDate(m[1])
	}
	return md
}

type headerMetadata struct {
	ticker        string
	exchange      string
	companyName   string
	companyID     string
	fiscalYear    string
	fiscalQuarter string
	shortTitle    string
	callDate      string
	callTime      string
}

// extractHeader reads the company block that opens the transcript: company name, ticker,
// call title and the date/time lines.
func extractHeader(n *html.Node, log logger.Logger) headerMetadata {
	sel := selection(n)

	md := headerMetadata{
		companyName: normalizeSpace(strings.Join(ownText(sel.Find("strong")), "")),
	}

	tickerSpans := sel.Find(`span[class="ticker"]`)
	md.companyID = strings.TrimSpace(tickerSpans.First().AttrOr("data-id", ""))

	tickers := ownText(tickerSpans.ChildrenFiltered("a"))
	if len(tickers) > 0 {
		md.exchange, md.ticker = splitTicker(tickers[0])
	}
	if len(tickers) > 1 {
		log.Warn("Multiple tickers in transcript header, using the first",
			logger.Strings("tickers", tickers))
	}

	lines := headerLines(sel, tickers)

	for _, line := range lines {
		if callTypeRe.MatchString(strings.ToLower(line)) {
			md.shortTitle = normalizeSpace(line)
			break
		}
	}
	if parts := strings.Split(fiscalRe.FindString(md.shortTitle), " "); len(parts) == 2 {
		md.fiscalQuarter, md.fiscalYear = parts[0], parts[1]
	}

	for _, line := range lines {
		if !callDateRe.MatchString(line) {
			continue
		}
		if d := formatDate(line); d != "" {
			md.callDate = d
			break
		}
	}

	for _, line := range lines {
		if !callTimeRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		md.callTime = combineCallTime(md.callDate, line, log)
		break
	}

	return md
}

// headerLines returns the header's text nodes longer than three characters that are not
// ticker labels, with non-breaking spaces replaced.
func headerLines(sel *goquery.Selection, tickers []string) []string {
	isTicker := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		isTicker[t] = true
	}

	var lines []string
	for _, text := range textNodes(sel) {
		if utf8.RuneCountInString(text) <= 3 || isTicker[text] {
			continue
		}
		lines = append(lines, replaceNBSP(text))
	}
	return lines
}

// splitTicker splits "NASDAQ:AAPL" into exchange and ticker. Without a colon the whole
// label is the ticker.
func splitTicker(label string) (exchange, ticker string) {
	label = normalizeSpace(label)
	exchange, ticker, found := strings.Cut(label, ":")
	if !found {
		return "", label
	}
	return strings.TrimSpace(exchange), strings.TrimSpace(ticker)
}

func combineCallTime(callDate, clock string, log logger.Logger) string {
	if callDate == "" {
		log.Warn("Call time found without a call date", logger.String("call_time", clock))
		return ""
	}

	t, err := parseTimestamp(callDate + " " + clock)
	if err != nil {
		log.Warn("Unable to parse call time", logger.String("call_time", clock), logger.Error(err))
		return ""
	}
	return t.Format(timestampLayout)
}

func extractDuration(n *html.Node) string {
	text := replaceNBSP(strings.Join(textNodes(selection(n)), ""))
	if m := durationRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
