package transcript_test

import "strings"

// headingEraPage mirrors a transcript page whose sections are marked with <h2> headings.
const headingEraPage = `<!DOCTYPE html>
<html>
<head><title>Apple Inc (AAPL) Q1 2020 Earnings Call Transcript</title></head>
<body>
<section class="usmf-new article-header">
  <header>
    <h1>Apple Inc (AAPL) Q1 2020 Earnings Call Transcript</h1>
    <h2>AAPL earnings call for the period ending December 28, 2019.</h2>
  </header>
</section>
<div class="author-and-date">
  <div class="author-name"> <a href="/author/16145/">Motley Fool</a> <span>Transcribers</span></div>
  <div class="publication-date">
    {{PUBLICATION_DATE}}
  </div>
</div>
<section class="usmf-new article-body">
<span class="article-content">
<p>Image source: The Motley Fool.</p>
<p><strong>Apple Inc</strong>&nbsp;<span class="ticker" data-id="203"><a href="/quote/nasdaq/apple/aapl/">NASDAQ:AAPL</a></span>{{EXTRA_TICKER}}<br>Q1&nbsp;2020 Earnings Call<br><span id="date">Jan 28, 2020</span>, <em id="time">5:00 p.m. ET</em></p>
<h2>Contents:</h2>
<ul><li>Prepared Remarks</li><li>Questions and Answers</li><li>Call Participants</li></ul>
<h2>Prepared Remarks:</h2>
<p><strong>Operator</strong></p>
<p>Good day, everyone.</p>
<p>Welcome to the call.</p>
<p><strong>Tejas Gala</strong> -- <em>Senior Manager, Corporate Finance and Investor Relations</em></p>
<p>Thank you.&nbsp;Good afternoon.</p>
<p><strong>Tim Cook</strong> -- <em>Chief Executive Officer</em></p>
<p>We had a record quarter.</p>
<p>Thank you.</p>
{{QUESTIONS_MARKER}}
<p><strong>Operator</strong></p>
<p>We'll take our first question.</p>
<p><strong>Shannon Cross</strong> -- <em>Cross Research -- Analyst</em></p>
<p>Congratulations on the quarter.</p>
<p><strong>Tim Cook</strong> -- <em>Chief Executive Officer</em></p>
<p>Thanks, Shannon.</p>
<p><strong>Luca Maestri</strong> -- <em>Senior Vice President, Chief Financial Officer</em></p>
<p>Services set a record.</p>
<p>That concludes the call.</p>
<p>Duration: 59 minutes</p>
{{CALL_MARKER}}
<p><strong>Tejas Gala</strong> -- <em>Senior Manager, Corporate Finance and Investor Relations</em></p>
<p><strong>Tim Cook</strong> -- <em>Chief Executive Officer</em></p>
</span>
</section>
</body>
</html>`

type page struct {
	publicationDate string
	extraTicker     string
	strongMarkers   bool
}

func (p page) render() []byte {
	if p.publicationDate == "" {
		p.publicationDate = "Jan 28, 2020 at 11:00PM"
	}

	questions := `<h2>Questions and Answers:</h2>`
	call := `<h2>Call participants:</h2>`
	if p.strongMarkers {
		questions = `<p><strong>Questions and Answers:</strong></p>`
		call = `<p><strong>Call Participants:</strong></p>`
	}

	r := strings.NewReplacer(
		"{{PUBLICATION_DATE}}", p.publicationDate,
		"{{EXTRA_TICKER}}", p.extraTicker,
		"{{QUESTIONS_MARKER}}", questions,
		"{{CALL_MARKER}}", call,
	)
	return []byte(r.Replace(headingEraPage))
}
