package transcript

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"foolcalls/pkg/domain"
)

const roleSeparator = " -- "

var (
	analystRe = regexp.MustCompile(`(^anal[a-z]{2,4})|([a-z]{2,4}lyst$)`)

	errNoStatementHeaders = errors.New("no statement headers in non-empty section")
)

type speakerInfo struct {
	speaker     string
	role        string
	affiliation string
}

// segmentStatements splits a section's paragraphs into statements numbered from start.
//
// A paragraph holding <strong> opens a statement. The last paragraph of the section is
// the closing breakpoint, so a statement's text runs from the paragraph after its header
// up to, not including, the next breakpoint.
func segmentStatements(paragraphs []*html.Node, section domain.Section, start int) ([]domain.Statement, error) {
	if len(paragraphs) == 0 {
		return nil, nil
	}

	breakpoints := statementBreakpoints(paragraphs)
	if len(breakpoints) == 1 {
		return nil, errNoStatementHeaders
	}

	statements := make([]domain.Statement, 0, len(breakpoints)-1)
	for i := 0; i < len(breakpoints)-1; i++ {
		from, to := breakpoints[i], breakpoints[i+1]

		info := speakerFromHeader(paragraphs[from])
		statements = append(statements, domain.Statement{
			StatementNum:  start + i,
			Section:       section,
			StatementType: classify(info, section),
			Speaker:       info.speaker,
			Role:          info.role,
			Affiliation:   info.affiliation,
			Text:          dialogue(paragraphs, from+1, to),
		})
	}
	return statements, nil
}

func statementBreakpoints(paragraphs []*html.Node) []int {
	var breakpoints []int
	for i, p := range paragraphs {
		if hasDescendant(p, "strong") {
			breakpoints = append(breakpoints, i)
		}
	}
	return append(breakpoints, len(paragraphs)-1)
}

// speakerFromHeader reads "<strong>Name</strong> -- <em>Affiliation -- Role</em>".
func speakerFromHeader(p *html.Node) speakerInfo {
	sel := selection(p)

	info := speakerInfo{speaker: strings.Join(ownText(sel.Find("strong")), "")}

	if desc := ownText(sel.Find("em")); len(desc) > 0 {
		parts := strings.Split(desc[0], roleSeparator)
		switch len(parts) {
		case 1:
			info.role = parts[0]
		case 2:
			info.affiliation, info.role = parts[0], parts[1]
		}
	}

	info.speaker = trimDashes(info.speaker)
	info.role = trimDashes(info.role)
	info.affiliation = trimDashes(info.affiliation)
	return info
}

func trimDashes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "--")
	s = strings.TrimSuffix(s, "--")
	return strings.TrimSpace(s)
}

func dialogue(paragraphs []*html.Node, from, to int) string {
	if from >= to {
		return ""
	}
	var b strings.Builder
	for _, p := range paragraphs[from:to] {
		b.WriteString(replaceNBSP(strings.Join(textNodes(selection(p)), "")))
	}
	return b.String()
}

// classify applies the first matching rule: analyst role in Q&A, operator, management
// presenting, management answering, otherwise unknown.
func classify(info speakerInfo, section domain.Section) domain.StatementType {
	switch {
	case section == domain.SectionQA && analystRe.MatchString(strings.ToLower(info.role)):
		return domain.StatementQuestionAnalyst
	case info.speaker == "Operator":
		return domain.StatementOperator
	case info.affiliation == "" && section == domain.SectionPresentation:
		return domain.StatementPresentationMgmt
	case info.affiliation == "" && section == domain.SectionQA:
		return domain.StatementAnswerMgmt
	default:
		return domain.StatementUnknown
	}
}
