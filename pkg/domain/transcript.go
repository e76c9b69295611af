package domain

import (
	"encoding/json"
	"fmt"
)

// Section is the part of the call a statement belongs to.
type Section int

const (
	SectionPresentation Section = iota
	SectionQA
)

var sectionCodes = map[Section]string{
	SectionPresentation: "pres",
	SectionQA:           "qa",
}

func (s Section) String() string {
	if code, ok := sectionCodes[s]; ok {
		return code
	}
	return fmt.Sprintf("Section(%d)", int(s))
}

func (s Section) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Section) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	for section, c := range sectionCodes {
		if c == code {
			*s = section
			return nil
		}
	}
	return fmt.Errorf("unknown section %q", code)
}

// StatementType classifies who is speaking and why.
type StatementType int

const (
	StatementOperator StatementType = iota
	StatementPresentationMgmt
	StatementAnswerMgmt
	StatementQuestionAnalyst
	StatementUnknown
)

var statementTypeCodes = map[StatementType]string{
	StatementOperator:         "O",
	StatementPresentationMgmt: "P",
	StatementAnswerMgmt:       "A",
	StatementQuestionAnalyst:  "Q",
	StatementUnknown:          "U",
}

func (t StatementType) String() string {
	if code, ok := statementTypeCodes[t]; ok {
		return code
	}
	return fmt.Sprintf("StatementType(%d)", int(t))
}

func (t StatementType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *StatementType) UnmarshalJSON(data []byte) error {
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	for st, c := range statementTypeCodes {
		if c == code {
			*t = st
			return nil
		}
	}
	return fmt.Errorf("unknown statement type %q", code)
}

// IsManagement reports whether the statement was made by company management.
func (t StatementType) IsManagement() bool {
	return t == StatementPresentationMgmt || t == StatementAnswerMgmt
}

// Statement is one speaker's contiguous block of dialogue.
type Statement struct {
	StatementNum  int           `bson:"statement_num" json:"statement_num"`
	Section       Section       `bson:"section" json:"section"`
	StatementType StatementType `bson:"statement_type" json:"statement_type"`
	Speaker       string        `bson:"speaker" json:"speaker"`
	Role          string        `bson:"role" json:"role"`
	Affiliation   string        `bson:"affiliation" json:"affiliation"`
	Text          string        `bson:"text" json:"text"`
}

// Participant is a roster entry derived from the first statement by a speaker.
type Participant struct {
	Speaker     string `bson:"speaker" json:"speaker"`
	Role        string `bson:"role" json:"role"`
	Affiliation string `bson:"affiliation" json:"affiliation"`
}

// Participants splits the roster into company management and sell-side analysts.
type Participants struct {
	Management []Participant `bson:"management" json:"management"`
	Analysts   []Participant `bson:"analysts" json:"analysts"`
}

// CallTranscript is the structured record extracted from one transcript page.
// Date and time fields are strings so unparsable values can be carried as "".
type CallTranscript struct {
	PublicationAuthor        string `bson:"publication_author" json:"publication_author"`
	PublicationTimePublished string `bson:"publication_time_published" json:"publication_time_published"`
	PublicationTimeUpdated   string `bson:"publication_time_updated" json:"publication_time_updated"`

	CallTitle    string `bson:"call_title" json:"call_title"`
	CallSubtitle string `bson:"call_subtitle" json:"call_subtitle"`
	PeriodEnd    string `bson:"period_end" json:"period_end"`

	Ticker           string `bson:"ticker" json:"ticker"`
	TickerExchange   string `bson:"ticker_exchange" json:"ticker_exchange"`
	CompanyName      string `bson:"company_name" json:"company_name"`
	FoolCompanyID    string `bson:"fool_company_id" json:"fool_company_id"`
	FiscalPeriodYear string `bson:"fiscal_period_year" json:"fiscal_period_year"`
	FiscalPeriodQtr  string `bson:"fiscal_period_qtr" json:"fiscal_period_qtr"`
	CallShortTitle   string `bson:"call_short_title" json:"call_short_title"`
	CallDate         string `bson:"call_date" json:"call_date"`
	CallTime         string `bson:"call_time" json:"call_time"`

	DurationMinutes string `bson:"duration_minutes" json:"duration_minutes"`

	Participants   Participants `bson:"participants" json:"participants"`
	CallTranscript []Statement  `bson:"call_transcript" json:"call_transcript"`
}

// StructuredCall is a CallTranscript with the identifiers consumers attach to it.
type StructuredCall struct {
	CID     string `bson:"cid" json:"cid"`
	CallURL string `bson:"call_url" json:"call_url"`

	CallTranscript `bson:",inline"`
}
