// Package transcript extracts structured earnings-call transcripts from article pages.
//
// Scrape is a pure function of its input bytes: it performs no I/O and keeps no state
// between calls, so one Scraper can serve any number of goroutines.
package transcript

import (
	"foolcalls/pkg/domain"
	"foolcalls/pkg/logger"
)

// Scraper turns raw transcript pages into CallTranscript records.
type Scraper struct {
	log logger.Logger
}

// NewScraper creates a Scraper. Field-level problems (multiple tickers, unparsable call
// time) are reported to log; a nil log discards them.
func NewScraper(log logger.Logger) *Scraper {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scraper{log: log}
}

// Scrape extracts one transcript. Structural failures are returned as *ExtractionError;
// unparsable individual fields are left empty.
func (s *Scraper) Scrape(raw []byte) (*domain.CallTranscript, error) {
	c, err := locateContainers(raw)
	if err != nil {
		return nil, err
	}
	s.log.Debug("Located transcript containers",
		logger.String("presentation_strategy", c.strategies[StagePresentation]),
		logger.String("qa_strategy", c.strategies[StageQA]),
		logger.Int("presentation_paragraphs", len(c.presentation)),
		logger.Int("qa_paragraphs", len(c.qa)))

	pres, err := segmentStatements(c.presentation, domain.SectionPresentation, 1)
	if err != nil {
		return nil, stageError(StagePresentation, err)
	}
	qa, err := segmentStatements(c.qa, domain.SectionQA, len(pres)+1)
	if err != nil {
		return nil, stageError(StageQA, err)
	}
	statements := make([]domain.Statement, 0, len(pres)+len(qa))
	statements = append(statements, pres...)
	statements = append(statements, qa...)

	return assemble(
		extractPublication(c.publicationInfo),
		extractTitle(c.articleHeader),
		extractHeader(c.transcriptHeader, s.log),
		extractDuration(c.duration),
		statements,
	), nil
}

func assemble(pub publicationMetadata, title titleMetadata, header headerMetadata, duration string, statements []domain.Statement) *domain.CallTranscript {
	return &domain.CallTranscript{
		PublicationAuthor:        pub.author,
		PublicationTimePublished: pub.published,
		PublicationTimeUpdated:   pub.updated,
		CallTitle:                title.title,
		CallSubtitle:             title.subtitle,
		PeriodEnd:                title.periodEnd,
		Ticker:                   header.ticker,
		TickerExchange:           header.exchange,
		CompanyName:              header.companyName,
		FoolCompanyID:            header.companyID,
		FiscalPeriodYear:         header.fiscalYear,
		FiscalPeriodQtr:          header.fiscalQuarter,
		CallShortTitle:           header.shortTitle,
		CallDate:                 header.callDate,
		CallTime:                 header.callTime,
		DurationMinutes:          duration,
		Participants:             buildRoster(statements),
		CallTranscript:           statements,
	}
}
