package transcript

import "fmt"

// Extraction stages reported in ExtractionError.Stage.
const (
	StageParse            = "parse"
	StagePublicationInfo  = "publication_info"
	StageArticleHeader    = "article_header"
	StageArticleBody      = "article_body"
	StageTranscriptHeader = "transcript_header"
	StagePresentation     = "presentation"
	StageQA               = "qa"
	StageStatements       = "statements"
)

// ExtractionError aborts extraction of a whole document. The markup is static once
// fetched, so callers log and skip rather than retry.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	return &ExtractionError{Stage: stage, Err: err}
}
