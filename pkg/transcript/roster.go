package transcript

import "foolcalls/pkg/domain"

// buildRoster lists each speaker once, at their first management or analyst statement.
// A speaker already listed is not added again even if a later statement is typed differently.
func buildRoster(statements []domain.Statement) domain.Participants {
	roster := domain.Participants{
		Management: []domain.Participant{},
		Analysts:   []domain.Participant{},
	}
	seenMgmt := make(map[string]bool)
	seenAnalyst := make(map[string]bool)

	for _, s := range statements {
		p := domain.Participant{Speaker: s.Speaker, Role: s.Role, Affiliation: s.Affiliation}

		switch {
		case s.StatementType.IsManagement() && !seenMgmt[s.Speaker]:
			seenMgmt[s.Speaker] = true
			roster.Management = append(roster.Management, p)
		case s.StatementType == domain.StatementQuestionAnalyst && !seenAnalyst[s.Speaker]:
			seenAnalyst[s.Speaker] = true
			roster.Analysts = append(roster.Analysts, p)
		}
	}
	return roster
}
