package client

import (
	"context"
	"errors"
)

// ErrNotRevealed guards the report screen: it only exists post-reveal.
var ErrNotRevealed = errors.New("relationship is not revealed")

// ReportView is what the reveal report screen renders. When Fallback is set
// the numbers are a display-only approximation derived from the bond score;
// fallback values are never submitted or stored anywhere.
type ReportView struct {
	Overall       int
	Emotional     int
	Communication int
	Values        int
	Attachment    int
	Fallback      bool
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FallbackReport approximates a compatibility breakdown from the bond score
// using fixed offsets. Presentation affordance only.
func FallbackReport(bondScore int) ReportView {
	return ReportView{
		Overall:       clamp100(bondScore),
		Emotional:     clamp100(bondScore + 5),
		Communication: clamp100(bondScore - 3),
		Values:        clamp100(bondScore + 4),
		Attachment:    clamp100(bondScore - 6),
		Fallback:      true,
	}
}

// FetchReport loads the backend-computed report for a revealed relationship,
// falling back to the bond-score approximation when the report is
// unavailable.
func (s *RelationshipStore) FetchReport(ctx context.Context, relID string) (ReportView, error) {
	v, ok := s.Get(relID)
	if !ok || !v.Revealed {
		return ReportView{}, ErrNotRevealed
	}
	report, err := s.api.Report(ctx, relID)
	if err != nil || report == nil {
		return FallbackReport(v.BondScore), nil
	}
	return ReportView{
		Overall:       report.Overall,
		Emotional:     report.Emotional,
		Communication: report.Communication,
		Values:        report.Values,
		Attachment:    report.Attachment,
	}, nil
}
