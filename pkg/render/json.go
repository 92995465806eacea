package render

import (
	"encoding/json"

	"github.com/matzehuels/fourbar/pkg/linkage"
)

type jsonLinkage struct {
	Lengths [4]float64            `json:"lengths"`
	Type    linkage.MechanismType `json:"type"`
	Grashof bool                  `json:"grashof"`
}

type jsonSweep struct {
	Linkage   jsonLinkage              `json:"linkage"`
	Step      int                      `json:"step"`
	Attempted int                      `json:"attempted"`
	Summary   []linkage.BranchSummary  `json:"summary"`
	Results   []linkage.PositionResult `json:"results"`
	Events    []linkage.Event          `json:"events"`
}

// RenderSweepJSON exports a sweep record with the linkage it belongs to and
// its per-branch summary. Empty result or event lists encode as [].
func RenderSweepJSON(l *linkage.Linkage, rec *linkage.SweepRecord) ([]byte, error) {
	out := jsonSweep{
		Linkage: jsonLinkage{
			Lengths: l.Lengths(),
			Type:    l.Classify(),
			Grashof: l.Classify().IsGrashof(),
		},
		Step:      rec.Step,
		Attempted: rec.Attempted(),
		Summary:   rec.Summary(),
		Results:   rec.Results,
		Events:    rec.Events,
	}
	if out.Results == nil {
		out.Results = []linkage.PositionResult{}
	}
	if out.Events == nil {
		out.Events = []linkage.Event{}
	}
	return json.MarshalIndent(out, "", "  ")
}
