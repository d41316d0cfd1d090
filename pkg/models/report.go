// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"fmt"
	"strings"

	validator "github.com/AccelByte/justice-input-validation-go"
	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/extend-ranked-queue/pkg/utils"
)

// Field names accepted in report payloads, canonical name first.
var (
	reportOutcomeKeys    = []string{"outcome", "result", "winner"}
	reportAccusationKeys = []string{"accusations", "reported", "reports"}
	reportReasonKeys     = []string{"reason", "comment", "detail"}
	reportCharacterKeys  = []string{"character", "champion", "hero"}
)

var outcomeAliases = map[string]Outcome{
	"a-win":   OutcomeAWin,
	"awin":    OutcomeAWin,
	"a":       OutcomeAWin,
	"teama":   OutcomeAWin,
	"b-win":   OutcomeBWin,
	"bwin":    OutcomeBWin,
	"b":       OutcomeBWin,
	"teamb":   OutcomeBWin,
	"invalid": OutcomeInvalid,
	"void":    OutcomeInvalid,
	"none":    OutcomeInvalid,
}

// ParseOutcome accepts the canonical outcome names and their legacy spellings.
func ParseOutcome(s string) (Outcome, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if o, ok := outcomeAliases[key]; ok {
		return o, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutcome, s)
}

// ReportRequest is the boundary shape of a report submission.
type ReportRequest struct {
	MatchID     int64    `json:"matchID"  valid:"required"`
	PlayerID    string   `json:"playerID" valid:"required"`
	Outcome     Outcome  `json:"outcome"  valid:"required"`
	Accusations []string `json:"accusations,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Character   string   `json:"character,omitempty"`
}

// Validate checks the request and returns a copy with canonical outcome and accusations.
func (r ReportRequest) Validate() (ReportRequest, error) {
	if _, err := validator.ValidateStruct(r); err != nil {
		return r, err
	}
	outcome, err := ParseOutcome(string(r.Outcome))
	if err != nil {
		return r, err
	}
	r.Outcome = outcome
	r.Accusations = normalizeAccusations(r.Accusations, r.PlayerID)
	return r, nil
}

// ReportFromPayload translates a loosely typed report payload into a ReportRequest.
// Legacy field names are resolved here and nowhere else.
func ReportFromPayload(matchID int64, playerID string, payload map[string]interface{}) (ReportRequest, error) {
	req := ReportRequest{MatchID: matchID, PlayerID: playerID}

	outcome, _, ok := utils.GetFirstMapValueAs[string](payload, reportOutcomeKeys...)
	if !ok {
		return req, fmt.Errorf("%w: missing outcome", ErrInvalidOutcome)
	}
	req.Outcome = Outcome(outcome)

	if csv, _, ok := utils.GetFirstMapValueAs[string](payload, reportAccusationKeys...); ok {
		req.Accusations = utils.SplitCSV(csv)
	} else if list, _, ok := utils.GetFirstMapValueAs[[]interface{}](payload, reportAccusationKeys...); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				req.Accusations = append(req.Accusations, s)
			}
		}
	} else if list, _, ok := utils.GetFirstMapValueAs[[]string](payload, reportAccusationKeys...); ok {
		req.Accusations = list
	}

	req.Reason, _, _ = utils.GetFirstMapValueAs[string](payload, reportReasonKeys...)
	req.Character, _, _ = utils.GetFirstMapValueAs[string](payload, reportCharacterKeys...)

	return req.Validate()
}

func normalizeAccusations(ids []string, reporter string) []string {
	trimmed := pie.Map(ids, strings.TrimSpace)
	seen := make(map[string]struct{}, len(trimmed))
	out := make([]string, 0, len(trimmed))
	for _, id := range trimmed {
		if id == "" || id == reporter {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
