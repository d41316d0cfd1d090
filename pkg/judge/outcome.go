// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package judge

import (
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// Counts is the number of claims per outcome among the deciding reports.
type Counts struct {
	AWin    int
	BWin    int
	Invalid int
}

func CountOutcomes(reports []models.ResultReport) Counts {
	var c Counts
	for _, r := range reports {
		switch r.Outcome {
		case models.OutcomeAWin:
			c.AWin++
		case models.OutcomeBWin:
			c.BWin++
		default:
			c.Invalid++
		}
	}
	return c
}

// Resolve needs a strict majority over the other two claims combined. Ties and disagreement are invalid.
func (c Counts) Resolve() models.Outcome {
	switch {
	case c.AWin > c.BWin+c.Invalid:
		return models.OutcomeAWin
	case c.BWin > c.AWin+c.Invalid:
		return models.OutcomeBWin
	default:
		return models.OutcomeInvalid
	}
}

// ResolveOutcome decides the outcome from the first quorum reports in submission order.
func ResolveOutcome(reports []models.ResultReport, quorum int) models.Outcome {
	if len(reports) > quorum {
		reports = reports[:quorum]
	}
	return CountOutcomes(reports).Resolve()
}
