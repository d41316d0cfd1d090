// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package notify

import (
	"github.com/elliotchance/pie/v2"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// LogNotifier writes match formation to the log, used when no push service is wired.
type LogNotifier struct{}

func (LogNotifier) NotifyMatchFormed(scope *envelope.Scope, matchID int64, channels models.ChannelPair, teamA, teamB []models.TeamMember) error {
	toID := func(m models.TeamMember) string { return m.PlayerID }
	scope.Log.WithFields(logrus.Fields{
		"matchID":  matchID,
		"channelA": channels.TeamA,
		"channelB": channels.TeamB,
		"teamA":    pie.Map(teamA, toID),
		"teamB":    pie.Map(teamB, toID),
	}).Info("match formed")
	return nil
}
