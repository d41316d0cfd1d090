// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package store

import "strconv"

const (
	metaKey       = "meta"
	queuePrefix   = "queue"
	matchPrefix   = "match"
	profilePrefix = "profile"
	historyPrefix = "history"
)

// MetaKey is the singleton MetaRecord of the namespace.
func (s *Store) MetaKey() string {
	return s.Key(metaKey)
}

func (s *Store) QueueKey(playerID string) string {
	return s.Key(queuePrefix, playerID)
}

func (s *Store) MatchKey(matchID int64) string {
	return s.Key(matchPrefix, strconv.FormatInt(matchID, 10))
}

func (s *Store) ProfileKey(playerID string) string {
	return s.Key(profilePrefix, playerID)
}

// HistoryKey is a list, newest record at the tail.
func (s *Store) HistoryKey(playerID string) string {
	return s.Key(historyPrefix, playerID)
}
