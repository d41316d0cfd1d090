// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package history keeps the per-player list of resolved match results, oldest first.
package history

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200

	// dedupWindow is how many of the newest records are checked before appending.
	dedupWindow = 10
)

type Recorder struct {
	store *store.Store
}

func NewRecorder(st *store.Store) *Recorder {
	return &Recorder{store: st}
}

// Append stores rec unless the player already has a record for the same match.
// Only the cycle lock holder writes history, so the check and the append do not race.
func (r *Recorder) Append(rootScope *envelope.Scope, rec models.HistoryRecord) (models.HistoryRecord, bool, error) {
	scope := rootScope.NewChildScope("history.Append")
	defer scope.Finish()

	recent, err := r.List(scope, rec.PlayerID, dedupWindow)
	if err != nil {
		return rec, false, err
	}
	for _, existing := range recent {
		if existing.MatchID == rec.MatchID {
			return existing, false, nil
		}
	}

	rec.ID = ulid.MustNew(ulid.Timestamp(rec.MatchAt), ulid.DefaultEntropy()).String()
	if err := r.store.Append(scope.Ctx, r.store.HistoryKey(rec.PlayerID), rec); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

// List returns up to limit of the player's newest records, newest first.
func (r *Recorder) List(rootScope *envelope.Scope, playerID string, limit int) ([]models.HistoryRecord, error) {
	scope := rootScope.NewChildScope("history.List")
	defer scope.Finish()

	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	var records []models.HistoryRecord
	err := r.store.Range(scope.Ctx, r.store.HistoryKey(playerID), int64(-limit), -1, func(raw []byte) error {
		var rec models.HistoryRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
