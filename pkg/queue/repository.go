// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package queue owns the waiting-player entries and the namespace MetaRecord. Every MetaRecord
// mutation is a conditional update on the meta key, so concurrent joins never lose each other.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elliotchance/pie/v2"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

type Options struct {
	ChannelBase  int
	ChannelPairs int
}

type Repository struct {
	store *store.Store
	clock clockwork.Clock
	opts  Options
}

func NewRepository(st *store.Store, clock clockwork.Clock, opts Options) *Repository {
	return &Repository{store: st, clock: clock, opts: opts}
}

func (r *Repository) newMeta() models.MetaRecord {
	return models.NewMetaRecord(r.opts.ChannelBase, r.opts.ChannelPairs)
}

// EnsureMeta creates the MetaRecord if the namespace has none yet.
func (r *Repository) EnsureMeta(rootScope *envelope.Scope) (bool, error) {
	scope := rootScope.NewChildScope("queue.EnsureMeta")
	defer scope.Finish()

	created, err := r.store.PutIfAbsent(scope.Ctx, r.store.MetaKey(), r.newMeta())
	if err != nil {
		return false, err
	}
	if created {
		scope.Log.WithFields(logrus.Fields{
			"channelBase":  r.opts.ChannelBase,
			"channelPairs": r.opts.ChannelPairs,
		}).Info("meta record created")
	}
	return created, nil
}

func (r *Repository) GetMeta(rootScope *envelope.Scope) (models.MetaRecord, error) {
	scope := rootScope.NewChildScope("queue.GetMeta")
	defer scope.Finish()

	var meta models.MetaRecord
	err := r.store.Get(scope.Ctx, r.store.MetaKey(), &meta)
	if errors.Is(err, models.ErrNotFound) {
		return r.newMeta(), nil
	}
	return meta, err
}

// updateMeta runs fn on the current MetaRecord and commits it with the writes fn buffered.
// extraKeys are watched alongside the meta key.
func (r *Repository) updateMeta(scope *envelope.Scope, extraKeys []string, fn func(tx *store.Tx, meta *models.MetaRecord) error) (models.MetaRecord, error) {
	var committed models.MetaRecord
	keys := append([]string{r.store.MetaKey()}, extraKeys...)
	err := r.store.Update(scope.Ctx, keys, func(tx *store.Tx) error {
		var meta models.MetaRecord
		err := tx.Get(r.store.MetaKey(), &meta)
		if errors.Is(err, models.ErrNotFound) {
			meta = r.newMeta()
		} else if err != nil {
			return err
		}

		if err := fn(tx, &meta); err != nil {
			return err
		}
		meta.Version++
		committed = meta
		return tx.Put(r.store.MetaKey(), meta)
	})
	return committed, err
}

// Snapshot returns the public read model of the queue.
func (r *Repository) Snapshot(rootScope *envelope.Scope) (models.QueueSnapshot, error) {
	meta, err := r.GetMeta(rootScope)
	if err != nil {
		return models.QueueSnapshot{}, err
	}
	return meta.Snapshot(), nil
}

// Join enqueues a validated request. It fails with ErrLocked while a cycle runs,
// ErrAlreadyInMatch while the player is in a match and ErrAlreadyQueued on a duplicate.
func (r *Repository) Join(rootScope *envelope.Scope, req models.JoinRequest) (models.QueueEntry, models.QueueSnapshot, error) {
	scope := rootScope.NewChildScope("queue.Join")
	defer scope.Finish()
	scope.SetAttributes(envelope.PlayerIDTag, req.PlayerID)

	entry := models.QueueEntry{
		PlayerID:   req.PlayerID,
		Roles:      req.Roles,
		Blocklist:  req.Blocklist,
		EnqueuedAt: r.clock.Now().UTC(),
	}
	entryKey := r.store.QueueKey(req.PlayerID)

	meta, err := r.updateMeta(scope, []string{entryKey}, func(tx *store.Tx, meta *models.MetaRecord) error {
		if meta.Lock.Held {
			return models.ErrLocked
		}
		if meta.IsInMatch(req.PlayerID) {
			return models.ErrAlreadyInMatch
		}
		exists, err := tx.Exists(entryKey)
		if err != nil {
			return err
		}
		if exists || meta.IsWaiting(req.PlayerID) {
			return models.ErrAlreadyQueued
		}
		meta.AddWaiting(entry)
		return tx.Put(entryKey, entry)
	})
	if err != nil {
		return models.QueueEntry{}, models.QueueSnapshot{}, err
	}

	scope.Log.WithFields(logrus.Fields{
		"playerID": entry.PlayerID,
		"roles":    entry.Roles,
	}).Debug("player joined queue")
	return entry, meta.Snapshot(), nil
}

// Leave removes the player from the queue. Leaving when not queued is not an error,
// but it is still refused with ErrLocked while a cycle runs.
func (r *Repository) Leave(rootScope *envelope.Scope, playerID string) (bool, models.QueueSnapshot, error) {
	scope := rootScope.NewChildScope("queue.Leave")
	defer scope.Finish()
	scope.SetAttributes(envelope.PlayerIDTag, playerID)

	entryKey := r.store.QueueKey(playerID)
	removed := false
	meta, err := r.updateMeta(scope, []string{entryKey}, func(tx *store.Tx, meta *models.MetaRecord) error {
		removed = false
		if meta.Lock.Held {
			return models.ErrLocked
		}
		exists, err := tx.Exists(entryKey)
		if err != nil {
			return err
		}
		removed = meta.RemoveWaiting(playerID) || exists
		if exists {
			tx.Delete(entryKey)
		}
		return nil
	})
	if err != nil {
		return false, models.QueueSnapshot{}, err
	}
	return removed, meta.Snapshot(), nil
}

// ListEntries returns the waiting entries in enqueue order.
func (r *Repository) ListEntries(rootScope *envelope.Scope) ([]models.QueueEntry, error) {
	scope := rootScope.NewChildScope("queue.ListEntries")
	defer scope.Finish()

	meta, err := r.GetMeta(scope)
	if err != nil {
		return nil, err
	}
	return r.entriesOf(scope, meta)
}

func (r *Repository) entriesOf(scope *envelope.Scope, meta models.MetaRecord) ([]models.QueueEntry, error) {
	var ids []string
	for _, role := range models.Roles {
		ids = append(ids, meta.Waiting[role]...)
	}
	ids = pie.Unique(ids)
	keys := pie.Map(ids, r.store.QueueKey)

	entries := make([]models.QueueEntry, 0, len(keys))
	err := r.store.GetMany(scope.Ctx, keys, func(key string, raw []byte) error {
		var entry models.QueueEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(entries) != len(ids) {
		scope.Log.WithFields(logrus.Fields{
			"waiting": len(ids),
			"entries": len(entries),
		}).Warn("meta waiting list and queue entries disagree")
	}

	return pie.SortUsing(entries, func(a, b models.QueueEntry) bool {
		if a.EnqueuedAt.Equal(b.EnqueuedAt) {
			return a.PlayerID < b.PlayerID
		}
		return a.EnqueuedAt.Before(b.EnqueuedAt)
	}), nil
}

// AcquireLock takes the cycle lock for holder and returns the MetaRecord as locked.
// A lock older than lease is taken over.
func (r *Repository) AcquireLock(rootScope *envelope.Scope, holder string, lease time.Duration) (models.MetaRecord, error) {
	scope := rootScope.NewChildScope("queue.AcquireLock")
	defer scope.Finish()

	var previous models.CycleLock
	tookOver := false
	meta, err := r.updateMeta(scope, nil, func(_ *store.Tx, meta *models.MetaRecord) (err error) {
		previous = meta.Lock
		tookOver, err = meta.TryLock(holder, r.clock.Now().UTC(), lease)
		return err
	})
	if err != nil {
		return models.MetaRecord{}, err
	}
	if tookOver {
		scope.Log.WithFields(logrus.Fields{
			"holder":          holder,
			"staleHolder":     previous.HolderID,
			"staleAcquiredAt": previous.AcquiredAt,
		}).Warn("took over stale cycle lock")
	}
	return meta, nil
}

// ReleaseLock clears the lock if holder still owns it.
func (r *Repository) ReleaseLock(rootScope *envelope.Scope, holder string) error {
	scope := rootScope.NewChildScope("queue.ReleaseLock")
	defer scope.Finish()

	released := false
	_, err := r.updateMeta(scope, nil, func(_ *store.Tx, meta *models.MetaRecord) error {
		released = meta.Unlock(holder)
		return nil
	})
	if err != nil {
		return err
	}
	if !released {
		scope.Log.WithField("holder", holder).Warn("cycle lock was no longer held by this cycle")
	}
	return nil
}

// CommitMatch forms a match in one conditional update: it allocates the match id and the
// channel pair, writes the record built by build, dequeues the players and registers them
// in the ongoing set. Nothing is written when any step fails.
func (r *Repository) CommitMatch(rootScope *envelope.Scope, playerIDs []string, build func(matchID int64, channels models.ChannelPair) models.MatchRecord) (models.MatchRecord, error) {
	scope := rootScope.NewChildScope("queue.CommitMatch")
	defer scope.Finish()

	entryKeys := pie.Map(playerIDs, r.store.QueueKey)
	var record models.MatchRecord
	_, err := r.updateMeta(scope, entryKeys, func(tx *store.Tx, meta *models.MetaRecord) error {
		for _, id := range playerIDs {
			if !meta.IsWaiting(id) {
				return fmt.Errorf("player %s left the queue: %w", id, models.ErrNotFound)
			}
			if meta.IsInMatch(id) {
				return fmt.Errorf("player %s: %w", id, models.ErrAlreadyInMatch)
			}
		}
		channels, err := meta.AllocateChannels()
		if err != nil {
			return err
		}
		matchID := meta.NextMatchID()
		record = build(matchID, channels)
		if err := tx.Put(r.store.MatchKey(matchID), record); err != nil {
			return err
		}
		tx.Delete(entryKeys...)
		meta.AddOngoing(matchID, playerIDs)
		return nil
	})
	if err != nil {
		return models.MatchRecord{}, err
	}
	return record, nil
}

// ReleaseMatch returns the match's channels to the pool and frees its players. Only an ongoing
// match is released, so a repeated release cannot free a pair already handed to a newer match.
func (r *Repository) ReleaseMatch(rootScope *envelope.Scope, match models.MatchRecord) (bool, error) {
	scope := rootScope.NewChildScope("queue.ReleaseMatch")
	defer scope.Finish()
	scope.SetAttributes(envelope.MatchIDTag, match.MatchID)

	released := false
	_, err := r.updateMeta(scope, nil, func(_ *store.Tx, meta *models.MetaRecord) error {
		released = meta.IsOngoing(match.MatchID)
		if released {
			meta.ReleaseChannels(match.Channels)
			meta.RemoveOngoing(match.MatchID, match.PlayerIDs())
		}
		return nil
	})
	return released, err
}
