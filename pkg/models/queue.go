// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"slices"
	"time"

	validator "github.com/AccelByte/justice-input-validation-go"

	"github.com/AccelByte/extend-ranked-queue/pkg/constants"
	"github.com/AccelByte/extend-ranked-queue/pkg/mathutil"
	"github.com/AccelByte/extend-ranked-queue/pkg/utils"
)

// QueueEntry is a waiting player.
type QueueEntry struct {
	PlayerID   string    `json:"playerID"`
	Roles      []Role    `json:"roles"`
	Blocklist  []string  `json:"blocklist,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// JoinRequest is the boundary shape of a queue join.
type JoinRequest struct {
	PlayerID  string   `json:"playerID" valid:"required"`
	Roles     []Role   `json:"roles"`
	Blocklist []string `json:"blocklist,omitempty"`
}

// Validate checks the request and returns a copy with normalised roles.
func (r JoinRequest) Validate() (JoinRequest, error) {
	if _, err := validator.ValidateStruct(r); err != nil {
		return r, err
	}
	r.Roles = NormalizeRoles(r.Roles)
	if len(r.Roles) < constants.MinJoinRole {
		return r, ErrInvalidRoles
	}
	r.Blocklist = utils.Remove(r.Blocklist, r.PlayerID)
	return r, nil
}

// MetaRecord is the singleton aggregate shared by every queue and match operation.
// It is only ever written through a conditional update, Version increases on each write.
type MetaRecord struct {
	Version  int64        `json:"version"`
	Lock     CycleLock    `json:"lock"`
	Waiting  RoleQueues   `json:"waiting"`
	Channels ChannelPool  `json:"channels"`
	Matches  MatchIndex   `json:"matches"`
	Counters MetaCounters `json:"counters"`
}

// CycleLock is the mutual exclusion flag of the matchmaking cycle.
type CycleLock struct {
	Held       bool      `json:"held"`
	HolderID   string    `json:"holderID,omitempty"`
	AcquiredAt time.Time `json:"acquiredAt,omitempty"`
}

// RoleQueues holds waiting player ids per role. A player appears under every role they offered.
type RoleQueues map[Role][]string

// ChannelPool holds the free base tokens. A base token t is handed out as the pair (t, t+1).
type ChannelPool struct {
	Free []int `json:"free"`
}

type ChannelPair struct {
	TeamA int `json:"teamA"`
	TeamB int `json:"teamB"`
}

type MatchIndex struct {
	LastMatchID int64    `json:"lastMatchID"`
	Ongoing     []int64  `json:"ongoing"`
	InMatch     []string `json:"inMatch"`
}

type MetaCounters struct {
	TotalWaiting int   `json:"totalWaiting"`
	TotalOngoing int   `json:"totalOngoing"`
	Cycles       int64 `json:"cycles"`
}

// QueueSnapshot is the public read model of the queue.
type QueueSnapshot struct {
	TotalWaiting      int          `json:"totalWaiting"`
	PerRoleCounts     map[Role]int `json:"perRoleCounts"`
	OngoingMatchCount int          `json:"ongoingMatchCount"`
}

// NewMetaRecord returns an unlocked record with pairs channel pairs starting at base.
func NewMetaRecord(base, pairs int) MetaRecord {
	free := make([]int, pairs)
	for i := range free {
		free[i] = base + 2*i
	}
	waiting := make(RoleQueues, len(Roles))
	for _, r := range Roles {
		waiting[r] = []string{}
	}
	return MetaRecord{
		Waiting:  waiting,
		Channels: ChannelPool{Free: free},
		Matches:  MatchIndex{Ongoing: []int64{}, InMatch: []string{}},
	}
}

// TryLock takes the cycle lock for holder. A lock older than lease is treated as abandoned.
// It returns whether a stale lock was taken over.
func (m *MetaRecord) TryLock(holder string, now time.Time, lease time.Duration) (tookOver bool, err error) {
	if m.Lock.Held {
		if lease <= 0 || now.Sub(m.Lock.AcquiredAt) < lease {
			return false, ErrLocked
		}
		tookOver = true
	}
	m.Lock = CycleLock{Held: true, HolderID: holder, AcquiredAt: now}
	m.Counters.Cycles++
	return tookOver, nil
}

// Unlock clears the lock if holder still owns it. It reports whether the lock was released.
func (m *MetaRecord) Unlock(holder string) bool {
	if !m.Lock.Held || m.Lock.HolderID != holder {
		return false
	}
	m.Lock = CycleLock{}
	return true
}

func (m *MetaRecord) IsWaiting(playerID string) bool {
	for _, ids := range m.Waiting {
		if slices.Contains(ids, playerID) {
			return true
		}
	}
	return false
}

func (m *MetaRecord) IsInMatch(playerID string) bool {
	return slices.Contains(m.Matches.InMatch, playerID)
}

// AddWaiting registers the entry under each of its roles.
func (m *MetaRecord) AddWaiting(entry QueueEntry) {
	if m.Waiting == nil {
		m.Waiting = make(RoleQueues, len(Roles))
	}
	if m.IsWaiting(entry.PlayerID) {
		return
	}
	for _, r := range entry.Roles {
		m.Waiting[r] = append(m.Waiting[r], entry.PlayerID)
	}
	m.Counters.TotalWaiting++
}

// RemoveWaiting drops the player from every role list. It reports whether the player was waiting.
func (m *MetaRecord) RemoveWaiting(playerID string) bool {
	if !m.IsWaiting(playerID) {
		return false
	}
	for r, ids := range m.Waiting {
		m.Waiting[r] = utils.Remove(ids, playerID)
	}
	m.Counters.TotalWaiting = mathutil.FloorZero(m.Counters.TotalWaiting-1)
	return true
}

// AllocateChannels takes the lowest free base token.
func (m *MetaRecord) AllocateChannels() (ChannelPair, error) {
	if len(m.Channels.Free) == 0 {
		return ChannelPair{}, ErrResourceExhausted
	}
	lowest := 0
	for i, t := range m.Channels.Free {
		if t < m.Channels.Free[lowest] {
			lowest = i
		}
	}
	base := m.Channels.Free[lowest]
	m.Channels.Free = slices.Delete(slices.Clone(m.Channels.Free), lowest, lowest+1)
	return ChannelPair{TeamA: base, TeamB: base + 1}, nil
}

// ReleaseChannels returns the pair to the pool. Releasing twice is a no-op.
func (m *MetaRecord) ReleaseChannels(pair ChannelPair) bool {
	if pair.TeamA == 0 && pair.TeamB == 0 {
		return false
	}
	if slices.Contains(m.Channels.Free, pair.TeamA) {
		return false
	}
	m.Channels.Free = append(m.Channels.Free, pair.TeamA)
	return true
}

// NextMatchID issues the next sequential match id.
func (m *MetaRecord) NextMatchID() int64 {
	m.Matches.LastMatchID++
	return m.Matches.LastMatchID
}

// AddOngoing registers a formed match and moves its players from waiting to in-match.
func (m *MetaRecord) AddOngoing(matchID int64, playerIDs []string) {
	if !slices.Contains(m.Matches.Ongoing, matchID) {
		m.Matches.Ongoing = append(m.Matches.Ongoing, matchID)
		m.Counters.TotalOngoing++
	}
	for _, id := range playerIDs {
		m.RemoveWaiting(id)
		if !slices.Contains(m.Matches.InMatch, id) {
			m.Matches.InMatch = append(m.Matches.InMatch, id)
		}
	}
}

// RemoveOngoing forgets a finished match and frees its players. It reports whether the match was ongoing.
func (m *MetaRecord) RemoveOngoing(matchID int64, playerIDs []string) bool {
	for _, id := range playerIDs {
		m.Matches.InMatch = utils.Remove(m.Matches.InMatch, id)
	}
	if !slices.Contains(m.Matches.Ongoing, matchID) {
		return false
	}
	m.Matches.Ongoing = utils.Remove(m.Matches.Ongoing, matchID)
	m.Counters.TotalOngoing = mathutil.FloorZero(m.Counters.TotalOngoing-1)
	return true
}

func (m *MetaRecord) IsOngoing(matchID int64) bool {
	return slices.Contains(m.Matches.Ongoing, matchID)
}

func (m *MetaRecord) Snapshot() QueueSnapshot {
	perRole := make(map[Role]int, len(Roles))
	for _, r := range Roles {
		perRole[r] = len(m.Waiting[r])
	}
	return QueueSnapshot{
		TotalWaiting:      m.Counters.TotalWaiting,
		PerRoleCounts:     perRole,
		OngoingMatchCount: m.Counters.TotalOngoing,
	}
}
