// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"errors"
)

var (
	ErrLocked            = errors.New("matchmaking cycle in progress, retry later")
	ErrAlreadyQueued     = errors.New("player is already queued")
	ErrAlreadyReported   = errors.New("player already reported this match")
	ErrResourceExhausted = errors.New("channel pool is empty")
	ErrPenaltyBlocked    = errors.New("player is blocked from queueing by a penalty")
	ErrNotFound          = errors.New("not found")
	ErrInvalidRoles      = errors.New("at least two distinct valid roles are required")
	ErrAlreadyInMatch    = errors.New("player is already in a match")
	ErrMatchClosed       = errors.New("match is already resolved")
	ErrInvalidOutcome    = errors.New("unknown match outcome")
	ErrNotInMatch        = errors.New("player is not part of this match")
)

var errorCodeMap = map[error]int{
	ErrLocked:            520101,
	ErrAlreadyQueued:     520102,
	ErrAlreadyReported:   520103,
	ErrResourceExhausted: 520104,
	ErrPenaltyBlocked:    520105,
	ErrNotFound:          520106,
	ErrInvalidRoles:      520107,
	ErrAlreadyInMatch:    520108,
	ErrMatchClosed:       520109,
	ErrInvalidOutcome:    520110,
	ErrNotInMatch:        520111,
}

// ErrorCode returns a code for the error, unwrapping as needed.
// It returns 20000 (internal error) if the error is not registered in the map.
func ErrorCode(err error) int {
	for known, code := range errorCodeMap {
		if errors.Is(err, known) {
			return code
		}
	}
	return 20000
}

// IsRetryable reports whether the caller should retry the same request later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLocked) || errors.Is(err, ErrResourceExhausted)
}

// IsNoop reports idempotency violations that callers conventionally treat as success.
func IsNoop(err error) bool {
	return errors.Is(err, ErrAlreadyQueued) || errors.Is(err, ErrAlreadyReported)
}
