// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package profile is the rating profile contract of the identity service and its Redis backed
// implementation.
package profile

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-ranked-queue/pkg/envelope"
	"github.com/AccelByte/extend-ranked-queue/pkg/models"
	"github.com/AccelByte/extend-ranked-queue/pkg/store"
)

type Service interface {
	GetRatingProfile(scope *envelope.Scope, playerID string) (models.RatingProfile, error)
	SaveRatingProfile(scope *envelope.Scope, profile models.RatingProfile) error
}

type RedisService struct {
	store         *store.Store
	defaultRating int
}

func NewRedisService(st *store.Store, defaultRating int) *RedisService {
	return &RedisService{store: st, defaultRating: defaultRating}
}

// GetRatingProfile returns a fresh profile at the default rating for a player who never played.
func (s *RedisService) GetRatingProfile(scope *envelope.Scope, playerID string) (models.RatingProfile, error) {
	var profile models.RatingProfile
	err := s.store.Get(scope.Ctx, s.store.ProfileKey(playerID), &profile)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewRatingProfile(playerID, s.defaultRating), nil
	}
	return profile, err
}

func (s *RedisService) SaveRatingProfile(scope *envelope.Scope, profile models.RatingProfile) error {
	return s.store.Put(scope.Ctx, s.store.ProfileKey(profile.PlayerID), profile)
}

// Mutation changes a profile in place and reports whether anything changed.
type Mutation func(profile *models.RatingProfile) (changed bool, err error)

// Mutate loads the player's profile, applies fn and saves it, retrying the whole read-apply-save
// up to maxAttempts times. Errors returned by fn are not retried. Mutations must be idempotent
// per player since a failed save may already have been applied.
func Mutate(rootScope *envelope.Scope, svc Service, playerID string, maxAttempts int, fn Mutation) (models.RatingProfile, error) {
	scope := rootScope.NewChildScope("profile.Mutate")
	defer scope.Finish()
	scope.SetAttributes(envelope.PlayerIDTag, playerID)

	var result models.RatingProfile
	attempt := 0
	op := func() error {
		attempt++
		profile, err := svc.GetRatingProfile(scope, playerID)
		if err != nil {
			return err
		}
		changed, err := fn(&profile)
		if err != nil {
			return backoff.Permanent(err)
		}
		result = profile
		if !changed {
			return nil
		}
		return svc.SaveRatingProfile(scope, profile)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(1, maxAttempts)-1)), scope.Ctx)
	err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		scope.Log.WithError(err).WithFields(logrus.Fields{
			"playerID": playerID,
			"attempt":  attempt,
			"next":     next.String(),
		}).Warn("profile update failed, retrying")
	})
	return result, err
}
