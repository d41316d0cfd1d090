// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"gopkg.in/typ.v4/sync2"

	"github.com/AccelByte/extend-ranked-queue/pkg/models"
)

// Pool reusable objects to reduce garbage collector
type Pool struct {
	SlotOwners *sync2.Pool[[]int]
}

func NewPool() *Pool {
	return &Pool{
		SlotOwners: &sync2.Pool[[]int]{
			New: func() []int {
				return make([]int, models.SlotCount())
			},
		},
	}
}
