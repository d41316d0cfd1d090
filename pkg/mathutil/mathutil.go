// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package mathutil

type Number interface {
	~int | ~int32 | ~int64 | ~float64
}

// Abs returns the absolute value of x.
func Abs[T Number](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// FloorZero clamps negative values to zero.
func FloorZero[T Number](x T) T {
	return max(x, 0)
}
