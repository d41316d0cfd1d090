// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GetMapValueAs get and cast to a type
func GetMapValueAs[T any](m map[string]interface{}, key string) (t T, ok bool) {
	var v interface{}
	if m == nil {
		return t, false
	}
	if v, ok = m[key]; !ok {
		return t, false
	}
	switch val := v.(type) {
	case T:
		return val, true
	default:
		return t, false
	}
}

// GetFirstMapValueAs returns the first of keys present in m with a value of type T.
// Keys are tried in order, so the canonical name goes first and legacy aliases after it.
func GetFirstMapValueAs[T any](m map[string]interface{}, keys ...string) (t T, key string, ok bool) {
	for _, k := range keys {
		if t, ok = GetMapValueAs[T](m, k); ok {
			return t, k, true
		}
	}
	return t, "", false
}

// Remove returns list without any occurrence of val. The input slice is not modified.
func Remove[T comparable](list []T, val T) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if v != val {
			out = append(out, v)
		}
	}
	return out
}

// GenerateUUID generates uuid without hyphens.
func GenerateUUID() string {
	id, _ := uuid.NewRandom()
	return strings.ReplaceAll(id.String(), "-", "")
}

// SplitCSV splits a comma separated list, trimming blanks and dropping empty items.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
