// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFirstMapValueAs(t *testing.T) {
	m := map[string]interface{}{"winner": "A-win", "reported": 3}

	v, key, ok := GetFirstMapValueAs[string](m, "result", "outcome", "winner")
	assert.True(t, ok)
	assert.Equal(t, "winner", key)
	assert.Equal(t, "A-win", v)

	_, _, ok = GetFirstMapValueAs[string](m, "reported")
	assert.False(t, ok, "wrong type must not match")

	_, _, ok = GetFirstMapValueAs[string](nil, "result")
	assert.False(t, ok)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitCSV(" a, b,,c ,"))
	assert.Empty(t, SplitCSV(""))
}

func TestRemove(t *testing.T) {
	in := []string{"a", "b", "a", "c"}
	assert.Equal(t, []string{"b", "c"}, Remove(in, "a"))
	assert.Equal(t, []string{"a", "b", "a", "c"}, in)
}

func TestGenerateUUID(t *testing.T) {
	id := GenerateUUID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
}
