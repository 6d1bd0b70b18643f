// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package aggregate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noldarim/worklog/internal/worklog/types"
)

func TestDigest_MostRecentFirst(t *testing.T) {
	s := types.Summary{
		"api": {act(10, "Implement the orders endpoint"), act(30, "Fix the flaky login test")},
		"web": {act(20, "Review the checkout redesign")},
	}

	assert.Equal(t, []string{
		"api: Fix the flaky login test",
		"web: Review the checkout redesign",
		"api: Implement the orders endpoint",
	}, Digest(s, DefaultDigestOptions()))
}

func TestDigest_PrefixDedupCountsNonSubstantial(t *testing.T) {
	prefix := strings.Repeat("a", 50)
	s := types.Summary{
		"api": {
			// the older one is substantial, but the newer one claims the prefix first
			act(1, prefix+" implement the thing"),
			act(2, strings.ToUpper(prefix)+" nothing to see"),
		},
	}

	assert.Empty(t, Digest(s, DefaultDigestOptions()))
}

func TestDigest_Idempotent(t *testing.T) {
	s := types.Summary{
		"api": {act(1, "Fix the login bug"), act(2, "Fix the login bug")},
	}
	first := Digest(s, DefaultDigestOptions())
	assert.Equal(t, []string{"api: Fix the login bug"}, first)
	assert.Equal(t, first, Digest(s, DefaultDigestOptions()))
}

func TestDigest_TruncatesAndLimits(t *testing.T) {
	long := "Refactor " + strings.Repeat("x", 200)
	var activities []types.Activity
	for i := 0; i < 15; i++ {
		activities = append(activities, act(i, fmt.Sprintf("Deploy build %02d to staging", i)))
	}
	activities = append(activities, act(100, long))

	bullets := Digest(types.Summary{"ops": activities}, DefaultDigestOptions())
	require.Len(t, bullets, 10)
	assert.Equal(t, "ops: "+long[:150]+"...", bullets[0])
	assert.Equal(t, "ops: Deploy build 14 to staging", bullets[1])

	bullets = Digest(types.Summary{"ops": activities}, DigestOptions{MaxBullets: 2})
	assert.Len(t, bullets, 2)
}

func TestDigest_Empty(t *testing.T) {
	assert.Empty(t, Digest(types.Summary{}, DefaultDigestOptions()))
}
