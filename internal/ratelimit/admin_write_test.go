package ratelimit

import (
	"context"
	"testing"

	"github.com/smallbiznis/carhouse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter, err := NewAdminWriteLimiter(config.Config{}, nil, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, limiter.Enabled())

	res, err := limiter.Allow(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	unlock, ok, err := limiter.LockParts(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, ok)
	unlock(context.Background())
}

func TestNilLimiterIsDisabled(t *testing.T) {
	var limiter *AdminWriteLimiter
	assert.False(t, limiter.Enabled())
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, "4s", defaultBucketTTL(5, 10).String())
	assert.Equal(t, "1s", defaultBucketTTL(100, 1).String())
}

func TestCastHelpers(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, 2.5, castToFloat("2.5"))
	assert.Equal(t, 0.0, castToFloat("x"))
}
