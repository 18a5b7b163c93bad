package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func TestCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping redis integration test: set REDIS_ADDR to run")
	}

	ctx := context.Background()
	c, err := Connect(ctx, Options{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	key := "integration-" + time.Now().Format("150405.000")
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.Classification{Mood: domain.MoodFocused, Energy: domain.EnergyMedium, Tempo: domain.TempoModerate, Source: domain.SourceRules}
	require.NoError(t, c.Set(ctx, key, want, time.Minute))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Mood, got.Mood)
	assert.Equal(t, want.Source, got.Source)
}
