package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/scoreapi/adapters/clock"
	"github.com/artpar/scoreapi/adapters/memory"
	"github.com/artpar/scoreapi/app"
	"github.com/artpar/scoreapi/domain/scoring"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScoring(failNext int) (*app.ScoringService, *memory.KVStore, *clock.Fake) {
	c := clock.NewFake(baseTime)
	kv := memory.NewKVStore(c)
	store := app.NewStoreService(app.StoreDeps{
		Backend: memory.NewFlaky(kv, failNext),
		Sleeper: c,
	}, app.DefaultRetryPolicy(), zerolog.Nop())
	return app.NewScoringService(store, time.Hour, zerolog.Nop()), kv, c
}

func TestScoringService_Score_ComputesAndCaches(t *testing.T) {
	svc, kv, _ := newTestScoring(0)
	ctx := context.Background()
	p := scoring.Profile{Phone: "79175002040", Email: "a@b.com"}

	score := svc.Score(ctx, p)

	assert.Equal(t, 3.0, score)
	cached, found, err := kv.Get(ctx, scoring.ScoreKey(p))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "3", cached)
}

func TestScoringService_Score_UsesCache(t *testing.T) {
	svc, kv, _ := newTestScoring(0)
	ctx := context.Background()
	p := scoring.Profile{FirstName: "a", LastName: "b"}

	require.NoError(t, kv.Set(ctx, scoring.ScoreKey(p), "4.5", 0))

	assert.Equal(t, 4.5, svc.Score(ctx, p))
}

func TestScoringService_Score_ZeroCacheIsMiss(t *testing.T) {
	svc, kv, _ := newTestScoring(0)
	ctx := context.Background()
	p := scoring.Profile{FirstName: "a", LastName: "b"}

	require.NoError(t, kv.Set(ctx, scoring.ScoreKey(p), "0", 0))

	assert.Equal(t, 0.5, svc.Score(ctx, p))
}

func TestScoringService_Score_CacheExpires(t *testing.T) {
	svc, kv, c := newTestScoring(0)
	ctx := context.Background()
	p := scoring.Profile{Phone: "79175002040"}

	svc.Score(ctx, p)
	c.Advance(time.Hour)

	_, found, _ := kv.Get(ctx, scoring.ScoreKey(p))
	assert.False(t, found, "score should expire after the ttl")
}

func TestScoringService_Score_StoreDown(t *testing.T) {
	svc, kv, _ := newTestScoring(-1)

	score := svc.Score(context.Background(), scoring.Profile{Phone: "79175002040", Email: "a@b.com"})

	assert.Equal(t, 3.0, score, "outage should fall back to live computation")
	assert.Zero(t, kv.Len())
}

func TestScoringService_Interests(t *testing.T) {
	svc, _, _ := newTestScoring(0)
	ctx := context.Background()

	stored, err := svc.SetInterests(ctx, 1, []string{"books", "travel"})
	require.NoError(t, err)
	require.True(t, stored)

	got, err := svc.Interests(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{"books", "travel"}, got)

	got, err = svc.Interests(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)
}

func TestScoringService_Interests_StoreDown(t *testing.T) {
	svc, _, _ := newTestScoring(-1)

	got, err := svc.Interests(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScoringService_Interests_Corrupt(t *testing.T) {
	svc, kv, _ := newTestScoring(0)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, scoring.InterestsKey(3), "not json", 0))

	_, err := svc.Interests(ctx, 3)

	assert.Error(t, err)
}
