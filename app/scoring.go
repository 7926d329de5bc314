package app

import (
	"context"
	"time"

	"github.com/artpar/scoreapi/domain/scoring"
	"github.com/artpar/scoreapi/ports"
	"github.com/rs/zerolog"
)

// ScoringService computes profile scores and reads client interests
// through the store facade.
type ScoringService struct {
	store    ports.Store
	scoreTTL time.Duration
	logger   zerolog.Logger
}

// NewScoringService creates a new scoring service. Scores are cached for
// scoreTTL.
func NewScoringService(store ports.Store, scoreTTL time.Duration, logger zerolog.Logger) *ScoringService {
	return &ScoringService{
		store:    store,
		scoreTTL: scoreTTL,
		logger:   logger,
	}
}

// Score returns the cached score of p, or computes and caches it.
// A store outage falls back to live computation.
func (s *ScoringService) Score(ctx context.Context, p scoring.Profile) float64 {
	key := scoring.ScoreKey(p)

	if raw, ok := s.store.CacheGet(ctx, key); ok {
		if score, ok := scoring.ParseScore(raw); ok {
			return score
		}
	}

	score := scoring.Compute(p)
	if !s.store.CacheSet(ctx, key, scoring.FormatScore(score), s.scoreTTL) {
		s.logger.Debug().Str("key", key).Msg("score not cached")
	}
	return score
}

// Interests returns the interest list stored for clientID.
// A missing entry or a store outage yields an empty list.
func (s *ScoringService) Interests(ctx context.Context, clientID int64) ([]any, error) {
	raw, found := s.store.Get(ctx, scoring.InterestsKey(clientID))
	return scoring.DecodeInterests(raw, found)
}

// SetInterests stores the interest list of clientID without expiry.
func (s *ScoringService) SetInterests(ctx context.Context, clientID int64, interests []string) (bool, error) {
	raw, err := scoring.EncodeInterests(interests)
	if err != nil {
		return false, err
	}
	return s.store.CacheSet(ctx, scoring.InterestsKey(clientID), raw, 0), nil
}

// Ensure interface compliance.
var _ ports.Scorer = (*ScoringService)(nil)
