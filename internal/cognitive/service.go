package cognitive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/word-munch/backend/internal/metrics"
	"github.com/word-munch/backend/pkg/logger"
)

const (
	minProfileDays     = 1
	maxProfileDays     = 1000
	defaultProfileDays = 30
)

// RecordStore persists record rows. The store treats the record body as an
// opaque blob so it never depends on this package's types.
type RecordStore interface {
	InsertCognitiveRecord(ctx context.Context, id, userID string, timestamp int64, data []byte, expiresAt int64) error
	QueryUserRecords(ctx context.Context, userID string, cutoff int64) ([][]byte, error)
}

// ProfileCache caches computed profiles and drops them when new records land.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID string, days int, out interface{}) (bool, error)
	SetProfile(ctx context.Context, userID string, days int, profile interface{}) error
	InvalidateProfiles(ctx context.Context, userID string) error
}

// ProfileService builds records from analysis events and aggregates them
// into profiles.
type ProfileService struct {
	store RecordStore
	cache ProfileCache
	now   func() time.Time
}

func NewProfileService(store RecordStore, cache ProfileCache) *ProfileService {
	return &ProfileService{
		store: store,
		cache: cache,
		now:   time.Now,
	}
}

// NormalizeDays clamps the profile window to the accepted range, defaulting
// when unset.
func NormalizeDays(days int) int {
	if days == 0 {
		return defaultProfileDays
	}
	if days < minProfileDays {
		return minProfileDays
	}
	if days > maxProfileDays {
		return maxProfileDays
	}
	return days
}

// RecordAnalysis builds and persists one record, then invalidates the user's
// cached profiles so the next read sees it.
func (s *ProfileService) RecordAnalysis(ctx context.Context, userID string, input RecordInput) (*CognitiveRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if input.Result == nil {
		return nil, fmt.Errorf("analysis result is required")
	}

	record := BuildRecord(userID, input, s.now())

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cognitive record: %w", err)
	}

	err = s.store.InsertCognitiveRecord(ctx, record.RecordID, userID, record.Timestamp, data, record.ExpiresAt())
	if err != nil {
		return nil, fmt.Errorf("failed to store cognitive record: %w", err)
	}
	metrics.CognitiveRecordsWritten.Inc()

	if s.cache != nil {
		if err := s.cache.InvalidateProfiles(ctx, userID); err != nil {
			logger.Warn("Profile invalidation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	logger.Info("Cognitive record stored",
		zap.String("record_id", record.RecordID),
		zap.String("user_id", userID),
		zap.Float64("overall_similarity", record.OverallSimilarity),
	)

	return record, nil
}

// GetProfile returns the aggregated profile for the window, serving from
// cache when a fresh copy exists.
func (s *ProfileService) GetProfile(ctx context.Context, userID string, days int) (*CognitiveProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	days = NormalizeDays(days)

	if s.cache != nil {
		var cached CognitiveProfile
		found, err := s.cache.GetProfile(ctx, userID, days, &cached)
		if err != nil {
			logger.Warn("Profile cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		if found {
			return &cached, nil
		}
	}

	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	rows, err := s.store.QueryUserRecords(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query cognitive records: %w", err)
	}

	records := make([]*CognitiveRecord, 0, len(rows))
	for _, row := range rows {
		var record CognitiveRecord
		if err := json.Unmarshal(row, &record); err != nil {
			logger.Warn("Skipping unreadable cognitive record", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		records = append(records, &record)
	}

	timer := time.Now()
	profile := AggregateProfile(userID, days, records)
	metrics.ProfileBuildDuration.Observe(time.Since(timer).Seconds())

	if s.cache != nil {
		if err := s.cache.SetProfile(ctx, userID, days, profile); err != nil {
			logger.Warn("Profile cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}

	return profile, nil
}
