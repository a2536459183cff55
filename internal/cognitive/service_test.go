package cognitive

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/word-munch/backend/internal/analysis"
)

type fakeStore struct {
	inserted []struct {
		id     string
		userID string
		data   []byte
	}
	rows [][]byte
}

func (f *fakeStore) InsertCognitiveRecord(ctx context.Context, id, userID string, timestamp int64, data []byte, expiresAt int64) error {
	f.inserted = append(f.inserted, struct {
		id     string
		userID string
		data   []byte
	}{id, userID, data})
	return nil
}

func (f *fakeStore) QueryUserRecords(ctx context.Context, userID string, cutoff int64) ([][]byte, error) {
	return f.rows, nil
}

type fakeCache struct {
	profiles    map[string][]byte
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{profiles: make(map[string][]byte)}
}

func (f *fakeCache) GetProfile(ctx context.Context, userID string, days int, out interface{}) (bool, error) {
	data, ok := f.profiles[userID]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, out)
}

func (f *fakeCache) SetProfile(ctx context.Context, userID string, days int, profile interface{}) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	f.profiles[userID] = data
	return nil
}

func (f *fakeCache) InvalidateProfiles(ctx context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	delete(f.profiles, userID)
	return nil
}

func sampleInput() RecordInput {
	return RecordInput{
		OriginalText:      "Rivers carry sediment downstream and deposit it in deltas over time",
		UserUnderstanding: "Rivers move dirt and drop it at the end",
		Result: &analysis.AnalysisResult{
			OverallSimilarity: 0.7,
			Segments:          scored(0.7, 0.7),
			Stats:             analysis.AnalysisStats{TotalSegments: 2, MediumSimilarityCount: 2},
		},
	}
}

func TestRecordAnalysis(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	svc := NewProfileService(store, cache)

	record, err := svc.RecordAnalysis(context.Background(), "user-1", sampleInput())
	require.NoError(t, err)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, record.RecordID, store.inserted[0].id)
	assert.Equal(t, []string{"user-1"}, cache.invalidated)

	var stored CognitiveRecord
	require.NoError(t, json.Unmarshal(store.inserted[0].data, &stored))
	assert.Equal(t, record.RecordID, stored.RecordID)
	assert.InDelta(t, 0.7, stored.OverallSimilarity, 1e-9)
}

func TestRecordAnalysis_Validation(t *testing.T) {
	svc := NewProfileService(&fakeStore{}, nil)

	_, err := svc.RecordAnalysis(context.Background(), "", sampleInput())
	assert.Error(t, err)

	_, err = svc.RecordAnalysis(context.Background(), "user-1", RecordInput{})
	assert.Error(t, err)
}

func TestGetProfile_EmptyStoreGivesDefault(t *testing.T) {
	svc := NewProfileService(&fakeStore{}, nil)

	profile, err := svc.GetProfile(context.Background(), "user-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, profile.PeriodDays, "zero days means the default window")
	assert.Zero(t, profile.TotalAnalyses)
	assert.Equal(t, 50.0, profile.RadarData.Comprehension)
}

func TestGetProfile_AggregatesStoredRecords(t *testing.T) {
	record := strongRecord("2025-03-01", 0.8)
	record.UserID = "user-1"
	data, err := json.Marshal(record)
	require.NoError(t, err)

	svc := NewProfileService(&fakeStore{rows: [][]byte{data}}, nil)

	profile, err := svc.GetProfile(context.Background(), "user-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalAnalyses)
	assert.InDelta(t, 80.0, profile.RadarData.Comprehension, 1e-9)
}

func TestGetProfile_ServesFromCache(t *testing.T) {
	store := &fakeStore{}
	cache := newFakeCache()
	svc := NewProfileService(store, cache)

	// First read populates the cache from the (empty) store.
	first, err := svc.GetProfile(context.Background(), "user-1", 30)
	require.NoError(t, err)

	// Second read must come back from cache even if the store now has rows.
	record := strongRecord("2025-03-01", 0.9)
	data, _ := json.Marshal(record)
	store.rows = [][]byte{data}

	second, err := svc.GetProfile(context.Background(), "user-1", 30)
	require.NoError(t, err)
	assert.Equal(t, first.TotalAnalyses, second.TotalAnalyses)
}

func TestNormalizeDays(t *testing.T) {
	assert.Equal(t, 30, NormalizeDays(0))
	assert.Equal(t, 1, NormalizeDays(-5))
	assert.Equal(t, 1000, NormalizeDays(5000))
	assert.Equal(t, 7, NormalizeDays(7))
}
