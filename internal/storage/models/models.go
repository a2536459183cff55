package models

import "time"

// CognitiveRow is the storage shape of one cognitive record. The record body
// is serialized JSON; the flat columns exist for indexing and retention.
type CognitiveRow struct {
	ID        string
	UserID    string
	Timestamp int64
	Data      []byte
	ExpiresAt int64
}

// AnalysisRecord summarizes one comprehension request for history queries.
type AnalysisRecord struct {
	ID                string
	UserID            string
	OverallSimilarity float64
	SegmentCount      int
	Escalated         bool
	ContextUsed       bool
	LatencyMS         int
	CreatedAt         time.Time
}
