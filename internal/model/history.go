package model

import "time"

// HistoryRecord is the one summary row persisted per scored attempt of a logged-in user
type HistoryRecord struct {
	ID              string       `json:"id" bson:"_id,omitempty"`
	UserID          string       `json:"userId" bson:"userId"`
	ExamName        string       `json:"examName" bson:"examName"`
	TestType        TestType     `json:"testType" bson:"testType"`
	Score           float64      `json:"score" bson:"score"`
	Total           float64      `json:"total" bson:"total"`
	Percentage      float64      `json:"percentage" bson:"percentage"`
	Feedback        string       `json:"feedback" bson:"feedback"`
	ResponseDetails *ScoreReport `json:"responseDetails" bson:"responseDetails"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
}

// LeaderboardEntry is one ranked user for a test type
type LeaderboardEntry struct {
	UserID     string  `json:"userId"`
	Percentage float64 `json:"percentage"`
	Rank       int     `json:"rank"`
}

// Leaderboard is the top of a board plus the caller's own standing.
// Rank is 1-indexed and omitted for anonymous or unranked callers.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
	Rank    int64              `json:"rank,omitempty"`
}
