package models

import "time"

// RawSimilarities holds the unnormalized cosine similarity per aspect.
type RawSimilarities map[Aspect]float64

// MatchScores are the normalized per-aspect scores in [0,100] plus their
// weighted total. SectorAffinity is the normalized category-aspect score.
type MatchScores struct {
	HardSkills     float64 `json:"hard_skills"`
	SoftSkills     float64 `json:"soft_skills"`
	SectorAffinity float64 `json:"sector_affinity"`
	General        float64 `json:"general"`
	Total          float64 `json:"total"`
}

// MatchedPosting is a posting projection decorated with its match scores.
type MatchedPosting struct {
	ID              string          `json:"id"`
	Collection      string          `json:"collection"`
	Title           string          `json:"title"`
	Company         string          `json:"company"`
	Location        string          `json:"location"`
	JobLevel        JobLevel        `json:"job_level,omitempty"`
	AddedAt         time.Time       `json:"added_at"`
	MatchScores     MatchScores     `json:"match_scores"`
	RawSimilarities RawSimilarities `json:"raw_similarities,omitempty"`
}

// CachedMatches is the value stored in the match cache for one
// (user, CV file reference) key.
type CachedMatches struct {
	UserID    string           `json:"user_id"`
	CVFileURL string           `json:"cv_file_url"`
	Postings  []MatchedPosting `json:"postings"`
	CreatedAt time.Time        `json:"created_at"`
}

type MatchPostingsRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

type MatchPostingsResponse struct {
	Postings []MatchedPosting `json:"postings"`
	Metadata MatchMetadata    `json:"metadata"`
}

type MatchMetadata struct {
	UserID        string `json:"user_id"`
	TotalPostings int    `json:"total_postings"`
	CacheHit      bool   `json:"cache_hit"`
}

type MatchSingleRequest struct {
	UserID    string `json:"user_id"`
	PostingID string `json:"posting_id"`
}

type MatchSingleResponse struct {
	Posting  MatchedPosting `json:"posting"`
	Metadata MatchMetadata  `json:"metadata"`
}
