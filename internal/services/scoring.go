package services

import (
	"math"

	"practimatch/job-match-api/internal/models"
)

// Aspect weights of the total match score.
const (
	weightHardSkills     = 0.40
	weightSoftSkills     = 0.10
	weightSectorAffinity = 0.30
	weightGeneral        = 0.20
)

// lowSimilarityBound is the raw cosine similarity that maps to a score of 0.
// Similarities at or below it count as noise.
const lowSimilarityBound = 0.10

type ScoringEngine interface {
	Score(cv models.AspectEmbeddings, posting models.AspectEmbeddings) (models.MatchScores, models.RawSimilarities)
}

type scoringEngine struct{}

func NewScoringEngine() ScoringEngine {
	return &scoringEngine{}
}

// Score implements ScoringEngine. Both the batch matcher and the single
// posting endpoint go through here, so the same CV/posting pair always
// produces the same scores.
func (s *scoringEngine) Score(cv models.AspectEmbeddings, posting models.AspectEmbeddings) (models.MatchScores, models.RawSimilarities) {
	raw := models.RawSimilarities{}
	for _, aspect := range models.Aspects {
		raw[aspect] = CosineSimilarity(cv[aspect], posting[aspect])
	}

	scores := models.MatchScores{
		HardSkills:     normalizeSimilarity(raw[models.AspectHardSkills]),
		SoftSkills:     normalizeSimilarity(raw[models.AspectSoftSkills]),
		SectorAffinity: normalizeSimilarity(raw[models.AspectCategory]),
		General:        normalizeSimilarity(raw[models.AspectGeneral]),
	}

	scores.Total = round1(weightHardSkills*scores.HardSkills +
		weightSoftSkills*scores.SoftSkills +
		weightSectorAffinity*scores.SectorAffinity +
		weightGeneral*scores.General)

	return scores, raw
}

// CosineSimilarity returns the cosine of the angle between two vectors, 0 for
// mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeSimilarity rescales a raw cosine similarity to a 0-100 score.
// Everything at or below lowSimilarityBound floors to 0, a similarity of 1
// maps to 100, and values in between rescale linearly.
func normalizeSimilarity(similarity float64) float64 {
	if similarity <= lowSimilarityBound {
		return 0
	}
	if similarity >= 1 {
		return 100
	}
	return round1((similarity - lowSimilarityBound) / (1 - lowSimilarityBound) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
