package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practimatch/job-match-api/internal/models"
)

func embeddingsFor(vectors map[models.Aspect][]float32) models.AspectEmbeddings {
	e := models.AspectEmbeddings{}
	for _, aspect := range models.Aspects {
		if v, ok := vectors[aspect]; ok {
			e[aspect] = v
		} else {
			e[aspect] = []float32{1, 0, 0}
		}
	}
	return e
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs never score
	assert.Zero(t, CosineSimilarity(nil, []float32{1}))
	assert.Zero(t, CosineSimilarity([]float32{1, 2}, []float32{1}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalizeSimilarityBounds(t *testing.T) {
	// At or below the low bound everything floors to zero
	assert.Zero(t, normalizeSimilarity(0.10))
	assert.Zero(t, normalizeSimilarity(0.05))
	assert.Zero(t, normalizeSimilarity(-0.4))

	// Perfect similarity is a perfect score
	assert.Equal(t, 100.0, normalizeSimilarity(1.0))

	// In between the score is strictly monotone and stays inside [0,100]
	prev := 0.0
	for s := 0.11; s < 1.0; s += 0.05 {
		score := normalizeSimilarity(s)
		assert.Greater(t, score, prev)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestScoreWeightInvariant(t *testing.T) {
	engine := NewScoringEngine()

	cv := embeddingsFor(map[models.Aspect][]float32{
		models.AspectHardSkills: {1, 0, 0},
		models.AspectSoftSkills: {0.8, 0.6, 0},
		models.AspectCategory:   {0.5, 0.5, 0.7},
		models.AspectGeneral:    {0.2, 0.9, 0.4},
	})
	posting := embeddingsFor(map[models.Aspect][]float32{
		models.AspectHardSkills: {0.9, 0.3, 0.1},
		models.AspectSoftSkills: {0.7, 0.7, 0.1},
		models.AspectCategory:   {0.4, 0.6, 0.6},
		models.AspectGeneral:    {0.3, 0.8, 0.5},
	})

	scores, raw := engine.Score(cv, posting)

	expected := math.Round((0.40*scores.HardSkills+
		0.10*scores.SoftSkills+
		0.30*scores.SectorAffinity+
		0.20*scores.General)*10) / 10
	assert.Equal(t, expected, scores.Total)

	require.Len(t, raw, len(models.Aspects))
	for _, aspect := range models.Aspects {
		assert.GreaterOrEqual(t, raw[aspect], -1.0)
		assert.LessOrEqual(t, raw[aspect], 1.0)
	}
}

func TestScoreIdenticalEmbeddings(t *testing.T) {
	engine := NewScoringEngine()
	e := embeddingsFor(map[models.Aspect][]float32{
		models.AspectHardSkills: {0.3, 0.3, 0.9},
		models.AspectSoftSkills: {0.1, 0.8, 0.2},
		models.AspectCategory:   {0.5, 0.5, 0.5},
		models.AspectGeneral:    {0.9, 0.1, 0.1},
	})

	scores, _ := engine.Score(e, e)

	assert.Equal(t, 100.0, scores.HardSkills)
	assert.Equal(t, 100.0, scores.SoftSkills)
	assert.Equal(t, 100.0, scores.SectorAffinity)
	assert.Equal(t, 100.0, scores.General)
	assert.Equal(t, 100.0, scores.Total)
}

func TestScoreNoiseFloorsToZero(t *testing.T) {
	engine := NewScoringEngine()

	// Orthogonal vectors on every aspect: raw similarity 0, below the bound
	cv := embeddingsFor(map[models.Aspect][]float32{
		models.AspectHardSkills: {1, 0, 0},
		models.AspectSoftSkills: {1, 0, 0},
		models.AspectCategory:   {1, 0, 0},
		models.AspectGeneral:    {1, 0, 0},
	})
	posting := embeddingsFor(map[models.Aspect][]float32{
		models.AspectHardSkills: {0, 1, 0},
		models.AspectSoftSkills: {0, 1, 0},
		models.AspectCategory:   {0, 1, 0},
		models.AspectGeneral:    {0, 1, 0},
	})

	scores, _ := engine.Score(cv, posting)
	assert.Zero(t, scores.Total)
}

func TestScoreDeterministic(t *testing.T) {
	engine := NewScoringEngine()
	cv := embeddingsFor(map[models.Aspect][]float32{
		models.AspectGeneral: {0.4, 0.4, 0.8},
	})
	posting := embeddingsFor(map[models.Aspect][]float32{
		models.AspectGeneral: {0.5, 0.3, 0.8},
	})

	first, _ := engine.Score(cv, posting)
	second, _ := engine.Score(cv, posting)
	assert.Equal(t, first, second)
}
