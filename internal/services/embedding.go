package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
)

const (
	embeddingConcurrency = 25
	embeddingBatchDelay  = time.Second
)

// runEmbeddingStage generates the four aspect vectors for every posting that
// has metadata but no embeddings yet. The aspect set is persisted atomically:
// if any single aspect fails, nothing is written for that posting.
func (p *pipelineService) runEmbeddingStage(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error) {
	details := models.StageDetails{}

	for _, collection := range cfg.targets {
		if err := p.index.EnsureCollection(ctx, collection); err != nil {
			p.logf(result, "⚠️  Vector index unavailable for %s, postings will not be indexed: %v", collection, err)
		}

		postings, err := p.postingRepo.ListSince(collection, cfg.cutoff)
		if err != nil {
			return details, apperrors.NewStageError(StageEmbeddings,
				"cannot read collection "+collection, err)
		}

		details.Total += len(postings)

		var pending []models.JobPosting
		for i := range postings {
			if !postings[i].HasMetadata() {
				details.Skipped++
				continue
			}
			if postings[i].HasEmbeddings() && !cfg.OverwriteEmbeddings {
				details.Skipped++
				continue
			}
			pending = append(pending, postings[i])
		}

		p.logf(result, "💾 Generating embeddings for %d/%d postings in %s",
			len(pending), len(postings), collection)

		results := RunBatched(ctx, pending, embeddingConcurrency, embeddingBatchDelay,
			func(ctx context.Context, posting models.JobPosting) (struct{}, error) {
				return struct{}{}, p.embedOne(ctx, &posting)
			})

		for _, r := range results {
			if r.Err != nil {
				details.Errors++
				p.logf(result, "⚠️  Embedding failed for %s: %v", r.Item.ID, r.Err)
				continue
			}
			details.Processed++
		}
	}

	p.logf(result, "✅ Embedding stage done: %d processed, %d skipped, %d errors",
		details.Processed, details.Skipped, details.Errors)

	return details, nil
}

// embedOne generates and persists the full aspect set for one posting, then
// mirrors the general vector into the vector index. An index failure is a
// warning, not an item error: the posting is fully usable without it.
func (p *pipelineService) embedOne(ctx context.Context, posting *models.JobPosting) error {
	texts, err := aspectTexts(posting.Metadata, posting.JobLevel)
	if err != nil {
		return err
	}

	embeddings := models.AspectEmbeddings{}
	for _, aspect := range models.Aspects {
		vector, err := p.gemini.GenerateEmbedding(ctx, texts[aspect])
		if err != nil {
			return fmt.Errorf("aspect %s: %w", aspect, err)
		}
		embeddings[aspect] = vector
	}

	if err := p.postingRepo.UpdateEmbeddings(posting.Collection, posting.ID, embeddings); err != nil {
		return err
	}

	if err := p.index.UpsertPosting(ctx, posting.Collection, posting.ID, embeddings[models.AspectGeneral]); err != nil {
		p.logfSilent("⚠️  Could not index posting %s: %v", posting.ID, err)
	}

	return nil
}

// aspectTexts builds the text each aspect vector embeds. CVs and postings
// use the same shapes so their vectors live in one space.
func aspectTexts(metadata *models.ExtractedMetadata, jobLevel models.JobLevel) (map[models.Aspect]string, error) {
	if metadata == nil {
		return nil, fmt.Errorf("no metadata to embed")
	}

	category, err := json.Marshal(map[string]interface{}{
		"related_degrees": metadata.RelatedDegrees,
		"category":        metadata.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode category aspect: %w", err)
	}

	general, err := json.Marshal(map[string]interface{}{
		"category":              metadata.Category,
		"hard_skills":           metadata.HardSkills,
		"soft_skills":           metadata.SoftSkills,
		"related_degrees":       metadata.RelatedDegrees,
		"language_requirements": metadata.LanguageRequirements,
		"job_level":             jobLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode general aspect: %w", err)
	}

	return map[models.Aspect]string{
		models.AspectHardSkills: strings.Join(metadata.HardSkills, ", "),
		models.AspectSoftSkills: strings.Join(metadata.SoftSkills, ", "),
		models.AspectCategory:   string(category),
		models.AspectGeneral:    string(general),
	}, nil
}
