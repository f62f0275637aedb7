package services

import (
	"context"
	"time"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
)

const (
	metadataConcurrency = 5
	metadataBatchDelay  = time.Second
)

// runMetadataStage extracts structured metadata for every posting in the
// target collections that does not have it yet. Per-posting extraction
// failures land in the durable failure list and count as stage errors
// without failing the stage.
func (p *pipelineService) runMetadataStage(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error) {
	details := models.StageDetails{}

	for _, collection := range cfg.targets {
		postings, err := p.postingRepo.ListSince(collection, cfg.cutoff)
		if err != nil {
			return details, apperrors.NewStageError(StageMetadata,
				"cannot read collection "+collection, err)
		}

		details.Total += len(postings)

		var pending []models.JobPosting
		for i := range postings {
			if postings[i].HasMetadata() && !cfg.OverwriteMetadata {
				details.Skipped++
				continue
			}
			// Nothing to extract from
			if postings[i].Title == "" && postings[i].Description == "" {
				details.Skipped++
				continue
			}
			pending = append(pending, postings[i])
		}

		p.logf(result, "📝 Extracting metadata for %d/%d postings in %s",
			len(pending), len(postings), collection)

		results := RunBatched(ctx, pending, metadataConcurrency, metadataBatchDelay,
			func(ctx context.Context, posting models.JobPosting) (struct{}, error) {
				return struct{}{}, p.extractOne(ctx, &posting)
			})

		for _, r := range results {
			if r.Err != nil {
				details.Errors++
				p.logf(result, "⚠️  Metadata extraction failed for %s: %v", r.Item.ID, r.Err)
				continue
			}
			details.Processed++
		}
	}

	p.logf(result, "✅ Metadata stage done: %d processed, %d skipped, %d errors",
		details.Processed, details.Skipped, details.Errors)

	return details, nil
}

// extractOne runs the extraction call and persists the outcome, recording or
// resolving the posting's entry in the failure list.
func (p *pipelineService) extractOne(ctx context.Context, posting *models.JobPosting) error {
	metadata, err := p.gemini.ExtractJobMetadata(ctx, posting)
	if err != nil {
		if recErr := p.failureRepo.Record(posting.Collection, posting.ID, posting.Title, err.Error()); recErr != nil {
			p.logfSilent("⚠️  Could not record metadata failure for %s: %v", posting.ID, recErr)
		}
		return err
	}

	if err := p.postingRepo.UpdateMetadata(posting.Collection, posting.ID, metadata); err != nil {
		return err
	}

	if err := p.failureRepo.Resolve(posting.Collection, posting.ID); err != nil {
		p.logfSilent("⚠️  Could not resolve metadata failures for %s: %v", posting.ID, err)
	}

	return nil
}
