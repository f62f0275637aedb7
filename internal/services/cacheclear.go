package services

import (
	"context"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
)

// runCacheClearStage drops every cached match list so users see the postings
// enriched by this run on their next request.
func (p *pipelineService) runCacheClearStage(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error) {
	removed, err := p.cache.ClearAll(ctx)
	details := models.StageDetails{Total: removed, CachesRemoved: removed}

	if err != nil {
		return details, apperrors.NewStageError(StageCacheClear, "cache clear failed", err)
	}

	p.logf(result, "🧹 Match cache cleared: %d entries removed", removed)
	return details, nil
}
