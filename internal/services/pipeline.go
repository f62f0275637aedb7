package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/repositories"
)

// Stage keys of the enrichment pipeline, in execution order.
const (
	StageMigration  = "migration"
	StageMetadata   = "metadata"
	StageEmbeddings = "embeddings"
	StageCacheClear = "cache_clear"
	StageCleanup    = "cleanup"
)

const defaultDaysBack = 5

// PipelineService runs the posting enrichment pipeline: collection
// migration, metadata extraction, aspect embeddings, match cache clearing
// and document cleanup. Every accepted run returns a result, even when
// individual stages fail.
type PipelineService interface {
	Run(ctx context.Context, cfg models.PipelineConfig) (*models.PipelineResult, error)
}

type pipelineService struct {
	postingRepo       repositories.JobPostingRepository
	failureRepo       repositories.MetadataFailureRepository
	gemini            GeminiService
	index             VectorIndex
	cache             MatchCache
	defaultCollection string
}

func NewPipelineService(
	postingRepo repositories.JobPostingRepository,
	failureRepo repositories.MetadataFailureRepository,
	gemini GeminiService,
	index VectorIndex,
	cache MatchCache,
	defaultCollection string,
) PipelineService {
	return &pipelineService{
		postingRepo:       postingRepo,
		failureRepo:       failureRepo,
		gemini:            gemini,
		index:             index,
		cache:             cache,
		defaultCollection: defaultCollection,
	}
}

// resolvedConfig is the validated per-run configuration. It never changes
// once the run starts.
type resolvedConfig struct {
	models.PipelineConfig
	// targets are the collections the metadata and embedding stages walk:
	// the migration targets, or the default collection when no migrations
	// are configured.
	targets []string
	// cutoff limits stages to documents added after it. Nil means no window.
	cutoff *time.Time
}

func (p *pipelineService) resolveConfig(cfg models.PipelineConfig) (*resolvedConfig, error) {
	if cfg.Sections.EnableMigration && len(cfg.Migrations) == 0 {
		return nil, apperrors.NewValidationError("migrations", "migration is enabled but no migrations are configured")
	}
	if cfg.Sections.EnableCleanup && len(cfg.Cleanups) == 0 {
		return nil, apperrors.NewValidationError("cleanups", "cleanup is enabled but no cleanups are configured")
	}

	for i, m := range cfg.Migrations {
		if m.Source == "" || m.Target == "" {
			return nil, apperrors.NewValidationError("migrations", fmt.Sprintf("migration %d needs source_collection and target_collection", i))
		}
		if m.Source == m.Target {
			return nil, apperrors.NewValidationError("migrations", fmt.Sprintf("migration %d copies %s onto itself", i, m.Source))
		}
		if m.JobLevel != "" && !m.JobLevel.Valid() {
			return nil, apperrors.NewValidationError("migrations", fmt.Sprintf("migration %d has unknown job_level %q", i, m.JobLevel))
		}
	}

	for i, c := range cfg.Cleanups {
		if c.Collection == "" {
			return nil, apperrors.NewValidationError("cleanups", fmt.Sprintf("cleanup %d needs collection_name", i))
		}
		if c.SinceDays <= 0 {
			return nil, apperrors.NewValidationError("cleanups", fmt.Sprintf("cleanup %d needs a positive since_days", i))
		}
	}

	resolved := &resolvedConfig{PipelineConfig: cfg}

	seen := map[string]bool{}
	for _, m := range cfg.Migrations {
		if !seen[m.Target] {
			seen[m.Target] = true
			resolved.targets = append(resolved.targets, m.Target)
		}
	}
	if len(resolved.targets) == 0 {
		resolved.targets = []string{p.defaultCollection}
	}

	daysBack := cfg.DaysBack
	if daysBack == 0 {
		daysBack = defaultDaysBack
	}
	if daysBack > 0 {
		cutoff := time.Now().AddDate(0, 0, -daysBack)
		resolved.cutoff = &cutoff
	}

	return resolved, nil
}

// Run implements PipelineService. Validation errors reject the run before
// any stage starts; after that, a modeled stage failure marks the stage
// failed and the run continues, while an unmodeled error or panic stops the
// run and flips Success to false.
func (p *pipelineService) Run(ctx context.Context, cfg models.PipelineConfig) (*models.PipelineResult, error) {
	resolved, err := p.resolveConfig(cfg)
	if err != nil {
		return nil, err
	}

	result := &models.PipelineResult{
		Success: true,
		Steps:   make(map[string]models.StepResult),
	}

	start := time.Now()
	p.logf(result, "🚀 Pipeline started (collections: %v)", resolved.targets)

	stages := []struct {
		name    string
		enabled bool
		run     func(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error)
	}{
		{StageMigration, cfg.Sections.EnableMigration, p.runMigrationStage},
		{StageMetadata, cfg.Sections.EnableMetadata, p.runMetadataStage},
		{StageEmbeddings, cfg.Sections.EnableEmbeddings, p.runEmbeddingStage},
		{StageCacheClear, cfg.Sections.EnableCacheClear, p.runCacheClearStage},
		{StageCleanup, cfg.Sections.EnableCleanup, p.runCleanupStage},
	}

	for _, stage := range stages {
		if !stage.enabled {
			result.Steps[stage.name] = models.StepResult{
				Name:    stage.name,
				Status:  models.StepSkipped,
				Details: models.StageDetails{Reason: "disabled"},
			}
			p.logf(result, "⏭️  Stage %s skipped (disabled)", stage.name)
			continue
		}

		p.runStage(ctx, stage.name, stage.run, resolved, result)
		if !result.Success {
			break
		}
	}

	result.TotalDurationSeconds = time.Since(start).Seconds()
	p.summarize(result)
	p.logf(result, "🏁 Pipeline finished in %.1fs (success=%v)", result.TotalDurationSeconds, result.Success)

	return result, nil
}

func (p *pipelineService) runStage(
	ctx context.Context,
	name string,
	fn func(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error),
	cfg *resolvedConfig,
	result *models.PipelineResult,
) {
	stageStart := time.Now()
	step := models.StepResult{Name: name, Status: models.StepCompleted}

	func() {
		defer func() {
			if r := recover(); r != nil {
				step.Status = models.StepFailed
				step.Details.Reason = fmt.Sprintf("panic: %v", r)
				result.Success = false
				result.ErrorMessage = fmt.Sprintf("stage %s panicked: %v", name, r)
				p.logf(result, "❌ Stage %s panicked: %v", name, r)
			}
		}()

		details, err := fn(ctx, cfg, result)
		step.Details = details

		if err != nil {
			var stageErr *apperrors.StageError
			if errors.As(err, &stageErr) {
				step.Status = models.StepFailed
				step.Details.Reason = stageErr.Reason
				p.logf(result, "❌ Stage %s failed: %v", name, err)
				return
			}
			step.Status = models.StepFailed
			step.Details.Reason = err.Error()
			result.Success = false
			result.ErrorMessage = err.Error()
			p.logf(result, "❌ Stage %s aborted the run: %v", name, err)
		}
	}()

	step.DurationSeconds = time.Since(stageStart).Seconds()
	result.Steps[name] = step
}

func (p *pipelineService) summarize(result *models.PipelineResult) {
	if step, ok := result.Steps[StageMigration]; ok {
		result.Summary.TotalMigrated = step.Details.Migrated
	}
	if step, ok := result.Steps[StageMetadata]; ok {
		result.Summary.TotalMetadata = step.Details.Processed
	}
	if step, ok := result.Steps[StageEmbeddings]; ok {
		result.Summary.TotalEmbeddings = step.Details.Processed
	}
	if step, ok := result.Steps[StageCacheClear]; ok {
		result.Summary.CachesCleared = step.Details.CachesRemoved
	}
	if step, ok := result.Steps[StageCleanup]; ok {
		result.Summary.TotalDeleted = step.Details.Deleted
	}
}

// logf appends one line to the run log and mirrors it to the server log. It
// must only be called from the stage goroutine; worker goroutines use
// logfSilent instead.
func (p *pipelineService) logf(result *models.PipelineResult, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	result.Summary.Logs = append(result.Summary.Logs, line)
	log.Println(line)
}

// logfSilent logs to the server log only. Safe from any goroutine.
func (p *pipelineService) logfSilent(format string, args ...interface{}) {
	log.Printf(format+"\n", args...)
}
