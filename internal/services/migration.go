package services

import (
	"context"
	"fmt"
	"time"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
)

const (
	migrationBatchSize  = 50
	migrationBatchDelay = 100 * time.Millisecond
)

// runMigrationStage copies postings from each source collection into its
// target, tagging them with the migration's job level. A posting already
// present in the target is skipped, so re-running a migration never
// duplicates documents.
func (p *pipelineService) runMigrationStage(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error) {
	details := models.StageDetails{}

	for _, migration := range cfg.Migrations {
		unit := models.UnitResult{
			Name: fmt.Sprintf("%s → %s", migration.Source, migration.Target),
		}

		postings, err := p.postingRepo.ListSince(migration.Source, cfg.cutoff)
		if err != nil {
			return details, apperrors.NewStageError(StageMigration,
				fmt.Sprintf("cannot read source collection %s", migration.Source), err)
		}

		unit.Total = len(postings)
		p.logf(result, "🔄 Migrating %d postings from %s to %s", len(postings), migration.Source, migration.Target)

		for start := 0; start < len(postings); start += migrationBatchSize {
			end := start + migrationBatchSize
			if end > len(postings) {
				end = len(postings)
			}

			for i := start; i < end; i++ {
				migrated, err := p.migrateOne(&postings[i], migration)
				switch {
				case err != nil:
					unit.Errors++
					p.logf(result, "⚠️  Could not migrate %s: %v", postings[i].ID, err)
				case migrated:
					unit.Migrated++
				default:
					unit.Skipped++
				}
			}

			if end < len(postings) {
				time.Sleep(migrationBatchDelay)
			}
		}

		p.logf(result, "✅ Migration %s done: %d migrated, %d skipped, %d errors",
			unit.Name, unit.Migrated, unit.Skipped, unit.Errors)

		details.Total += unit.Total
		details.Migrated += unit.Migrated
		details.Skipped += unit.Skipped
		details.Errors += unit.Errors
		details.Units = append(details.Units, unit)
	}

	return details, nil
}

// migrateOne copies a single posting into the migration target. It returns
// false with a nil error when the posting is already there.
func (p *pipelineService) migrateOne(posting *models.JobPosting, migration models.MigrationConfig) (bool, error) {
	exists, err := p.postingRepo.Exists(migration.Target, posting.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	copied := *posting
	copied.Collection = migration.Target
	if migration.JobLevel != "" {
		copied.JobLevel = migration.JobLevel
	}

	if err := p.postingRepo.Create(&copied); err != nil {
		return false, err
	}
	return true, nil
}

// runCleanupStage deletes postings older than each cleanup's window, both
// from the document store and the vector index.
func (p *pipelineService) runCleanupStage(ctx context.Context, cfg *resolvedConfig, result *models.PipelineResult) (models.StageDetails, error) {
	details := models.StageDetails{}

	for _, cleanup := range cfg.Cleanups {
		unit := models.UnitResult{Name: cleanup.Collection}
		cutoff := time.Now().AddDate(0, 0, -cleanup.SinceDays)

		// Total counts every posting considered, not only the expired ones.
		all, err := p.postingRepo.ListSince(cleanup.Collection, nil)
		if err != nil {
			return details, apperrors.NewStageError(StageCleanup,
				fmt.Sprintf("cannot read collection %s", cleanup.Collection), err)
		}
		unit.Total = len(all)

		expired, err := p.postingRepo.ListOlderThan(cleanup.Collection, cutoff)
		if err != nil {
			return details, apperrors.NewStageError(StageCleanup,
				fmt.Sprintf("cannot read collection %s", cleanup.Collection), err)
		}

		p.logf(result, "🧹 Cleaning %d/%d postings older than %d days from %s",
			len(expired), len(all), cleanup.SinceDays, cleanup.Collection)

		for i := range expired {
			if err := p.postingRepo.Delete(cleanup.Collection, expired[i].ID); err != nil {
				unit.Errors++
				continue
			}
			if err := p.index.DeletePosting(ctx, cleanup.Collection, expired[i].ID); err != nil {
				p.logf(result, "⚠️  Could not remove %s from vector index: %v", expired[i].ID, err)
			}
			unit.Deleted++
		}

		p.logf(result, "✅ Cleanup %s done: %d deleted, %d errors", unit.Name, unit.Deleted, unit.Errors)

		details.Total += unit.Total
		details.Deleted += unit.Deleted
		details.Errors += unit.Errors
		details.Units = append(details.Units, unit)
	}

	return details, nil
}
