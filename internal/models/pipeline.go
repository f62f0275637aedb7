package models

// MigrationConfig describes one source → target collection copy. Every
// migrated document is tagged with JobLevel.
type MigrationConfig struct {
	Source   string   `json:"source_collection"`
	Target   string   `json:"target_collection"`
	JobLevel JobLevel `json:"job_level"`
}

// CleanupConfig removes documents older than SinceDays from Collection.
type CleanupConfig struct {
	Collection string `json:"collection_name"`
	SinceDays  int    `json:"since_days"`
}

// PipelineSections toggles each stage of a run.
type PipelineSections struct {
	EnableMigration  bool `json:"enable_migration"`
	EnableMetadata   bool `json:"enable_metadata"`
	EnableEmbeddings bool `json:"enable_embeddings"`
	EnableCacheClear bool `json:"enable_cache_clear"`
	EnableCleanup    bool `json:"enable_cleanup"`
}

// DefaultSections mirrors the defaults of the original pipeline request:
// everything on except document cleanup.
func DefaultSections() PipelineSections {
	return PipelineSections{
		EnableMigration:  true,
		EnableMetadata:   true,
		EnableEmbeddings: true,
		EnableCacheClear: true,
		EnableCleanup:    false,
	}
}

// PipelineConfig is the immutable per-run configuration. DaysBack limits
// every stage to documents added within the last N days; zero means the
// default window, negative means no window at all.
type PipelineConfig struct {
	Migrations          []MigrationConfig `json:"migrations"`
	Cleanups            []CleanupConfig   `json:"cleanups"`
	Sections            PipelineSections  `json:"sections"`
	OverwriteMetadata   bool              `json:"overwrite_metadata"`
	OverwriteEmbeddings bool              `json:"overwrite_embeddings"`
	DaysBack            int               `json:"days_back"`
}

type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepFailed    StepStatus = "failed"
)

// UnitResult is the outcome of one sub-unit of a stage: one migration, one
// collection, or one cleanup.
type UnitResult struct {
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Migrated  int    `json:"migrated,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Deleted   int    `json:"deleted,omitempty"`
	Skipped   int    `json:"skipped,omitempty"`
	Errors    int    `json:"errors"`
}

// StageDetails carries the counters of one stage. Only the counters relevant
// to the stage are populated.
type StageDetails struct {
	Total         int          `json:"total"`
	Migrated      int          `json:"migrated,omitempty"`
	Processed     int          `json:"processed,omitempty"`
	Deleted       int          `json:"deleted,omitempty"`
	Skipped       int          `json:"skipped,omitempty"`
	Errors        int          `json:"errors"`
	CachesRemoved int          `json:"caches_removed,omitempty"`
	Units         []UnitResult `json:"units,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

type StepResult struct {
	Name            string       `json:"step_name"`
	Status          StepStatus   `json:"status"`
	DurationSeconds float64      `json:"duration_seconds"`
	Details         StageDetails `json:"details"`
}

// PipelineSummary aggregates counters across stages plus the chronological
// run log.
type PipelineSummary struct {
	TotalMigrated       int      `json:"total_migrated"`
	TotalMetadata       int      `json:"total_metadata_generated"`
	TotalEmbeddings     int      `json:"total_embeddings_generated"`
	CachesCleared       int      `json:"caches_cleared"`
	TotalDeleted        int      `json:"total_documents_deleted"`
	Logs                []string `json:"logs"`
}

// PipelineResult is returned for every accepted run, even under partial
// failure. Success is false only when a stage hit an unmodeled error;
// per-item errors inside a stage never flip it.
type PipelineResult struct {
	Success              bool                  `json:"success"`
	TotalDurationSeconds float64               `json:"total_duration_seconds"`
	Steps                map[string]StepResult `json:"steps"`
	Summary              PipelineSummary       `json:"summary"`
	ErrorMessage         string                `json:"error_message,omitempty"`
}
