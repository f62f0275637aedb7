package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
)

// fakePostingRepo is an in-memory JobPostingRepository keyed by collection.
type fakePostingRepo struct {
	mu          sync.Mutex
	collections map[string]map[string]*models.JobPosting
	failDeletes map[string]bool
	panicOnList bool
}

func newFakePostingRepo() *fakePostingRepo {
	return &fakePostingRepo{
		collections: map[string]map[string]*models.JobPosting{},
		failDeletes: map[string]bool{},
	}
}

func (f *fakePostingRepo) seed(posting models.JobPosting) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.collections[posting.Collection] == nil {
		f.collections[posting.Collection] = map[string]*models.JobPosting{}
	}
	p := posting
	f.collections[posting.Collection][posting.ID] = &p
}

func (f *fakePostingRepo) ListSince(collection string, since *time.Time) ([]models.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnList {
		panic("posting store exploded")
	}
	var out []models.JobPosting
	for _, p := range f.collections[collection] {
		if since != nil && p.AddedAt.Before(*since) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePostingRepo) ListOlderThan(collection string, cutoff time.Time) ([]models.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JobPosting
	for _, p := range f.collections[collection] {
		if p.AddedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePostingRepo) ListRecent(collection string, since time.Time, limit int) ([]models.JobPosting, error) {
	postings, err := f.ListSince(collection, &since)
	if err != nil {
		return nil, err
	}
	if len(postings) > limit {
		postings = postings[:limit]
	}
	return postings, nil
}

func (f *fakePostingRepo) FindByID(collection, id string) (*models.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("posting %s not found", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostingRepo) FindByIDs(collection string, ids []string) ([]models.JobPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JobPosting
	for _, id := range ids {
		if p, ok := f.collections[collection][id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePostingRepo) Exists(collection, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.collections[collection][id]
	return ok, nil
}

func (f *fakePostingRepo) Create(posting *models.JobPosting) error {
	f.seed(*posting)
	return nil
}

func (f *fakePostingRepo) UpdateMetadata(collection, id string, metadata *models.ExtractedMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.collections[collection][id]
	if !ok {
		return fmt.Errorf("posting %s not found", id)
	}
	p.Metadata = metadata
	return nil
}

func (f *fakePostingRepo) UpdateEmbeddings(collection, id string, embeddings models.AspectEmbeddings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.collections[collection][id]
	if !ok {
		return fmt.Errorf("posting %s not found", id)
	}
	p.Embeddings = embeddings
	return nil
}

func (f *fakePostingRepo) Delete(collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletes[id] {
		return fmt.Errorf("delete of %s refused", id)
	}
	delete(f.collections[collection], id)
	return nil
}

func (f *fakePostingRepo) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections[collection])
}

// fakeFailureRepo records metadata failures in memory.
type fakeFailureRepo struct {
	mu       sync.Mutex
	recorded []string
	resolved []string
}

func (f *fakeFailureRepo) Record(collection, postingID, title, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, postingID)
	return nil
}

func (f *fakeFailureRepo) Resolve(collection, postingID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, postingID)
	return nil
}

func (f *fakeFailureRepo) ListUnresolved(limit int) ([]models.MetadataFailure, error) {
	return nil, nil
}

// stubGemini answers extraction and embedding calls without the network.
type stubGemini struct {
	failExtract map[string]bool
	failEmbed   bool
}

func (s *stubGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.failEmbed {
		return nil, fmt.Errorf("embedding backend down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *stubGemini) ExtractJobMetadata(ctx context.Context, posting *models.JobPosting) (*models.ExtractedMetadata, error) {
	if s.failExtract[posting.ID] {
		return nil, fmt.Errorf("extraction refused for %s", posting.ID)
	}
	return &models.ExtractedMetadata{
		Category:   []string{"Tecnología"},
		HardSkills: []string{"Go", "SQL"},
		SoftSkills: []string{"Comunicación"},
	}, nil
}

func (s *stubGemini) ExtractCVMetadata(ctx context.Context, cvText string) (*models.ExtractedMetadata, error) {
	return &models.ExtractedMetadata{HardSkills: []string{"Go"}}, nil
}

// stubIndex records vector index traffic.
type stubIndex struct {
	mu       sync.Mutex
	upserts  []string
	deletes  []string
	searches [][]string
	hits     []ScoredID
	failAll  bool
}

func (s *stubIndex) EnsureCollection(ctx context.Context, collection string) error {
	if s.failAll {
		return fmt.Errorf("index unavailable")
	}
	return nil
}

func (s *stubIndex) UpsertPosting(ctx context.Context, collection, postingID string, vector []float32) error {
	if s.failAll {
		return fmt.Errorf("index unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, postingID)
	return nil
}

func (s *stubIndex) Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredID, error) {
	if s.failAll {
		return nil, fmt.Errorf("index unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.hits))
	for _, h := range s.hits {
		ids = append(ids, h.PostingID)
	}
	s.searches = append(s.searches, ids)
	return s.hits, nil
}

func (s *stubIndex) DeletePosting(ctx context.Context, collection, postingID string) error {
	if s.failAll {
		return fmt.Errorf("index unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, postingID)
	return nil
}

// stubCache is an in-memory MatchCache.
type stubCache struct {
	mu        sync.Mutex
	entries   map[string]*models.CachedMatches
	failClear bool
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]*models.CachedMatches{}}
}

func (s *stubCache) key(userID, cvFileURL string) string {
	return userID + "|" + cvFileURL
}

func (s *stubCache) Get(ctx context.Context, userID, cvFileURL string) (*models.CachedMatches, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[s.key(userID, cvFileURL)], nil
}

func (s *stubCache) Put(ctx context.Context, matches *models.CachedMatches) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[s.key(matches.UserID, matches.CVFileURL)] = matches
	return nil
}

func (s *stubCache) ClearAll(ctx context.Context) (int, error) {
	if s.failClear {
		return 0, fmt.Errorf("cache backend down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = map[string]*models.CachedMatches{}
	return n, nil
}

type pipelineFixture struct {
	repo     *fakePostingRepo
	failures *fakeFailureRepo
	gemini   *stubGemini
	index    *stubIndex
	cache    *stubCache
	service  PipelineService
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		repo:     newFakePostingRepo(),
		failures: &fakeFailureRepo{},
		gemini:   &stubGemini{failExtract: map[string]bool{}},
		index:    &stubIndex{},
		cache:    newStubCache(),
	}
	f.service = NewPipelineService(f.repo, f.failures, f.gemini, f.index, f.cache, "practicas")
	return f
}

func seedPostings(repo *fakePostingRepo, collection string, n int, addedAt time.Time) {
	for i := 0; i < n; i++ {
		repo.seed(models.JobPosting{
			ID:         fmt.Sprintf("%s-%03d", collection, i),
			Collection: collection,
			Title:      fmt.Sprintf("Posting %d", i),
			AddedAt:    addedAt,
		})
	}
}

func sectionsOnly(stage string) models.PipelineSections {
	return models.PipelineSections{
		EnableMigration:  stage == StageMigration,
		EnableMetadata:   stage == StageMetadata,
		EnableEmbeddings: stage == StageEmbeddings,
		EnableCacheClear: stage == StageCacheClear,
		EnableCleanup:    stage == StageCleanup,
	}
}

func TestPipelineMigrationSkipsAlreadyMigrated(t *testing.T) {
	f := newPipelineFixture()

	// 100 source postings, 85 of them already copied into the target
	seedPostings(f.repo, "practicas", 100, time.Now())
	for i := 0; i < 85; i++ {
		f.repo.seed(models.JobPosting{
			ID:         fmt.Sprintf("practicas-%03d", i),
			Collection: "practicas_embeddings_test",
			AddedAt:    time.Now(),
		})
	}

	cfg := models.PipelineConfig{
		Migrations: []models.MigrationConfig{
			{Source: "practicas", Target: "practicas_embeddings_test", JobLevel: models.LevelPracticante},
		},
		Sections: sectionsOnly(StageMigration),
	}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageMigration]
	assert.Equal(t, models.StepCompleted, step.Status)
	assert.Equal(t, 100, step.Details.Total)
	assert.Equal(t, 15, step.Details.Migrated)
	assert.Equal(t, 85, step.Details.Skipped)
	assert.Equal(t, 0, step.Details.Errors)
	assert.Equal(t, 15, result.Summary.TotalMigrated)
	assert.Equal(t, 100, f.repo.count("practicas_embeddings_test"))

	// Migrated copies carry the configured job level
	p, err := f.repo.FindByID("practicas_embeddings_test", "practicas-099")
	require.NoError(t, err)
	assert.Equal(t, models.LevelPracticante, p.JobLevel)

	// Disabled stages report skipped
	for _, name := range []string{StageMetadata, StageEmbeddings, StageCacheClear, StageCleanup} {
		assert.Equal(t, models.StepSkipped, result.Steps[name].Status, name)
	}

	// Re-running the same migration copies nothing new
	result, err = f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	step = result.Steps[StageMigration]
	assert.Equal(t, 0, step.Details.Migrated)
	assert.Equal(t, 100, step.Details.Skipped)
	assert.Equal(t, 100, f.repo.count("practicas_embeddings_test"))
}

func TestPipelineCleanupCounts(t *testing.T) {
	f := newPipelineFixture()

	// 80 expired postings, 20 fresh ones
	seedPostings(f.repo, "practicas", 80, time.Now().AddDate(0, 0, -10))
	for i := 80; i < 100; i++ {
		f.repo.seed(models.JobPosting{
			ID:         fmt.Sprintf("practicas-%03d", i),
			Collection: "practicas",
			AddedAt:    time.Now(),
		})
	}

	cfg := models.PipelineConfig{
		Cleanups: []models.CleanupConfig{{Collection: "practicas", SinceDays: 5}},
		Sections: sectionsOnly(StageCleanup),
	}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageCleanup]
	assert.Equal(t, models.StepCompleted, step.Status)
	assert.Equal(t, 100, step.Details.Total)
	assert.Equal(t, 80, step.Details.Deleted)
	assert.Equal(t, 0, step.Details.Errors)
	assert.Equal(t, 80, result.Summary.TotalDeleted)
	assert.Equal(t, 20, f.repo.count("practicas"))
	assert.Len(t, f.index.deletes, 80)
}

func TestPipelineCleanupIsolatesDeleteFailures(t *testing.T) {
	f := newPipelineFixture()
	seedPostings(f.repo, "practicas", 10, time.Now().AddDate(0, 0, -10))
	f.repo.failDeletes["practicas-003"] = true
	f.repo.failDeletes["practicas-007"] = true

	cfg := models.PipelineConfig{
		Cleanups: []models.CleanupConfig{{Collection: "practicas", SinceDays: 5}},
		Sections: sectionsOnly(StageCleanup),
	}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageCleanup]
	assert.Equal(t, 8, step.Details.Deleted)
	assert.Equal(t, 2, step.Details.Errors)
}

func TestPipelineMetadataDefaultCollection(t *testing.T) {
	f := newPipelineFixture()

	// No migrations configured: the metadata stage walks the default
	// collection. Two postings already extracted, three pending, one of
	// which the extractor refuses.
	now := time.Now()
	for i := 0; i < 5; i++ {
		posting := models.JobPosting{
			ID:         fmt.Sprintf("practicas-%03d", i),
			Collection: "practicas",
			Title:      fmt.Sprintf("Practicante %d", i),
			AddedAt:    now,
		}
		if i < 2 {
			posting.Metadata = &models.ExtractedMetadata{Category: []string{"Finanzas"}}
		}
		f.repo.seed(posting)
	}
	f.gemini.failExtract["practicas-004"] = true

	cfg := models.PipelineConfig{Sections: sectionsOnly(StageMetadata)}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageMetadata]
	assert.Equal(t, models.StepCompleted, step.Status)
	assert.Equal(t, 5, step.Details.Total)
	assert.Equal(t, 2, step.Details.Processed)
	assert.Equal(t, 2, step.Details.Skipped)
	assert.Equal(t, 1, step.Details.Errors)
	assert.Equal(t, 2, result.Summary.TotalMetadata)

	// The refused posting lands in the failure list, the others resolve
	assert.Equal(t, []string{"practicas-004"}, f.failures.recorded)
	assert.Len(t, f.failures.resolved, 2)

	// Untouched postings keep their old metadata
	p, err := f.repo.FindByID("practicas", "practicas-000")
	require.NoError(t, err)
	assert.Equal(t, []string{"Finanzas"}, p.Metadata.Category)
}

func TestPipelineMetadataOverwrite(t *testing.T) {
	f := newPipelineFixture()
	f.repo.seed(models.JobPosting{
		ID:         "practicas-000",
		Collection: "practicas",
		Title:      "Practicante de Finanzas",
		AddedAt:    time.Now(),
		Metadata:   &models.ExtractedMetadata{Category: []string{"Finanzas"}},
	})

	cfg := models.PipelineConfig{
		Sections:          sectionsOnly(StageMetadata),
		OverwriteMetadata: true,
	}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)

	step := result.Steps[StageMetadata]
	assert.Equal(t, 1, step.Details.Processed)
	assert.Equal(t, 0, step.Details.Skipped)

	p, err := f.repo.FindByID("practicas", "practicas-000")
	require.NoError(t, err)
	assert.Equal(t, []string{"Tecnología"}, p.Metadata.Category)
}

func TestPipelineEmbeddingStage(t *testing.T) {
	f := newPipelineFixture()
	now := time.Now()

	// One posting without metadata (skipped), one already embedded
	// (skipped), three pending
	f.repo.seed(models.JobPosting{ID: "p-0", Collection: "practicas", AddedAt: now})
	done := models.AspectEmbeddings{}
	for _, aspect := range models.Aspects {
		done[aspect] = []float32{1}
	}
	f.repo.seed(models.JobPosting{
		ID: "p-1", Collection: "practicas", AddedAt: now,
		Metadata:   &models.ExtractedMetadata{HardSkills: []string{"Go"}},
		Embeddings: done,
	})
	for i := 2; i < 5; i++ {
		f.repo.seed(models.JobPosting{
			ID: fmt.Sprintf("p-%d", i), Collection: "practicas", AddedAt: now,
			Metadata: &models.ExtractedMetadata{HardSkills: []string{"Go"}},
		})
	}

	cfg := models.PipelineConfig{Sections: sectionsOnly(StageEmbeddings)}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageEmbeddings]
	assert.Equal(t, 5, step.Details.Total)
	assert.Equal(t, 3, step.Details.Processed)
	assert.Equal(t, 2, step.Details.Skipped)
	assert.Equal(t, 0, step.Details.Errors)
	assert.Equal(t, 3, result.Summary.TotalEmbeddings)
	assert.Len(t, f.index.upserts, 3)

	p, err := f.repo.FindByID("practicas", "p-2")
	require.NoError(t, err)
	assert.True(t, p.HasEmbeddings())
}

func TestPipelineEmbeddingAllOrNothing(t *testing.T) {
	f := newPipelineFixture()
	f.gemini.failEmbed = true
	f.repo.seed(models.JobPosting{
		ID: "p-0", Collection: "practicas", AddedAt: time.Now(),
		Metadata: &models.ExtractedMetadata{HardSkills: []string{"Go"}},
	})

	cfg := models.PipelineConfig{Sections: sectionsOnly(StageEmbeddings)}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageEmbeddings]
	assert.Equal(t, 1, step.Details.Errors)
	assert.Equal(t, 0, step.Details.Processed)

	// Nothing was persisted for the failed posting
	p, err := f.repo.FindByID("practicas", "p-0")
	require.NoError(t, err)
	assert.False(t, p.HasEmbeddings())
	assert.Empty(t, f.index.upserts)
}

func TestPipelineCacheClear(t *testing.T) {
	f := newPipelineFixture()
	f.cache.Put(context.Background(), &models.CachedMatches{UserID: "u1", CVFileURL: "a.pdf"})
	f.cache.Put(context.Background(), &models.CachedMatches{UserID: "u2", CVFileURL: "b.pdf"})

	cfg := models.PipelineConfig{Sections: sectionsOnly(StageCacheClear)}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, result.Success)

	step := result.Steps[StageCacheClear]
	assert.Equal(t, models.StepCompleted, step.Status)
	assert.Equal(t, 2, step.Details.CachesRemoved)
	assert.Equal(t, 2, result.Summary.CachesCleared)
	assert.Empty(t, f.cache.entries)
}

func TestPipelineStageFailureDoesNotFailRun(t *testing.T) {
	f := newPipelineFixture()
	f.cache.failClear = true

	cfg := models.PipelineConfig{Sections: sectionsOnly(StageCacheClear)}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)

	step := result.Steps[StageCacheClear]
	assert.Equal(t, models.StepFailed, step.Status)
	assert.True(t, result.Success)
	assert.Empty(t, result.ErrorMessage)
}

func TestPipelinePanicFailsRun(t *testing.T) {
	f := newPipelineFixture()
	f.repo.panicOnList = true

	cfg := models.PipelineConfig{Sections: sectionsOnly(StageMetadata)}

	result, err := f.service.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "panicked")
	assert.Equal(t, models.StepFailed, result.Steps[StageMetadata].Status)
}

func TestPipelineValidationRejectsBeforeRunning(t *testing.T) {
	f := newPipelineFixture()

	cases := []models.PipelineConfig{
		{Sections: sectionsOnly(StageMigration)},
		{Sections: sectionsOnly(StageCleanup)},
		{
			Sections:   sectionsOnly(StageMigration),
			Migrations: []models.MigrationConfig{{Source: "a", Target: "a"}},
		},
		{
			Sections:   sectionsOnly(StageMigration),
			Migrations: []models.MigrationConfig{{Source: "a", Target: "b", JobLevel: "ceo"}},
		},
		{
			Sections: sectionsOnly(StageCleanup),
			Cleanups: []models.CleanupConfig{{Collection: "practicas", SinceDays: 0}},
		},
	}

	for i, cfg := range cases {
		result, err := f.service.Run(context.Background(), cfg)
		require.Error(t, err, "case %d", i)
		assert.Nil(t, result, "case %d", i)

		var validationErr *apperrors.ValidationError
		assert.ErrorAs(t, err, &validationErr, "case %d", i)
	}
}

func TestPipelineDaysBackWindow(t *testing.T) {
	f := newPipelineFixture()

	// One recent posting, one outside the default 5 day window
	f.repo.seed(models.JobPosting{ID: "new", Collection: "practicas", AddedAt: time.Now()})
	f.repo.seed(models.JobPosting{ID: "old", Collection: "practicas", AddedAt: time.Now().AddDate(0, 0, -30)})

	// Default window only sees the recent posting
	result, err := f.service.Run(context.Background(), models.PipelineConfig{
		Sections: sectionsOnly(StageMetadata),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Steps[StageMetadata].Details.Total)

	// Negative days_back disables the window
	result, err = f.service.Run(context.Background(), models.PipelineConfig{
		Sections: sectionsOnly(StageMetadata),
		DaysBack: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Steps[StageMetadata].Details.Total)
}
