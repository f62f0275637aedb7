package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"practimatch/job-match-api/internal/apperrors"
	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/repositories"
)

// MatcherService scores a user's latest processed CV against enriched
// postings. Batch results are cached per (user, CV file reference); the
// single-posting path always computes fresh.
type MatcherService interface {
	MatchPostings(ctx context.Context, req models.MatchPostingsRequest) (*models.MatchPostingsResponse, error)
	MatchSingle(ctx context.Context, req models.MatchSingleRequest) (*models.MatchSingleResponse, error)
}

type matcherService struct {
	cvRepo         repositories.CVRepository
	postingRepo    repositories.JobPostingRepository
	index          VectorIndex
	cache          MatchCache
	scorer         ScoringEngine
	collection     string
	shortlistLimit int
	defaultLimit   int
}

func NewMatcherService(
	cvRepo repositories.CVRepository,
	postingRepo repositories.JobPostingRepository,
	index VectorIndex,
	cache MatchCache,
	scorer ScoringEngine,
	collection string,
	shortlistLimit int,
	defaultLimit int,
) MatcherService {
	return &matcherService{
		cvRepo:         cvRepo,
		postingRepo:    postingRepo,
		index:          index,
		cache:          cache,
		scorer:         scorer,
		collection:     collection,
		shortlistLimit: shortlistLimit,
		defaultLimit:   defaultLimit,
	}
}

// MatchPostings implements MatcherService.
func (m *matcherService) MatchPostings(ctx context.Context, req models.MatchPostingsRequest) (*models.MatchPostingsResponse, error) {
	if req.UserID == "" {
		return nil, apperrors.NewValidationError("user_id", "user_id is required")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = m.defaultLimit
	}

	cv, err := m.cvRepo.FindLatestReady(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("no processed CV for user %s: %w", req.UserID, apperrors.ErrNotFound)
	}
	if !cv.Embeddings.Complete() {
		return nil, fmt.Errorf("CV %s has an incomplete embedding set: %w", cv.ID, apperrors.ErrNotFound)
	}

	cached, err := m.cache.Get(ctx, req.UserID, cv.FileURL)
	if err != nil {
		log.Printf("⚠️  Match cache read failed for user %s: %v\n", req.UserID, err)
	}
	if cached != nil {
		postings := cached.Postings
		if len(postings) > limit {
			postings = postings[:limit]
		}
		return &models.MatchPostingsResponse{
			Postings: postings,
			Metadata: models.MatchMetadata{
				UserID:        req.UserID,
				TotalPostings: len(postings),
				CacheHit:      true,
			},
		}, nil
	}

	scored, err := m.scoreShortlist(ctx, cv)
	if err != nil {
		return nil, err
	}

	if err := m.cache.Put(ctx, &models.CachedMatches{
		UserID:    req.UserID,
		CVFileURL: cv.FileURL,
		Postings:  scored,
		CreatedAt: time.Now(),
	}); err != nil {
		log.Printf("⚠️  Match cache write failed for user %s: %v\n", req.UserID, err)
	}

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return &models.MatchPostingsResponse{
		Postings: scored,
		Metadata: models.MatchMetadata{
			UserID:        req.UserID,
			TotalPostings: len(scored),
			CacheHit:      false,
		},
	}, nil
}

// MatchSingle implements MatcherService. It bypasses the cache so the caller
// always sees the current scores for the posting.
func (m *matcherService) MatchSingle(ctx context.Context, req models.MatchSingleRequest) (*models.MatchSingleResponse, error) {
	if req.UserID == "" {
		return nil, apperrors.NewValidationError("user_id", "user_id is required")
	}
	if req.PostingID == "" {
		return nil, apperrors.NewValidationError("posting_id", "posting_id is required")
	}

	cv, err := m.cvRepo.FindLatestReady(req.UserID)
	if err != nil {
		return nil, fmt.Errorf("no processed CV for user %s: %w", req.UserID, apperrors.ErrNotFound)
	}
	if !cv.Embeddings.Complete() {
		return nil, fmt.Errorf("CV %s has an incomplete embedding set: %w", cv.ID, apperrors.ErrNotFound)
	}

	posting, err := m.postingRepo.FindByID(m.collection, req.PostingID)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", req.PostingID, apperrors.ErrNotFound)
	}
	if !posting.HasEmbeddings() {
		return nil, apperrors.NewValidationError("posting_id", "posting is not enriched yet")
	}

	return &models.MatchSingleResponse{
		Posting: m.buildMatch(cv, posting),
		Metadata: models.MatchMetadata{
			UserID:        req.UserID,
			TotalPostings: 1,
			CacheHit:      false,
		},
	}, nil
}

// scoreShortlist narrows the collection with the vector index, then scores
// each shortlisted posting exactly. When the index is unavailable it falls
// back to scanning the whole collection.
func (m *matcherService) scoreShortlist(ctx context.Context, cv *models.UserCV) ([]models.MatchedPosting, error) {
	var candidates []models.JobPosting

	shortlist, err := m.index.Search(ctx, m.collection, cv.Embeddings[models.AspectGeneral], m.shortlistLimit)
	if err != nil {
		log.Printf("⚠️  Vector shortlist failed, scanning collection %s: %v\n", m.collection, err)
		candidates, err = m.postingRepo.ListSince(m.collection, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load postings: %w", err)
		}
	} else {
		ids := make([]string, 0, len(shortlist))
		for _, hit := range shortlist {
			ids = append(ids, hit.PostingID)
		}
		if len(ids) == 0 {
			return []models.MatchedPosting{}, nil
		}
		candidates, err = m.postingRepo.FindByIDs(m.collection, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load shortlisted postings: %w", err)
		}
	}

	matches := make([]models.MatchedPosting, 0, len(candidates))
	for i := range candidates {
		posting := &candidates[i]
		if !posting.HasEmbeddings() {
			continue
		}
		matches = append(matches, m.buildMatch(cv, posting))
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MatchScores.Total != matches[j].MatchScores.Total {
			return matches[i].MatchScores.Total > matches[j].MatchScores.Total
		}
		return matches[i].AddedAt.After(matches[j].AddedAt)
	})

	return matches, nil
}

func (m *matcherService) buildMatch(cv *models.UserCV, posting *models.JobPosting) models.MatchedPosting {
	scores, raw := m.scorer.Score(cv.Embeddings, posting.Embeddings)
	return models.MatchedPosting{
		ID:              posting.ID,
		Collection:      posting.Collection,
		Title:           posting.Title,
		Company:         posting.Company,
		Location:        posting.Location,
		JobLevel:        posting.JobLevel,
		AddedAt:         posting.AddedAt,
		MatchScores:     scores,
		RawSimilarities: raw,
	}
}
