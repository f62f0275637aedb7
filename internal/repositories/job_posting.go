package repositories

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"practimatch/job-match-api/internal/models"
)

// JobPostingRepository is the collection-scoped document store consumed by
// the pipeline stages and the matcher.
type JobPostingRepository interface {
	ListSince(collection string, since *time.Time) ([]models.JobPosting, error)
	ListOlderThan(collection string, cutoff time.Time) ([]models.JobPosting, error)
	ListRecent(collection string, since time.Time, limit int) ([]models.JobPosting, error)
	FindByID(collection, id string) (*models.JobPosting, error)
	FindByIDs(collection string, ids []string) ([]models.JobPosting, error)
	Exists(collection, id string) (bool, error)
	Create(posting *models.JobPosting) error
	UpdateMetadata(collection, id string, metadata *models.ExtractedMetadata) error
	UpdateEmbeddings(collection, id string, embeddings models.AspectEmbeddings) error
	Delete(collection, id string) error
}

type jobPostingRepository struct {
	db *gorm.DB
}

func NewJobPostingRepository(db *gorm.DB) JobPostingRepository {
	return &jobPostingRepository{db: db}
}

// ListSince implements JobPostingRepository. A nil since returns the whole
// collection.
func (r *jobPostingRepository) ListSince(collection string, since *time.Time) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	query := r.db.Where("collection = ?", collection)
	if since != nil {
		query = query.Where("added_at >= ?", *since)
	}
	if err := query.Order("added_at ASC").Find(&postings).Error; err != nil {
		return nil, fmt.Errorf("failed to list postings in %s: %w", collection, err)
	}
	return postings, nil
}

// ListOlderThan implements JobPostingRepository.
func (r *jobPostingRepository) ListOlderThan(collection string, cutoff time.Time) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	err := r.db.
		Where("collection = ? AND added_at < ?", collection, cutoff).
		Find(&postings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list old postings in %s: %w", collection, err)
	}
	return postings, nil
}

// ListRecent implements JobPostingRepository.
func (r *jobPostingRepository) ListRecent(collection string, since time.Time, limit int) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	err := r.db.
		Where("collection = ? AND added_at >= ?", collection, since).
		Order("added_at DESC").
		Limit(limit).
		Find(&postings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent postings in %s: %w", collection, err)
	}
	return postings, nil
}

// FindByID implements JobPostingRepository.
func (r *jobPostingRepository) FindByID(collection, id string) (*models.JobPosting, error) {
	var posting models.JobPosting
	err := r.db.Where("collection = ? AND id = ?", collection, id).First(&posting).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("posting %s not found in %s: %w", id, collection, err)
		}
		return nil, fmt.Errorf("failed to find posting %s: %w", id, err)
	}
	return &posting, nil
}

// FindByIDs implements JobPostingRepository.
func (r *jobPostingRepository) FindByIDs(collection string, ids []string) ([]models.JobPosting, error) {
	var postings []models.JobPosting
	err := r.db.Where("collection = ? AND id IN ?", collection, ids).Find(&postings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find postings: %w", err)
	}
	return postings, nil
}

// Exists implements JobPostingRepository.
func (r *jobPostingRepository) Exists(collection, id string) (bool, error) {
	var count int64
	err := r.db.Model(&models.JobPosting{}).
		Where("collection = ? AND id = ?", collection, id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check posting %s: %w", id, err)
	}
	return count > 0, nil
}

// Create implements JobPostingRepository.
func (r *jobPostingRepository) Create(posting *models.JobPosting) error {
	if err := r.db.Create(posting).Error; err != nil {
		return fmt.Errorf("failed to create posting %s in %s: %w", posting.ID, posting.Collection, err)
	}
	return nil
}

// UpdateMetadata implements JobPostingRepository.
func (r *jobPostingRepository) UpdateMetadata(collection, id string, metadata *models.ExtractedMetadata) error {
	result := r.db.Model(&models.JobPosting{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]interface{}{
			"metadata":   metadata,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update metadata for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("posting %s not found in %s", id, collection)
	}
	return nil
}

// UpdateEmbeddings implements JobPostingRepository. The whole aspect set is
// written in a single update so a document never carries a partial set.
func (r *jobPostingRepository) UpdateEmbeddings(collection, id string, embeddings models.AspectEmbeddings) error {
	result := r.db.Model(&models.JobPosting{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]interface{}{
			"embeddings": embeddings,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update embeddings for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("posting %s not found in %s", id, collection)
	}
	return nil
}

// Delete implements JobPostingRepository.
func (r *jobPostingRepository) Delete(collection, id string) error {
	result := r.db.Where("collection = ? AND id = ?", collection, id).Delete(&models.JobPosting{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete posting %s: %w", id, result.Error)
	}
	return nil
}
