package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"practimatch/job-match-api/internal/models"
)

// MetadataFailureRepository is the durable failure list for postings whose
// metadata extraction failed. Rows stay until a later run extracts the
// posting successfully.
type MetadataFailureRepository interface {
	Record(collection, postingID, title, reason string) error
	Resolve(collection, postingID string) error
	ListUnresolved(limit int) ([]models.MetadataFailure, error)
}

type metadataFailureRepository struct {
	db *gorm.DB
}

func NewMetadataFailureRepository(db *gorm.DB) MetadataFailureRepository {
	return &metadataFailureRepository{db: db}
}

// Record implements MetadataFailureRepository.
func (r *metadataFailureRepository) Record(collection, postingID, title, reason string) error {
	failure := models.MetadataFailure{
		ID:         uuid.New(),
		Collection: collection,
		PostingID:  postingID,
		Title:      title,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
	if err := r.db.Create(&failure).Error; err != nil {
		return fmt.Errorf("failed to record metadata failure for %s: %w", postingID, err)
	}
	return nil
}

// Resolve implements MetadataFailureRepository. It marks every open failure
// of the posting as resolved.
func (r *metadataFailureRepository) Resolve(collection, postingID string) error {
	now := time.Now()
	err := r.db.Model(&models.MetadataFailure{}).
		Where("collection = ? AND posting_id = ? AND resolved_at IS NULL", collection, postingID).
		Update("resolved_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to resolve metadata failures for %s: %w", postingID, err)
	}
	return nil
}

// ListUnresolved implements MetadataFailureRepository.
func (r *metadataFailureRepository) ListUnresolved(limit int) ([]models.MetadataFailure, error) {
	var failures []models.MetadataFailure
	err := r.db.
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&failures).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata failures: %w", err)
	}
	return failures, nil
}
