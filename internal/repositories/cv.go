package repositories

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"practimatch/job-match-api/internal/models"
)

type CVRepository interface {
	Create(cv *models.UserCV) error
	FindByID(id uuid.UUID) (*models.UserCV, error)
	FindLatestReady(userID string) (*models.UserCV, error)
	UpdateStatus(id uuid.UUID, status models.CVStatus) error
	UpdateResult(id uuid.UUID, metadata *models.ExtractedMetadata, embeddings models.AspectEmbeddings) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.UserCV, error)
}

type cvRepository struct {
	db *gorm.DB
}

func NewCVRepository(db *gorm.DB) CVRepository {
	return &cvRepository{db: db}
}

func (r *cvRepository) Create(cv *models.UserCV) error {
	if err := r.db.Create(cv).Error; err != nil {
		return fmt.Errorf("failed to create CV: %w", err)
	}
	return nil
}

func (r *cvRepository) FindByID(id uuid.UUID) (*models.UserCV, error) {
	var cv models.UserCV
	if err := r.db.Where("id = ?", id).First(&cv).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("CV not found")
		}
		return nil, fmt.Errorf("failed to find CV: %w", err)
	}
	return &cv, nil
}

// FindLatestReady returns the user's most recent fully processed CV.
func (r *cvRepository) FindLatestReady(userID string) (*models.UserCV, error) {
	var cv models.UserCV
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.CVStatusCompleted).
		Order("created_at DESC").
		First(&cv).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no processed CV for user %s", userID)
		}
		return nil, fmt.Errorf("failed to find CV for user %s: %w", userID, err)
	}
	return &cv, nil
}

func (r *cvRepository) UpdateStatus(id uuid.UUID, status models.CVStatus) error {
	result := r.db.Model(&models.UserCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update CV status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("CV not found")
	}
	return nil
}

func (r *cvRepository) UpdateResult(id uuid.UUID, metadata *models.ExtractedMetadata, embeddings models.AspectEmbeddings) error {
	result := r.db.Model(&models.UserCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.CVStatusCompleted,
			"metadata":   metadata,
			"embeddings": embeddings,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update CV result: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("CV not found")
	}
	return nil
}

func (r *cvRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	result := r.db.Model(&models.UserCV{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        models.CVStatusFailed,
			"error_message": errorMsg,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update CV error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("CV not found")
	}
	return nil
}

func (r *cvRepository) FindPendingJobs(limit int) ([]models.UserCV, error) {
	var cvs []models.UserCV
	err := r.db.
		Where("status = ?", models.CVStatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&cvs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find pending CVs: %w", err)
	}
	return cvs, nil
}
