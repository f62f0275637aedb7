package models

import (
	"time"

	"github.com/google/uuid"
)

type CVStatus string

const (
	CVStatusQueued     CVStatus = "queued"
	CVStatusProcessing CVStatus = "processing"
	CVStatusCompleted  CVStatus = "completed"
	CVStatusFailed     CVStatus = "failed"
)

// UserCV holds one uploaded CV and its derived metadata and aspect
// embeddings. FileURL doubles as the match-cache key component: editing the
// CV produces a new file reference and therefore a natural cache miss.
type UserCV struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID       string             `gorm:"type:text;not null;index" json:"user_id"`
	FileName     string             `gorm:"type:text" json:"file_name"`
	FileURL      string             `gorm:"type:text;not null" json:"file_url"`
	Status       CVStatus           `gorm:"not null;default:'queued'" json:"status"`
	Metadata     *ExtractedMetadata `gorm:"serializer:json;type:jsonb" json:"metadata,omitempty"`
	Embeddings   AspectEmbeddings   `gorm:"serializer:json;type:jsonb" json:"-"`
	ErrorMessage *string            `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UserCV) TableName() string {
	return "user_cvs"
}
