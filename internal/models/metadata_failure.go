package models

import (
	"time"

	"github.com/google/uuid"
)

// MetadataFailure records a posting whose metadata extraction failed, so it
// can be inspected and retried offline. A successful extraction on a later
// run resolves the row.
type MetadataFailure struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Collection string     `gorm:"type:text;not null;index:idx_metadata_failures_posting" json:"collection"`
	PostingID  string     `gorm:"type:text;not null;index:idx_metadata_failures_posting" json:"posting_id"`
	Title      string     `gorm:"type:text" json:"title"`
	Reason     string     `gorm:"type:text" json:"reason"`
	ResolvedAt *time.Time `gorm:"index" json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MetadataFailure) TableName() string {
	return "metadata_failures"
}
