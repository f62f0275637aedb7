package models

import (
	"time"
)

type JobLevel string

const (
	LevelPracticante JobLevel = "practicante"
	LevelAnalista    JobLevel = "analista"
	LevelSenior      JobLevel = "senior"
	LevelJunior      JobLevel = "junior"
)

func (l JobLevel) Valid() bool {
	switch l {
	case LevelPracticante, LevelAnalista, LevelSenior, LevelJunior:
		return true
	}
	return false
}

// Aspect is one semantic facet of a CV or posting that carries its own
// embedding vector.
type Aspect string

const (
	AspectHardSkills Aspect = "hard_skills"
	AspectSoftSkills Aspect = "soft_skills"
	AspectCategory   Aspect = "category"
	AspectGeneral    Aspect = "general"
)

// Aspects lists every aspect a complete embedding set must carry, in the
// order they are generated.
var Aspects = []Aspect{AspectHardSkills, AspectSoftSkills, AspectCategory, AspectGeneral}

type AspectEmbeddings map[Aspect][]float32

// Complete reports whether every aspect has a non-empty vector. Partial sets
// are never persisted, so an incomplete set means the document still needs
// the embedding stage.
func (e AspectEmbeddings) Complete() bool {
	if len(e) == 0 {
		return false
	}
	for _, aspect := range Aspects {
		if len(e[aspect]) == 0 {
			return false
		}
	}
	return true
}

// ExtractedMetadata is the structured result of the AI extraction call. CVs
// and postings share the same shape.
type ExtractedMetadata struct {
	Category             []string `json:"category"`
	HardSkills           []string `json:"hard_skills"`
	SoftSkills           []string `json:"soft_skills"`
	RelatedDegrees       []string `json:"related_degrees"`
	LanguageRequirements string   `json:"language_requirements,omitempty"`
}

// JobPosting is one document in a named collection. The same posting id may
// exist in several collections (source and enriched), so the primary key is
// composite.
type JobPosting struct {
	ID          string             `gorm:"primaryKey;type:text" json:"id"`
	Collection  string             `gorm:"primaryKey;type:text;index" json:"collection"`
	Title       string             `gorm:"type:text" json:"title"`
	Company     string             `gorm:"type:text" json:"company"`
	Location    string             `gorm:"type:text" json:"location"`
	Description string             `gorm:"type:text" json:"description"`
	JobLevel    JobLevel           `gorm:"type:text" json:"job_level,omitempty"`
	Metadata    *ExtractedMetadata `gorm:"serializer:json;type:jsonb" json:"metadata,omitempty"`
	Embeddings  AspectEmbeddings   `gorm:"serializer:json;type:jsonb" json:"-"`
	AddedAt     time.Time          `gorm:"index" json:"added_at"`
	CreatedAt   time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (JobPosting) TableName() string {
	return "job_postings"
}

func (p *JobPosting) HasMetadata() bool {
	return p.Metadata != nil
}

func (p *JobPosting) HasEmbeddings() bool {
	return p.Embeddings.Complete()
}
