package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAspectEmbeddingsComplete(t *testing.T) {
	assert.False(t, AspectEmbeddings{}.Complete())
	assert.False(t, AspectEmbeddings(nil).Complete())

	partial := AspectEmbeddings{
		AspectHardSkills: {0.1},
		AspectSoftSkills: {0.2},
	}
	assert.False(t, partial.Complete())

	empty := AspectEmbeddings{
		AspectHardSkills: {0.1},
		AspectSoftSkills: {0.2},
		AspectCategory:   {},
		AspectGeneral:    {0.4},
	}
	assert.False(t, empty.Complete())

	full := AspectEmbeddings{}
	for _, aspect := range Aspects {
		full[aspect] = []float32{0.5}
	}
	assert.True(t, full.Complete())
}

func TestJobLevelValid(t *testing.T) {
	for _, level := range []JobLevel{LevelPracticante, LevelAnalista, LevelSenior, LevelJunior} {
		assert.True(t, level.Valid())
	}
	assert.False(t, JobLevel("ceo").Valid())
	assert.False(t, JobLevel("").Valid())
}

func TestDefaultSections(t *testing.T) {
	sections := DefaultSections()
	assert.True(t, sections.EnableMigration)
	assert.True(t, sections.EnableMetadata)
	assert.True(t, sections.EnableEmbeddings)
	assert.True(t, sections.EnableCacheClear)
	assert.False(t, sections.EnableCleanup)
}
