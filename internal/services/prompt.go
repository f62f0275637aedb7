package services

import (
	"fmt"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildJobMetadataPrompt creates the extraction prompt for a job posting.
func (pb *PromptBuilder) BuildJobMetadataPrompt(title, company, description string) string {
	return fmt.Sprintf(`You are an expert recruitment analyst extracting structured metadata from a job posting.

JOB TITLE: %s
COMPANY: %s

JOB DESCRIPTION:
%s

Extract the following information from the posting. Use the posting's own wording where possible, in the posting's language.

Return your response in the following JSON format:
{
  "category": ["<professional sector or industry, e.g. 'Tecnología', 'Finanzas'>"],
  "hard_skills": ["<technical skill or tool explicitly required or implied>"],
  "soft_skills": ["<interpersonal or behavioral skill>"],
  "related_degrees": ["<degree or field of study this role targets>"],
  "language_requirements": "<required languages and level, empty string if none stated>"
}

Rules:
- Every field except language_requirements is a JSON array of short strings.
- Do not invent requirements that are not supported by the posting.
- Return ONLY the JSON object, no commentary.`,
		title, company, description)
}

// BuildCVMetadataPrompt creates the extraction prompt for a candidate CV. The
// output shape matches the job posting extraction so the two sides embed into
// the same aspect space.
func (pb *PromptBuilder) BuildCVMetadataPrompt(cvText string) string {
	return fmt.Sprintf(`You are an expert recruitment analyst extracting structured metadata from a candidate's CV.

CANDIDATE CV:
%s

Extract the candidate's profile. Use the CV's own wording where possible, in the CV's language.

Return your response in the following JSON format:
{
  "category": ["<professional sector the candidate fits, e.g. 'Tecnología', 'Finanzas'>"],
  "hard_skills": ["<technical skill or tool the candidate demonstrates>"],
  "soft_skills": ["<interpersonal or behavioral skill the candidate demonstrates>"],
  "related_degrees": ["<degree or field of study the candidate holds or pursues>"],
  "language_requirements": "<languages the candidate speaks and level, empty string if none stated>"
}

Rules:
- Every field except language_requirements is a JSON array of short strings.
- Base every item on the CV content, do not speculate.
- Return ONLY the JSON object, no commentary.`,
		cvText)
}
