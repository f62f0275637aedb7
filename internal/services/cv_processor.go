package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/repositories"
)

// CVProcessor turns an uploaded CV into the metadata and aspect embeddings
// the matcher scores against. It runs asynchronously behind the worker.
type CVProcessor interface {
	ProcessCV(ctx context.Context, cvID uuid.UUID) error
}

type cvProcessor struct {
	cvRepo    repositories.CVRepository
	storage   StorageService
	pdfParser PDFParserService
	gemini    GeminiService
}

func NewCVProcessor(
	cvRepo repositories.CVRepository,
	storage StorageService,
	pdfParser PDFParserService,
	gemini GeminiService,
) CVProcessor {
	return &cvProcessor{
		cvRepo:    cvRepo,
		storage:   storage,
		pdfParser: pdfParser,
		gemini:    gemini,
	}
}

// ProcessCV implements CVProcessor. A failure at any step marks the CV
// failed with the error message; the matcher only ever sees completed CVs.
func (p *cvProcessor) ProcessCV(ctx context.Context, cvID uuid.UUID) error {
	cv, err := p.cvRepo.FindByID(cvID)
	if err != nil {
		return err
	}

	if err := p.cvRepo.UpdateStatus(cvID, models.CVStatusProcessing); err != nil {
		return err
	}

	if err := p.process(ctx, cv); err != nil {
		log.Printf("❌ CV %s processing failed: %v\n", cvID, err)
		if updErr := p.cvRepo.UpdateError(cvID, err.Error()); updErr != nil {
			log.Printf("⚠️  Could not mark CV %s as failed: %v\n", cvID, updErr)
		}
		return err
	}

	log.Printf("✅ CV %s processed\n", cvID)
	return nil
}

func (p *cvProcessor) process(ctx context.Context, cv *models.UserCV) error {
	text, err := p.pdfParser.ExtractText(p.storage.GetFilePath(cv.FileURL))
	if err != nil {
		return fmt.Errorf("failed to read CV file: %w", err)
	}
	text = CleanText(text)

	metadata, err := p.gemini.ExtractCVMetadata(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to extract CV metadata: %w", err)
	}

	texts, err := aspectTexts(metadata, "")
	if err != nil {
		return err
	}

	embeddings := models.AspectEmbeddings{}
	for _, aspect := range models.Aspects {
		vector, err := p.gemini.GenerateEmbedding(ctx, texts[aspect])
		if err != nil {
			return fmt.Errorf("aspect %s: %w", aspect, err)
		}
		embeddings[aspect] = vector
	}

	return p.cvRepo.UpdateResult(cv.ID, metadata, embeddings)
}
