package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"practimatch/job-match-api/internal/models"
)

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	ExtractJobMetadata(ctx context.Context, posting *models.JobPosting) (*models.ExtractedMetadata, error)
	ExtractCVMetadata(ctx context.Context, cvText string) (*models.ExtractedMetadata, error)
}

type geminiService struct {
	client      *genai.Client
	modelName   string
	embedModel  string
	prompts     *PromptBuilder
	callTimeout time.Duration
	maxRetries  int
}

func NewGeminiService(apiKey string, callTimeout time.Duration, maxRetries int) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:      client,
		modelName:   "gemini-2.5-flash",
		embedModel:  "text-embedding-004",
		prompts:     NewPromptBuilder(),
		callTimeout: callTimeout,
		maxRetries:  maxRetries,
	}, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	result, err := g.client.Models.EmbedContent(callCtx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// ExtractJobMetadata implements GeminiService.
func (g *geminiService) ExtractJobMetadata(ctx context.Context, posting *models.JobPosting) (*models.ExtractedMetadata, error) {
	prompt := g.prompts.BuildJobMetadataPrompt(posting.Title, posting.Company, posting.Description)
	return g.extractMetadata(ctx, prompt)
}

// ExtractCVMetadata implements GeminiService.
func (g *geminiService) ExtractCVMetadata(ctx context.Context, cvText string) (*models.ExtractedMetadata, error) {
	prompt := g.prompts.BuildCVMetadataPrompt(cvText)
	return g.extractMetadata(ctx, prompt)
}

func (g *geminiService) extractMetadata(ctx context.Context, prompt string) (*models.ExtractedMetadata, error) {
	raw, err := g.generateTextWithRetry(ctx, prompt, 0.1)
	if err != nil {
		return nil, err
	}

	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var metadata models.ExtractedMetadata
	if err := json.Unmarshal([]byte(jsonStr), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata response: %w", err)
	}

	return &metadata, nil
}

func (g *geminiService) generateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 4096,
	}

	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no text content in response")
	}

	return text, nil
}

func (g *geminiService) generateTextWithRetry(ctx context.Context, prompt string, temperature float32) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		result, err := g.generateText(ctx, prompt, temperature)
		if err == nil {
			return result, nil
		}

		lastErr = err

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if attempt < g.maxRetries {
			fmt.Printf("⚠️ Attempt %d failed: %v. Retrying...\n", attempt, err)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
}

// extractJSON pulls the first top-level JSON object out of a model response,
// tolerating markdown code fences around it.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
