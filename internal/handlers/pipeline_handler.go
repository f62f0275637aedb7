package handlers

import (
	"github.com/gofiber/fiber/v2"

	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/repositories"
	"practimatch/job-match-api/internal/services"
)

type PipelineHandler struct {
	pipelineService services.PipelineService
	failureRepo     repositories.MetadataFailureRepository
}

func NewPipelineHandler(
	pipelineService services.PipelineService,
	failureRepo repositories.MetadataFailureRepository,
) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: pipelineService,
		failureRepo:     failureRepo,
	}
}

// pipelineRequest wraps the run configuration. Sections defaults to every
// stage on except cleanup when the field is absent.
type pipelineRequest struct {
	Migrations          []models.MigrationConfig `json:"migrations"`
	Cleanups            []models.CleanupConfig   `json:"cleanups"`
	Sections            *models.PipelineSections `json:"sections"`
	OverwriteMetadata   bool                     `json:"overwrite_metadata"`
	OverwriteEmbeddings bool                     `json:"overwrite_embeddings"`
	DaysBack            int                      `json:"days_back"`
}

func (h *PipelineHandler) HandleRun(c *fiber.Ctx) error {
	var req pipelineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	sections := models.DefaultSections()
	if req.Sections != nil {
		sections = *req.Sections
	}

	cfg := models.PipelineConfig{
		Migrations:          req.Migrations,
		Cleanups:            req.Cleanups,
		Sections:            sections,
		OverwriteMetadata:   req.OverwriteMetadata,
		OverwriteEmbeddings: req.OverwriteEmbeddings,
		DaysBack:            req.DaysBack,
	}

	result, err := h.pipelineService.Run(c.UserContext(), cfg)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(result)
}

func (h *PipelineHandler) HandleGetFailures(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)

	failures, err := h.failureRepo.ListUnresolved(limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"failures": failures,
		"total":    len(failures),
	})
}
