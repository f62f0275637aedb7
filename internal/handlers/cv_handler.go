package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/repositories"
	"practimatch/job-match-api/internal/services"
)

type CVHandler struct {
	cvRepo         repositories.CVRepository
	storageService services.StorageService
	worker         services.Worker
}

func NewCVHandler(
	cvRepo repositories.CVRepository,
	storageService services.StorageService,
	worker services.Worker,
) *CVHandler {
	return &CVHandler{
		cvRepo:         cvRepo,
		storageService: storageService,
		worker:         worker,
	}
}

// HandleUpload accepts a CV PDF plus the owning user id and queues it for
// asynchronous processing.
func (h *CVHandler) HandleUpload(c *fiber.Ctx) error {
	userID := c.FormValue("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	cvFile, err := c.FormFile("cv")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cv file is required",
		})
	}

	filename, _, err := h.storageService.SaveCV(cvFile)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save CV file: %v", err),
		})
	}

	cv := models.UserCV{
		ID:        uuid.New(),
		UserID:    userID,
		FileName:  cvFile.Filename,
		FileURL:   filename,
		Status:    models.CVStatusQueued,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := h.cvRepo.Create(&cv); err != nil {
		// Cleanup uploaded file if database insert fails
		h.storageService.DeleteFile(filename)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("failed to save CV record: %v", err),
		})
	}

	h.worker.EnqueueJob(cv.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     cv.ID.String(),
		"status": cv.Status,
	})
}

// HandleGetCV returns processing status and, once completed, the extracted
// metadata.
func (h *CVHandler) HandleGetCV(c *fiber.Ctx) error {
	idParam := c.Params("id")
	cvID, err := uuid.Parse(idParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid CV ID format",
		})
	}

	cv, err := h.cvRepo.FindByID(cvID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "CV not found",
		})
	}

	response := fiber.Map{
		"id":        cv.ID.String(),
		"user_id":   cv.UserID,
		"file_name": cv.FileName,
		"status":    cv.Status,
	}

	if cv.Status == models.CVStatusCompleted {
		response["metadata"] = cv.Metadata
	}

	if cv.Status == models.CVStatusFailed && cv.ErrorMessage != nil {
		response["error_message"] = *cv.ErrorMessage
	}

	return c.JSON(response)
}
