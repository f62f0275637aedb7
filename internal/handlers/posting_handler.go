package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"practimatch/job-match-api/internal/repositories"
)

type PostingHandler struct {
	postingRepo       repositories.JobPostingRepository
	defaultCollection string
}

func NewPostingHandler(postingRepo repositories.JobPostingRepository, defaultCollection string) *PostingHandler {
	return &PostingHandler{
		postingRepo:       postingRepo,
		defaultCollection: defaultCollection,
	}
}

// HandleGetRecent lists postings added within the last N days, newest first.
func (h *PostingHandler) HandleGetRecent(c *fiber.Ctx) error {
	collection := c.Query("collection", h.defaultCollection)
	days := c.QueryInt("days", 7)
	limit := c.QueryInt("limit", 50)

	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	since := time.Now().AddDate(0, 0, -days)
	postings, err := h.postingRepo.ListRecent(collection, since, limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"collection": collection,
		"postings":   postings,
		"total":      len(postings),
	})
}
