package handlers

import (
	"github.com/gofiber/fiber/v2"

	"practimatch/job-match-api/internal/models"
	"practimatch/job-match-api/internal/services"
)

type MatchHandler struct {
	matcherService services.MatcherService
}

func NewMatchHandler(matcherService services.MatcherService) *MatchHandler {
	return &MatchHandler{
		matcherService: matcherService,
	}
}

func (h *MatchHandler) HandleMatchPostings(c *fiber.Ctx) error {
	var req models.MatchPostingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	resp, err := h.matcherService.MatchPostings(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(resp)
}

func (h *MatchHandler) HandleMatchSingle(c *fiber.Ctx) error {
	var req models.MatchSingleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	resp, err := h.matcherService.MatchSingle(c.UserContext(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(resp)
}
