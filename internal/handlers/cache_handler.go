package handlers

import (
	"github.com/gofiber/fiber/v2"

	"practimatch/job-match-api/internal/services"
)

type CacheHandler struct {
	cache services.MatchCache
}

func NewCacheHandler(cache services.MatchCache) *CacheHandler {
	return &CacheHandler{
		cache: cache,
	}
}

// HandleClear drops every cached match list. Used after out-of-band data
// changes; pipeline runs clear the cache on their own.
func (h *CacheHandler) HandleClear(c *fiber.Ctx) error {
	removed, err := h.cache.ClearAll(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"message":         "Match cache cleared",
		"entries_removed": removed,
	})
}
