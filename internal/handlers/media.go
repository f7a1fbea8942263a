package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/VikramTex/filedesk-backend/internal/services"
)

// MediaHandler serves cached outbound media to the transport provider.
type MediaHandler struct {
	cache *services.MediaCache
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(cache *services.MediaCache) *MediaHandler {
	return &MediaHandler{cache: cache}
}

// ServeMedia returns the cached bytes for a media token. Tokens are
// unguessable UUIDs and entries expire on a TTL, so a miss is a plain 404.
func (h *MediaHandler) ServeMedia(c *fiber.Ctx) error {
	item, ok := h.cache.Get(c.Params("token"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "media not found",
		})
	}

	c.Set(fiber.HeaderContentType, item.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", item.FileName))
	return c.Send(item.Data)
}
