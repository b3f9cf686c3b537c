package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/kavyarc11/postpilot/internal/engine"
	"github.com/kavyarc11/postpilot/internal/models"
	"github.com/kavyarc11/postpilot/internal/repository"
)

type PublishHandler struct {
	e  *engine.Engine
	lr repository.PostLogRepository
}

func NewPublishHandler(e *engine.Engine, lr repository.PostLogRepository) *PublishHandler {
	return &PublishHandler{e: e, lr: lr}
}

// RunBatch is the periodic trigger entry point. The caller only gets a
// coarse signal; per-post outcomes live in the audit log.
func (h *PublishHandler) RunBatch(c *fiber.Ctx) error {
	_, err := h.e.RunBatch(c.Context())
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

// PublishNow retargets one post to be due immediately, publishes it and
// reports that post's terminal state back to the caller.
func (h *PublishHandler) PublishNow(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)

	var req struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.PostID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "post_id is required",
		})
	}

	outcome, err := h.e.PublishSpecific(c.Context(), req.PostID, workspaceID)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrPostNotRetargetable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "post is not in a publishable state",
			})
		case errors.Is(err, engine.ErrPostNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "post not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	switch outcome.Status {
	case models.PostStatusPublished:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":           outcome.Status,
			"platform_post_id": outcome.PlatformPostID,
		})
	case models.PostStatusFailed:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":        outcome.Status,
			"error_message": outcome.ErrorMessage,
		})
	default:
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "processing",
		})
	}
}

func (h *PublishHandler) ListLogs(c *fiber.Ctx) error {
	postID := c.QueryInt("id", 0)
	if postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	entries, err := h.lr.ListByPostID(c.Context(), int64(postID))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list post logs",
		})
	}

	return c.Status(fiber.StatusOK).JSON(entries)
}
