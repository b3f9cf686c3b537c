package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kavyarc11/postpilot/internal/repository"
)

type AccountHandler struct {
	sa repository.SocialAccountRepository
}

func NewAccountHandler(sa repository.SocialAccountRepository) *AccountHandler {
	return &AccountHandler{sa: sa}
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	workspaceID := GetWorkspaceID(c)

	accounts, err := h.sa.ListInfoByWorkspaceID(c.Context(), workspaceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}
