package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/kavyarc11/postpilot/configs"
	"github.com/kavyarc11/postpilot/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(cfg config.Config) *fiber.App {
	m := NewAuthMiddleware(cfg)
	app := fiber.New()

	app.Post("/internal/run", m.TriggerAuth(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/me", m.AuthMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"workspace_id": c.Locals("workspace_id")})
	})
	return app
}

func TestTriggerAuth(t *testing.T) {
	cfg := config.Config{TriggerSecret: "sweep-secret"}
	app := testApp(cfg)

	req := httptest.NewRequest("POST", "/internal/run", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("X-Trigger-Secret", "wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("X-Trigger-Secret", "sweep-secret")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTriggerAuth_EmptySecretRejectsAll(t *testing.T) {
	app := testApp(config.Config{})

	req := httptest.NewRequest("POST", "/internal/run", nil)
	req.Header.Set("X-Trigger-Secret", "")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	cfg := config.Config{SecretKey: "jwt-secret", CookieName: "pp_session"}
	app := testApp(cfg)

	token, err := utils.GenerateToken(cfg.SecretKey, "42", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	app := testApp(config.Config{SecretKey: "jwt-secret", CookieName: "pp_session"})

	req := httptest.NewRequest("GET", "/api/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	app := testApp(config.Config{SecretKey: "jwt-secret", CookieName: "pp_session"})

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
