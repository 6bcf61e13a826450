package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(New(Config{ApiKey: key, SkipPrefixes: []string{"/swagger"}}))
	app.Get("/progress", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/swagger/index.html", func(c *fiber.Ctx) error { return c.SendString("docs") })
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		path   string
		header map[string]string
		want   int
	}{
		{"Disabled", "", "/progress", nil, fiber.StatusOK},
		{"MissingKey", "secret", "/progress", nil, fiber.StatusUnauthorized},
		{"WrongKey", "secret", "/progress", map[string]string{"X-API-Key": "nope"}, fiber.StatusUnauthorized},
		{"HeaderKey", "secret", "/progress", map[string]string{"X-API-Key": "secret"}, fiber.StatusOK},
		{"BearerKey", "secret", "/progress", map[string]string{"Authorization": "Bearer secret"}, fiber.StatusOK},
		{"SkippedPrefix", "secret", "/swagger/index.html", nil, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			resp, err := newApp(tt.key).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
