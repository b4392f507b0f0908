package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	t_token "studio_marketplace/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTMiddleware())
	app.Get("/me", func(c *fiber.Ctx) error {
		id, ok := IdentityFrom(FiberLocals(c))
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"user_id": id.MemberID, "name": id.Name})
	})
	return app
}

func TestJWTMiddleware(t *testing.T) {
	app := newApp()
	tok, err := t_token.GenerateJWT(t_token.Claims{MemberID: "inst-1", Name: "Maya"}, "test")
	require.NoError(t, err)

	cases := []struct {
		name   string
		build  func(r *http.Request)
		status int
	}{
		{"missing", func(r *http.Request) {}, fiber.StatusUnauthorized},
		{"invalid", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, fiber.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, fiber.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieToken, Value: tok}) }, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.build(req)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me?"+QueryToken+"="+tok, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "inst-1", body["user_id"])
	assert.Equal(t, "Maya", body["name"])
}
