package middlewares

import (
	"strings"

	t_token "studio_marketplace/pkg/token"

	"github.com/gofiber/fiber/v2"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID get member form token, set c.locals name
	TokenMemberID = "MemberID"
	//TokenRole get role form token, set c.locals name
	TokenRole = "role"
	//TokenName display name from token
	TokenName = "name"
	//TokenAvatar avatar url from token
	TokenAvatar = "avatar"
)

func tokenFrom(c *fiber.Ctx) string {
	if tokenStr := c.Query(QueryToken); tokenStr != "" {
		return tokenStr
	}
	if tokenStr := c.Cookies(CookieToken); tokenStr != "" {
		return tokenStr
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// JWTMiddleware validates JWT from query, cookie or Authorization header
func JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":      "Missing token",
				"error_code": "UNAUTHORIZED",
			})
		}

		claims, err := t_token.ParseJWTWrapper(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":      "Invalid token",
				"error_code": "UNAUTHORIZED",
			})
		}

		c.Locals(TokenMemberID, claims.MemberID)
		c.Locals(TokenRole, claims.Role)
		c.Locals(TokenName, claims.Name)
		c.Locals(TokenAvatar, claims.Avatar)

		return c.Next()
	}
}

// Identity member id, name and avatar stored by JWTMiddleware
type Identity struct {
	MemberID string
	Name     string
	Avatar   string
}

// IdentityFrom read the identity stored by JWTMiddleware; locals is
// c.Locals of a fiber ctx or of a websocket conn
func IdentityFrom(locals func(key string) interface{}) (Identity, bool) {
	id, ok := locals(TokenMemberID).(string)
	if !ok || id == "" {
		return Identity{}, false
	}
	name, _ := locals(TokenName).(string)
	avatar, _ := locals(TokenAvatar).(string)
	return Identity{MemberID: id, Name: name, Avatar: avatar}, true
}

// FiberLocals adapt a fiber ctx for IdentityFrom
func FiberLocals(c *fiber.Ctx) func(key string) interface{} {
	return func(key string) interface{} { return c.Locals(key) }
}
