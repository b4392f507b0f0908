package router

import (
	"context"

	"studio_marketplace/internal/chat/app"
	"studio_marketplace/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相关的路由
// @title Studio Marketplace Chat API
// @version 1.0
// @description Conversations, messages and offer negotiation between studios and instructors
// @host localhost:8083
// @BasePath /
func RegisterRoutes(r *fiber.App, chatHTTP *app.ChatHTTPHandler, chatWebsocket *app.ChatWebsocketHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)

	r.Use(middlewares.JWTMiddleware())
	r.Post("/debug", app.DebugLogFlag)

	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	conversations := r.Group("/conversations")
	conversations.Get("/", chatHTTP.ListConversations)
	conversations.Get("/unread", chatHTTP.UnreadSummary)
	conversations.Get("/:id", chatHTTP.GetConversation)
	conversations.Post("/:id/read", chatHTTP.MarkRead)
	conversations.Get("/:id/messages", chatHTTP.ListMessages)
	conversations.Post("/:id/messages", chatHTTP.SendText)
	conversations.Post("/:id/messages/:messageId/respond", chatHTTP.Respond)

	offers := r.Group("/offers")
	offers.Post("/", chatHTTP.SendOffer)
	offers.Post("/catalog", chatHTTP.SendCatalogOffer)
}
