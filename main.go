package main

import (
	"fmt"

	"studio_marketplace/internal/chat/router"

	"github.com/gofiber/fiber/v2"
)

// swagger 產生入口, handlers are never called here
// swag init -g main.go -o ./cmd/chat_service/docs
func main() {
	app := fiber.New()
	router.RegisterRoutes(app, nil, nil)

	for _, route := range app.GetRoutes(true) {
		fmt.Printf("%-7s %s\n", route.Method, route.Path)
	}
}
