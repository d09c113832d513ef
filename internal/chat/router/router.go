package router

import (
	"context"

	"direct_chat_service/internal/chat/app"
	"direct_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes registers the chat REST surface and the websocket entry
func RegisterRoutes(r *fiber.App, httpHandler *app.ChatHTTPHandler, wsHandler *app.ChatWebsocketHandler) {
	// public existence check, no credential required
	r.Get("/chat/exists/:username", httpHandler.Exists)

	r.Use(middlewares.JWTMiddleware())

	r.Get("/chat", httpHandler.ListRecent)
	r.Get("/chat/status/:username", httpHandler.Status)
	r.Get("/chat/:username", httpHandler.GetHistory)
	r.Post("/chat/:username", httpHandler.Send)
	r.Post("/chat/:username/read", httpHandler.MarkRead)
	r.Delete("/chat/:username", httpHandler.Clear)

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))
}
