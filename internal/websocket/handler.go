package websocket

import (
	"subshare-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs pumps events to one connection until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, accountID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, AccountID: accountID, Send: make(chan []byte, sendBuffer)}
	if !hub.join(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// RegisterRoutes mounts GET /events/ws behind auth. The account is resolved
// by the auth middleware before the upgrade.
func RegisterRoutes(r fiber.Router, hub *Hub, auth fiber.Handler) {
	r.Use("/events/ws", auth, func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		ctx.Locals("ws_account_id", serverutils.AccountID(ctx))
		return ctx.Next()
	})
	r.Get("/events/ws", websocket.New(func(c *websocket.Conn) {
		accountID, _ := c.Locals("ws_account_id").(uuid.UUID)
		ServeWs(hub, c, accountID)
	}))
}
