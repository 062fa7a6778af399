package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// WebhookAuthMiddleware validates the shared key the payment provider sends
// with callback requests.
func WebhookAuthMiddleware(webhookKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get("X-Webhook-Key")
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(webhookKey)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid webhook key")
		}

		return c.Next()
	}
}
