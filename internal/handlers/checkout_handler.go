package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maison/internal/payment"
	"github.com/example/maison/internal/services"
)

// CheckoutHandler exposes the session verification and webhook endpoints that
// drive order finalization. Both call sites may race for the same order; the
// service guarantees the transition happens once.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// VerifySession is polled by the client after the provider redirect. It
// finalizes the order when the session is paid and returns the order summary.
func (h *CheckoutHandler) VerifySession(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	summary, err := h.service.FinalizeCheckout(c.Context(), sessionID)
	if err != nil {
		return writeFinalizeError(c, sessionID, err)
	}

	return c.JSON(summary)
}

type webhookPayload struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Webhook handles provider callbacks. Redelivered events take the idempotent
// path inside the service and still answer 200.
func (h *CheckoutHandler) Webhook(c *fiber.Ctx) error {
	var payload webhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}
	if payload.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	summary, err := h.service.FinalizeCheckout(c.Context(), payload.SessionID)
	if err != nil {
		return writeFinalizeError(c, payload.SessionID, err)
	}

	return c.JSON(fiber.Map{"received": true, "order": summary})
}

func writeFinalizeError(c *fiber.Ctx, sessionID string, err error) error {
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "payment session not found",
		})
	case errors.Is(err, services.ErrOrderNotLinked):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session is not linked to an order",
		})
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "order not found",
		})
	default:
		log.Printf("[Checkout] finalize failed for session %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "checkout verification failed",
		})
	}
}
