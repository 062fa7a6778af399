package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/payment"
)

var (
	// ErrOrderNotLinked is returned when a session resolves but carries no
	// order reference.
	ErrOrderNotLinked = errors.New("session is not linked to an order")
	// ErrOrderNotFound is returned when the order referenced by a session
	// does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

// OrderSummary is the result of a finalization call.
type OrderSummary struct {
	OrderNumber   string `json:"order_number"`
	PaymentStatus string `json:"payment_status"`
	Status        string `json:"status"`
}

// CheckoutService reconciles provider session state with local orders.
type CheckoutService struct {
	db      *gorm.DB
	gateway payment.Gateway
	events  *EventPublisher
}

// NewCheckoutService constructs CheckoutService. events may be nil.
func NewCheckoutService(db *gorm.DB, gateway payment.Gateway, events *EventPublisher) *CheckoutService {
	return &CheckoutService{db: db, gateway: gateway, events: events}
}

// FinalizeCheckout transitions the order behind sessionRef from PENDING to
// PAID exactly once, decrements stock, appends the audit log entry and clears
// the user's cart, all in one transaction. It is safe to call repeatedly and
// concurrently for the same session: the payment status transition is a
// conditional update, and a call that loses the race returns the current
// summary without mutating anything.
func (s *CheckoutService) FinalizeCheckout(ctx context.Context, sessionRef string) (*OrderSummary, error) {
	session, err := s.gateway.RetrieveSession(ctx, sessionRef)
	if err != nil {
		return nil, err
	}
	if session.OrderID == "" {
		return nil, ErrOrderNotLinked
	}

	orderID, err := uuid.Parse(session.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").
		First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	// Idempotency guard: a second webhook delivery or a client poll after the
	// webhook already landed takes this path.
	if order.PaymentStatus == models.PaymentStatusPaid {
		return summaryOf(&order), nil
	}

	if session.PaymentStatus != payment.SessionPaid {
		return summaryOf(&order), nil
	}

	won := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
			Updates(map[string]any{
				"payment_status":    models.PaymentStatusPaid,
				"status":            models.OrderStatusProcessing,
				"payment_intent_id": session.PaymentIntentID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against a concurrent finalize.
			return nil
		}
		won = true

		for _, item := range order.Items {
			if err := s.decrementStock(tx, item); err != nil {
				return err
			}
		}

		entry := models.OrderLog{
			OrderID:     order.ID,
			Action:      models.LogActionPaymentCompleted,
			Description: fmt.Sprintf("Payment confirmed by provider for session %s", session.ID),
			PerformedBy: "system",
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if order.UserID != nil {
			if err := tx.Where("user_id = ?", *order.UserID).
				Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finalize order %s: %w", order.OrderNumber, err)
	}

	if err := s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}

	if won {
		s.events.Publish(ctx, OrderEvent{
			Type:        models.LogActionPaymentCompleted,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			Total:       order.Total,
		})
	}

	return summaryOf(&order), nil
}

// decrementStock applies an atomic conditional decrement. When stock is
// insufficient the count is clamped to zero and a warning is logged; an
// oversold item never blocks finalization.
func (s *CheckoutService) decrementStock(tx *gorm.DB, item models.OrderItem) error {
	if item.ProductID == nil {
		return nil
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", *item.ProductID, item.Quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	log.Printf("[Checkout] stock anomaly: product %s oversold by order item %s, clamping to 0",
		*item.ProductID, item.ID)
	return tx.Model(&models.Product{}).
		Where("id = ?", *item.ProductID).
		UpdateColumn("quantity", 0).Error
}

func summaryOf(order *models.Order) *OrderSummary {
	return &OrderSummary{
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		Status:        order.Status,
	}
}
