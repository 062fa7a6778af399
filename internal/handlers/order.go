package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/maison/internal/checkout"
	"github.com/example/maison/internal/middleware"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/payment"
	"github.com/example/maison/internal/services"
	"github.com/example/maison/internal/utils"
)

const (
	taxRate           = 0.23
	shippingFlatFee   = 4.99
	freeShippingAbove = 100.0
)

// OrderHandler manages order placement and tracking.
type OrderHandler struct {
	db         *gorm.DB
	gateway    payment.Gateway
	events     *services.EventPublisher
	successURL string
	cancelURL  string
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, gateway payment.Gateway, events *services.EventPublisher, successURL, cancelURL string) *OrderHandler {
	return &OrderHandler{
		db:         db,
		gateway:    gateway,
		events:     events,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateOrder places an order from the user's cart: validates the checkout
// form, snapshots cart lines and prices, computes totals once, and opens a
// payment session the client is redirected to. The order stays PENDING until
// the session is finalized.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var input checkout.RawCheckoutInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	form, fieldErrs := checkout.Validate(input)
	if len(fieldErrs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"errors":  fieldErrs,
		})
	}

	var cartItems []models.CartItem
	if err := h.db.Preload("Product").
		Where("user_id = ?", userID).
		Find(&cartItems).Error; err != nil {
		return err
	}
	if len(cartItems) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "cart is empty")
	}

	var subtotal float64
	items := make([]models.OrderItem, 0, len(cartItems))
	for _, line := range cartItems {
		if line.Product == nil {
			return fiber.NewError(fiber.StatusConflict, "cart references a missing product")
		}
		productID := line.ProductID
		items = append(items, models.OrderItem{
			ProductID:   &productID,
			ProductName: line.Product.Name,
			UnitPrice:   line.Product.Price,
			Quantity:    line.Quantity,
			Image:       line.Product.Image,
		})
		subtotal += line.Product.Price * float64(line.Quantity)
	}

	tax := subtotal * taxRate
	shipping := shippingFlatFee
	if subtotal >= freeShippingAbove {
		shipping = 0
	}

	order := models.Order{
		UserID:        &userID,
		OrderNumber:   generateOrderNumber(),
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: form.PaymentMethod,
		Email:         form.Email,
		Phone:         form.Phone,
		FirstName:     form.FirstName,
		LastName:      form.LastName,
		Address:       form.Address,
		City:          form.City,
		PostalCode:    form.PostalCode,
		Country:       form.Country,
		Subtotal:      subtotal,
		Tax:           tax,
		Shipping:      shipping,
		Total:         subtotal + tax + shipping,
		PlacedAt:      time.Now(),
		Items:         items,
	}

	if err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderLog{
			OrderID:     order.ID,
			Action:      models.LogActionOrderCreated,
			Description: fmt.Sprintf("Order %s placed with %d items", order.OrderNumber, len(order.Items)),
			PerformedBy: userID.String(),
		}).Error
	}); err != nil {
		return err
	}

	session, err := h.gateway.CreateSession(c.Context(), payment.CreateSessionParams{
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Amount:      order.Total,
		Currency:    "EUR",
		Email:       order.Email,
		SuccessURL:  h.successURL,
		CancelURL:   h.cancelURL,
	})
	if err != nil {
		log.Printf("[Order] payment session creation failed for order %s: %v", order.OrderNumber, err)
		return fiber.NewError(fiber.StatusBadGateway, "payment provider unavailable")
	}

	if err := h.db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("session_id", session.ID).Error; err != nil {
		return err
	}

	h.events.Publish(c.Context(), services.OrderEvent{
		Type:        models.LogActionOrderCreated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"total":        order.Total,
			"checkout_url": session.URL,
		},
	})
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order for the authenticated user.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func generateOrderNumber() string {
	return fmt.Sprintf("MSN-%09d", time.Now().UnixNano()%1000000000)
}
