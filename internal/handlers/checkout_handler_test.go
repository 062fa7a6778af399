package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/database"
	"github.com/example/maison/internal/models"
	"github.com/example/maison/internal/payment"
	"github.com/example/maison/internal/routes"
	"github.com/example/maison/internal/utils"
)

type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*payment.Session
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*payment.Session{}}
}

func (g *fakeGateway) put(session *payment.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[session.ID] = session
}

func (g *fakeGateway) markPaid(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if session, ok := g.sessions[id]; ok {
		session.PaymentStatus = payment.SessionPaid
		session.PaymentIntentID = "pi_test"
	}
}

func (g *fakeGateway) RetrieveSession(ctx context.Context, id string) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	session, ok := g.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (g *fakeGateway) CreateSession(ctx context.Context, params payment.CreateSessionParams) (*payment.Session, error) {
	session := &payment.Session{
		ID:            "sess_" + uuid.NewString(),
		PaymentStatus: payment.SessionUnpaid,
		OrderID:       params.OrderID,
		URL:           "https://pay.example.com/s/" + params.OrderID,
	}
	g.put(session)
	return session, nil
}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *fakeGateway
	cfg     *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:          "test-secret",
		TokenExpires:       time.Hour,
		PaymentWebhookKey:  "hook-key",
		CheckoutSuccessURL: "http://localhost/success",
		CheckoutCancelURL:  "http://localhost/cancel",
	}

	gateway := newFakeGateway()
	app := fiber.New()
	routes.Register(app, db, cfg, gateway, nil)

	return &testEnv{app: app, db: db, gateway: gateway, cfg: cfg}
}

func (e *testEnv) createUser(t *testing.T, email string, admin bool) (models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{Email: email, PasswordHash: hash, IsAdmin: admin}
	require.NoError(t, e.db.Create(&user).Error)

	token, err := utils.GenerateToken(e.cfg.JWTSecret, user.ID, e.cfg.TokenExpires)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedProduct(t *testing.T, stock int) models.Product {
	t.Helper()

	category := models.Category{Name: "Candles " + uuid.NewString()}
	require.NoError(t, e.db.Create(&category).Error)

	product := models.Product{
		Name:       "Scented Candle",
		Price:      20.0,
		Quantity:   stock,
		CategoryID: category.ID,
	}
	require.NoError(t, e.db.Create(&product).Error)
	return product
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestVerifySessionMissingParam(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, env.app, http.MethodGet, "/api/checkout/verify", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["error"], "session_id")
}

func TestVerifySessionUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, env.app, http.MethodGet, "/api/checkout/verify?session_id=sess_nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookRequiresSharedKey(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/webhook",
		bytes.NewReader([]byte(`{"session_id":"sess_x"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Full storefront flow: add to cart, place order, pay via provider, verify.
func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", false)
	product := env.seedProduct(t, 10)

	resp := doJSON(t, env.app, http.MethodPost, "/api/cart/items", token, fiber.Map{
		"product_id": product.ID.String(),
		"quantity":   3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/api/orders", token, fiber.Map{
		"email":          "buyer@example.com",
		"phone":          "+351 912 345 678",
		"first_name":     "Ana",
		"last_name":      "Silva",
		"address":        "Rua das Flores 12",
		"city":           "Lisboa",
		"postal_code":    "1234-567",
		"country":        "Portugal",
		"payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	data := created["data"].(map[string]any)
	orderNumber := data["order_number"].(string)
	assert.NotEmpty(t, data["checkout_url"])

	var order models.Order
	require.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)
	require.NotEmpty(t, order.SessionID)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)

	// Unpaid session: verify reports the pending state without mutating.
	resp = doJSON(t, env.app, http.MethodGet, "/api/checkout/verify?session_id="+order.SessionID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pending := decodeBody(t, resp)
	assert.Equal(t, models.PaymentStatusPending, pending["payment_status"])

	env.gateway.markPaid(order.SessionID)

	resp = doJSON(t, env.app, http.MethodGet, "/api/checkout/verify?session_id="+order.SessionID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decodeBody(t, resp)
	assert.Equal(t, orderNumber, paid["order_number"])
	assert.Equal(t, models.PaymentStatusPaid, paid["payment_status"])
	assert.Equal(t, models.OrderStatusProcessing, paid["status"])

	var reloaded models.Product
	require.NoError(t, env.db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 7, reloaded.Quantity)

	var cartCount int64
	require.NoError(t, env.db.Model(&models.CartItem{}).Count(&cartCount).Error)
	assert.Zero(t, cartCount)

	// Webhook redelivery after the client already verified: idempotent 200.
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/webhook",
		bytes.NewReader([]byte(fmt.Sprintf(`{"type":"checkout.session.completed","session_id":"%s"}`, order.SessionID))))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Key", "hook-key")

	hookResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, hookResp.StatusCode)

	var logCount int64
	require.NoError(t, env.db.Model(&models.OrderLog{}).
		Where("order_id = ? AND action = ?", order.ID, models.LogActionPaymentCompleted).
		Count(&logCount).Error)
	assert.EqualValues(t, 1, logCount)
}

func TestCreateOrderRejectsInvalidCheckoutForm(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", false)
	product := env.seedProduct(t, 5)

	resp := doJSON(t, env.app, http.MethodPost, "/api/cart/items", token, fiber.Map{
		"product_id": product.ID.String(),
		"quantity":   1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, env.app, http.MethodPost, "/api/orders", token, fiber.Map{
		"email":          "buyer@example.com",
		"phone":          "+351 912 345 678",
		"first_name":     "Ana",
		"last_name":      "Silva",
		"address":        "Rua das Flores 12",
		"city":           "Lisboa",
		"postal_code":    "1234",
		"country":        "Portugal",
		"payment_method": "card",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "postal_code")

	var orderCount int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.createUser(t, "buyer@example.com", false)

	resp := doJSON(t, env.app, http.MethodPost, "/api/orders", token, fiber.Map{
		"email":          "buyer@example.com",
		"phone":          "+351 912 345 678",
		"first_name":     "Ana",
		"last_name":      "Silva",
		"address":        "Rua das Flores 12",
		"city":           "Lisboa",
		"postal_code":    "1234-567",
		"country":        "Portugal",
		"payment_method": "card",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
