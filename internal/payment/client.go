package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Session payment statuses as reported by the provider.
const (
	SessionPaid   = "paid"
	SessionUnpaid = "unpaid"
)

// ErrSessionNotFound is returned when the provider does not know the
// session id.
var ErrSessionNotFound = errors.New("payment session not found")

// Session is the provider's view of one checkout attempt.
type Session struct {
	ID              string `json:"id"`
	PaymentStatus   string `json:"payment_status"`
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	URL             string `json:"url"`
}

// CreateSessionParams describes a hosted checkout session to open.
type CreateSessionParams struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Email       string  `json:"customer_email"`
	SuccessURL  string  `json:"success_url"`
	CancelURL   string  `json:"cancel_url"`
}

// Gateway wraps the payment provider API. It carries no business logic and
// exists so the finalization flow can run against a substitute in tests.
type Gateway interface {
	RetrieveSession(ctx context.Context, id string) (*Session, error)
	CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error)
}

type httpGateway struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewGateway constructs an HTTP Gateway against the given provider base URL.
func NewGateway(baseURL, apiKey string) Gateway {
	return &httpGateway{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

func (g *httpGateway) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/v1/checkout/sessions/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider error %d: %s", resp.StatusCode, string(b))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	return &session, nil
}

func (g *httpGateway) CreateSession(ctx context.Context, params CreateSessionParams) (*Session, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/checkout/sessions", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider error %d: %s", resp.StatusCode, string(b))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	return &session, nil
}
