// Package pagarme is a minimal client for the Pagar.me core v5 API: it
// creates closed credit card orders and reads them back for webhooks.
package pagarme

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL             = "https://api.pagar.me/core/v5"
	DefaultStatementDescriptor = "CRM IMOBIL"
)

var ErrInvalidResponse = errors.New("pagarme: invalid response")

// Status is the gateway status folded into the values the CRM cares about
type Status string

const (
	StatusPaid     Status = "paid"
	StatusPending  Status = "pending"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusRefunded Status = "refunded"
)

// MapStatus folds raw gateway statuses; anything unknown is pending
func MapStatus(raw string) Status {
	switch raw {
	case "paid":
		return StatusPaid
	case "failed":
		return StatusFailed
	case "canceled":
		return StatusCanceled
	case "refunded":
		return StatusRefunded
	default:
		return StatusPending
	}
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Pagar.me API error: %d - %s", e.StatusCode, e.Body)
}

type Config struct {
	APIKey              string
	BaseURL             string
	StatementDescriptor string
	Timeout             time.Duration
}

type Client struct {
	baseURL    string
	authHeader string
	descriptor string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.StatementDescriptor == "" {
		cfg.StatementDescriptor = DefaultStatementDescriptor
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.APIKey+":")),
		descriptor: cfg.StatementDescriptor,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// OrderInput describes a one-item credit card order
type OrderInput struct {
	Title             string
	Quantity          int
	UnitPrice         int64 // cents
	CustomerName      string
	CustomerEmail     string
	CustomerDocument  string
	CardToken         string
	Installments      int
	ExternalReference string
}

type Charge struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

type Order struct {
	ID      string   `json:"id"`
	Status  Status   `json:"status"`
	Charges []Charge `json:"charges"`
}

// FirstChargeID is empty when the gateway returned no charges
func (o *Order) FirstChargeID() string {
	if len(o.Charges) == 0 {
		return ""
	}
	return o.Charges[0].ID
}

type OrderInfo struct {
	ID                string
	Status            Status
	ExternalReference string
	CustomerEmail     string
}

type createOrderRequest struct {
	Code     string            `json:"code"`
	Customer customer          `json:"customer"`
	Items    []item            `json:"items"`
	Payments []payment         `json:"payments"`
	Metadata map[string]string `json:"metadata"`
	Closed   bool              `json:"closed"`
}

type customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document,omitempty"`
	Type     string `json:"type"`
}

type item struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type payment struct {
	PaymentMethod string     `json:"payment_method"`
	CreditCard    creditCard `json:"credit_card"`
}

type creditCard struct {
	Installments        int    `json:"installments"`
	StatementDescriptor string `json:"statement_descriptor"`
	CardToken           string `json:"card_token"`
}

type rawOrder struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Code     string `json:"code"`
	Customer *struct {
		Email string `json:"email"`
	} `json:"customer"`
	Charges []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"charges"`
}

func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*Order, error) {
	body := createOrderRequest{
		Code: in.ExternalReference,
		Customer: customer{
			Name:     in.CustomerName,
			Email:    in.CustomerEmail,
			Document: in.CustomerDocument,
			Type:     "individual",
		},
		Items: []item{{Amount: in.UnitPrice, Description: in.Title, Quantity: in.Quantity}},
		Payments: []payment{{
			PaymentMethod: "credit_card",
			CreditCard: creditCard{
				Installments:        in.Installments,
				StatementDescriptor: c.descriptor,
				CardToken:           in.CardToken,
			},
		}},
		Metadata: map[string]string{"external_reference": in.ExternalReference},
		Closed:   true,
	}

	var raw rawOrder
	if err := c.do(ctx, http.MethodPost, "/orders", body, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("%w: order without id", ErrInvalidResponse)
	}

	order := &Order{ID: raw.ID, Status: MapStatus(raw.Status)}
	for _, ch := range raw.Charges {
		order.Charges = append(order.Charges, Charge{ID: ch.ID, Status: MapStatus(ch.Status)})
	}
	return order, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderInfo, error) {
	var raw rawOrder
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, &raw); err != nil {
		return nil, err
	}
	info := &OrderInfo{ID: raw.ID, Status: MapStatus(raw.Status), ExternalReference: raw.Code}
	if raw.Customer != nil {
		info.CustomerEmail = raw.Customer.Email
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Pagar.me: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
