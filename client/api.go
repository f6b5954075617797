// Package client talks to the ordering API on behalf of a customer session:
// it tracks the last order, reports when it is done, and gates feedback.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type OrderItem struct {
	ProductID uint    `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type Order struct {
	ID                  string         `json:"id"`
	Items               []OrderItem    `json:"items"`
	Subtotal            float64        `json:"subtotal"`
	AdditionalCharges   float64        `json:"additionalCharges"`
	Total               float64        `json:"total"`
	SpecialInstructions string         `json:"specialInstructions"`
	TableNumber         string         `json:"tableNumber"`
	Status              string         `json:"status"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	UserID              *uint          `json:"userId"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

type MenuItem struct {
	ID          uint    `json:"ID"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Available   bool    `json:"available"`
}

type NewOrder struct {
	Items               []OrderItem    `json:"items"`
	Subtotal            float64        `json:"subtotal"`
	AdditionalCharges   float64        `json:"additionalCharges"`
	Total               float64        `json:"total"`
	SpecialInstructions string         `json:"specialInstructions,omitempty"`
	TableNumber         string         `json:"tableNumber"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

type Feedback struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	Rating    float64   `json:"rating"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID    uint   `json:"ID"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type Bucket struct {
	Start   string  `json:"start"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type HourBucket struct {
	Hour    int     `json:"hour"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type TopItem struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type Analytics struct {
	Timezone  string       `json:"timezone"`
	Days      int          `json:"days"`
	Orders    int          `json:"orders"`
	Revenue   float64      `json:"revenue"`
	Daily     []Bucket     `json:"daily"`
	Weekly    []Bucket     `json:"weekly"`
	PeakHours []HourBucket `json:"peakHours"`
	TopItems  []TopItem    `json:"topItems"`
}

// API is a thin JSON client over the HTTP endpoints.
type API struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewAPI(baseURL string, logger *logrus.Logger) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// WithToken returns a copy of the client that sends token as a bearer.
func (c *API) WithToken(token string) *API {
	cp := *c
	cp.token = token
	return &cp
}

type envelope struct {
	OK     bool            `json:"ok"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Reason string          `json:"reason"`
}

func (c *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrTransient, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg, Reason: env.Reason}
	}

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("api call")

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *API) Login(ctx context.Context, email, password string) (string, *User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return "", nil, err
	}
	return out.Token, &out.User, nil
}

func (c *API) Menu(ctx context.Context) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.do(ctx, http.MethodGet, "/menu", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *API) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *API) CreateOrder(ctx context.Context, in *NewOrder) (*Order, error) {
	var o Order
	if err := c.do(ctx, http.MethodPost, "/orders", in, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *API) UpdateStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id)+"/status", map[string]string{"status": status}, nil)
}

func (c *API) FeedbackExists(ctx context.Context, orderID string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	err := c.do(ctx, http.MethodGet, "/feedback/exists?orderId="+url.QueryEscape(orderID), nil, &out)
	return out.Exists, err
}

func (c *API) SubmitFeedback(ctx context.Context, orderID string, rating float64, message string) (*Feedback, error) {
	body := map[string]any{"orderId": orderID, "rating": rating, "message": message}
	var f Feedback
	if err := c.do(ctx, http.MethodPost, "/feedback", body, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *API) Analytics(ctx context.Context, days int, tz string) (*Analytics, error) {
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	if tz != "" {
		q.Set("tz", tz)
	}
	var a Analytics
	if err := c.do(ctx, http.MethodGet, "/admin/analytics?"+q.Encode(), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
