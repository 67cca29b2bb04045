package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/namprobe/nekovi-checkout/pkg/config"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/types"
)

const (
	requestBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("shipping base url is required")

// Client wraps the delivery provider's fee and lead-time APIs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	shopID     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the shipping provider client from config.
func NewClient(cfg config.ShippingConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		shopID:     strings.TrimSpace(cfg.ShopID),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}

	return client, nil
}

// FeeRequest describes one fee/lead-time lookup destination.
type FeeRequest struct {
	ShippingMethodID string `json:"service_id"`
	ToProvince       string `json:"to_province"`
	ToDistrict       string `json:"to_district"`
	ToWard           string `json:"to_ward"`
}

// QuoteFee asks the provider for the delivery fee to the destination.
func (c *Client) QuoteFee(ctx context.Context, req FeeRequest) (*types.ShippingQuote, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if strings.TrimSpace(req.ShippingMethodID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping method is required")
	}
	if strings.TrimSpace(req.ToProvince) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination province is required")
	}

	var apiResp struct {
		Data struct {
			Total    int64 `json:"total"`
			Discount int64 `json:"discount"`
		} `json:"data"`
	}
	if err := c.post(ctx, "shipping-order/fee", req, &apiResp); err != nil {
		return nil, err
	}

	return &types.ShippingQuote{
		ShippingMethodID: req.ShippingMethodID,
		FeeOriginalVND:   apiResp.Data.Total,
		FeeDiscountVND:   apiResp.Data.Discount,
	}, nil
}

// QuoteLeadTime asks the provider for the estimated delivery time in days.
func (c *Client) QuoteLeadTime(ctx context.Context, req FeeRequest) (int, error) {
	if c == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if strings.TrimSpace(req.ShippingMethodID) == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "shipping method is required")
	}

	var apiResp struct {
		Data struct {
			LeadTimeDays int `json:"leadtime_days"`
		} `json:"data"`
	}
	if err := c.post(ctx, "shipping-order/leadtime", req, &apiResp); err != nil {
		return 0, err
	}

	return apiResp.Data.LeadTimeDays, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal shipping request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build shipping request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Token", c.token)
	}
	if c.shopID != "" {
		httpReq.Header.Set("ShopId", c.shopID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute shipping request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "shipping request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode shipping response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
