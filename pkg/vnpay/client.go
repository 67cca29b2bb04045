package vnpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/namprobe/nekovi-checkout/pkg/config"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
)

const (
	apiVersion     = "2.1.0"
	commandPay     = "pay"
	currencyCode   = "VND"
	localeDefault  = "vn"
	dateFormat     = "20060102150405"
	responseCodeOK = "00"
)

var (
	errTmnCodeRequired    = errors.New("vnpay tmn code is required")
	errHashSecretRequired = errors.New("vnpay hash secret is required")
)

// Client builds signed VNPay payment URLs and verifies gateway returns.
type Client struct {
	baseURL    string
	tmnCode    string
	hashSecret string
	returnURL  string
	now        func() time.Time
}

// NewClient builds the VNPay client from config.
func NewClient(cfg config.VNPayConfig) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("vnpay base url is required")
	}
	if strings.TrimSpace(cfg.TmnCode) == "" {
		return nil, errTmnCodeRequired
	}
	if strings.TrimSpace(cfg.HashSecret) == "" {
		return nil, errHashSecretRequired
	}

	return &Client{
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		tmnCode:    strings.TrimSpace(cfg.TmnCode),
		hashSecret: strings.TrimSpace(cfg.HashSecret),
		returnURL:  strings.TrimSpace(cfg.ReturnURL),
		now:        time.Now,
	}, nil
}

// PaymentRequest describes one order handed off to the gateway.
type PaymentRequest struct {
	OrderRef  string
	AmountVND int64
	OrderInfo string
	ClientIP  string
	// Meta is carried through the gateway unchanged as a Base64-encoded
	// JSON block and echoed back on return.
	Meta map[string]any
}

// BuildPaymentURL produces the signed redirect URL for the hosted payment page.
func (c *Client) BuildPaymentURL(ctx context.Context, req PaymentRequest) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "vnpay client not configured")
	}
	if strings.TrimSpace(req.OrderRef) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}
	if req.AmountVND <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	params := url.Values{}
	params.Set("vnp_Version", apiVersion)
	params.Set("vnp_Command", commandPay)
	params.Set("vnp_TmnCode", c.tmnCode)
	// VNPay expects the amount multiplied by 100 to carry two decimal places.
	params.Set("vnp_Amount", strconv.FormatInt(req.AmountVND*100, 10))
	params.Set("vnp_CurrCode", currencyCode)
	params.Set("vnp_TxnRef", req.OrderRef)
	params.Set("vnp_OrderInfo", orderInfoOrDefault(req))
	params.Set("vnp_Locale", localeDefault)
	params.Set("vnp_CreateDate", c.now().Format(dateFormat))
	if c.returnURL != "" {
		params.Set("vnp_ReturnUrl", c.returnURL)
	}
	if req.ClientIP != "" {
		params.Set("vnp_IpAddr", req.ClientIP)
	}
	if len(req.Meta) > 0 {
		encoded, err := encodeMeta(req.Meta)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeGateway, err, "encode gateway metadata")
		}
		params.Set("vnp_OrderMeta", encoded)
	}

	signature := c.sign(params)
	params.Set("vnp_SecureHash", signature)

	return fmt.Sprintf("%s?%s", strings.TrimRight(c.baseURL, "/"), params.Encode()), nil
}

// ReturnResult is the verified outcome of one gateway return redirect.
type ReturnResult struct {
	Success      bool
	OrderRef     string
	AmountVND    int64
	ResponseCode string
	Meta         map[string]any
}

// DecodeReturn verifies the secure hash on the gateway's return query and
// extracts the payment outcome.
func (c *Client) DecodeReturn(query url.Values) (*ReturnResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "vnpay client not configured")
	}

	received := query.Get("vnp_SecureHash")
	if received == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "missing secure hash on gateway return")
	}

	verifiable := url.Values{}
	for key, values := range query {
		if key == "vnp_SecureHash" || key == "vnp_SecureHashType" {
			continue
		}
		for _, v := range values {
			verifiable.Add(key, v)
		}
	}

	expected := c.sign(verifiable)
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway return signature mismatch")
	}

	result := &ReturnResult{
		OrderRef:     query.Get("vnp_TxnRef"),
		ResponseCode: query.Get("vnp_ResponseCode"),
	}
	result.Success = result.ResponseCode == responseCodeOK

	if raw := query.Get("vnp_Amount"); raw != "" {
		amount, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "parse gateway amount")
		}
		result.AmountVND = amount / 100
	}

	if encoded := query.Get("vnp_OrderMeta"); encoded != "" {
		meta, err := decodeMeta(encoded)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode gateway metadata")
		}
		result.Meta = meta
	}

	return result, nil
}

// sign computes the lowercase hex HMAC-SHA512 over the sorted query string.
func (c *Client) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, key := range keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(url.QueryEscape(key))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(params.Get(key)))
	}

	mac := hmac.New(sha512.New, []byte(c.hashSecret))
	mac.Write([]byte(builder.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

func orderInfoOrDefault(req PaymentRequest) string {
	if strings.TrimSpace(req.OrderInfo) != "" {
		return req.OrderInfo
	}
	return fmt.Sprintf("Thanh toan don hang %s", req.OrderRef)
}

func encodeMeta(meta map[string]any) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeMeta(encoded string) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
