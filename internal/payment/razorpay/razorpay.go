package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("razorpay config invalid")
	ErrRequestFailed   = errors.New("razorpay request failed")
	ErrResponseInvalid = errors.New("razorpay response invalid")
)

const (
	defaultBaseURL = "https://api.razorpay.com/v1"
	defaultTimeout = 10 * time.Second

	// PaymentStatusCaptured 网关侧已扣款状态
	PaymentStatusCaptured = "captured"
	// PaymentStatusFailed 网关侧支付失败状态
	PaymentStatusFailed = "failed"
)

// Config Razorpay 渠道配置。
type Config struct {
	KeyID     string `json:"key_id"`
	KeySecret string `json:"key_secret"`
	BaseURL   string `json:"base_url"`
	Currency  string `json:"currency"`
	TimeoutMS int    `json:"timeout_ms"`
}

// CreateOrderInput 创建网关订单输入，金额为最小货币单位（paise）。
type CreateOrderInput struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// GatewayOrder 网关订单返回。
type GatewayOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
	Raw         map[string]interface{}
}

// Payment 网关支付单返回。
type Payment struct {
	ID          string
	OrderID     string
	Status      string
	AmountMinor int64
	Currency    string
	Method      string
	Email       string
	Contact     string
	Raw         map[string]interface{}
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if _, err := url.ParseRequestURI(base); err != nil {
			return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
		}
	}
	return nil
}

// Client Razorpay REST 客户端。
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端。
func NewClient(cfg Config) (*Client, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.timeout()},
	}, nil
}

// KeyID 返回公开的 key_id（前端调起收银台需要）。
func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

// CreateOrder 创建网关订单。
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*GatewayOrder, error) {
	if input.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrConfigInvalid)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = c.cfg.Currency
	}

	payload := map[string]interface{}{
		"amount":   input.AmountMinor,
		"currency": currency,
	}
	if receipt := strings.TrimSpace(input.Receipt); receipt != "" {
		payload["receipt"] = receipt
	}
	if len(input.Notes) > 0 {
		payload["notes"] = input.Notes
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodPost, "/orders", body)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: create order status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	order := &GatewayOrder{Raw: raw}
	order.ID = strings.TrimSpace(readString(raw, "id"))
	order.Currency = strings.TrimSpace(readString(raw, "currency"))
	order.Receipt = strings.TrimSpace(readString(raw, "receipt"))
	order.Status = strings.TrimSpace(readString(raw, "status"))
	order.AmountMinor = readInt64(raw, "amount")
	if order.ID == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}
	return order, nil
}

// FetchPayment 查询网关支付单实时状态。
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is empty", ErrConfigInvalid)
	}

	endpoint := "/payments/" + url.PathEscape(paymentID)
	respBody, statusCode, err := c.doJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch payment status %d", ErrResponseInvalid, statusCode)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}

	payment := &Payment{Raw: raw}
	payment.ID = strings.TrimSpace(readString(raw, "id"))
	payment.OrderID = strings.TrimSpace(readString(raw, "order_id"))
	payment.Status = strings.TrimSpace(readString(raw, "status"))
	payment.Currency = strings.TrimSpace(readString(raw, "currency"))
	payment.Method = strings.TrimSpace(readString(raw, "method"))
	payment.Email = strings.TrimSpace(readString(raw, "email"))
	payment.Contact = strings.TrimSpace(readString(raw, "contact"))
	payment.AmountMinor = readInt64(raw, "amount")
	if payment.ID == "" || payment.Status == "" {
		return nil, fmt.Errorf("%w: missing payment id or status", ErrResponseInvalid)
	}
	return payment, nil
}

// VerifySignature 校验支付回调签名。
// 签名为 HMAC-SHA256(secret, "orderID|paymentID") 的十六进制串，使用常量时间比较。
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Config) normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = "INR"
	}
}

func (c Config) timeout() time.Duration {
	if c.TimeoutMS > 0 {
		return time.Duration(c.TimeoutMS) * time.Millisecond
	}
	return defaultTimeout
}

func (c *Client) doJSONRequest(ctx context.Context, method, endpoint string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	return respBody, resp.StatusCode, nil
}

func readString(raw map[string]interface{}, path ...string) string {
	if raw == nil {
		return ""
	}
	var current interface{} = raw
	for _, seg := range path {
		next, ok := current.(map[string]interface{})
		if !ok {
			return ""
		}
		current = next[seg]
	}
	if current == nil {
		return ""
	}
	if str, ok := current.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", current)
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil {
		return 0
	}
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
