// Package portone is a thin REST client for the PortOne V2 payment API.
package portone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	apiSecret  string
	storeID    string
	channelKey string
	http       *http.Client
	log        *zap.Logger
}

func NewClient(config utils.PortOneConfig, log *zap.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiSecret:  config.APISecret,
		storeID:    config.StoreID,
		channelKey: config.ChannelKey,
		http:       &http.Client{Timeout: timeout},
		log:        log.With(zap.String("client", "portone")),
	}
}

// OneTimePayment charges amount immediately. paymentID is chosen by the
// caller; PortOne rejects a second payment with the same id, which makes the
// call safe to retry.
func (c *Client) OneTimePayment(ctx context.Context, paymentID string, req OneTimePaymentRequest) (*PaymentResult, error) {
	body := map[string]any{
		"storeId":   c.storeID,
		"orderName": req.OrderName,
		"amount":    Amount{Total: req.Amount},
		"currency":  CurrencyKRW,
	}
	if c.channelKey != "" {
		body["channelKey"] = c.channelKey
	}
	if req.Customer != nil {
		body["customer"] = req.Customer
	}

	var path string
	switch {
	case req.Method.BillingKey != "":
		path = "/payments/" + url.PathEscape(paymentID) + "/billing-key"
		body["billingKey"] = req.Method.BillingKey
	case req.Method.Card != nil:
		path = "/payments/" + url.PathEscape(paymentID) + "/instant"
		body["method"] = map[string]any{"card": map[string]any{"credential": req.Method.Card}}
	default:
		return nil, fmt.Errorf("portone: payment method is required")
	}

	var resp struct {
		Payment struct {
			PgTxID string     `json:"pgTxId"`
			PaidAt *time.Time `json:"paidAt"`
		} `json:"payment"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	txID := resp.Payment.PgTxID
	if txID == "" {
		txID = paymentID
	}

	return &PaymentResult{PaymentID: paymentID, TransactionID: txID, PaidAt: resp.Payment.PaidAt}, nil
}

// GetPayment returns the gateway's view of a payment. Used to resolve an
// unknown outcome after a timeout.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	path := "/payments/" + url.PathEscape(paymentID) + "?storeId=" + url.QueryEscape(c.storeID)

	var p Payment
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	if p.TransactionID == "" {
		p.TransactionID = p.PgTxID
	}
	return &p, nil
}

func (c *Client) CreateBillingKey(ctx context.Context, req BillingKeyRequest) (*BillingKeyInfo, error) {
	body := map[string]any{
		"storeId": c.storeID,
		"method":  map[string]any{"card": map[string]any{"credential": req.Card}},
	}
	if c.channelKey != "" {
		body["channelKey"] = c.channelKey
	}
	if req.Customer != nil {
		body["customer"] = req.Customer
	}

	var resp struct {
		BillingKeyInfo BillingKeyInfo `json:"billingKeyInfo"`
	}
	if err := c.do(ctx, http.MethodPost, "/billing-keys", body, &resp); err != nil {
		return nil, err
	}
	if resp.BillingKeyInfo.BillingKey == "" {
		return nil, fmt.Errorf("portone: empty billing key in response")
	}
	return &resp.BillingKeyInfo, nil
}

func (c *Client) GetBillingKey(ctx context.Context, billingKey string) (*BillingKeyInfo, error) {
	path := "/billing-keys/" + url.PathEscape(billingKey) + "?storeId=" + url.QueryEscape(c.storeID)

	var info BillingKeyInfo
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateSchedule books a future billing-key charge under paymentID.
// A schedule that already exists for paymentID is reported as ErrAlreadyExists.
func (c *Client) CreateSchedule(ctx context.Context, paymentID string, req ScheduleRequest) (*ScheduleResult, error) {
	payment := map[string]any{
		"storeId":    c.storeID,
		"billingKey": req.BillingKey,
		"orderName":  req.OrderName,
		"amount":     Amount{Total: req.Amount},
		"currency":   CurrencyKRW,
	}
	if c.channelKey != "" {
		payment["channelKey"] = c.channelKey
	}
	if req.Customer != nil {
		payment["customer"] = req.Customer
	}

	body := map[string]any{
		"payment":   payment,
		"timeToPay": req.TimeToPay.UTC().Format(time.RFC3339),
	}

	var resp struct {
		Schedule struct {
			ID string `json:"id"`
		} `json:"schedule"`
	}
	path := "/payments/" + url.PathEscape(paymentID) + "/schedule"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return &ScheduleResult{ScheduleID: resp.Schedule.ID}, nil
}

// RevokeSchedules deletes every pending schedule booked on billingKey.
func (c *Client) RevokeSchedules(ctx context.Context, billingKey string) (*RevokeSchedulesResult, error) {
	body := map[string]any{
		"storeId":    c.storeID,
		"billingKey": billingKey,
	}

	var resp RevokeSchedulesResult
	if err := c.do(ctx, http.MethodDelete, "/payment-schedules", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelPayment refunds all of paymentID, or the given partial amount.
func (c *Client) CancelPayment(ctx context.Context, paymentID string, req CancelRequest) (*CancelResult, error) {
	body := map[string]any{
		"storeId": c.storeID,
		"reason":  req.Reason,
	}
	if req.Amount != nil {
		body["amount"] = *req.Amount
	}
	if req.TaxFreeAmount != nil {
		body["taxFreeAmount"] = *req.TaxFreeAmount
	}
	if req.VatAmount != nil {
		body["vatAmount"] = *req.VatAmount
	}

	var resp struct {
		Cancellation struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"cancellation"`
	}
	path := "/payments/" + url.PathEscape(paymentID) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	return &CancelResult{CancellationID: resp.Cancellation.ID, Status: resp.Cancellation.Status}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("portone: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("portone: build request: %w", err)
	}
	req.Header.Set("Authorization", "PortOne "+c.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("PortOne request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if isTimeout(err) {
			return fmt.Errorf("%w: %s %s: %v", ErrOutcomeUnknown, method, path, err)
		}
		if method != http.MethodGet {
			// the request may have reached the gateway before the connection dropped
			return fmt.Errorf("%w: %s %s: %v", ErrOutcomeUnknown, method, path, err)
		}
		return fmt.Errorf("portone: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrOutcomeUnknown, err)
	}

	c.log.Debug("PortOne request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("portone: decode response: %w", err)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
