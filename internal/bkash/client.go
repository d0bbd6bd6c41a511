// Package bkash is a client for the bKash tokenized checkout API.
package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"telehealth-server/internal/config"
	"telehealth-server/internal/logger"

	"github.com/sirupsen/logrus"
)

// StatusSuccess is the statusCode bKash returns for a successful call.
const StatusSuccess = "0000"

// TransactionCompleted is the transactionStatus of a captured payment.
const TransactionCompleted = "Completed"

const (
	grantTokenKey = "bkash:id_token"
	// tokenMargin is subtracted from expires_in so a cached token is never
	// used in its last minute.
	tokenMargin = time.Minute
)

// TokenCache stores the grant token between requests.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Error is a bKash response whose statusCode is not StatusSuccess.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("bkash error %s: %s", e.Code, e.Message)
}

type grantRequest struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

type grantResponse struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	IDToken       string `json:"id_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	RefreshToken  string `json:"refresh_token"`
}

// CreateRequest describes a checkout to start.
type CreateRequest struct {
	Amount         float64
	PayerReference string
	InvoiceNumber  string
}

type createRequest struct {
	Mode                  string `json:"mode"`
	PayerReference        string `json:"payerReference"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

// CreateResponse is the result of a created checkout.
type CreateResponse struct {
	PaymentID             string `json:"paymentID"`
	BkashURL              string `json:"bkashURL"`
	Amount                string `json:"amount"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	TransactionStatus     string `json:"transactionStatus"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

type executeRequest struct {
	PaymentID string `json:"paymentID"`
}

// ExecuteResponse is the result of executing an authorized payment.
type ExecuteResponse struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	PayerReference        string `json:"payerReference"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

// AmountValue parses the executed amount.
func (r *ExecuteResponse) AmountValue() float64 {
	v, _ := strconv.ParseFloat(r.Amount, 64)
	return v
}

// statusEnvelope catches both the success shape and the error shape bKash
// uses for rejected calls.
type statusEnvelope struct {
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
}

func (s statusEnvelope) err() error {
	if s.StatusCode == StatusSuccess {
		return nil
	}
	if s.ErrorCode != "" {
		return &Error{Code: s.ErrorCode, Message: s.ErrorMessage}
	}
	msg := s.StatusMessage
	if msg == "" {
		msg = "unexpected response"
	}
	return &Error{Code: s.StatusCode, Message: msg}
}

// Client calls the bKash tokenized checkout endpoints.
type Client struct {
	cfg    config.BkashConfig
	http   *http.Client
	tokens TokenCache
	log    *logrus.Entry
}

// NewClient builds a client. tokens may be nil, in which case every call
// grants a fresh token.
func NewClient(cfg config.BkashConfig, tokens TokenCache, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log.WithComponent("bkash"),
	}
}

// GrantToken returns an id_token, from the cache when one is still valid.
func (c *Client) GrantToken(ctx context.Context) (string, error) {
	if c.tokens != nil {
		token, found, err := c.tokens.Get(ctx, grantTokenKey)
		if err != nil {
			c.log.WithError(err).Warn("bKash token cache read failed")
		} else if found {
			return token, nil
		}
	}

	headers := map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	}
	var resp grantResponse
	body := grantRequest{AppKey: c.cfg.AppKey, AppSecret: c.cfg.AppSecret}
	if err := c.post(ctx, "/tokenized/checkout/token/grant", headers, body, &resp); err != nil {
		return "", fmt.Errorf("failed to grant token: %w", err)
	}
	if resp.IDToken == "" {
		msg := resp.StatusMessage
		if msg == "" {
			msg = "empty id_token"
		}
		return "", fmt.Errorf("failed to grant token: %w", &Error{Code: resp.StatusCode, Message: msg})
	}

	if c.tokens != nil && resp.ExpiresIn > 0 {
		ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenMargin
		if ttl > 0 {
			if err := c.tokens.Set(ctx, grantTokenKey, resp.IDToken, ttl); err != nil {
				c.log.WithError(err).Warn("bKash token cache write failed")
			}
		}
	}
	return resp.IDToken, nil
}

// CreatePayment starts a checkout and returns the URL to send the payer to.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (*CreateResponse, error) {
	token, err := c.GrantToken(ctx)
	if err != nil {
		return nil, err
	}

	payer := req.PayerReference
	if payer == "" {
		payer = " "
	}
	body := createRequest{
		Mode:                  "0011",
		PayerReference:        payer,
		CallbackURL:           c.cfg.CallbackURL,
		Amount:                strconv.FormatFloat(req.Amount, 'f', 2, 64),
		Currency:              "BDT",
		Intent:                "sale",
		MerchantInvoiceNumber: req.InvoiceNumber,
	}

	var resp CreateResponse
	if err := c.post(ctx, "/tokenized/checkout/create", c.authHeaders(token), body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	if resp.BkashURL == "" || resp.PaymentID == "" {
		return nil, fmt.Errorf("failed to create payment: %w", &Error{Code: resp.StatusCode, Message: "missing bkashURL or paymentID"})
	}
	return &resp, nil
}

// ExecutePayment completes a payment the payer authorized.
func (c *Client) ExecutePayment(ctx context.Context, paymentID string) (*ExecuteResponse, error) {
	token, err := c.GrantToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp ExecuteResponse
	if err := c.post(ctx, "/tokenized/checkout/execute", c.authHeaders(token), executeRequest{PaymentID: paymentID}, &resp); err != nil {
		return nil, fmt.Errorf("failed to execute payment: %w", err)
	}
	return &resp, nil
}

// QueryPayment reads the current state of a payment. A payment whose
// execute response was lost reports TransactionCompleted here.
func (c *Client) QueryPayment(ctx context.Context, paymentID string) (*ExecuteResponse, error) {
	token, err := c.GrantToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp ExecuteResponse
	if err := c.post(ctx, "/tokenized/checkout/payment/status", c.authHeaders(token), executeRequest{PaymentID: paymentID}, &resp); err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return &resp, nil
}

// Completed reports whether the gateway has captured the payment.
func (r *ExecuteResponse) Completed() bool {
	return r.TransactionStatus == TransactionCompleted
}

func (c *Client) authHeaders(token string) map[string]string {
	return map[string]string{
		"authorization": token,
		"x-app-key":     c.cfg.AppKey,
	}
}

func (c *Client) post(ctx context.Context, path string, headers map[string]string, payload, out interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	c.log.WithFields(logrus.Fields{
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("bKash response")

	if resp.StatusCode >= http.StatusBadRequest {
		var env statusEnvelope
		if json.Unmarshal(body, &env) == nil {
			if err := env.err(); err != nil {
				return err
			}
		}
		return fmt.Errorf("unexpected http status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	// The grant endpoint omits statusCode on success.
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err == nil && (env.StatusCode != "" || env.ErrorCode != "") {
		return env.err()
	}
	return nil
}
