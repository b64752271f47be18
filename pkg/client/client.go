// Package client provides a Go client for the ledgerlink HTTP API. It is
// used by the lectl CLI and by other internal services that consume the
// audit trail and trustline endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned for 404 responses: the entity is absent locally
// or on the ledger.
var ErrNotFound = errors.New("not found")

// ErrUnavailable is returned for 502 responses: the service could not
// reach the ledger network. Safe to retry.
var ErrUnavailable = errors.New("ledger unavailable")

// AuditRecord mirrors the service's audit record shape.
type AuditRecord struct {
	ID            string          `json:"id"`
	TxHash        string          `json:"tx_hash"`
	SourceAccount string          `json:"source_account"`
	Payload       json.RawMessage `json:"payload"`
	FetchedAt     time.Time       `json:"fetched_at"`
}

// AuditPage is one page of audit records.
type AuditPage struct {
	Data       []AuditRecord `json:"data"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// VerifyResult mirrors the service's verification response.
type VerifyResult struct {
	Verified   bool         `json:"verified"`
	Mismatches []string     `json:"mismatches,omitempty"`
	Record     *AuditRecord `json:"record"`
}

// CheckResult mirrors the service's trustline check response.
type CheckResult struct {
	Exists  bool   `json:"exists"`
	Balance string `json:"balance,omitempty"`
}

// TrustlineRecord mirrors the service's trustline record shape.
type TrustlineRecord struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employee_id"`
	AssetCode     string    `json:"asset_code"`
	AssetIssuer   string    `json:"asset_issuer"`
	WalletAddress string    `json:"wallet_address"`
	Status        string    `json:"status"`
	LastCheckedAt time.Time `json:"last_checked_at"`
}

// PromptResult is the response to a trustline sign prompt: the unsigned
// envelope plus the network it targets.
type PromptResult struct {
	TransactionXDR    string           `json:"transaction_xdr"`
	NetworkPassphrase string           `json:"network_passphrase"`
	Record            *TrustlineRecord `json:"record"`
}

// Client is the ledgerlink API entry point.
type Client struct {
	baseURL       string
	internalToken string
	http          *http.Client
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithInternalToken sets the X-Internal-Token header sent on every request.
func WithInternalToken(token string) Option {
	return func(c *Client) { c.internalToken = token }
}

// WithTimeout overrides the default 15-second request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client targeting baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAudit asks the service to fetch and store the transaction behind
// hash. Idempotent on the server side.
func (c *Client) FetchAudit(ctx context.Context, hash string) (*AuditRecord, error) {
	var rec AuditRecord
	if err := c.do(ctx, http.MethodPost, "/api/v1/audit/"+url.PathEscape(hash), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetAudit returns the stored audit record for hash.
func (c *Client) GetAudit(ctx context.Context, hash string) (*AuditRecord, error) {
	var rec AuditRecord
	if err := c.do(ctx, http.MethodGet, "/api/v1/audit/"+url.PathEscape(hash), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAudits returns one page of stored audit records. sourceAccount may
// be empty.
func (c *Client) ListAudits(ctx context.Context, page, limit int, sourceAccount string) (*AuditPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if sourceAccount != "" {
		q.Set("source_account", sourceAccount)
	}
	path := "/api/v1/audit"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var result AuditPage
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// VerifyAudit re-checks the stored record for hash against the live ledger.
func (c *Client) VerifyAudit(ctx context.Context, hash string) (*VerifyResult, error) {
	var result VerifyResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/audit/"+url.PathEscape(hash)+"/verify", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckTrustline reports whether wallet currently trusts the asset.
// assetCode may be empty to use the server's configured asset.
func (c *Client) CheckTrustline(ctx context.Context, wallet, assetCode, assetIssuer string) (*CheckResult, error) {
	q := url.Values{"asset_issuer": {assetIssuer}}
	if assetCode != "" {
		q.Set("asset_code", assetCode)
	}

	var result CheckResult
	path := "/api/v1/trustlines/check/" + url.PathEscape(wallet) + "?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEmployeeTrustline returns the stored trustline record for an employee.
func (c *Client) GetEmployeeTrustline(ctx context.Context, employeeID string) (*TrustlineRecord, error) {
	var rec TrustlineRecord
	path := "/api/v1/trustlines/employees/" + url.PathEscape(employeeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RefreshEmployeeTrustline reconciles an employee's trustline record with
// the ledger. Returns nil when the employee has no wallet to check.
func (c *Client) RefreshEmployeeTrustline(ctx context.Context, employeeID, assetIssuer string) (*TrustlineRecord, error) {
	body := map[string]string{"asset_issuer": assetIssuer}
	var resp struct {
		Record *TrustlineRecord `json:"record"`
	}
	path := "/api/v1/trustlines/employees/" + url.PathEscape(employeeID) + "/refresh"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	return resp.Record, nil
}

// PromptTrustline builds an unsigned change-trust envelope for the wallet
// and marks the employee's record pending.
func (c *Client) PromptTrustline(ctx context.Context, employeeID, wallet, assetCode, assetIssuer string) (*PromptResult, error) {
	body := map[string]string{
		"employee_id":    employeeID,
		"wallet_address": wallet,
		"asset_issuer":   assetIssuer,
	}
	if assetCode != "" {
		body["asset_code"] = assetCode
	}

	var result PromptResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/trustlines/prompt", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one API round trip, mapping 404 to ErrNotFound and 502 to
// ErrUnavailable.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.internalToken != "" {
		req.Header.Set("X-Internal-Token", c.internalToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, apiError(data))
	case resp.StatusCode == http.StatusBadGateway:
		return fmt.Errorf("%w: %s", ErrUnavailable, apiError(data))
	case resp.StatusCode >= 400:
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, apiError(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// apiError extracts the "error" field from a JSON error body, falling
// back to the raw body.
func apiError(data []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return string(data)
}
