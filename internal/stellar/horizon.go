package stellar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Observer is an optional callback recording the duration and outcome of
// each Horizon round trip, for metrics.
type Observer func(op string, elapsed time.Duration, err error)

// horizonAccount is the subset of the Horizon account response this
// service consumes.
type horizonAccount struct {
	AccountID string           `json:"account_id"`
	Sequence  int64            `json:"sequence,string"`
	Balances  []horizonBalance `json:"balances"`
}

type horizonBalance struct {
	Balance     string `json:"balance"`
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code"`
	AssetIssuer string `json:"asset_issuer"`
}

// horizonTransaction is the subset of the Horizon transaction response
// this service consumes. fee_charged is a decimal string on the wire.
type horizonTransaction struct {
	Hash           string `json:"hash"`
	SourceAccount  string `json:"source_account"`
	Ledger         int32  `json:"ledger"`
	CreatedAt      string `json:"created_at"`
	Memo           string `json:"memo"`
	MemoType       string `json:"memo_type"`
	Successful     bool   `json:"successful"`
	OperationCount int32  `json:"operation_count"`
	FeeCharged     string `json:"fee_charged"`
	EnvelopeXDR    string `json:"envelope_xdr"`
	ResultXDR      string `json:"result_xdr"`
}

// HorizonGateway is a Gateway backed by a Horizon server's JSON API.
type HorizonGateway struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// NewHorizonGateway creates a HorizonGateway targeting baseURL. Every
// request is bounded by timeout; zero means 10 seconds.
func NewHorizonGateway(baseURL string, timeout time.Duration, logger *zap.Logger) *HorizonGateway {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HorizonGateway{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetObserver configures the metrics callback for Horizon round trips.
func (g *HorizonGateway) SetObserver(fn Observer) {
	g.observer = fn
}

// LoadAccount implements Gateway.
func (g *HorizonGateway) LoadAccount(ctx context.Context, address string) (*AccountSnapshot, error) {
	var acct horizonAccount
	if err := g.get(ctx, "load_account", "/accounts/"+url.PathEscape(address), &acct); err != nil {
		return nil, err
	}

	snapshot := &AccountSnapshot{
		Address:  acct.AccountID,
		Sequence: acct.Sequence,
		Balances: make([]Balance, 0, len(acct.Balances)),
	}
	for _, b := range acct.Balances {
		snapshot.Balances = append(snapshot.Balances, Balance{
			AssetType:   b.AssetType,
			AssetCode:   b.AssetCode,
			AssetIssuer: b.AssetIssuer,
			Amount:      b.Balance,
		})
	}
	return snapshot, nil
}

// FetchTransaction implements Gateway.
func (g *HorizonGateway) FetchTransaction(ctx context.Context, hash string) (*Transaction, error) {
	var tx horizonTransaction
	if err := g.get(ctx, "fetch_transaction", "/transactions/"+url.PathEscape(hash), &tx); err != nil {
		return nil, err
	}

	fee, err := strconv.ParseInt(tx.FeeCharged, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse fee_charged %q: %v", ErrUnavailable, tx.FeeCharged, err)
	}

	return &Transaction{
		Hash:           tx.Hash,
		SourceAccount:  tx.SourceAccount,
		Ledger:         tx.Ledger,
		CloseTime:      tx.CreatedAt,
		Memo:           tx.Memo,
		MemoType:       tx.MemoType,
		Successful:     tx.Successful,
		OperationCount: tx.OperationCount,
		FeeCharged:     fee,
		EnvelopeXDR:    tx.EnvelopeXDR,
		ResultXDR:      tx.ResultXDR,
	}, nil
}

// get performs a single GET round trip and decodes the JSON body into out.
// 404 maps to ErrNotFound; every other failure maps to ErrUnavailable.
func (g *HorizonGateway) get(ctx context.Context, op, path string, out any) error {
	start := time.Now()
	err := g.doGet(ctx, path, out)
	if g.observer != nil {
		g.observer(op, time.Since(start), err)
	}
	if err != nil && g.logger != nil {
		g.logger.Warn("horizon request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return err
}

func (g *HorizonGateway) doGet(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build horizon request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request to %s: %v", ErrUnavailable, g.baseURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: horizon returned status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read horizon response: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode horizon response: %v", ErrUnavailable, err)
	}
	return nil
}
