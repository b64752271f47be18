package trustline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orbitpay/ledgerlink/internal/employees"
	"github.com/orbitpay/ledgerlink/internal/stellar"
	"go.uber.org/zap"
)

// MetricsRecorder is an optional callback recording the status written by
// each refresh.
type MetricsRecorder func(status string)

// Config holds the asset policy the service reconciles against.
type Config struct {
	// AssetCode is the organization's asset code, e.g. "ORGUSD".
	AssetCode string
	// TrustTTL is the validity window of built transactions.
	TrustTTL time.Duration
}

// CheckResult reports whether a wallet currently trusts an asset.
// Balance is the Horizon-reported decimal string, passed through
// verbatim; it is empty when Exists is false.
type CheckResult struct {
	Exists  bool   `json:"exists"`
	Balance string `json:"balance,omitempty"`
}

// Service orchestrates the network gateway, the trustline store, and the
// employee directory.
type Service struct {
	gateway   stellar.Gateway
	store     Store
	directory employees.Directory
	cfg       Config
	onMetrics MetricsRecorder
	logger    *zap.Logger
}

// NewService creates a trustline Service.
func NewService(gateway stellar.Gateway, store Store, directory employees.Directory, cfg Config, logger *zap.Logger) *Service {
	if cfg.AssetCode == "" {
		cfg.AssetCode = "ORGUSD"
	}
	if cfg.TrustTTL <= 0 {
		cfg.TrustTTL = stellar.DefaultTrustTTL
	}
	return &Service{
		gateway:   gateway,
		store:     store,
		directory: directory,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetMetricsRecorder configures the metrics callback.
func (s *Service) SetMetricsRecorder(fn MetricsRecorder) {
	s.onMetrics = fn
}

// AssetCode returns the configured organization asset code.
func (s *Service) AssetCode() string {
	return s.cfg.AssetCode
}

// CheckTrustline loads the wallet from the network and reports whether it
// holds a trustline for assetCode/assetIssuer. An address the network has
// never seen is simply a wallet with no trustlines, so not-found maps to
// Exists=false rather than an error. Network unavailability propagates.
func (s *Service) CheckTrustline(ctx context.Context, walletAddress, assetCode, assetIssuer string) (*CheckResult, error) {
	snapshot, err := s.gateway.LoadAccount(ctx, walletAddress)
	if err != nil {
		if errors.Is(err, stellar.ErrNotFound) {
			return &CheckResult{Exists: false}, nil
		}
		return nil, err
	}

	balance, ok := snapshot.FindTrustline(assetCode, assetIssuer)
	if !ok {
		return &CheckResult{Exists: false}, nil
	}
	return &CheckResult{Exists: true, Balance: balance.Amount}, nil
}

// RefreshEmployeeTrustline reconciles the stored record for the employee
// with current network truth. It is the sole authority that clears a
// stale pending state: the observed status overwrites whatever was
// stored, in either direction.
//
// Returns (nil, nil) when the employee does not exist or has no wallet
// bound — nothing to refresh, not an error.
func (s *Service) RefreshEmployeeTrustline(ctx context.Context, employeeID uuid.UUID, assetIssuer string) (*Record, error) {
	emp, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, employees.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up employee: %w", err)
	}
	if emp.WalletAddress == nil || *emp.WalletAddress == "" {
		return nil, nil
	}

	check, err := s.CheckTrustline(ctx, *emp.WalletAddress, s.cfg.AssetCode, assetIssuer)
	if err != nil {
		return nil, err
	}

	status := StatusNone
	if check.Exists {
		status = StatusEstablished
	}

	rec, err := s.store.Upsert(ctx, &Record{
		EmployeeID:    employeeID,
		AssetCode:     s.cfg.AssetCode,
		AssetIssuer:   assetIssuer,
		WalletAddress: *emp.WalletAddress,
		Status:        status,
		LastCheckedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if s.onMetrics != nil {
		s.onMetrics(string(status))
	}
	s.logger.Info("trustline refreshed",
		zap.String("employee_id", employeeID.String()),
		zap.String("status", string(status)),
	)
	return rec, nil
}

// GetEmployeeTrustline returns the stored record for the employee without
// touching the network. Returns ErrNotFound when nothing is stored.
func (s *Service) GetEmployeeTrustline(ctx context.Context, employeeID uuid.UUID) (*Record, error) {
	return s.store.GetByEmployee(ctx, employeeID)
}

// BuildTrustlineTransaction loads the wallet's current sequence number
// and builds an unsigned change-trust envelope for it. An empty assetCode
// falls back to the configured organization asset.
//
// A wallet the network has never seen cannot source a transaction, so
// stellar.ErrNotFound propagates here, unlike in CheckTrustline.
func (s *Service) BuildTrustlineTransaction(ctx context.Context, walletAddress, assetCode, assetIssuer string) (string, error) {
	if assetCode == "" {
		assetCode = s.cfg.AssetCode
	}

	snapshot, err := s.gateway.LoadAccount(ctx, walletAddress)
	if err != nil {
		return "", err
	}

	return stellar.BuildChangeTrust(walletAddress, snapshot.Sequence, assetCode, assetIssuer, s.cfg.TrustTTL)
}

// MarkPending records that a sign prompt was just issued for the
// employee's wallet. Purely local bookkeeping — no network call — and
// unconditional: whatever the prior status, the record becomes pending
// until the next refresh observes the network again. An empty assetCode
// falls back to the configured organization asset, so the stored record
// always names the same asset as the envelope that was issued.
func (s *Service) MarkPending(ctx context.Context, employeeID uuid.UUID, walletAddress, assetCode, assetIssuer string) (*Record, error) {
	if assetCode == "" {
		assetCode = s.cfg.AssetCode
	}
	rec, err := s.store.Upsert(ctx, &Record{
		EmployeeID:    employeeID,
		AssetCode:     assetCode,
		AssetIssuer:   assetIssuer,
		WalletAddress: walletAddress,
		Status:        StatusPending,
		LastCheckedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if s.onMetrics != nil {
		s.onMetrics(string(StatusPending))
	}
	return rec, nil
}
