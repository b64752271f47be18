package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orbitpay/ledgerlink/internal/stellar"
	"go.uber.org/zap"
)

// ErrGone is returned by Verify when the network no longer serves the
// transaction behind a stored record. This is distinct from a failed
// comparison: the source of truth is unreachable for this record, so no
// judgment about the stored copy was made.
var ErrGone = errors.New("transaction no longer present on the ledger")

// MetricsRecorder is an optional callback for recording fetch outcomes.
type MetricsRecorder func(outcome string)

// VerifyResult reports the outcome of re-checking a stored record against
// the live network.
type VerifyResult struct {
	Verified   bool     `json:"verified"`
	Mismatches []string `json:"mismatches,omitempty"`
	Record     *Record  `json:"record"`
}

// Service orchestrates the network gateway and the audit store.
type Service struct {
	gateway   stellar.Gateway
	store     Store
	onMetrics MetricsRecorder
	logger    *zap.Logger
}

// NewService creates an audit Service.
func NewService(gateway stellar.Gateway, store Store, logger *zap.Logger) *Service {
	return &Service{gateway: gateway, store: store, logger: logger}
}

// SetMetricsRecorder configures the metrics callback.
func (s *Service) SetMetricsRecorder(fn MetricsRecorder) {
	s.onMetrics = fn
}

func (s *Service) record(outcome string) {
	if s.onMetrics != nil {
		s.onMetrics(outcome)
	}
}

// FetchAndStore fetches the transaction behind hash from the network and
// stores it as an immutable audit record. The operation is idempotent:
// when a record for the hash already exists — whether found up front or
// inserted by a concurrent request — the existing record is returned
// unchanged and created is false. Network not-found and unavailability
// propagate as stellar.ErrNotFound and stellar.ErrUnavailable.
func (s *Service) FetchAndStore(ctx context.Context, hash string) (rec *Record, created bool, err error) {
	hash = strings.ToLower(hash)

	existing, err := s.store.GetByHash(ctx, hash)
	if err == nil {
		s.record("duplicate")
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("check existing record: %w", err)
	}

	tx, err := s.gateway.FetchTransaction(ctx, hash)
	if err != nil {
		if errors.Is(err, stellar.ErrNotFound) {
			s.record("not_found")
		} else {
			s.record("unavailable")
		}
		return nil, false, err
	}

	rec = &Record{
		ID:            uuid.New(),
		TxHash:        hash,
		SourceAccount: tx.SourceAccount,
		Payload:       PayloadFromTransaction(tx),
		FetchedAt:     time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// A concurrent request won the insert race. The unique
			// constraint guarantees a single row; return it.
			s.record("duplicate")
			existing, err := s.store.GetByHash(ctx, hash)
			if err != nil {
				return nil, false, fmt.Errorf("read record after conflict: %w", err)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("store audit record: %w", err)
	}

	s.record("stored")
	s.logger.Info("audit record stored",
		zap.String("tx_hash", hash),
		zap.String("source_account", rec.SourceAccount),
		zap.Int32("ledger", rec.Payload.Ledger),
	)
	return rec, true, nil
}

// GetByHash returns the stored record for hash without touching the
// network. Returns ErrNotFound when nothing is stored.
func (s *Service) GetByHash(ctx context.Context, hash string) (*Record, error) {
	return s.store.GetByHash(ctx, strings.ToLower(hash))
}

// List returns one page of stored records plus the filter-aware total.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Record, int, error) {
	return s.store.List(ctx, filter)
}

// Verify re-fetches the transaction behind a stored record and compares
// it field by field against the stored payload. The stored record is
// never modified; a mismatch is reported, not corrected.
//
// Returns ErrNotFound when nothing is stored for the hash (a record must
// be stored before it can be verified), ErrGone when the network no
// longer serves the transaction, and stellar.ErrUnavailable when the
// network could not be queried.
func (s *Service) Verify(ctx context.Context, hash string) (*VerifyResult, error) {
	hash = strings.ToLower(hash)

	rec, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	tx, err := s.gateway.FetchTransaction(ctx, hash)
	if err != nil {
		if errors.Is(err, stellar.ErrNotFound) {
			return nil, ErrGone
		}
		return nil, err
	}

	live := PayloadFromTransaction(tx)
	mismatches := rec.Payload.Diff(live)
	if rec.SourceAccount != tx.SourceAccount {
		mismatches = append(mismatches, "source_account")
	}

	if len(mismatches) > 0 {
		s.logger.Warn("audit record diverged from ledger",
			zap.String("tx_hash", hash),
			zap.Strings("mismatches", mismatches),
		)
	}

	return &VerifyResult{
		Verified:   len(mismatches) == 0,
		Mismatches: mismatches,
		Record:     rec,
	}, nil
}
