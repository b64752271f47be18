// Package health probes the service's two upstream dependencies — the
// Postgres store and the Horizon server — for the /healthz endpoint.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger is the database-side probe. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the probe result for one component.
type Status struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Report aggregates all component probes.
type Report struct {
	OK         bool              `json:"ok"`
	Components map[string]Status `json:"components"`
}

// Checker probes the database and the Horizon server.
type Checker struct {
	db         Pinger
	horizonURL string
	http       *http.Client
	logger     *zap.Logger
}

// New creates a Checker. probeTimeout bounds each individual probe; zero
// means 5 seconds.
func New(db Pinger, horizonURL string, probeTimeout time.Duration, logger *zap.Logger) *Checker {
	if probeTimeout == 0 {
		probeTimeout = 5 * time.Second
	}
	return &Checker{
		db:         db,
		horizonURL: horizonURL,
		http:       &http.Client{Timeout: probeTimeout},
		logger:     logger,
	}
}

// Check runs all probes and aggregates them. It never returns an error;
// failures are reported in the result so the handler can choose a status
// code.
func (c *Checker) Check(ctx context.Context) Report {
	report := Report{OK: true, Components: map[string]Status{}}

	report.Components["database"] = c.probeDatabase(ctx)
	report.Components["horizon"] = c.probeHorizon(ctx)

	for name, st := range report.Components {
		if !st.OK {
			report.OK = false
			c.logger.Warn("health probe failed",
				zap.String("component", name),
				zap.String("error", st.Error),
			)
		}
	}
	return report
}

func (c *Checker) probeDatabase(ctx context.Context) Status {
	if c.db == nil {
		return Status{OK: true}
	}
	if err := c.db.Ping(ctx); err != nil {
		return Status{Error: fmt.Sprintf("ping: %v", err)}
	}
	return Status{OK: true}
}

func (c *Checker) probeHorizon(ctx context.Context) Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.horizonURL, nil)
	if err != nil {
		return Status{Error: fmt.Sprintf("build request: %v", err)}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Status{Error: fmt.Sprintf("request: %v", err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 500 {
		return Status{Error: fmt.Sprintf("horizon returned status %d", resp.StatusCode)}
	}
	return Status{OK: true}
}
