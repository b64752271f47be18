package audit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/orbitpay/ledgerlink/internal/stellar"
	"go.uber.org/zap"
)

// Handler exposes the audit trail over HTTP.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an audit Handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the audit routes on the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/audit")
	{
		a.GET("", h.List)
		a.POST("/:txHash", h.FetchAndStore)
		a.GET("/:txHash", h.GetByHash)
		a.GET("/:txHash/verify", h.Verify)
	}
}

// FetchAndStore handles POST /audit/:txHash.
// 201 on first store, 200 when the hash was already audited.
func (h *Handler) FetchAndStore(c *gin.Context) {
	hash := c.Param("txHash")
	if !stellar.IsTxHash(hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "txHash must be a 64-character hex string"})
		return
	}

	rec, created, err := h.svc.FetchAndStore(c.Request.Context(), hash)
	if err != nil {
		switch {
		case errors.Is(err, stellar.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found on ledger"})
		case errors.Is(err, stellar.ErrUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "ledger unavailable, try again", "retryable": true})
		default:
			h.logger.Error("audit fetch-and-store", zap.String("tx_hash", hash), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store audit record"})
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

// GetByHash handles GET /audit/:txHash — local lookup, no ledger call.
func (h *Handler) GetByHash(c *gin.Context) {
	hash := c.Param("txHash")
	if !stellar.IsTxHash(hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "txHash must be a 64-character hex string"})
		return
	}

	rec, err := h.svc.GetByHash(c.Request.Context(), hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit record not found"})
			return
		}
		h.logger.Error("audit get", zap.String("tx_hash", hash), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get audit record"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// List handles GET /audit?page&limit&source_account.
func (h *Handler) List(c *gin.Context) {
	page, err := positiveIntQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}
	limit, err := positiveIntQuery(c, "limit", DefaultPageLimit)
	if err != nil || limit > MaxPageLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	source := c.Query("source_account")
	if source != "" && !stellar.IsAccountID(source) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source_account is not a valid ledger address"})
		return
	}

	records, total, err := h.svc.List(c.Request.Context(), ListFilter{
		Page:          page,
		Limit:         limit,
		SourceAccount: source,
	})
	if err != nil {
		h.logger.Error("audit list", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit records"})
		return
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	c.JSON(http.StatusOK, gin.H{
		"data":        records,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages,
	})
}

// Verify handles GET /audit/:txHash/verify.
func (h *Handler) Verify(c *gin.Context) {
	hash := c.Param("txHash")
	if !stellar.IsTxHash(hash) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "txHash must be a 64-character hex string"})
		return
	}

	result, err := h.svc.Verify(c.Request.Context(), hash)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":  "audit record not found; store it before verifying",
				"record": nil,
			})
		case errors.Is(err, ErrGone):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":     "ledger no longer serves this transaction; stored record could not be re-checked",
				"retryable": true,
			})
		case errors.Is(err, stellar.ErrUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "ledger unavailable, try again", "retryable": true})
		default:
			h.logger.Error("audit verify", zap.String("tx_hash", hash), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify audit record"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// positiveIntQuery parses a query parameter as a strictly positive int.
func positiveIntQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}
