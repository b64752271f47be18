package trustline

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orbitpay/ledgerlink/internal/stellar"
	"go.uber.org/zap"
)

// Handler exposes trustline reconciliation over HTTP.
type Handler struct {
	svc               *Service
	networkPassphrase string
	logger            *zap.Logger
}

// NewHandler creates a trustline Handler. networkPassphrase is echoed in
// prompt responses so signers know which network the envelope targets.
func NewHandler(svc *Service, networkPassphrase string, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, networkPassphrase: networkPassphrase, logger: logger}
}

// Register mounts the trustline routes on the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	t := rg.Group("/trustlines")
	{
		t.GET("/check/:walletAddress", h.Check)
		t.GET("/employees/:employeeID", h.GetEmployee)
		t.POST("/employees/:employeeID/refresh", h.RefreshEmployee)
		t.POST("/prompt", h.Prompt)
	}
}

// Check handles GET /trustlines/check/:walletAddress?asset_issuer=&asset_code=.
func (h *Handler) Check(c *gin.Context) {
	wallet := c.Param("walletAddress")
	if !stellar.IsAccountID(wallet) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "walletAddress is not a valid ledger address"})
		return
	}
	issuer := c.Query("asset_issuer")
	if !stellar.IsAccountID(issuer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset_issuer is not a valid ledger address"})
		return
	}
	code := c.Query("asset_code")
	if code == "" {
		code = h.svc.AssetCode()
	}

	result, err := h.svc.CheckTrustline(c.Request.Context(), wallet, code, issuer)
	if err != nil {
		h.ledgerError(c, "trustline check", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetEmployee handles GET /trustlines/employees/:employeeID — local
// lookup, no ledger call.
func (h *Handler) GetEmployee(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employeeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee ID"})
		return
	}

	rec, err := h.svc.GetEmployeeTrustline(c.Request.Context(), employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no trustline record for employee"})
			return
		}
		h.logger.Error("trustline get", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get trustline record"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

type refreshRequest struct {
	AssetIssuer string `json:"asset_issuer" binding:"required"`
}

// RefreshEmployee handles POST /trustlines/employees/:employeeID/refresh.
// An employee with no wallet bound yields record=null — nothing to
// refresh, not a failure.
func (h *Handler) RefreshEmployee(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employeeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee ID"})
		return
	}

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset_issuer is required"})
		return
	}
	if !stellar.IsAccountID(req.AssetIssuer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset_issuer is not a valid ledger address"})
		return
	}

	rec, err := h.svc.RefreshEmployeeTrustline(c.Request.Context(), employeeID, req.AssetIssuer)
	if err != nil {
		h.ledgerError(c, "trustline refresh", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

type promptRequest struct {
	EmployeeID    string `json:"employee_id" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
	AssetCode     string `json:"asset_code"`
	AssetIssuer   string `json:"asset_issuer" binding:"required"`
}

// Prompt handles POST /trustlines/prompt: build an unsigned change-trust
// envelope for the wallet and mark the employee's record pending. The
// client-held key signs and submits the envelope; this service never
// sees the key.
func (h *Handler) Prompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	employeeID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee ID"})
		return
	}
	if !stellar.IsAccountID(req.WalletAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet_address is not a valid ledger address"})
		return
	}
	if !stellar.IsAccountID(req.AssetIssuer) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset_issuer is not a valid ledger address"})
		return
	}

	blob, err := h.svc.BuildTrustlineTransaction(c.Request.Context(), req.WalletAddress, req.AssetCode, req.AssetIssuer)
	if err != nil {
		if errors.Is(err, stellar.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "wallet account not found on ledger; fund it first"})
			return
		}
		h.ledgerError(c, "trustline prompt", err)
		return
	}

	rec, err := h.svc.MarkPending(c.Request.Context(), employeeID, req.WalletAddress, req.AssetCode, req.AssetIssuer)
	if err != nil {
		h.logger.Error("trustline mark pending", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record pending trustline"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transaction_xdr":    blob,
		"network_passphrase": h.networkPassphrase,
		"record":             rec,
	})
}

// ledgerError maps gateway failures onto the HTTP surface.
func (h *Handler) ledgerError(c *gin.Context, op string, err error) {
	if errors.Is(err, stellar.ErrUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "ledger unavailable, try again", "retryable": true})
		return
	}
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
