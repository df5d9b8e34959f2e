package wallet

import (
	"context"
	"net/http"
	"strconv"

	"eventix/internal/api"
	"eventix/internal/auth"
	"eventix/internal/money"

	"github.com/gin-gonic/gin"
)

// Service is the read and top-up surface of the ledger used by the HTTP layer.
type Service interface {
	GetOrCreateWallet(ctx context.Context, userID int) (*Wallet, error)
	ListTransactions(ctx context.Context, userID, limit, offset int) ([]Transaction, error)
	CreateTopUpIntent(ctx context.Context, userID int, amount money.Amount) (*TopUpIntentResponse, error)
	ConfirmTopUp(ctx context.Context, userID int, intentID string) (*ConfirmTopUpResponse, error)
	ListIssues(ctx context.Context, limit, offset int) ([]ReconciliationIssue, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// @Summary      Get wallet
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Envelope{data=wallet.Wallet}
// @Failure      401 {object} api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	w, err := h.service.GetOrCreateWallet(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, w)
}

// @Summary      List wallet transactions
// @Description  Newest first.
// @Tags         wallet
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size" default(50)
// @Param        offset query int false "Offset" default(0)
// @Success      200 {object} api.Envelope{data=[]wallet.Transaction}
// @Failure      401 {object} api.ErrorResponse
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	limit, offset := pagination(c)
	txs, err := h.service.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(txs), "data": txs})
}

// @Summary      Create top-up intent
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body wallet.TopUpRequest true "Amount to add"
// @Success      200 {object} api.Envelope{data=wallet.TopUpIntentResponse}
// @Failure      400 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /wallet/topup [post]
func (h *Handler) CreateTopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req TopUpRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.CreateTopUpIntent(c.Request.Context(), userID, req.Amount)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, resp)
}

// @Summary      Confirm top-up
// @Description  Credits the wallet once the payment intent has succeeded. Safe to repeat.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body wallet.ConfirmTopUpRequest true "Payment intent"
// @Success      200 {object} api.Envelope{data=wallet.ConfirmTopUpResponse}
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      502 {object} api.ErrorResponse
// @Router       /wallet/topup/confirm [post]
func (h *Handler) ConfirmTopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req ConfirmTopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Fail(c, http.StatusBadRequest, "Payment intent ID is required")
		return
	}

	resp, err := h.service.ConfirmTopUp(c.Request.Context(), userID, req.PaymentIntentID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, resp)
}

// @Summary      List reconciliation issues
// @Description  Admin-only. Settlement steps that could not be fully applied.
// @Tags         admin,wallet
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Envelope{data=[]wallet.ReconciliationIssue}
// @Failure      403 {object} api.ErrorResponse
// @Router       /wallet/reconciliation [get]
func (h *Handler) ListIssues(c *gin.Context) {
	limit, offset := pagination(c)
	issues, err := h.service.ListIssues(c.Request.Context(), limit, offset)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, issues)
}
