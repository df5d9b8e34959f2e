package settlement

import (
	"context"
	"net/http"

	"eventix/internal/api"
	"eventix/internal/auth"
	"eventix/internal/booking"
	"eventix/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Service interface {
	BookAndPay(ctx context.Context, userID, eventID, quantity int) (*Result, error)
	ResizeAndReconcile(ctx context.Context, bookingID, newQuantity int, requester auth.Principal) (*Result, error)
	CancelAndRefund(ctx context.Context, bookingID int, requester auth.Principal) (*Result, error)
	Pay(ctx context.Context, userID int, req PayRequest) (*wallet.Wallet, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResponse, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Request tickets
// @Description  Books quantity tickets and pays for them from the wallet in one step.
// @Tags         ticketing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.CreateBookingRequest true "Booking payload"
// @Success      201 {object} api.Envelope{data=settlement.Result}
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /ticketing [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req booking.CreateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.BookAndPay(c.Request.Context(), userID, req.EventID, req.Quantity)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusCreated, res)
}

// @Summary      Update ticketing request
// @Description  Changes the quantity; the price difference is charged or refunded at the booked unit price.
// @Tags         ticketing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Booking ID"
// @Param        request body booking.UpdateBookingRequest true "New quantity"
// @Success      200 {object} api.Envelope{data=settlement.Result}
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /ticketing/{id} [put]
func (h *Handler) UpdateBooking(c *gin.Context) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}
	id, ok := booking.ParseID(c)
	if !ok {
		return
	}

	var req booking.UpdateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.ResizeAndReconcile(c.Request.Context(), id, req.Quantity, p)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, res)
}

// @Summary      Delete ticketing request
// @Description  Cancels the booking and refunds the full amount paid to the wallet.
// @Tags         ticketing
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Booking ID"
// @Success      200 {object} api.Envelope{data=settlement.Result}
// @Failure      404 {object} api.ErrorResponse
// @Router       /ticketing/{id} [delete]
func (h *Handler) DeleteBooking(c *gin.Context) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}
	id, ok := booking.ParseID(c)
	if !ok {
		return
	}

	res, err := h.service.CancelAndRefund(c.Request.Context(), id, p)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Envelope{Success: true, Message: "Ticketing request deleted successfully", Data: res})
}

// @Summary      Pay from wallet
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body settlement.PayRequest true "Payment"
// @Success      200 {object} api.Envelope{data=wallet.Wallet}
// @Failure      400 {object} api.ErrorResponse
// @Router       /wallet/pay [post]
func (h *Handler) Pay(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req PayRequest
	if !api.BindJSON(c, &req) {
		return
	}

	w, err := h.service.Pay(c.Request.Context(), userID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, w)
}

// @Summary      Refund to wallet
// @Description  Admin-only. Credits the user and takes the amount back from admin wallets where their balance allows.
// @Tags         admin,wallet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body settlement.RefundRequest true "Refund"
// @Success      200 {object} api.Envelope{data=settlement.RefundResponse}
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /wallet/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	var req RefundRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Refund(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.Envelope{Success: true, Message: "Refund processed successfully", Data: resp})
}
