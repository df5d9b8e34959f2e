package booking

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"eventix/internal/api"
	"eventix/internal/auth"

	"github.com/gin-gonic/gin"
)

// Reader is the read side of the booking engine. Mutations go through the
// settlement coordinator so that inventory and money move together.
type Reader interface {
	GetBooking(ctx context.Context, bookingID int, requester auth.Principal) (*BookingDetails, error)
	ListBookings(ctx context.Context, requester auth.Principal) ([]BookingDetails, error)
}

type Handler struct {
	reader Reader
}

func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// ParseID reads the :id path parameter. It writes the 404 response itself
// and reports false when the id is not a positive integer.
func ParseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		api.Fail(c, http.StatusNotFound, "Ticketing request not found")
		return 0, false
	}
	return id, true
}

// @Summary      List ticketing requests
// @Description  Members see their own bookings; admins see all of them with holder details.
// @Tags         ticketing
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Envelope{data=[]booking.BookingDetails}
// @Failure      401 {object} api.ErrorResponse
// @Router       /ticketing [get]
func (h *Handler) ListBookings(c *gin.Context) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return
	}
	list, err := h.reader.ListBookings(c.Request.Context(), p)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "data": list})
}

// @Summary      Get ticketing request
// @Tags         ticketing
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Booking ID"
// @Success      200 {object} api.Envelope{data=booking.BookingDetails}
// @Failure      404 {object} api.ErrorResponse
// @Router       /ticketing/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	api.OK(c, http.StatusOK, d)
}

// @Summary      Download e-ticket
// @Tags         ticketing
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path int true "Booking ID"
// @Success      200 {file} file
// @Failure      404 {object} api.ErrorResponse
// @Router       /ticketing/{id}/ticket [get]
func (h *Handler) DownloadTicket(c *gin.Context) {
	d, ok := h.load(c)
	if !ok {
		return
	}
	body, filename, err := RenderTicket(d)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}

func (h *Handler) load(c *gin.Context) (*BookingDetails, bool) {
	p, ok := auth.GetPrincipal(c)
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "user not authenticated")
		return nil, false
	}
	id, ok := ParseID(c)
	if !ok {
		return nil, false
	}
	d, err := h.reader.GetBooking(c.Request.Context(), id, p)
	if err != nil {
		api.RespondError(c, err)
		return nil, false
	}
	return d, true
}
