package event

import (
	"net/http"
	"strconv"

	"eventix/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func eventID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		api.Fail(c, http.StatusNotFound, "Event not found - Invalid ID")
		return 0, false
	}
	return id, true
}

// @Summary      List events
// @Tags         events
// @Produce      json
// @Success      200 {object} api.Envelope{data=[]event.Event}
// @Failure      500 {object} api.ErrorResponse
// @Router       /events [get]
func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(events), "data": events})
}

// @Summary      Get event
// @Tags         events
// @Produce      json
// @Param        id path int true "Event ID"
// @Success      200 {object} api.Envelope{data=event.Event}
// @Failure      404 {object} api.ErrorResponse
// @Router       /events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	e, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, e)
}

// @Summary      Create event
// @Description  Admin-only. available_ticket sets both the capacity and the initial stock.
// @Tags         admin,events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body event.CreateEventRequest true "Event payload"
// @Success      201 {object} api.Envelope{data=event.Event}
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if !api.BindJSON(c, &req) {
		return
	}
	e, err := h.service.CreateEvent(c.Request.Context(), req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusCreated, e)
}

// @Summary      Update event
// @Tags         admin,events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Event ID"
// @Param        request body event.UpdateEventRequest true "Fields to change"
// @Success      200 {object} api.Envelope{data=event.Event}
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /events/{id} [put]
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !api.BindJSON(c, &req) {
		return
	}
	e, err := h.service.UpdateEvent(c.Request.Context(), id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, e)
}

// @Summary      Delete event
// @Tags         admin,events
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Event ID"
// @Success      200 {object} api.Envelope
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := eventID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteEvent(c.Request.Context(), id); err != nil {
		api.RespondError(c, err)
		return
	}
	api.Message(c, http.StatusOK, "Event deleted")
}
