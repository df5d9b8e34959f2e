package booking

import (
	"context"
	"net/http"
	"time"

	"eventix/internal/api"
	"eventix/internal/db"
	"eventix/internal/money"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type EventSales struct {
	EventID     int          `db:"event_id" json:"event_id"`
	EventName   string       `db:"event_name" json:"event_name"`
	Capacity    int          `db:"capacity" json:"capacity"`
	TicketsSold int          `db:"tickets_sold" json:"tickets_sold"`
	Bookings    int          `db:"bookings" json:"bookings"`
	Revenue     money.Amount `db:"revenue" json:"revenue" swaggertype:"number"`
}

type DailySales struct {
	Day         string       `db:"day" json:"day"`
	Bookings    int          `db:"bookings" json:"bookings"`
	TicketsSold int          `db:"tickets_sold" json:"tickets_sold"`
	Revenue     money.Amount `db:"revenue" json:"revenue" swaggertype:"number"`
}

type SalesSummary struct {
	From    string       `json:"from"`
	To      string       `json:"to"`
	ByEvent []EventSales `json:"by_event"`
	ByDay   []DailySales `json:"by_day"`
}

// SalesReport aggregates live bookings. Cancelled bookings are deleted, so
// figures reflect tickets currently held.
type SalesReport struct {
	db db.Querier
}

func NewSalesReport(q db.Querier) *SalesReport {
	return &SalesReport{db: q}
}

func (r *SalesReport) ByEvent(ctx context.Context) ([]EventSales, error) {
	out := []EventSales{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT e.id AS event_id, e.name AS event_name, e.capacity,
		       COALESCE(SUM(b.quantity), 0) AS tickets_sold,
		       COUNT(b.id) AS bookings,
		       COALESCE(SUM(b.quantity * b.unit_price), 0) AS revenue
		FROM events e
		LEFT JOIN bookings b ON b.event_id = e.id
		GROUP BY e.id, e.name, e.capacity
		ORDER BY e.id
	`)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ByDay buckets bookings by creation date in [from, to).
func (r *SalesReport) ByDay(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	out := []DailySales{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS day,
		       COUNT(*) AS bookings,
		       SUM(quantity) AS tickets_sold,
		       SUM(quantity * unit_price) AS revenue
		FROM bookings
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)
	`, from, to)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SalesReport) Summary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	byEvent, err := r.ByEvent(ctx)
	if err != nil {
		return nil, err
	}
	byDay, err := r.ByDay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &SalesSummary{
		From:    from.Format(dateLayout),
		To:      to.AddDate(0, 0, -1).Format(dateLayout),
		ByEvent: byEvent,
		ByDay:   byDay,
	}, nil
}

type SalesSource interface {
	Summary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
}

type SalesHandler struct {
	source SalesSource
	now    func() time.Time
}

func NewSalesHandler(source SalesSource) *SalesHandler {
	return &SalesHandler{source: source, now: time.Now}
}

// @Summary      Sales report
// @Description  Admin-only. Tickets and revenue per event, and per day between from and to (inclusive, YYYY-MM-DD, default last 30 days).
// @Tags         admin,ticketing
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "First day"
// @Param        to   query string false "Last day"
// @Success      200 {object} api.Envelope{data=booking.SalesSummary}
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /reports/sales [get]
func (h *SalesHandler) Sales(c *gin.Context) {
	today := h.now().UTC().Truncate(24 * time.Hour)

	to := today
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			api.Fail(c, http.StatusBadRequest, "to must be a YYYY-MM-DD date")
			return
		}
		to = t
	}
	from := to.AddDate(0, 0, -29)
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			api.Fail(c, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
			return
		}
		from = t
	}
	if from.After(to) {
		api.Fail(c, http.StatusBadRequest, "from must not be after to")
		return
	}

	summary, err := h.source.Summary(c.Request.Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	api.OK(c, http.StatusOK, summary)
}
