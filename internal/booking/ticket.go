package booking

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

// RenderTicket builds a one-page PDF e-ticket for the booking and returns it
// with a suggested file name.
func RenderTicket(d *BookingDetails) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	holder := "-"
	if d.User != nil && d.User.Name != "" {
		holder = d.User.Name
	}

	total := "-"
	if t, err := d.Total(); err == nil {
		total = t.String()
	}

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Event       : %s", orDash(d.Event.Name)),
		fmt.Sprintf("Date        : %s", d.Event.EventDate.Format("2006-01-02 15:04")),
		fmt.Sprintf("Venue       : %s", orDash(d.Event.Venue)),
		fmt.Sprintf("Holder      : %s", holder),
		fmt.Sprintf("Tickets     : %d", d.Quantity),
		fmt.Sprintf("Unit price  : %s", d.UnitPrice),
		fmt.Sprintf("Total       : %s", total),
		fmt.Sprintf("Reference   : EVX-%d-%d", d.EventID, d.ID),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, fmt.Sprintf("Valid for %d admission(s). Present this ticket at the venue entrance.", d.Quantity), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%d.pdf", d.ID), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
