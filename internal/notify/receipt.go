package notify

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt is everything the confirmation messages say about a paid
// appointment.
type Receipt struct {
	AppointmentID string
	InvoiceNumber string
	TrxID         string
	Amount        float64
	PatientName   string
	PatientEmail  string
	DoctorName    string
	DoctorPhone   string
	Date          string
	TimeSlot      string
	PaidAt        time.Time
}

// RenderReceipt returns the receipt as a PDF document.
func RenderReceipt(r Receipt) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 102, 102)
	pdf.CellFormat(0, 10, "Telehealth - Appointment Payment Receipt", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Appointment", "1", 1, "C", false, 0, "")
	addDetail(pdf, "Appointment ID", r.AppointmentID, true)
	addDetail(pdf, "Doctor", r.DoctorName, true)
	addDetail(pdf, "Patient", r.PatientName, true)
	addDetail(pdf, "Date", r.Date, true)
	addDetail(pdf, "Time Slot", r.TimeSlot, true)

	pdf.CellFormat(0, 10, "Payment", "1", 1, "C", false, 0, "")
	addDetail(pdf, "Invoice Number", r.InvoiceNumber, false)
	addDetail(pdf, "bKash Transaction", r.TrxID, false)
	addDetail(pdf, "Paid At", r.PaidAt.Format("2006-01-02 15:04"), false)
	pdf.SetFont("Arial", "B", 13)
	addDetail(pdf, "Amount Paid (BDT)", fmt.Sprintf("%.2f", r.Amount), true)

	pdf.SetY(pdf.GetY() + 12)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 10, "This is a computer generated receipt", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// addDetail adds a label/value row to the PDF
func addDetail(pdf *gofpdf.Fpdf, label, value string, isHeader bool) {
	if isHeader {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(255, 255, 255)
	} else {
		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(240, 240, 240)
	}
	pdf.CellFormat(55, 10, label, "1", 0, "", true, 0, "")
	pdf.CellFormat(0, 10, value, "1", 1, "", true, 0, "")
}
