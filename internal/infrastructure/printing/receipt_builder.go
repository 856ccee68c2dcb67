package printing

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	bookingapp "github.com/localcooks/backend/internal/application/booking"
)

// PDFReceiptBuilder renders booking receipts with gofpdf. Receipts are
// plain tabular documents, so they are drawn directly instead of going
// through the HTML pipeline.
type PDFReceiptBuilder struct{}

var _ bookingapp.ReceiptBuilder = (*PDFReceiptBuilder)(nil)

// NewPDFReceiptBuilder creates a new receipt builder
func NewPDFReceiptBuilder() *PDFReceiptBuilder {
	return &PDFReceiptBuilder{}
}

// Item table column widths in mm, summing to the printable width of an
// A4 page with 10mm margins.
var receiptColWidths = []float64{72, 28, 12, 26, 26, 26}

// BuildReceipt renders the receipt data into a PDF document
func (b *PDFReceiptBuilder) BuildReceipt(data *bookingapp.ReceiptData) ([]byte, error) {
	if data == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "receipt data is nil", nil)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+data.BookingNumber, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	header := []string{
		fmt.Sprintf("Booking: %s", data.BookingNumber),
		fmt.Sprintf("Kitchen: %s", safeText(data.LocationName)),
		fmt.Sprintf("Chef: %s", safeText(data.ChefName)),
		fmt.Sprintf("Status: %s / %s", statusText(data.Status), statusText(data.PaymentStatus)),
		fmt.Sprintf("Decided: %s", data.DecidedAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("Issued: %s", data.IssuedAt.Format("2006-01-02 15:04")),
	}
	for _, line := range header {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	b.writeItemTable(pdf, data.Lines)
	b.writeTotals(pdf, data)

	if len(data.Refunds) > 0 {
		b.writeRefunds(pdf, data.Refunds)
	}

	b.writeMoneyTrail(pdf, data)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "pdf output failed", err)
	}
	return buf.Bytes(), nil
}

func (b *PDFReceiptBuilder) writeItemTable(pdf *gofpdf.Fpdf, lines []bookingapp.ReceiptLine) {
	pdf.SetFont("Helvetica", "B", 10)
	headers := []string{"Item", "Period", "Qty", "Unit price", "Subtotal", "Verdict"}
	for i, h := range headers {
		pdf.CellFormat(receiptColWidths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for i := range lines {
		line := &lines[i]
		cells := []string{
			truncate(line.Description, 42),
			formatPeriod(line.StartAt, line.EndAt),
			fmt.Sprintf("%d", line.Quantity),
			moneyCell(line.UnitPrice),
			moneyCell(line.Subtotal),
			statusText(line.Status),
		}
		for j, c := range cells {
			align := "L"
			if j >= 2 && j <= 4 {
				align = "R"
			}
			pdf.CellFormat(receiptColWidths[j], 7, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func (b *PDFReceiptBuilder) writeTotals(pdf *gofpdf.Fpdf, data *bookingapp.ReceiptData) {
	rows := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Subtotal", data.Subtotal, false},
		{"Tax", data.TaxAmount, false},
		{"Service fee", data.ServiceFee, false},
		{"Total", data.TotalAmount, true},
	}
	for _, row := range rows {
		if row.bold {
			pdf.SetFont("Helvetica", "B", 11)
		} else {
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(138, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(52, 6, moneyCell(row.value), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func (b *PDFReceiptBuilder) writeRefunds(pdf *gofpdf.Fpdf, refunds []bookingapp.ReceiptRefundLine) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Refunds")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for i := range refunds {
		entry := &refunds[i]
		line := fmt.Sprintf("%s  %s", entry.CreatedAt.Format("2006-01-02"), moneyCell(entry.Amount))
		if !entry.ProcessorShare.IsZero() {
			line += fmt.Sprintf(" (incl. %s processor share)", moneyCell(entry.ProcessorShare))
		}
		if reason := strings.TrimSpace(entry.Reason); reason != "" {
			line += "  " + truncate(reason, 60)
		}
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)
}

func (b *PDFReceiptBuilder) writeMoneyTrail(pdf *gofpdf.Fpdf, data *bookingapp.ReceiptData) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Payment summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Authorized", data.AuthorizedAmount},
		{"Captured", data.CapturedAmount},
		{"Released", data.ReleasedAmount},
		{"Refunded", data.RefundedAmount},
	}
	for _, row := range rows {
		pdf.CellFormat(40, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, moneyCell(row.value), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func moneyCell(d decimal.Decimal) string {
	return formatMoney(d)
}

func formatPeriod(start, end time.Time) string {
	if start.IsZero() {
		return ""
	}
	if end.IsZero() {
		return start.Format("Jan 2 15:04")
	}
	if start.Format("2006-01-02") == end.Format("2006-01-02") {
		return start.Format("Jan 2 15:04") + "-" + end.Format("15:04")
	}
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}

func safeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}
