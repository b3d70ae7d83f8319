package infra

// pdf.go — receipt rendering using go-pdf/fpdf. Produces A7-size
// thermal-receipt-style documents: store header, receipt and transaction
// numbers, item table, discount line, bold total, payment breakdown and the
// terminal's configured footer.

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/go-pdf/fpdf"
)

// ReceiptPDF renders receipts in memory; callers stream or attach the bytes.
type ReceiptPDF struct {
	storeName string
}

func NewReceiptPDF(storeName string) *ReceiptPDF {
	return &ReceiptPDF{storeName: storeName}
}

// Render produces the PDF for one receipt record.
func (r *ReceiptPDF) Render(txn *model.Transaction, receipt *model.Receipt) ([]byte, error) {
	// A7 ≈ 74mm × 105mm — close to thermal receipt paper (custom size, "A7" is not in fpdf's named list)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, r.storeName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	title := "Sales Receipt"
	switch receipt.Type {
	case model.ReceiptRefund:
		title = "Refund Receipt"
	case model.ReceiptDuplicate:
		title = "Duplicate Receipt"
	case model.ReceiptGift:
		title = "Gift Receipt"
	}
	pdf.CellFormat(contentW, 5, title, "", 1, "C", false, 0, "")
	if receipt.HeaderText != "" {
		pdf.CellFormat(contentW, 4, receipt.HeaderText, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)

	// ── Document info ─────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, receipt.ReceiptNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, txn.TransactionNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, receipt.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if txn.CustomerName != "" {
		pdf.CellFormat(contentW, 4, "Customer: "+txn.CustomerName, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)

	// ── Separator ────────────────────────────────────────────────────────────
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items header ──────────────────────────────────────────────────────────
	col1 := contentW * 0.52 // product name
	col2 := contentW * 0.16 // qty
	col3 := contentW * 0.32 // line total

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Qty", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Total", "B", 1, "R", false, 0, "")

	// ── Item rows ─────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	for i := range txn.Lines {
		line := &txn.Lines[i]
		name := line.ProductName
		if runes := []rune(name); len(runes) > 22 {
			name = string(runes[:19]) + "..."
		}
		pdf.CellFormat(col1, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, "x"+line.Quantity.String(), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+line.LineTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "", 7)
	if !txn.DiscountAmount.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Discount:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+txn.DiscountAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if !txn.TaxAmount.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Tax included:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+txn.TaxAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+txn.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Payment methods ───────────────────────────────────────────────────────
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	for i := range txn.Payments {
		p := &txn.Payments[i]
		label := "Paid (" + strings.ReplaceAll(string(p.Method), "_", " ") + "):"
		pdf.CellFormat(col1+col2, 4, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+p.Amount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if txn.ChangeDue.IsPositive() {
		pdf.CellFormat(col1+col2, 4, "Change:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "$"+txn.ChangeDue.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	footer := receipt.FooterText
	if footer == "" {
		footer = "Thank you for your purchase!"
	}
	pdf.CellFormat(contentW, 4, footer, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
