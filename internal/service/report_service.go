package service

import (
	"context"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MethodBreakdown is one payment method's share of a session report.
type MethodBreakdown struct {
	Method model.PaymentMethod `json:"method"`
	Total  decimal.Decimal     `json:"total"`
	Count  int64               `json:"count"`
}

// HourlyBreakdown is one hour's completed sales in an X report.
type HourlyBreakdown struct {
	Hour  time.Time       `json:"hour"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// SessionReport is the shared shape of the X (mid-session) and Z (closing)
// reports.
type SessionReport struct {
	ReportType    string     `json:"report_type"`
	GeneratedAt   time.Time  `json:"generated_at"`
	SessionID     uuid.UUID  `json:"session_id"`
	SessionNumber string     `json:"session_number"`
	TerminalCode  string     `json:"terminal_code"`
	CashierID     uuid.UUID  `json:"cashier_id"`
	OpenedAt      time.Time  `json:"opened_at"`
	ClosedAt      *time.Time `json:"closed_at,omitempty"`

	OpeningCash  decimal.Decimal `json:"opening_cash"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`

	// ClosingCash and CashDifference are present only on Z reports.
	ClosingCash    *decimal.Decimal `json:"closing_cash,omitempty"`
	CashDifference *decimal.Decimal `json:"cash_difference,omitempty"`

	GrossSales       decimal.Decimal `json:"gross_sales"`
	TransactionCount int64           `json:"transaction_count"`
	VoidCount        int64           `json:"void_count"`
	RefundTotal      decimal.Decimal `json:"refund_total"`
	DiscountTotal    decimal.Decimal `json:"discount_total"`
	TaxTotal         decimal.Decimal `json:"tax_total"`
	AverageSale      decimal.Decimal `json:"average_sale"`

	ByMethod []MethodBreakdown `json:"by_method"`
	Hourly   []HourlyBreakdown `json:"hourly,omitempty"`
}

// ReportService produces the X report (a snapshot of a running session) and
// the Z report (the final record of a closed session).
type ReportService interface {
	XReport(ctx context.Context, sessionID uuid.UUID) (*SessionReport, error)
	ZReport(ctx context.Context, sessionID uuid.UUID) (*SessionReport, error)
}

type reportService struct {
	sessionRepo repository.SessionRepository
	txRepo      repository.TransactionRepository
	refundRepo  repository.RefundRepository
	drawerRepo  repository.DrawerRepository
}

func NewReportService(
	sessionRepo repository.SessionRepository,
	txRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	drawerRepo repository.DrawerRepository,
) ReportService {
	return &reportService{
		sessionRepo: sessionRepo,
		txRepo:      txRepo,
		refundRepo:  refundRepo,
		drawerRepo:  drawerRepo,
	}
}

// XReport snapshots a running session without touching it.
func (s *reportService) XReport(ctx context.Context, sessionID uuid.UUID) (*SessionReport, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	if session.Status != model.SessionActive {
		return nil, &InvalidStateError{Entity: "session", State: string(session.Status), Op: "generate X report"}
	}

	report, err := s.build(ctx, session, "X")
	if err != nil {
		return nil, err
	}

	hourly, err := s.txRepo.HourlySales(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, h := range hourly {
		report.Hourly = append(report.Hourly, HourlyBreakdown(h))
	}
	return report, nil
}

// ZReport reads back a closed session's reconciliation.
func (s *reportService) ZReport(ctx context.Context, sessionID uuid.UUID) (*SessionReport, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	if session.Status != model.SessionClosed {
		return nil, &InvalidStateError{Entity: "session", State: string(session.Status), Op: "generate Z report"}
	}

	report, err := s.build(ctx, session, "Z")
	if err != nil {
		return nil, err
	}
	report.ClosedAt = session.ClosedAt
	report.ClosingCash = session.ClosingCash
	report.CashDifference = session.CashDifference
	if session.ExpectedCash != nil {
		report.ExpectedCash = *session.ExpectedCash
	}
	return report, nil
}

func (s *reportService) build(ctx context.Context, session *model.Session, typ string) (*SessionReport, error) {
	completed, err := s.txRepo.ListBySession(ctx, session.ID, model.TxCompleted)
	if err != nil {
		return nil, err
	}
	refunded, err := s.txRepo.ListBySession(ctx, session.ID, model.TxRefunded)
	if err != nil {
		return nil, err
	}
	voidCount, err := s.txRepo.CountBySessionStatus(ctx, session.ID, model.TxVoided)
	if err != nil {
		return nil, err
	}
	refundTotal, err := s.refundRepo.SumCompletedBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	methods, err := s.txRepo.SumPaymentsByMethod(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	gross := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero
	sales := append(completed, refunded...)
	for i := range sales {
		gross = gross.Add(sales[i].TotalAmount)
		discount = discount.Add(sales[i].DiscountAmount)
		tax = tax.Add(sales[i].TaxAmount)
		for j := range sales[i].Lines {
			discount = discount.Add(sales[i].Lines[j].DiscountAmount)
		}
	}

	expected := session.OpeningCash
	var byMethod []MethodBreakdown
	for _, mt := range methods {
		byMethod = append(byMethod, MethodBreakdown(mt))
		if mt.Method == model.PayCash || mt.Method == model.PayCash.RefundMethod() {
			expected = expected.Add(mt.Total)
		}
	}

	average := decimal.Zero
	if len(sales) > 0 {
		average = gross.Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
	}

	report := &SessionReport{
		ReportType:       typ,
		GeneratedAt:      time.Now(),
		SessionID:        session.ID,
		SessionNumber:    session.SessionNumber,
		CashierID:        session.CashierID,
		OpenedAt:         session.OpenedAt,
		OpeningCash:      session.OpeningCash,
		ExpectedCash:     expected,
		GrossSales:       gross,
		TransactionCount: int64(len(sales)),
		VoidCount:        voidCount,
		RefundTotal:      refundTotal,
		DiscountTotal:    discount,
		TaxTotal:         tax,
		AverageSale:      average,
		ByMethod:         byMethod,
	}
	if session.Terminal != nil {
		report.TerminalCode = session.Terminal.Code
	}
	return report, nil
}
