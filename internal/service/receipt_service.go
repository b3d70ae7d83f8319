package service

import (
	"context"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReceiptRenderer turns a transaction and its receipt record into a printable
// document.
type ReceiptRenderer interface {
	Render(txn *model.Transaction, receipt *model.Receipt) ([]byte, error)
}

// ReceiptMailer hands receipt delivery off to the background queue.
type ReceiptMailer interface {
	EnqueueReceiptEmail(ctx context.Context, receiptID uuid.UUID, to string) error
}

// ReceiptService issues receipt records and handles reprints, rendering and
// email delivery.
type ReceiptService interface {
	ReceiptIssuer
	Get(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Receipt, error)
	Reprint(ctx context.Context, receiptID uuid.UUID) (*model.Receipt, error)
	Render(ctx context.Context, receiptID uuid.UUID) ([]byte, *model.Receipt, error)
	Email(ctx context.Context, receiptID uuid.UUID, to string) (*model.Receipt, error)
}

type receiptService struct {
	repo         repository.ReceiptRepository
	txRepo       repository.TransactionRepository
	terminalRepo repository.TerminalRepository
	renderer     ReceiptRenderer
	mailer       ReceiptMailer
	headerText   string
}

func NewReceiptService(
	repo repository.ReceiptRepository,
	txRepo repository.TransactionRepository,
	terminalRepo repository.TerminalRepository,
	renderer ReceiptRenderer,
	mailer ReceiptMailer,
	headerText string,
) ReceiptService {
	return &receiptService{
		repo:         repo,
		txRepo:       txRepo,
		terminalRepo: terminalRepo,
		renderer:     renderer,
		mailer:       mailer,
		headerText:   headerText,
	}
}

// IssueTx writes the receipt record inside the caller's atomic unit. The
// footer comes from the terminal configuration at issue time.
func (s *receiptService) IssueTx(ctx context.Context, tx *gorm.DB, txn *model.Transaction, typ model.ReceiptType) (*model.Receipt, error) {
	footer := ""
	if terminal, err := s.terminalRepo.FindByID(ctx, txn.TerminalID); err == nil {
		footer = terminal.ReceiptFooter
	}

	receipt := &model.Receipt{
		TransactionID: txn.ID,
		ReceiptNumber: model.NewReceiptNumber(time.Now()),
		Type:          typ,
		HeaderText:    s.headerText,
		FooterText:    footer,
	}
	if err := s.repo.Create(ctx, tx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *receiptService) Get(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "receipt"}
	}
	return receipt, nil
}

func (s *receiptService) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Receipt, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}

// Reprint marks another print of an existing receipt. The duplicate count
// lives on the record so audits can see how often a document was reissued.
func (s *receiptService) Reprint(ctx context.Context, receiptID uuid.UUID) (*model.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, &NotFoundError{Entity: "receipt"}
	}

	now := time.Now()
	receipt.IsPrinted = true
	receipt.PrintedCount++
	receipt.LastPrintedAt = &now
	if err := s.repo.Update(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *receiptService) Render(ctx context.Context, receiptID uuid.UUID) ([]byte, *model.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, nil, &NotFoundError{Entity: "receipt"}
	}
	txn, err := s.txRepo.FindByID(ctx, receipt.TransactionID)
	if err != nil {
		return nil, nil, &NotFoundError{Entity: "transaction"}
	}
	pdf, err := s.renderer.Render(txn, receipt)
	if err != nil {
		return nil, nil, err
	}
	return pdf, receipt, nil
}

// Email queues the receipt for delivery and records the target address.
func (s *receiptService) Email(ctx context.Context, receiptID uuid.UUID, to string) (*model.Receipt, error) {
	receipt, err := s.repo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, &NotFoundError{Entity: "receipt"}
	}
	if to == "" {
		return nil, &ValidationError{Msg: "recipient email is required"}
	}

	if err := s.mailer.EnqueueReceiptEmail(ctx, receipt.ID, to); err != nil {
		return nil, err
	}

	receipt.EmailedTo = to
	if err := s.repo.Update(ctx, receipt); err != nil {
		log.Warn().Err(err).
			Str("receipt", receipt.ReceiptNumber).
			Msg("failed to record email target on receipt")
	}
	return receipt, nil
}
