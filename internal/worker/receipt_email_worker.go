package worker

// receipt_email_worker.go
// Processes receipt delivery jobs from QueueReceiptEmail: renders the receipt
// PDF and sends it to the customer over SMTP.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/silaschege/salescompass-sub004/internal/infra"
	"github.com/silaschege/salescompass-sub004/internal/repository"
	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptEmailWorker processes receipt email jobs from QueueReceiptEmail.
type ReceiptEmailWorker struct {
	receiptRepo repository.ReceiptRepository
	txRepo      repository.TransactionRepository
	renderer    service.ReceiptRenderer
	mailer      *infra.Mailer
	storeName   string
}

func NewReceiptEmailWorker(
	receiptRepo repository.ReceiptRepository,
	txRepo repository.TransactionRepository,
	renderer service.ReceiptRenderer,
	mailer *infra.Mailer,
	storeName string,
) *ReceiptEmailWorker {
	return &ReceiptEmailWorker{
		receiptRepo: receiptRepo,
		txRepo:      txRepo,
		renderer:    renderer,
		mailer:      mailer,
		storeName:   storeName,
	}
}

// Process renders the receipt PDF and emails it as an attachment.
func (w *ReceiptEmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_email_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("receipt_email_worker: empty to_email, skipping")
		return nil
	}
	receiptID, err := uuid.Parse(payload.ReceiptID)
	if err != nil {
		log.Error().Str("receipt_id", payload.ReceiptID).Msg("receipt_email_worker: invalid receipt_id")
		return nil
	}

	receipt, err := w.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("load receipt %s: %w", payload.ReceiptID, err)
	}
	txn, err := w.txRepo.FindByID(ctx, receipt.TransactionID)
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", receipt.TransactionID, err)
	}

	pdf, err := w.renderer.Render(txn, receipt)
	if err != nil {
		return fmt.Errorf("render receipt %s: %w", receipt.ReceiptNumber, err)
	}

	subject := fmt.Sprintf("%s - receipt %s", w.storeName, receipt.ReceiptNumber)
	body := fmt.Sprintf("Attached is your receipt for transaction %s.\nTotal: $%s",
		txn.TransactionNumber, txn.TotalAmount.StringFixed(2))
	filename := receipt.ReceiptNumber + ".pdf"

	if err := w.mailer.SendReceipt(payload.ToEmail, subject, body, pdf, filename); err != nil {
		return fmt.Errorf("send receipt %s to %s: %w", receipt.ReceiptNumber, payload.ToEmail, err)
	}

	log.Info().
		Str("to", payload.ToEmail).
		Str("receipt", receipt.ReceiptNumber).
		Msg("receipt_email_worker: receipt emailed")
	return nil
}
