package repository

import (
	"context"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RefundRepository interface {
	Create(ctx context.Context, tx *gorm.DB, r *model.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Refund, error)
	Update(ctx context.Context, tx *gorm.DB, r *model.Refund) error
	// ListBySession joins through the original transaction.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Refund, error)
	SumCompletedBySession(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error)
	// SumRefundedQuantity returns the total quantity already refunded
	// against one original line across all non-rejected refunds.
	SumRefundedQuantity(ctx context.Context, originalLineID uuid.UUID) (decimal.Decimal, error)
}

type refundRepo struct{ db *gorm.DB }

func NewRefundRepository(db *gorm.DB) RefundRepository { return &refundRepo{db: db} }

func (r *refundRepo) Create(ctx context.Context, tx *gorm.DB, ref *model.Refund) error {
	return tx.WithContext(ctx).Create(ref).Error
}

func (r *refundRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Refund, error) {
	var ref model.Refund
	err := r.db.WithContext(ctx).Preload("Lines").First(&ref, id).Error
	return &ref, err
}

func (r *refundRepo) Update(ctx context.Context, tx *gorm.DB, ref *model.Refund) error {
	return tx.WithContext(ctx).Save(ref).Error
}

func (r *refundRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Refund, error) {
	var refunds []model.Refund
	err := r.db.WithContext(ctx).
		Joins("JOIN transactions ON transactions.id = refunds.original_transaction_id").
		Where("transactions.session_id = ?", sessionID).
		Preload("Lines").
		Find(&refunds).Error
	return refunds, err
}

func (r *refundRepo) SumCompletedBySession(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Model(&model.Refund{}).
		Select("COALESCE(SUM(refunds.amount), 0) AS total").
		Joins("JOIN transactions ON transactions.id = refunds.original_transaction_id").
		Where("transactions.session_id = ? AND refunds.status = ?", sessionID, model.RefundCompleted).
		Scan(&row).Error
	return row.Total, err
}

func (r *refundRepo) SumRefundedQuantity(ctx context.Context, originalLineID uuid.UUID) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).
		Model(&model.RefundLine{}).
		Select("COALESCE(SUM(refund_lines.quantity), 0) AS total").
		Joins("JOIN refunds ON refunds.id = refund_lines.refund_id").
		Where("refund_lines.original_line_id = ? AND refunds.status <> ?", originalLineID, model.RefundRejected).
		Scan(&row).Error
	return row.Total, err
}
