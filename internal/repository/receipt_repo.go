package repository

import (
	"context"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReceiptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, rec *model.Receipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Receipt, error)
	Update(ctx context.Context, rec *model.Receipt) error
}

type receiptRepo struct{ db *gorm.DB }

func NewReceiptRepository(db *gorm.DB) ReceiptRepository { return &receiptRepo{db: db} }

func (r *receiptRepo) Create(ctx context.Context, tx *gorm.DB, rec *model.Receipt) error {
	return tx.WithContext(ctx).Create(rec).Error
}

func (r *receiptRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	var rec model.Receipt
	err := r.db.WithContext(ctx).First(&rec, id).Error
	return &rec, err
}

func (r *receiptRepo) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.Receipt, error) {
	var receipts []model.Receipt
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepo) Update(ctx context.Context, rec *model.Receipt) error {
	return r.db.WithContext(ctx).Save(rec).Error
}
