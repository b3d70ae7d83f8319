package repository

import (
	"context"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MethodTotal is a per-payment-method aggregate used by session close and
// the X/Z reports.
type MethodTotal struct {
	Method model.PaymentMethod
	Total  decimal.Decimal
	Count  int64
}

// HourlyBucket groups completed transactions by hour for the X report.
type HourlyBucket struct {
	Hour  time.Time
	Total decimal.Decimal
	Count int64
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	Save(ctx context.Context, tx *gorm.DB, t *model.Transaction) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, status model.TransactionStatus) ([]model.Transaction, error)
	CountBySessionStatus(ctx context.Context, sessionID uuid.UUID, status model.TransactionStatus) (int64, error)

	FindLine(ctx context.Context, lineID uuid.UUID) (*model.TransactionLine, error)
	SaveLine(ctx context.Context, tx *gorm.DB, l *model.TransactionLine) error
	DeleteLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error

	// Payments are append-only; there is deliberately no update or delete.
	CreatePayment(ctx context.Context, tx *gorm.DB, p *model.Payment) error
	SumPaymentsByMethod(ctx context.Context, sessionID uuid.UUID) ([]MethodTotal, error)
	HourlySales(ctx context.Context, sessionID uuid.UUID) ([]HourlyBucket, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) Create(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return tx.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Payments").
		First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) Save(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return tx.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(t).Error
}

func (r *transactionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, status model.TransactionStatus) ([]model.Transaction, error) {
	var txns []model.Transaction
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Preload("Lines").Preload("Payments").Order("created_at ASC").Find(&txns).Error
	return txns, err
}

func (r *transactionRepo) CountBySessionStatus(ctx context.Context, sessionID uuid.UUID, status model.TransactionStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("session_id = ? AND status = ?", sessionID, status).
		Count(&n).Error
	return n, err
}

func (r *transactionRepo) FindLine(ctx context.Context, lineID uuid.UUID) (*model.TransactionLine, error) {
	var l model.TransactionLine
	err := r.db.WithContext(ctx).First(&l, lineID).Error
	return &l, err
}

func (r *transactionRepo) SaveLine(ctx context.Context, tx *gorm.DB, l *model.TransactionLine) error {
	return tx.WithContext(ctx).Save(l).Error
}

func (r *transactionRepo) DeleteLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error {
	return tx.WithContext(ctx).Delete(&model.TransactionLine{}, lineID).Error
}

func (r *transactionRepo) CreatePayment(ctx context.Context, tx *gorm.DB, p *model.Payment) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *transactionRepo) SumPaymentsByMethod(ctx context.Context, sessionID uuid.UUID) ([]MethodTotal, error) {
	var rows []MethodTotal
	err := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Select("payments.method AS method, SUM(payments.amount) AS total, COUNT(payments.id) AS count").
		Joins("JOIN transactions ON transactions.id = payments.transaction_id").
		Where("transactions.session_id = ? AND payments.status = ?", sessionID, model.PaymentCompleted).
		Group("payments.method").
		Scan(&rows).Error
	return rows, err
}

func (r *transactionRepo) HourlySales(ctx context.Context, sessionID uuid.UUID) ([]HourlyBucket, error) {
	var rows []HourlyBucket
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Select("date_trunc('hour', completed_at) AS hour, SUM(total_amount) AS total, COUNT(id) AS count").
		Where("session_id = ? AND status = ?", sessionID, model.TxCompleted).
		Group("date_trunc('hour', completed_at)").
		Order("hour ASC").
		Scan(&rows).Error
	return rows, err
}
