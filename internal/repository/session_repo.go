package repository

import (
	"context"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	// FindActiveByTerminal returns gorm.ErrRecordNotFound when the terminal
	// has no active session.
	FindActiveByTerminal(ctx context.Context, terminalID uuid.UUID) (*model.Session, error)
	FindActiveByCashier(ctx context.Context, cashierID uuid.UUID) (*model.Session, error)
	Update(ctx context.Context, tx *gorm.DB, s *model.Session) error
	ListClosed(ctx context.Context, page, limit int) ([]model.Session, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Session) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).Preload("Terminal").First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindActiveByTerminal(ctx context.Context, terminalID uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("terminal_id = ? AND status = ?", terminalID, model.SessionActive).
		Preload("Terminal").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) FindActiveByCashier(ctx context.Context, cashierID uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierID, model.SessionActive).
		Preload("Terminal").
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Update(ctx context.Context, tx *gorm.DB, s *model.Session) error {
	return tx.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) ListClosed(ctx context.Context, page, limit int) ([]model.Session, int64, error) {
	var sessions []model.Session
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Session{}).Where("status = ?", model.SessionClosed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("closed_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	return sessions, total, err
}
