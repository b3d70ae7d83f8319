package repository

import (
	"context"

	"github.com/silaschege/salescompass-sub004/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DrawerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, d *model.CashDrawer) error
	// FindByTerminal returns gorm.ErrRecordNotFound when the terminal has no
	// drawer yet.
	FindByTerminal(ctx context.Context, terminalID uuid.UUID) (*model.CashDrawer, error)
	Update(ctx context.Context, tx *gorm.DB, d *model.CashDrawer) error
	// Movements are immutable — no Update/Delete.
	CreateMovement(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, drawerID uuid.UUID) ([]model.CashMovement, error)
}

type drawerRepo struct{ db *gorm.DB }

func NewDrawerRepository(db *gorm.DB) DrawerRepository { return &drawerRepo{db: db} }

func (r *drawerRepo) Create(ctx context.Context, tx *gorm.DB, d *model.CashDrawer) error {
	return tx.WithContext(ctx).Create(d).Error
}

func (r *drawerRepo) FindByTerminal(ctx context.Context, terminalID uuid.UUID) (*model.CashDrawer, error) {
	var d model.CashDrawer
	err := r.db.WithContext(ctx).Where("terminal_id = ?", terminalID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *drawerRepo) Update(ctx context.Context, tx *gorm.DB, d *model.CashDrawer) error {
	return tx.WithContext(ctx).Save(d).Error
}

func (r *drawerRepo) CreateMovement(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return tx.WithContext(ctx).Create(m).Error
}

func (r *drawerRepo) ListMovements(ctx context.Context, drawerID uuid.UUID) ([]model.CashMovement, error) {
	var movements []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("drawer_id = ?", drawerID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}
