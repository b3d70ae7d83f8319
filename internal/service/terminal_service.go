package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/model"
	"github.com/silaschege/salescompass-sub004/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerminalUpdate carries the mutable terminal settings; nil fields are left
// untouched.
type TerminalUpdate struct {
	Name               *string
	Location           *string
	IsActive           *bool
	AllowNegativeStock *bool
	RequireCustomer    *bool
	AutoPrintReceipt   *bool
	ReceiptFooter      *string
}

// TerminalService manages checkout station registration and liveness.
type TerminalService interface {
	Register(ctx context.Context, name, code string, warehouseID uuid.UUID, location string) (*model.Terminal, error)
	Update(ctx context.Context, id uuid.UUID, upd TerminalUpdate) (*model.Terminal, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Terminal, error)
	GetByCode(ctx context.Context, code string) (*model.Terminal, error)
	List(ctx context.Context) ([]model.Terminal, error)
	Heartbeat(ctx context.Context, id uuid.UUID) (*model.Terminal, error)
	MarkStale(ctx context.Context, cutoff time.Duration) (int, error)
}

type terminalService struct {
	repo repository.TerminalRepository
}

func NewTerminalService(repo repository.TerminalRepository) TerminalService {
	return &terminalService{repo: repo}
}

func (s *terminalService) Register(ctx context.Context, name, code string, warehouseID uuid.UUID, location string) (*model.Terminal, error) {
	if name == "" || code == "" {
		return nil, &ValidationError{Msg: "terminal name and code are required"}
	}
	if warehouseID == uuid.Nil {
		return nil, &ValidationError{Msg: "terminal requires a warehouse"}
	}
	if existing, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, &ConflictError{Msg: fmt.Sprintf("terminal code %q is taken by %s", code, existing.Name)}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	terminal := &model.Terminal{
		Name:             name,
		Code:             code,
		WarehouseID:      warehouseID,
		Location:         location,
		IsActive:         true,
		IsOnline:         false,
		AutoPrintReceipt: true,
	}
	if err := s.repo.Create(ctx, terminal); err != nil {
		return nil, err
	}
	return terminal, nil
}

func (s *terminalService) Update(ctx context.Context, id uuid.UUID, upd TerminalUpdate) (*model.Terminal, error) {
	terminal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "terminal"}
	}

	if upd.Name != nil {
		terminal.Name = *upd.Name
	}
	if upd.Location != nil {
		terminal.Location = *upd.Location
	}
	if upd.IsActive != nil {
		terminal.IsActive = *upd.IsActive
	}
	if upd.AllowNegativeStock != nil {
		terminal.AllowNegativeStock = *upd.AllowNegativeStock
	}
	if upd.RequireCustomer != nil {
		terminal.RequireCustomer = *upd.RequireCustomer
	}
	if upd.AutoPrintReceipt != nil {
		terminal.AutoPrintReceipt = *upd.AutoPrintReceipt
	}
	if upd.ReceiptFooter != nil {
		terminal.ReceiptFooter = *upd.ReceiptFooter
	}

	if err := s.repo.Update(ctx, terminal); err != nil {
		return nil, err
	}
	return terminal, nil
}

func (s *terminalService) Get(ctx context.Context, id uuid.UUID) (*model.Terminal, error) {
	terminal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "terminal"}
	}
	return terminal, nil
}

func (s *terminalService) GetByCode(ctx context.Context, code string) (*model.Terminal, error) {
	terminal, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, &NotFoundError{Entity: "terminal"}
	}
	return terminal, nil
}

func (s *terminalService) List(ctx context.Context) ([]model.Terminal, error) {
	return s.repo.List(ctx)
}

// Heartbeat records terminal liveness; stations ping periodically.
func (s *terminalService) Heartbeat(ctx context.Context, id uuid.UUID) (*model.Terminal, error) {
	terminal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "terminal"}
	}
	now := time.Now()
	terminal.IsOnline = true
	terminal.LastHeartbeat = &now
	if err := s.repo.Update(ctx, terminal); err != nil {
		return nil, err
	}
	return terminal, nil
}

// MarkStale flips terminals offline when their last heartbeat is older than
// the cutoff. Run from the background cron.
func (s *terminalService) MarkStale(ctx context.Context, cutoff time.Duration) (int, error) {
	terminals, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	deadline := time.Now().Add(-cutoff)
	marked := 0
	for i := range terminals {
		t := &terminals[i]
		if !t.IsOnline {
			continue
		}
		if t.LastHeartbeat == nil || t.LastHeartbeat.Before(deadline) {
			t.IsOnline = false
			if err := s.repo.Update(ctx, t); err != nil {
				return marked, err
			}
			marked++
		}
	}
	return marked, nil
}
