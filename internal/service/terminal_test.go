package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTerminalService() (service.TerminalService, *stubTerminalRepo) {
	repo := newStubTerminalRepo()
	return service.NewTerminalService(repo), repo
}

func TestTerminalRegister(t *testing.T) {
	svc, _ := newTerminalService()

	terminal, err := svc.Register(context.Background(), "Front Counter", "POS-01", uuid.New(), "ground floor")
	require.NoError(t, err)

	assert.True(t, terminal.IsActive)
	assert.True(t, terminal.AutoPrintReceipt)
	assert.False(t, terminal.IsOnline)
}

func TestTerminalRegisterDuplicateCode(t *testing.T) {
	svc, _ := newTerminalService()
	_, err := svc.Register(context.Background(), "Front Counter", "POS-01", uuid.New(), "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Back Office", "POS-01", uuid.New(), "")

	var cerr *service.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestTerminalRegisterValidation(t *testing.T) {
	svc, _ := newTerminalService()

	var verr *service.ValidationError

	_, err := svc.Register(context.Background(), "", "POS-01", uuid.New(), "")
	require.ErrorAs(t, err, &verr)

	_, err = svc.Register(context.Background(), "Front Counter", "POS-01", uuid.Nil, "")
	require.ErrorAs(t, err, &verr)
}

func TestTerminalUpdatePartial(t *testing.T) {
	svc, _ := newTerminalService()
	terminal, err := svc.Register(context.Background(), "Front Counter", "POS-01", uuid.New(), "")
	require.NoError(t, err)

	allowNegative := true
	footer := "No returns after 30 days"
	updated, err := svc.Update(context.Background(), terminal.ID, service.TerminalUpdate{
		AllowNegativeStock: &allowNegative,
		ReceiptFooter:      &footer,
	})
	require.NoError(t, err)

	assert.True(t, updated.AllowNegativeStock)
	assert.Equal(t, footer, updated.ReceiptFooter)
	// Untouched fields keep their values.
	assert.Equal(t, "Front Counter", updated.Name)
	assert.True(t, updated.IsActive)
}

func TestTerminalHeartbeatAndMarkStale(t *testing.T) {
	svc, repo := newTerminalService()
	terminal, err := svc.Register(context.Background(), "Front Counter", "POS-01", uuid.New(), "")
	require.NoError(t, err)

	beat, err := svc.Heartbeat(context.Background(), terminal.ID)
	require.NoError(t, err)
	assert.True(t, beat.IsOnline)
	require.NotNil(t, beat.LastHeartbeat)

	// A fresh heartbeat survives the sweep.
	marked, err := svc.MarkStale(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Zero(t, marked)
	assert.True(t, repo.terminals[terminal.ID].IsOnline)

	// Age the heartbeat past the cutoff.
	stale := time.Now().Add(-2 * time.Minute)
	repo.terminals[terminal.ID].LastHeartbeat = &stale

	marked, err = svc.MarkStale(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, marked)
	assert.False(t, repo.terminals[terminal.ID].IsOnline)
}
