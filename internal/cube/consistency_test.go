package cube

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/pacing"
)

func TestValidateConsistency_AgreesAfterApplyChange(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tx := f.addTxn(t, date, decimal.NewFromInt(-40))
	proj := domain.ProjectionOf(tx)
	if err := f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeCreate, New: &proj}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	start := domain.PeriodStart(domain.PeriodMonthly, date)
	end := domain.PeriodEnd(domain.PeriodMonthly, start)
	if err := f.engine.ValidateConsistency(t.Context(), testTenant, domain.PeriodMonthly, start, end); err != nil {
		t.Errorf("expected cube and ledger to agree after ApplyChange, got %v", err)
	}
}

func TestValidateConsistency_DetectsDriftAfterBypassedWrite(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	f.addTxn(t, date, decimal.NewFromInt(-40))
	// No ApplyChange call: the ledger row exists but no cell was ever
	// written for it, simulating a write that bypassed the cube engine.

	start := domain.PeriodStart(domain.PeriodMonthly, date)
	end := domain.PeriodEnd(domain.PeriodMonthly, start)
	err := f.engine.ValidateConsistency(t.Context(), testTenant, domain.PeriodMonthly, start, end)
	if !errors.Is(err, domain.ErrCubeInconsistency) {
		t.Errorf("expected ErrCubeInconsistency, got %v", err)
	}
}

func TestReconcile_RepairsDriftFoundByValidateConsistency(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	f.addTxn(t, date, decimal.NewFromInt(-40))

	start := domain.PeriodStart(domain.PeriodMonthly, date)
	end := domain.PeriodEnd(domain.PeriodMonthly, start)
	if err := f.engine.ValidateConsistency(t.Context(), testTenant, domain.PeriodMonthly, start, end); !errors.Is(err, domain.ErrCubeInconsistency) {
		t.Fatalf("expected drift before reconciling, got %v", err)
	}

	pacer := pacing.New(1000, 10)
	defer pacer.Stop()
	if err := f.engine.Reconcile(t.Context(), testTenant, pacer); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := f.engine.ValidateConsistency(t.Context(), testTenant, domain.PeriodMonthly, start, end); err != nil {
		t.Errorf("expected cube to agree with the ledger after Reconcile, got %v", err)
	}
}
