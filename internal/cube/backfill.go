package cube

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/pacing"
	"github.com/dafibh/fortuna/cubeadmin/internal/tenant"
)

// Backfill walks every period between a tenant's earliest transaction
// and today, for both period types, and (re)writes every cell that
// period's ledger activity produces. It is how a tenant's cube is
// built the first time, and how it is repaired after
// ValidateConsistency reports drift. Only cells that some ledger row
// still maps to are rewritten; a cell with no remaining rows is not
// deleted. A period that fails is logged at Warn and skipped, and the
// walk goes on with the next period. pacer throttles the walk so one
// tenant's backfill cannot starve concurrent traffic for every other
// tenant sharing the pool.
func (e *Engine) Backfill(ctx context.Context, tenantID string, pacer *pacing.Pacer) error {
	if err := tenant.Validate(tenantID); err != nil {
		return err
	}

	earliest, err := e.cube.EarliestActivity(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	now := time.Now().UTC()
	for _, pt := range periodTypes {
		period := domain.PeriodStart(pt, earliest)
		for period.Before(now) {
			if err := pacer.Wait(ctx, tenantID); err != nil {
				return err
			}
			if err := e.backfillPeriod(ctx, tenantID, pt, period); err != nil {
				log.Warn().Err(err).Str("tenant_id", tenantID).Str("period_type", string(pt)).
					Time("period_start", period).Msg("skipping cube period that failed to backfill")
			}
			period = domain.PeriodEnd(pt, period)
		}
	}
	return nil
}

func (e *Engine) backfillPeriod(ctx context.Context, tenantID string, periodType domain.PeriodType, periodStart time.Time) error {
	periodEnd := domain.PeriodEnd(periodType, periodStart)
	rows, err := e.transactions.AggregateAll(ctx, tenantID, periodStart, periodEnd)
	if err != nil {
		return err
	}

	log.Debug().
		Str("tenant_id", tenantID).
		Str("period_type", string(periodType)).
		Time("period_start", periodStart).
		Int("cells", len(rows)).
		Msg("backfilling cube period")

	for _, row := range rows {
		target := domain.RegenerationTarget{
			PeriodType:  periodType,
			PeriodStart: periodStart,
			AccountID:   row.AccountID,
			CategoryID:  row.CategoryID,
			Type:        row.Type,
			IsRecurring: row.IsRecurring,
		}
		if err := e.cube.DeleteCell(ctx, tenantID, target); err != nil {
			return err
		}
		if err := e.cube.UpsertCell(ctx, tenantID, target, row.AccountName, row.CategoryName, row.TotalAmount, row.TransactionCount); err != nil {
			return err
		}
	}
	return nil
}
