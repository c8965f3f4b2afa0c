package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodType is the cube's granularity. Every cell belongs to exactly
// one period type; the two are maintained independently.
type PeriodType string

const (
	PeriodWeekly  PeriodType = "WEEKLY"
	PeriodMonthly PeriodType = "MONTHLY"
)

var ValidPeriodTypes = map[PeriodType]bool{
	PeriodWeekly:  true,
	PeriodMonthly: true,
}

// PeriodStart floors t to the start of its period: the Monday for
// WEEKLY, the first of the month for MONTHLY. Both return UTC
// midnight.
func PeriodStart(periodType PeriodType, t time.Time) time.Time {
	t = t.UTC()
	switch periodType {
	case PeriodWeekly:
		offset := (int(t.Weekday()) + 6) % 7 // days since Monday
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return d.AddDate(0, 0, -offset)
	default: // PeriodMonthly
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

// PeriodEnd returns the exclusive end of the period starting at start.
func PeriodEnd(periodType PeriodType, start time.Time) time.Time {
	switch periodType {
	case PeriodWeekly:
		return start.AddDate(0, 0, 7)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// CubeCell is one pre-aggregated dimensional bucket: a unique
// (tenant, period type, period start, account, category, type,
// is_recurring) tuple with its summed amount and posting count.
type CubeCell struct {
	TenantID         string
	ID               int64
	PeriodType       PeriodType
	PeriodStart      time.Time
	AccountID        int64
	AccountName      string
	CategoryID       *int64
	CategoryName     *string
	Type             EntryType
	IsRecurring      bool
	TotalAmount      decimal.Decimal
	TransactionCount int64
	UpdatedAt        time.Time
}

// RegenerationTarget identifies one cube cell's dimensional key --
// everything needed to delete the stale cell and re-run the
// aggregation query that replaces it. Within one change descriptor,
// projections that resolve to the same key collapse into one target.
type RegenerationTarget struct {
	PeriodType  PeriodType
	PeriodStart time.Time
	AccountID   int64
	CategoryID  *int64
	Type        EntryType
	IsRecurring bool
}

// CubeQueryFilters narrows a cube read.
type CubeQueryFilters struct {
	PeriodType  PeriodType
	Start       time.Time
	End         time.Time
	AccountID   *int64
	CategoryID  *int64
	Type        *EntryType
	IsRecurring *bool
}

// CubeRepository is the C4 storage surface for the cube table.
type CubeRepository interface {
	// DeleteCell removes the single cell at target's key, if present,
	// within the caller's transaction. Absence is not an error: a
	// target with no prior activity has no cell to delete.
	DeleteCell(ctx context.Context, tenantID string, target RegenerationTarget) error

	// UpsertCell writes or replaces the cell at target's key with the
	// given totals. Called only with a non-zero TransactionCount --
	// callers skip the upsert entirely when regeneration finds no rows.
	UpsertCell(ctx context.Context, tenantID string, target RegenerationTarget, accountName string, categoryName *string, total decimal.Decimal, count int64) error

	Query(ctx context.Context, tenantID string, filters CubeQueryFilters) ([]*CubeCell, error)

	// SumAll sums TotalAmount across every cell of periodType whose
	// PeriodStart lies in [start, end] (both bounds inclusive), used by
	// cube/ledger consistency validation.
	SumAll(ctx context.Context, tenantID string, periodType PeriodType, start, end time.Time) (decimal.Decimal, error)

	// EarliestActivity returns the UTC date of the tenant's oldest
	// transaction, the backfill walk's starting point, or ErrNotFound
	// if the tenant has no transactions at all.
	EarliestActivity(ctx context.Context, tenantID string) (time.Time, error)
}
