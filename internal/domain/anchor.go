package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceAnchor pins an account's balance to a known value as of a
// specific date -- set by a reconciliation, a statement import, or
// account creation. When an account has an anchor, the balance engine
// reconstructs from the nearest one plus the deltas between that
// anchor and the query date; with no anchor at all it falls back to
// the direct sum of every posting up to the query date.
type BalanceAnchor struct {
	TenantID  string
	ID        int64
	AccountID int64
	Date      time.Time
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// BalanceAnchorRepository is the C4 storage surface for anchors.
type BalanceAnchorRepository interface {
	Create(ctx context.Context, anchor *BalanceAnchor) (*BalanceAnchor, error)

	// NearestAtOrBefore returns the latest anchor for accountID with
	// Date <= date, or ErrNotFound if none exists.
	NearestAtOrBefore(ctx context.Context, tenantID string, accountID int64, date time.Time) (*BalanceAnchor, error)

	// NearestAfter returns the earliest anchor for accountID with
	// Date > date, or ErrNotFound if none exists.
	NearestAfter(ctx context.Context, tenantID string, accountID int64, date time.Time) (*BalanceAnchor, error)

	List(ctx context.Context, tenantID string, accountID int64) ([]*BalanceAnchor, error)
}
