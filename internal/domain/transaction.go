package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger posting, identified by (TenantID, ID).
// Amount carries the sign that equals its balance impact: INCOME
// positive, EXPENSE negative (refund-like entries may be positive),
// TRANSFER carries whatever sign the caller gives it.
type Transaction struct {
	TenantID    string
	ID          int64
	AccountID   int64
	CategoryID  *int64
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Type        EntryType
	IsRecurring bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Projection is the cube-relevant subset of a transaction, used to
// build ChangeDescriptors and as the Old/New payload on Update.
type Projection struct {
	AccountID   int64
	CategoryID  *int64
	Amount      decimal.Decimal
	Date        time.Time
	Type        EntryType
	IsRecurring bool
}

// ProjectionOf extracts the cube-relevant projection of a transaction.
func ProjectionOf(t *Transaction) Projection {
	return Projection{
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		Amount:      t.Amount,
		Date:        t.Date,
		Type:        t.Type,
		IsRecurring: t.IsRecurring,
	}
}

// TransactionView is a transaction joined with its account and
// category names, the shape list_transactions returns to callers.
type TransactionView struct {
	Transaction
	AccountName  string
	CategoryName *string
}

// TransactionFilters narrows ListTransactions.
type TransactionFilters struct {
	AccountID   *int64
	CategoryID  *int64
	StartDate   *time.Time
	EndDate     *time.Time
	Type        *EntryType
	IsRecurring *bool
}

// ChangedField is the closed set of fields a bulk update may touch.
// Replaces runtime reflection / untyped field maps: date changes are
// excluded at the type level for bulk operations (§9 redesign flag).
type ChangedField int

const (
	FieldCategoryID ChangedField = iota
	FieldAccountID
	FieldType
	FieldAmount
	FieldIsRecurring
)

// BulkUpdateInput describes a single-field bulk mutation. Only the
// NewXxx field matching Field is read; the others are ignored.
type BulkUpdateInput struct {
	IDs             []int64
	Field           ChangedField
	NewCategoryID   *int64
	NewAccountID    int64
	NewType         EntryType
	NewAmount       decimal.Decimal
	NewIsRecurring  bool
}

// TransactionRepository is the C4 storage surface shared by the
// ledger, balance, and cube components.
type TransactionRepository interface {
	List(ctx context.Context, tenantID string, filters TransactionFilters) ([]*TransactionView, error)
	Get(ctx context.Context, tenantID string, id int64) (*Transaction, error)
	GetByIDs(ctx context.Context, tenantID string, ids []int64) ([]*Transaction, error)
	Create(ctx context.Context, t *Transaction) (*Transaction, error)
	Update(ctx context.Context, tenantID string, id int64, mutate func(*Transaction)) (old Projection, updated Projection, err error)
	Delete(ctx context.Context, tenantID string, id int64) (old Projection, err error)

	// BulkUpdateField applies the single-field mutation described by
	// input to every row in input.IDs, scoped by tenant, in one
	// UPDATE ... WHERE id IN (...) statement. Returns the old
	// projections (pre-mutation) for descriptor construction.
	BulkUpdateField(ctx context.Context, tenantID string, input BulkUpdateInput) (oldProjections []Projection, err error)

	// BulkDelete deletes the given rows, scoped by tenant, and returns
	// their pre-deletion projections.
	BulkDelete(ctx context.Context, tenantID string, ids []int64) (oldProjections []Projection, err error)

	// ForAccount returns postings for accountID within [start, end]
	// (either bound may be nil), ordered by (date ASC, id ASC,
	// description ASC) -- the only ordering ever used for
	// running-balance computation.
	ForAccount(ctx context.Context, tenantID string, accountID int64, start, end *time.Time) ([]*Transaction, error)

	// SumInRange sums signed amounts for accountID between from and to,
	// each bound included only when its Inclusive flag is set -- (anchor,
	// date] for the anchor-forward balance formula, (date, anchor] for
	// anchor-backward.
	SumInRange(ctx context.Context, tenantID string, accountID int64, from, to time.Time, fromInclusive, toInclusive bool) (decimal.Decimal, error)

	// SumAllInRange sums every posting's signed amount for a tenant
	// within [start, end], used by cube consistency validation.
	SumAllInRange(ctx context.Context, tenantID string, start, end time.Time) (decimal.Decimal, error)

	// Aggregate runs the cube regeneration query (§4.3.2): group by
	// the four id-like dimensions within [periodStart, periodEnd),
	// restricted to the given type/recurring/category-set predicate,
	// with denormalized names captured via MIN().
	Aggregate(ctx context.Context, tenantID string, periodStart, periodEnd time.Time, predicate AggregatePredicate) ([]AggregateRow, error)

	// AggregateAll runs the same GROUP BY as Aggregate but without a
	// predicate, returning one row per distinct (account, category,
	// type, is_recurring) combination active anywhere in
	// [periodStart, periodEnd). The historical backfill walk uses this
	// to discover which cells a period needs without guessing the
	// dimension combinations up front.
	AggregateAll(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]AggregateRow, error)

	// ActiveTenants returns every distinct tenant_id with at least one
	// posting dated on or after since. The reconciliation loop uses
	// this to discover which tenants need a consistency pass without
	// a caller having to enumerate them.
	ActiveTenants(ctx context.Context, since time.Time) ([]string, error)

	// GetRecentlyUsedCategories returns the tenant's distinct
	// categories ordered by most recent posting date, for a category
	// picker's suggestion list.
	GetRecentlyUsedCategories(ctx context.Context, tenantID string, limit int) ([]*RecentCategory, error)
}

// RecentCategory is one entry in a category picker's suggestion list.
type RecentCategory struct {
	ID       int64
	Name     string
	LastUsed time.Time
}

// AggregatePredicate scopes an Aggregate call to the dimensions a
// single regeneration target (or target group) shares.
type AggregatePredicate struct {
	Type        EntryType
	IsRecurring bool
	AccountID   *int64   // nil means "any account"; cube regeneration always sets it
	CategoryIDs []*int64 // nil entries mean "uncategorized"; cube regeneration passes one entry, and the Postgres implementation reads only the first
}

// AggregateRow is one GROUP BY result row from the regeneration query.
type AggregateRow struct {
	Type            EntryType
	CategoryID      *int64
	CategoryName    *string
	AccountID       int64
	AccountName     string
	IsRecurring     bool
	TotalAmount     decimal.Decimal
	TransactionCount int64
}
