package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account kinds the ledger supports.
type AccountType string

const (
	AccountTypeChecking              AccountType = "CHECKING"
	AccountTypeSavings               AccountType = "SAVINGS"
	AccountTypeCredit                AccountType = "CREDIT"
	AccountTypeCreditCard            AccountType = "CREDIT_CARD"
	AccountTypeInvestment            AccountType = "INVESTMENT"
	AccountTypeLoan                  AccountType = "LOAN"
	AccountTypeCash                  AccountType = "CASH"
	AccountTypeTraditionalRetirement AccountType = "TRADITIONAL_RETIREMENT"
	AccountTypeRothRetirement        AccountType = "ROTH_RETIREMENT"
)

// ValidAccountTypes is the closed set, used for input validation.
var ValidAccountTypes = map[AccountType]bool{
	AccountTypeChecking:              true,
	AccountTypeSavings:               true,
	AccountTypeCredit:                true,
	AccountTypeCreditCard:            true,
	AccountTypeInvestment:            true,
	AccountTypeLoan:                  true,
	AccountTypeCash:                  true,
	AccountTypeTraditionalRetirement: true,
	AccountTypeRothRetirement:        true,
}

// NetWorthCategory buckets an account for net-worth reporting above
// the core.
type NetWorthCategory string

const (
	NetWorthAsset     NetWorthCategory = "ASSET"
	NetWorthLiability NetWorthCategory = "LIABILITY"
	NetWorthExcluded  NetWorthCategory = "EXCLUDED"
)

// ValidNetWorthCategories is the closed set, used for input validation.
var ValidNetWorthCategories = map[NetWorthCategory]bool{
	NetWorthAsset:     true,
	NetWorthLiability: true,
	NetWorthExcluded:  true,
}

// DefaultNetWorthCategory derives the net-worth bucket for an account
// type when the caller doesn't supply one explicitly: credit-style and
// loan accounts default to LIABILITY, everything else to ASSET.
func DefaultNetWorthCategory(t AccountType) NetWorthCategory {
	switch t {
	case AccountTypeCredit, AccountTypeCreditCard, AccountTypeLoan:
		return NetWorthLiability
	default:
		return NetWorthAsset
	}
}

// Account is identified by (TenantID, ID).
type Account struct {
	TenantID         string
	ID               int64
	Name             string
	Type             AccountType
	NetWorthCategory NetWorthCategory
	Balance          decimal.Decimal
	BalanceDate      time.Time
	Color            string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AccountFilters narrows ListAccounts.
type AccountFilters struct {
	Type   *AccountType
	Active *bool
	Search string
}

// AccountRepository is the C4 storage surface for accounts. Every
// method takes tenantID as its first argument; implementations must
// refuse to build a query without one.
type AccountRepository interface {
	List(ctx context.Context, tenantID string, filters AccountFilters) ([]*Account, error)
	Get(ctx context.Context, tenantID string, id int64) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, tenantID string, id int64, mutate func(*Account)) (*Account, error)
	Delete(ctx context.Context, tenantID string, id int64) error

	// ExistsActiveByName reports whether an active account with the
	// given name already exists, excluding the given id (used on
	// update; pass 0 on create).
	ExistsActiveByName(ctx context.Context, tenantID string, name string, excludeID int64) (bool, error)

	// HasTransactions reports whether any transaction references the
	// account, used to enforce the delete-conflict invariant.
	HasTransactions(ctx context.Context, tenantID string, accountID int64) (bool, error)
}
