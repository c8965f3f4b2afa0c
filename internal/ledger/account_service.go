// Package ledger implements C1, the ledger service: validated CRUD
// over accounts, categories, and transactions, plus the bulk
// operations and reconciliation flow that emit the ChangeDescriptors
// the cube engine consumes.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/tenant"
)

// AccountService handles account CRUD and reconciliation.
type AccountService struct {
	accounts domain.AccountRepository
	anchors  domain.BalanceAnchorRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts domain.AccountRepository, anchors domain.BalanceAnchorRepository) *AccountService {
	return &AccountService{accounts: accounts, anchors: anchors}
}

// CreateAccountInput holds the input for CreateAccount.
type CreateAccountInput struct {
	Name             string
	Type             domain.AccountType
	NetWorthCategory *domain.NetWorthCategory // nil uses domain.DefaultNetWorthCategory(Type)
	Balance          decimal.Decimal
	BalanceDate      time.Time
	Color            string
}

func validateName(name string, max int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > max {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}

// CreateAccount validates and creates a new account. An account's
// initial Balance and BalanceDate become its first balance anchor, so
// the balance engine has somewhere to reconstruct from.
func (s *AccountService) CreateAccount(ctx context.Context, tenantID string, input CreateAccountInput) (*domain.Account, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}

	name, err := validateName(input.Name, domain.MaxAccountNameLength)
	if err != nil {
		return nil, err
	}
	if !domain.ValidAccountTypes[input.Type] {
		return nil, domain.ErrInvalidAccountType
	}
	netWorthCategory := domain.DefaultNetWorthCategory(input.Type)
	if input.NetWorthCategory != nil {
		if !domain.ValidNetWorthCategories[*input.NetWorthCategory] {
			return nil, domain.ErrInvalidNetWorthCategory
		}
		netWorthCategory = *input.NetWorthCategory
	}

	exists, err := s.accounts.ExistsActiveByName(ctx, tenantID, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUniqueViolation
	}

	account := &domain.Account{
		TenantID:         tenantID,
		Name:             name,
		Type:             input.Type,
		NetWorthCategory: netWorthCategory,
		Balance:          input.Balance,
		BalanceDate:      input.BalanceDate.UTC(),
		Color:            input.Color,
		IsActive:         true,
	}
	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	if _, err := s.anchors.Create(ctx, &domain.BalanceAnchor{
		TenantID:  tenantID,
		AccountID: created.ID,
		Date:      created.BalanceDate,
		Balance:   created.Balance,
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// ListAccounts returns every account matching filters.
func (s *AccountService) ListAccounts(ctx context.Context, tenantID string, filters domain.AccountFilters) ([]*domain.Account, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return s.accounts.List(ctx, tenantID, filters)
}

// GetAccount returns a single account.
func (s *AccountService) GetAccount(ctx context.Context, tenantID string, id int64) (*domain.Account, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return s.accounts.Get(ctx, tenantID, id)
}

// UpdateAccountInput holds the mutable account fields; nil leaves the
// field unchanged.
type UpdateAccountInput struct {
	Name             *string
	NetWorthCategory *domain.NetWorthCategory
	Color            *string
	IsActive         *bool
}

// UpdateAccount applies a partial update to an account's metadata.
// Balance and BalanceDate are never edited directly -- only through
// ReconcileAccount, which anchors a new observed balance.
func (s *AccountService) UpdateAccount(ctx context.Context, tenantID string, id int64, input UpdateAccountInput) (*domain.Account, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateName(*input.Name, domain.MaxAccountNameLength)
		if err != nil {
			return nil, err
		}
		exists, err := s.accounts.ExistsActiveByName(ctx, tenantID, name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrUniqueViolation
		}
		input.Name = &name
	}
	if input.NetWorthCategory != nil && !domain.ValidNetWorthCategories[*input.NetWorthCategory] {
		return nil, domain.ErrInvalidNetWorthCategory
	}

	return s.accounts.Update(ctx, tenantID, id, func(a *domain.Account) {
		if input.Name != nil {
			a.Name = *input.Name
		}
		if input.NetWorthCategory != nil {
			a.NetWorthCategory = *input.NetWorthCategory
		}
		if input.Color != nil {
			a.Color = *input.Color
		}
		if input.IsActive != nil {
			a.IsActive = *input.IsActive
		}
	})
}

// DeleteAccount removes an account, refusing if any transaction still
// references it.
func (s *AccountService) DeleteAccount(ctx context.Context, tenantID string, id int64) error {
	if err := tenant.Validate(tenantID); err != nil {
		return err
	}
	has, err := s.accounts.HasTransactions(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if has {
		return domain.ErrConflict
	}
	return s.accounts.Delete(ctx, tenantID, id)
}

// ReconcileAccount anchors an observed balance as of date, letting the
// balance engine reconstruct every point-in-time balance after it
// without replaying the full transaction history each time.
func (s *AccountService) ReconcileAccount(ctx context.Context, tenantID string, accountID int64, date time.Time, balance decimal.Decimal) (*domain.BalanceAnchor, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	date = date.UTC()
	if date.After(time.Now().UTC()) {
		return nil, domain.ErrFutureReconcileDate
	}
	if _, err := s.accounts.Get(ctx, tenantID, accountID); err != nil {
		return nil, err
	}
	return s.anchors.Create(ctx, &domain.BalanceAnchor{
		TenantID:  tenantID,
		AccountID: accountID,
		Date:      date,
		Balance:   balance,
	})
}
