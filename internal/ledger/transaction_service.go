package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/tenant"
)

// TransactionService handles transaction CRUD and bulk mutation,
// emitting the ChangeDescriptors the cube engine uses to keep its
// pre-aggregated cells in sync with the ledger.
type TransactionService struct {
	transactions domain.TransactionRepository
	accounts     domain.AccountRepository
	categories   domain.CategoryRepository
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(transactions domain.TransactionRepository, accounts domain.AccountRepository, categories domain.CategoryRepository) *TransactionService {
	return &TransactionService{transactions: transactions, accounts: accounts, categories: categories}
}

// CreateTransactionInput holds the input for CreateTransaction.
type CreateTransactionInput struct {
	AccountID   int64
	CategoryID  *int64
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Type        domain.EntryType
	IsRecurring bool
}

func (s *TransactionService) validateRefs(ctx context.Context, tenantID string, accountID int64, categoryID *int64) error {
	if _, err := s.accounts.Get(ctx, tenantID, accountID); err != nil {
		return err
	}
	if categoryID != nil {
		if _, err := s.categories.Get(ctx, tenantID, *categoryID); err != nil {
			return err
		}
	}
	return nil
}

// CreateTransaction validates and records a new posting, returning
// both the stored row and the ChangeDescriptor for the cube engine to
// apply within the same storage transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, tenantID string, input CreateTransactionInput) (*domain.Transaction, domain.ChangeDescriptor, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, domain.ChangeDescriptor{}, err
	}
	if !domain.ValidEntryTypes[input.Type] {
		return nil, domain.ChangeDescriptor{}, domain.ErrInvalidTransactionType
	}
	if err := s.validateRefs(ctx, tenantID, input.AccountID, input.CategoryID); err != nil {
		return nil, domain.ChangeDescriptor{}, err
	}

	tx := &domain.Transaction{
		TenantID:    tenantID,
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		Date:        input.Date.UTC().Truncate(24 * time.Hour),
		Type:        input.Type,
		IsRecurring: input.IsRecurring,
	}
	created, err := s.transactions.Create(ctx, tx)
	if err != nil {
		return nil, domain.ChangeDescriptor{}, err
	}

	proj := domain.ProjectionOf(created)
	descriptor := domain.ChangeDescriptor{
		TenantID:      tenantID,
		TransactionID: created.ID,
		Kind:          domain.ChangeCreate,
		New:           &proj,
		TraceID:       uuid.New(),
	}
	return created, descriptor, nil
}

// ListTransactions returns every transaction matching filters, joined
// with account and category names.
func (s *TransactionService) ListTransactions(ctx context.Context, tenantID string, filters domain.TransactionFilters) ([]*domain.TransactionView, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return s.transactions.List(ctx, tenantID, filters)
}

// GetRecentlyUsedCategories returns up to limit categories recently
// used on this tenant's transactions, for a category picker's
// suggestions dropdown.
func (s *TransactionService) GetRecentlyUsedCategories(ctx context.Context, tenantID string, limit int) ([]*domain.RecentCategory, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	return s.transactions.GetRecentlyUsedCategories(ctx, tenantID, limit)
}

// GetTransaction returns a single transaction.
func (s *TransactionService) GetTransaction(ctx context.Context, tenantID string, id int64) (*domain.Transaction, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return s.transactions.Get(ctx, tenantID, id)
}

// UpdateTransactionInput holds the mutable transaction fields; nil
// leaves the field unchanged.
type UpdateTransactionInput struct {
	AccountID   *int64
	CategoryID  **int64 // pointer-to-pointer: nil means unchanged, *CategoryID == nil means "clear"
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
	Type        *domain.EntryType
	IsRecurring *bool
}

// UpdateTransaction applies a partial update and returns the
// ChangeDescriptor describing the before/after cube projection.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tenantID string, id int64, input UpdateTransactionInput) (*domain.Transaction, domain.ChangeDescriptor, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, domain.ChangeDescriptor{}, err
	}
	if input.Type != nil && !domain.ValidEntryTypes[*input.Type] {
		return nil, domain.ChangeDescriptor{}, domain.ErrInvalidTransactionType
	}
	if input.AccountID != nil || input.CategoryID != nil {
		existing, err := s.transactions.Get(ctx, tenantID, id)
		if err != nil {
			return nil, domain.ChangeDescriptor{}, err
		}
		accountID := existing.AccountID
		if input.AccountID != nil {
			accountID = *input.AccountID
		}
		categoryID := existing.CategoryID
		if input.CategoryID != nil {
			categoryID = *input.CategoryID
		}
		if err := s.validateRefs(ctx, tenantID, accountID, categoryID); err != nil {
			return nil, domain.ChangeDescriptor{}, err
		}
	}

	old, updatedProj, err := s.transactions.Update(ctx, tenantID, id, func(t *domain.Transaction) {
		if input.AccountID != nil {
			t.AccountID = *input.AccountID
		}
		if input.CategoryID != nil {
			t.CategoryID = *input.CategoryID
		}
		if input.Amount != nil {
			t.Amount = *input.Amount
		}
		if input.Description != nil {
			t.Description = strings.TrimSpace(*input.Description)
		}
		if input.Date != nil {
			t.Date = input.Date.UTC().Truncate(24 * time.Hour)
		}
		if input.Type != nil {
			t.Type = *input.Type
		}
		if input.IsRecurring != nil {
			t.IsRecurring = *input.IsRecurring
		}
	})
	if err != nil {
		return nil, domain.ChangeDescriptor{}, err
	}

	updated, err := s.transactions.Get(ctx, tenantID, id)
	if err != nil {
		return nil, domain.ChangeDescriptor{}, err
	}

	return updated, domain.ChangeDescriptor{
		TenantID:      tenantID,
		TransactionID: id,
		Kind:          domain.ChangeUpdate,
		Old:           &old,
		New:           &updatedProj,
		TraceID:       uuid.New(),
	}, nil
}

// DeleteTransaction removes a transaction and returns the
// ChangeDescriptor describing the cell it vacates.
func (s *TransactionService) DeleteTransaction(ctx context.Context, tenantID string, id int64) (domain.ChangeDescriptor, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return domain.ChangeDescriptor{}, err
	}
	old, err := s.transactions.Delete(ctx, tenantID, id)
	if err != nil {
		return domain.ChangeDescriptor{}, err
	}
	return domain.ChangeDescriptor{
		TenantID:      tenantID,
		TransactionID: id,
		Kind:          domain.ChangeDelete,
		Old:           &old,
		TraceID:       uuid.New(),
	}, nil
}

// valueFor extracts field's current value from a projection, as a
// comparable representation, for the bulk-update uniformity check.
func valueFor(field domain.ChangedField, p domain.Projection) any {
	switch field {
	case domain.FieldCategoryID:
		if p.CategoryID == nil {
			return int64(-1)
		}
		return *p.CategoryID
	case domain.FieldAccountID:
		return p.AccountID
	case domain.FieldType:
		return p.Type
	case domain.FieldAmount:
		return p.Amount.String()
	case domain.FieldIsRecurring:
		return p.IsRecurring
	}
	return nil
}

// BulkUpdateTransactions applies a single-field mutation across many
// transactions in one storage call. It refuses a selection whose
// affected rows do not share a uniform pre-mutation value for Field
// (ErrNonUniformBulk). The other dimensions may still vary across the
// selection; the cube engine regenerates every distinct cell the rows
// leave or enter.
func (s *TransactionService) BulkUpdateTransactions(ctx context.Context, tenantID string, input domain.BulkUpdateInput) (domain.BulkChangeDescriptor, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return domain.BulkChangeDescriptor{}, err
	}
	if len(input.IDs) == 0 {
		return domain.BulkChangeDescriptor{}, domain.ErrEmptyBulkSelection
	}

	rows, err := s.transactions.GetByIDs(ctx, tenantID, input.IDs)
	if err != nil {
		return domain.BulkChangeDescriptor{}, err
	}

	var want any
	for i, r := range rows {
		v := valueFor(input.Field, domain.ProjectionOf(r))
		if i == 0 {
			want = v
			continue
		}
		if v != want {
			return domain.BulkChangeDescriptor{}, domain.ErrNonUniformBulk
		}
	}

	if input.Field == domain.FieldCategoryID {
		if input.NewCategoryID != nil {
			if _, err := s.categories.Get(ctx, tenantID, *input.NewCategoryID); err != nil {
				return domain.BulkChangeDescriptor{}, err
			}
		}
	}
	if input.Field == domain.FieldAccountID {
		if _, err := s.accounts.Get(ctx, tenantID, input.NewAccountID); err != nil {
			return domain.BulkChangeDescriptor{}, err
		}
	}
	if input.Field == domain.FieldType && !domain.ValidEntryTypes[input.NewType] {
		return domain.BulkChangeDescriptor{}, domain.ErrInvalidTransactionType
	}

	old, err := s.transactions.BulkUpdateField(ctx, tenantID, input)
	if err != nil {
		return domain.BulkChangeDescriptor{}, err
	}

	return domain.BulkChangeDescriptor{
		TenantID:       tenantID,
		TransactionIDs: input.IDs,
		Kind:           domain.ChangeUpdate,
		OldProjections: old,
		Field:          input.Field,
		Update:         input,
		TraceID:        uuid.New(),
	}, nil
}

// BulkDeleteTransactions deletes many transactions in one storage
// call and returns the descriptor of the cells they vacate.
func (s *TransactionService) BulkDeleteTransactions(ctx context.Context, tenantID string, ids []int64) (domain.BulkChangeDescriptor, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return domain.BulkChangeDescriptor{}, err
	}
	if len(ids) == 0 {
		return domain.BulkChangeDescriptor{}, domain.ErrEmptyBulkSelection
	}
	old, err := s.transactions.BulkDelete(ctx, tenantID, ids)
	if err != nil {
		return domain.BulkChangeDescriptor{}, err
	}
	return domain.BulkChangeDescriptor{
		TenantID:       tenantID,
		TransactionIDs: ids,
		Kind:           domain.ChangeDelete,
		OldProjections: old,
		TraceID:        uuid.New(),
	}, nil
}
