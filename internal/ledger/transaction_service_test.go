package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/testutil"
)

type txnFixture struct {
	transactions *testutil.MockTransactionRepository
	accounts     *testutil.MockAccountRepository
	categories   *testutil.MockCategoryRepository
	svc          *TransactionService
	accountID    int64
	categoryID   int64
}

func newTxnFixture(t *testing.T) *txnFixture {
	t.Helper()
	transactions := testutil.NewMockTransactionRepository()
	accounts := testutil.NewMockAccountRepository()
	categories := testutil.NewMockCategoryRepository()
	transactions.Accounts = accounts.Accounts
	transactions.Categories = categories.Categories

	account, err := accounts.Create(t.Context(), &domain.Account{TenantID: testTenant, Name: "Checking", Type: domain.AccountTypeChecking})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	category, err := categories.Create(t.Context(), &domain.Category{TenantID: testTenant, Name: "Groceries", Type: domain.EntryTypeExpense})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	return &txnFixture{
		transactions: transactions,
		accounts:     accounts,
		categories:   categories,
		svc:          NewTransactionService(transactions, accounts, categories),
		accountID:    account.ID,
		categoryID:   category.ID,
	}
}

func TestCreateTransaction_Success(t *testing.T) {
	f := newTxnFixture(t)
	created, descriptor, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID:   f.accountID,
		CategoryID:  &f.categoryID,
		Amount:      decimal.NewFromInt(-50),
		Description: "  weekly groceries  ",
		Date:        time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Type:        domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Description != "weekly groceries" {
		t.Errorf("expected trimmed description, got %q", created.Description)
	}
	if !created.Date.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected date truncated to midnight UTC, got %v", created.Date)
	}
	if descriptor.Kind != domain.ChangeCreate {
		t.Errorf("expected ChangeCreate, got %v", descriptor.Kind)
	}
	if descriptor.New == nil || descriptor.Old != nil {
		t.Errorf("expected only New projection set on create, got %+v", descriptor)
	}
}

func TestCreateTransaction_RejectsUnknownAccount(t *testing.T) {
	f := newTxnFixture(t)
	_, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: 999,
		Amount:    decimal.NewFromInt(10),
		Date:      time.Now(),
		Type:      domain.EntryTypeIncome,
	})
	if err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTransaction_ReturnsOldAndNewProjections(t *testing.T) {
	f := newTxnFixture(t)
	created, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: f.accountID,
		Amount:    decimal.NewFromInt(-50),
		Date:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Type:      domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	newAmount := decimal.NewFromInt(-75)
	updated, descriptor, err := f.svc.UpdateTransaction(t.Context(), testTenant, created.ID, UpdateTransactionInput{
		Amount: &newAmount,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !updated.Amount.Equal(newAmount) {
		t.Errorf("expected amount updated to -75, got %s", updated.Amount)
	}
	if descriptor.Old == nil || descriptor.New == nil {
		t.Fatalf("expected both Old and New set on update, got %+v", descriptor)
	}
	if !descriptor.Old.Amount.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("expected old projection amount -50, got %s", descriptor.Old.Amount)
	}
	if !descriptor.New.Amount.Equal(newAmount) {
		t.Errorf("expected new projection amount -75, got %s", descriptor.New.Amount)
	}
}

func TestUpdateTransaction_ClearingCategoryViaDoublePointer(t *testing.T) {
	f := newTxnFixture(t)
	created, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID:  f.accountID,
		CategoryID: &f.categoryID,
		Amount:     decimal.NewFromInt(-50),
		Date:       time.Now(),
		Type:       domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var clearedCategory *int64
	updated, _, err := f.svc.UpdateTransaction(t.Context(), testTenant, created.ID, UpdateTransactionInput{
		CategoryID: &clearedCategory,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.CategoryID != nil {
		t.Errorf("expected category cleared to nil, got %v", *updated.CategoryID)
	}
}

func TestDeleteTransaction_ReturnsOldProjectionOnly(t *testing.T) {
	f := newTxnFixture(t)
	created, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: f.accountID,
		Amount:    decimal.NewFromInt(-50),
		Date:      time.Now(),
		Type:      domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	descriptor, err := f.svc.DeleteTransaction(t.Context(), testTenant, created.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if descriptor.Kind != domain.ChangeDelete || descriptor.Old == nil || descriptor.New != nil {
		t.Errorf("expected delete descriptor with only Old set, got %+v", descriptor)
	}
}

func TestBulkUpdateTransactions_RejectsNonUniformSelection(t *testing.T) {
	f := newTxnFixture(t)
	a, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID:  f.accountID,
		CategoryID: &f.categoryID,
		Amount:     decimal.NewFromInt(-10),
		Date:       time.Now(),
		Type:       domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: f.accountID,
		Amount:    decimal.NewFromInt(-20),
		Date:      time.Now(),
		Type:      domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	otherCategory, err := f.categories.Create(t.Context(), &domain.Category{TenantID: testTenant, Name: "Dining", Type: domain.EntryTypeExpense})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = f.svc.BulkUpdateTransactions(t.Context(), testTenant, domain.BulkUpdateInput{
		IDs:           []int64{a.ID, b.ID},
		Field:         domain.FieldCategoryID,
		NewCategoryID: &otherCategory.ID,
	})
	if err != domain.ErrNonUniformBulk {
		t.Errorf("expected ErrNonUniformBulk, got %v", err)
	}
}

func TestBulkUpdateTransactions_UniformSelectionSucceeds(t *testing.T) {
	f := newTxnFixture(t)
	a, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID:  f.accountID,
		CategoryID: &f.categoryID,
		Amount:     decimal.NewFromInt(-10),
		Date:       time.Now(),
		Type:       domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID:  f.accountID,
		CategoryID: &f.categoryID,
		Amount:     decimal.NewFromInt(-20),
		Date:       time.Now(),
		Type:       domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	otherCategory, err := f.categories.Create(t.Context(), &domain.Category{TenantID: testTenant, Name: "Dining", Type: domain.EntryTypeExpense})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	descriptor, err := f.svc.BulkUpdateTransactions(t.Context(), testTenant, domain.BulkUpdateInput{
		IDs:           []int64{a.ID, b.ID},
		Field:         domain.FieldCategoryID,
		NewCategoryID: &otherCategory.ID,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(descriptor.OldProjections) != 2 {
		t.Errorf("expected 2 old projections, got %d", len(descriptor.OldProjections))
	}

	updated, err := f.transactions.Get(t.Context(), testTenant, a.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.CategoryID == nil || *updated.CategoryID != otherCategory.ID {
		t.Errorf("expected category reassigned, got %v", updated.CategoryID)
	}
}

func TestBulkUpdateTransactions_RejectsEmptySelection(t *testing.T) {
	f := newTxnFixture(t)
	_, err := f.svc.BulkUpdateTransactions(t.Context(), testTenant, domain.BulkUpdateInput{IDs: nil, Field: domain.FieldIsRecurring})
	if err != domain.ErrEmptyBulkSelection {
		t.Errorf("expected ErrEmptyBulkSelection, got %v", err)
	}
}

func TestBulkDeleteTransactions_Success(t *testing.T) {
	f := newTxnFixture(t)
	a, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: f.accountID,
		Amount:    decimal.NewFromInt(-10),
		Date:      time.Now(),
		Type:      domain.EntryTypeExpense,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	descriptor, err := f.svc.BulkDeleteTransactions(t.Context(), testTenant, []int64{a.ID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if descriptor.Kind != domain.ChangeDelete || len(descriptor.OldProjections) != 1 {
		t.Errorf("expected one old projection on delete, got %+v", descriptor)
	}
	if _, err := f.transactions.Get(t.Context(), testTenant, a.ID); err != domain.ErrNotFound {
		t.Errorf("expected transaction removed, got err=%v", err)
	}
}

func TestGetRecentlyUsedCategories_OrderedByMostRecentUse(t *testing.T) {
	f := newTxnFixture(t)
	other, err := f.categories.Create(t.Context(), &domain.Category{TenantID: testTenant, Name: "Rent", Type: domain.EntryTypeExpense})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: f.accountID, CategoryID: &f.categoryID, Amount: decimal.NewFromInt(-10),
		Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Type: domain.EntryTypeExpense,
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, _, err := f.svc.CreateTransaction(t.Context(), testTenant, CreateTransactionInput{
		AccountID: f.accountID, CategoryID: &other.ID, Amount: decimal.NewFromInt(-900),
		Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Type: domain.EntryTypeExpense,
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	recent, err := f.svc.GetRecentlyUsedCategories(t.Context(), testTenant, 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "Rent" || recent[1].Name != "Groceries" {
		t.Errorf("expected [Rent, Groceries] ordered by most recent use, got %+v", recent)
	}
}

func TestGetRecentlyUsedCategories_RejectsEmptyTenant(t *testing.T) {
	f := newTxnFixture(t)
	if _, err := f.svc.GetRecentlyUsedCategories(t.Context(), "", 5); err != domain.ErrTenantRequired {
		t.Errorf("expected ErrTenantRequired, got %v", err)
	}
}
