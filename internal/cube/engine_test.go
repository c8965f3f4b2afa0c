package cube

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/testutil"
)

const testTenant = "tenant-1"

type fixture struct {
	cube         *testutil.MockCubeRepository
	transactions *testutil.MockTransactionRepository
	engine       *Engine
	accountID    int64
	categoryID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cubeRepo := testutil.NewMockCubeRepository()
	transactions := testutil.NewMockTransactionRepository()
	cubeRepo.Txns = transactions

	accounts := testutil.NewMockAccountRepository()
	categories := testutil.NewMockCategoryRepository()
	account, err := accounts.Create(t.Context(), &domain.Account{TenantID: testTenant, Name: "Checking", Type: domain.AccountTypeChecking})
	require.NoError(t, err)
	category, err := categories.Create(t.Context(), &domain.Category{TenantID: testTenant, Name: "Groceries", Type: domain.EntryTypeExpense})
	require.NoError(t, err)
	transactions.Accounts = accounts.Accounts
	transactions.Categories = categories.Categories

	return &fixture{
		cube:         cubeRepo,
		transactions: transactions,
		engine:       NewEngine(cubeRepo, transactions),
		accountID:    account.ID,
		categoryID:   category.ID,
	}
}

func (f *fixture) addTxn(t *testing.T, date time.Time, amount decimal.Decimal) *domain.Transaction {
	t.Helper()
	tx, err := f.transactions.Create(t.Context(), &domain.Transaction{
		TenantID:   testTenant,
		AccountID:  f.accountID,
		CategoryID: &f.categoryID,
		Amount:     amount,
		Date:       date,
		Type:       domain.EntryTypeExpense,
	})
	require.NoError(t, err)
	return tx
}

func TestApplyChange_Create_RegeneratesBothPeriodTypes(t *testing.T) {
	f := newFixture(t)
	tx := f.addTxn(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(-40))

	proj := domain.ProjectionOf(tx)
	err := f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{
		TenantID:      testTenant,
		TransactionID: tx.ID,
		Kind:          domain.ChangeCreate,
		New:           &proj,
	})
	require.NoError(t, err)

	weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodWeekly,
		Start:      domain.PeriodStart(domain.PeriodWeekly, tx.Date),
		End:        domain.PeriodStart(domain.PeriodWeekly, tx.Date),
	})
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.True(t, weekly[0].TotalAmount.Equal(decimal.NewFromInt(-40)))

	monthly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodMonthly,
		Start:      domain.PeriodStart(domain.PeriodMonthly, tx.Date),
		End:        domain.PeriodStart(domain.PeriodMonthly, tx.Date),
	})
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.True(t, monthly[0].TotalAmount.Equal(decimal.NewFromInt(-40)))
}

func TestApplyChange_Update_RecomputesChangedAmount(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tx := f.addTxn(t, date, decimal.NewFromInt(-40))
	oldProj := domain.ProjectionOf(tx)

	err := f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{
		TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeUpdate, New: &oldProj,
	})
	require.NoError(t, err)

	tx.Amount = decimal.NewFromInt(-70)
	f.transactions.Transactions[testTenant][tx.ID] = tx
	newProj := domain.ProjectionOf(tx)

	err = f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{
		TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeUpdate, Old: &oldProj, New: &newProj,
	})
	require.NoError(t, err)

	weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodWeekly,
		Start:      domain.PeriodStart(domain.PeriodWeekly, date),
		End:        domain.PeriodStart(domain.PeriodWeekly, date),
	})
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.True(t, weekly[0].TotalAmount.Equal(decimal.NewFromInt(-70)))
}

func TestApplyChange_Update_AccountChangeVacatesOldCell(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tx := f.addTxn(t, date, decimal.NewFromInt(-40))
	oldProj := domain.ProjectionOf(tx)
	err := f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeCreate, New: &oldProj})
	require.NoError(t, err)

	otherAccount := f.accountID + 1
	tx.AccountID = otherAccount
	f.transactions.Transactions[testTenant][tx.ID] = tx
	// The stub account won't be found by Aggregate's name lookup, but
	// Aggregate only needs matching rows in the transaction bucket.
	newProj := domain.ProjectionOf(tx)

	err = f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeUpdate, Old: &oldProj, New: &newProj})
	require.NoError(t, err)

	weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodWeekly,
		Start:      domain.PeriodStart(domain.PeriodWeekly, date),
		End:        domain.PeriodStart(domain.PeriodWeekly, date),
		AccountID:  &f.accountID,
	})
	require.NoError(t, err)
	assert.Empty(t, weekly, "expected the vacated cell for the original account to be gone")
}

func TestApplyChange_Delete_RemovesCellWhenLastPosting(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	tx := f.addTxn(t, date, decimal.NewFromInt(-40))
	proj := domain.ProjectionOf(tx)
	err := f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeCreate, New: &proj})
	require.NoError(t, err)

	delete(f.transactions.Transactions[testTenant], tx.ID)
	err = f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, TransactionID: tx.ID, Kind: domain.ChangeDelete, Old: &proj})
	require.NoError(t, err)

	weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodWeekly,
		Start:      domain.PeriodStart(domain.PeriodWeekly, date),
		End:        domain.PeriodStart(domain.PeriodWeekly, date),
	})
	require.NoError(t, err)
	assert.Empty(t, weekly, "expected cell removed after last posting deleted")
}

func TestApplyBulkChange_CollapsesToOldAndNewCellPair(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	a := f.addTxn(t, date, decimal.NewFromInt(-10))
	b := f.addTxn(t, date, decimal.NewFromInt(-20))
	projA := domain.ProjectionOf(a)
	projB := domain.ProjectionOf(b)
	for _, p := range []*domain.Projection{&projA, &projB} {
		err := f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, Kind: domain.ChangeCreate, New: p})
		require.NoError(t, err)
	}

	newCategory := f.categoryID + 1
	for _, tx := range []*domain.Transaction{a, b} {
		tx.CategoryID = &newCategory
		f.transactions.Transactions[testTenant][tx.ID] = tx
	}

	err := f.engine.ApplyBulkChange(t.Context(), testTenant, domain.BulkChangeDescriptor{
		TenantID:       testTenant,
		TransactionIDs: []int64{a.ID, b.ID},
		Kind:           domain.ChangeUpdate,
		OldProjections: []domain.Projection{projA, projB},
		Field:          domain.FieldCategoryID,
		Update:         domain.BulkUpdateInput{IDs: []int64{a.ID, b.ID}, Field: domain.FieldCategoryID, NewCategoryID: &newCategory},
	})
	require.NoError(t, err)

	oldCategory := f.categoryID
	weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodWeekly,
		Start:      domain.PeriodStart(domain.PeriodWeekly, date),
		End:        domain.PeriodStart(domain.PeriodWeekly, date),
		CategoryID: &oldCategory,
	})
	require.NoError(t, err)
	assert.Empty(t, weekly, "expected old category cell vacated")

	weekly, err = f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
		PeriodType: domain.PeriodWeekly,
		Start:      domain.PeriodStart(domain.PeriodWeekly, date),
		End:        domain.PeriodStart(domain.PeriodWeekly, date),
		CategoryID: &newCategory,
	})
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.True(t, weekly[0].TotalAmount.Equal(decimal.NewFromInt(-30)))
}

func TestApplyBulkChange_RegeneratesAcrossVaryingAccountsAndRecurringFlags(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	otherAccount := f.accountID + 1

	// Four rows spanning two accounts crossed with two is_recurring
	// flags -- the uniform field is only the category being changed,
	// so the fast path must regenerate all four old cells and all four
	// new cells, not just the first row's.
	rows := []*domain.Transaction{
		{TenantID: testTenant, AccountID: f.accountID, CategoryID: &f.categoryID, Amount: decimal.NewFromInt(-10), Date: date, Type: domain.EntryTypeExpense, IsRecurring: false},
		{TenantID: testTenant, AccountID: f.accountID, CategoryID: &f.categoryID, Amount: decimal.NewFromInt(-20), Date: date, Type: domain.EntryTypeExpense, IsRecurring: true},
		{TenantID: testTenant, AccountID: otherAccount, CategoryID: &f.categoryID, Amount: decimal.NewFromInt(-30), Date: date, Type: domain.EntryTypeExpense, IsRecurring: false},
		{TenantID: testTenant, AccountID: otherAccount, CategoryID: &f.categoryID, Amount: decimal.NewFromInt(-40), Date: date, Type: domain.EntryTypeExpense, IsRecurring: true},
	}
	var oldProjections []domain.Projection
	var ids []int64
	for _, r := range rows {
		created, err := f.transactions.Create(t.Context(), r)
		require.NoError(t, err)
		proj := domain.ProjectionOf(created)
		err = f.engine.ApplyChange(t.Context(), testTenant, domain.ChangeDescriptor{TenantID: testTenant, Kind: domain.ChangeCreate, New: &proj})
		require.NoError(t, err)
		oldProjections = append(oldProjections, proj)
		ids = append(ids, created.ID)
	}

	newCategory := f.categoryID + 1
	for i, r := range rows {
		r.CategoryID = &newCategory
		f.transactions.Transactions[testTenant][ids[i]] = r
	}

	err := f.engine.ApplyBulkChange(t.Context(), testTenant, domain.BulkChangeDescriptor{
		TenantID:       testTenant,
		TransactionIDs: ids,
		Kind:           domain.ChangeUpdate,
		OldProjections: oldProjections,
		Field:          domain.FieldCategoryID,
		Update:         domain.BulkUpdateInput{IDs: ids, Field: domain.FieldCategoryID, NewCategoryID: &newCategory},
	})
	require.NoError(t, err)

	oldCategory := f.categoryID
	for _, acct := range []int64{f.accountID, otherAccount} {
		weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
			PeriodType: domain.PeriodWeekly,
			Start:      domain.PeriodStart(domain.PeriodWeekly, date),
			End:        domain.PeriodStart(domain.PeriodWeekly, date),
			CategoryID: &oldCategory,
			AccountID:  &acct,
		})
		require.NoError(t, err)
		assert.Emptyf(t, weekly, "expected old category cell vacated for account %d", acct)
	}

	expected := map[int64]decimal.Decimal{
		f.accountID:  decimal.NewFromInt(-30), // -10 (non-recurring) + -20 (recurring)
		otherAccount: decimal.NewFromInt(-70), // -30 (non-recurring) + -40 (recurring)
	}
	for acct, want := range expected {
		weekly, err := f.engine.Query(t.Context(), testTenant, domain.CubeQueryFilters{
			PeriodType: domain.PeriodWeekly,
			Start:      domain.PeriodStart(domain.PeriodWeekly, date),
			End:        domain.PeriodStart(domain.PeriodWeekly, date),
			CategoryID: &newCategory,
			AccountID:  &acct,
		})
		require.NoError(t, err)
		require.Lenf(t, weekly, 2, "expected one new-category cell per is_recurring flag for account %d", acct)
		var total decimal.Decimal
		for _, cell := range weekly {
			total = total.Add(cell.TotalAmount)
		}
		assert.Truef(t, total.Equal(want), "account %d: expected total %s, got %s", acct, want, total)
	}
}

func TestApplyBulkChange_NoOpOnEmptySelection(t *testing.T) {
	f := newFixture(t)
	err := f.engine.ApplyBulkChange(t.Context(), testTenant, domain.BulkChangeDescriptor{TenantID: testTenant})
	assert.NoError(t, err)
}

func TestKeyOf_DistinguishesNilFromZeroCategory(t *testing.T) {
	var zero int64
	withNil := domain.RegenerationTarget{AccountID: 1, Type: domain.EntryTypeExpense}
	withZero := domain.RegenerationTarget{AccountID: 1, Type: domain.EntryTypeExpense, CategoryID: &zero}
	assert.NotEqual(t, keyOf(withNil), keyOf(withZero))
}
