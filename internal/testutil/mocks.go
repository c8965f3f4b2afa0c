package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// MockAccountRepository is an in-memory implementation of
// domain.AccountRepository, keyed by (tenantID, id). Txns, if set,
// backs HasTransactions -- tests that exercise delete-conflict
// behavior wire the same *MockTransactionRepository used elsewhere in
// the test into this field.
type MockAccountRepository struct {
	Accounts map[string]map[int64]*domain.Account
	NextID   int64
	Txns     *MockTransactionRepository
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts: make(map[string]map[int64]*domain.Account),
		NextID:   1,
	}
}

func (m *MockAccountRepository) bucket(tenantID string) map[int64]*domain.Account {
	b, ok := m.Accounts[tenantID]
	if !ok {
		b = make(map[int64]*domain.Account)
		m.Accounts[tenantID] = b
	}
	return b
}

func (m *MockAccountRepository) List(_ context.Context, tenantID string, filters domain.AccountFilters) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range m.bucket(tenantID) {
		if filters.Type != nil && a.Type != *filters.Type {
			continue
		}
		if filters.Active != nil && a.IsActive != *filters.Active {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockAccountRepository) Get(_ context.Context, tenantID string, id int64) (*domain.Account, error) {
	if a, ok := m.bucket(tenantID)[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockAccountRepository) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	account.ID = m.NextID
	m.NextID++
	cp := *account
	m.bucket(account.TenantID)[cp.ID] = &cp
	return &cp, nil
}

func (m *MockAccountRepository) Update(_ context.Context, tenantID string, id int64, mutate func(*domain.Account)) (*domain.Account, error) {
	a, ok := m.bucket(tenantID)[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mutate(a)
	return a, nil
}

func (m *MockAccountRepository) Delete(_ context.Context, tenantID string, id int64) error {
	b := m.bucket(tenantID)
	if _, ok := b[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b, id)
	return nil
}

func (m *MockAccountRepository) ExistsActiveByName(_ context.Context, tenantID string, name string, excludeID int64) (bool, error) {
	for _, a := range m.bucket(tenantID) {
		if a.ID != excludeID && a.IsActive && a.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockAccountRepository) HasTransactions(_ context.Context, tenantID string, accountID int64) (bool, error) {
	if m.Txns == nil {
		return false, nil
	}
	for _, t := range m.Txns.bucket(tenantID) {
		if t.AccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

// MockCategoryRepository is an in-memory implementation of
// domain.CategoryRepository, keyed by (tenantID, id). Txns, if set,
// backs HasTransactions.
type MockCategoryRepository struct {
	Categories map[string]map[int64]*domain.Category
	NextID     int64
	Txns       *MockTransactionRepository
}

func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[string]map[int64]*domain.Category),
		NextID:     1,
	}
}

func (m *MockCategoryRepository) bucket(tenantID string) map[int64]*domain.Category {
	b, ok := m.Categories[tenantID]
	if !ok {
		b = make(map[int64]*domain.Category)
		m.Categories[tenantID] = b
	}
	return b
}

func (m *MockCategoryRepository) List(_ context.Context, tenantID string) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.bucket(tenantID) {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockCategoryRepository) Get(_ context.Context, tenantID string, id int64) (*domain.Category, error) {
	if c, ok := m.bucket(tenantID)[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockCategoryRepository) Create(_ context.Context, category *domain.Category) (*domain.Category, error) {
	category.ID = m.NextID
	m.NextID++
	cp := *category
	m.bucket(category.TenantID)[cp.ID] = &cp
	return &cp, nil
}

func (m *MockCategoryRepository) Update(_ context.Context, tenantID string, id int64, mutate func(*domain.Category)) (*domain.Category, error) {
	c, ok := m.bucket(tenantID)[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mutate(c)
	return c, nil
}

func (m *MockCategoryRepository) Delete(_ context.Context, tenantID string, id int64) error {
	b := m.bucket(tenantID)
	if _, ok := b[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b, id)
	return nil
}

func (m *MockCategoryRepository) ExistsByNameAndType(_ context.Context, tenantID string, name string, entryType domain.EntryType, excludeID int64) (bool, error) {
	for _, c := range m.bucket(tenantID) {
		if c.ID != excludeID && c.Name == name && c.Type == entryType {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) HasTransactions(_ context.Context, tenantID string, categoryID int64) (bool, error) {
	if m.Txns == nil {
		return false, nil
	}
	for _, t := range m.Txns.bucket(tenantID) {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

// MockTransactionRepository is an in-memory implementation of
// domain.TransactionRepository, keyed by (tenantID, id). It joins
// account/category names only from the Accounts/Categories maps, so
// callers that need named TransactionView rows set those first.
type MockTransactionRepository struct {
	Transactions map[string]map[int64]*domain.Transaction
	Accounts     map[string]map[int64]*domain.Account
	Categories   map[string]map[int64]*domain.Category
	NextID       int64
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		Transactions: make(map[string]map[int64]*domain.Transaction),
		Accounts:     make(map[string]map[int64]*domain.Account),
		Categories:   make(map[string]map[int64]*domain.Category),
		NextID:       1,
	}
}

func (m *MockTransactionRepository) bucket(tenantID string) map[int64]*domain.Transaction {
	b, ok := m.Transactions[tenantID]
	if !ok {
		b = make(map[int64]*domain.Transaction)
		m.Transactions[tenantID] = b
	}
	return b
}

func (m *MockTransactionRepository) names(tenantID string, accountID int64, categoryID *int64) (string, *string) {
	accName := ""
	if accs, ok := m.Accounts[tenantID]; ok {
		if a, ok := accs[accountID]; ok {
			accName = a.Name
		}
	}
	var catName *string
	if categoryID != nil {
		if cats, ok := m.Categories[tenantID]; ok {
			if c, ok := cats[*categoryID]; ok {
				n := c.Name
				catName = &n
			}
		}
	}
	return accName, catName
}

func (m *MockTransactionRepository) List(_ context.Context, tenantID string, filters domain.TransactionFilters) ([]*domain.TransactionView, error) {
	var out []*domain.TransactionView
	for _, t := range m.bucket(tenantID) {
		if filters.AccountID != nil && t.AccountID != *filters.AccountID {
			continue
		}
		if filters.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.Type != nil && t.Type != *filters.Type {
			continue
		}
		if filters.IsRecurring != nil && t.IsRecurring != *filters.IsRecurring {
			continue
		}
		if filters.StartDate != nil && t.Date.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && t.Date.After(*filters.EndDate) {
			continue
		}
		accName, catName := m.names(tenantID, t.AccountID, t.CategoryID)
		out = append(out, &domain.TransactionView{Transaction: *t, AccountName: accName, CategoryName: catName})
	}
	sortTransactionViews(out)
	return out, nil
}

func sortTransactionViews(rows []*domain.TransactionView) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].ID != rows[j].ID {
			return rows[i].ID < rows[j].ID
		}
		return rows[i].Description < rows[j].Description
	})
}

func (m *MockTransactionRepository) Get(_ context.Context, tenantID string, id int64) (*domain.Transaction, error) {
	if t, ok := m.bucket(tenantID)[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepository) GetByIDs(_ context.Context, tenantID string, ids []int64) ([]*domain.Transaction, error) {
	b := m.bucket(tenantID)
	out := make([]*domain.Transaction, 0, len(ids))
	for _, id := range ids {
		t, ok := b[id]
		if !ok {
			return nil, domain.ErrNotFound
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTransactionRepository) Create(_ context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	t.ID = m.NextID
	m.NextID++
	cp := *t
	m.bucket(t.TenantID)[cp.ID] = &cp
	return &cp, nil
}

func (m *MockTransactionRepository) Update(_ context.Context, tenantID string, id int64, mutate func(*domain.Transaction)) (domain.Projection, domain.Projection, error) {
	t, ok := m.bucket(tenantID)[id]
	if !ok {
		return domain.Projection{}, domain.Projection{}, domain.ErrNotFound
	}
	old := domain.ProjectionOf(t)
	mutate(t)
	return old, domain.ProjectionOf(t), nil
}

func (m *MockTransactionRepository) Delete(_ context.Context, tenantID string, id int64) (domain.Projection, error) {
	b := m.bucket(tenantID)
	t, ok := b[id]
	if !ok {
		return domain.Projection{}, domain.ErrNotFound
	}
	old := domain.ProjectionOf(t)
	delete(b, id)
	return old, nil
}

func (m *MockTransactionRepository) BulkUpdateField(_ context.Context, tenantID string, input domain.BulkUpdateInput) ([]domain.Projection, error) {
	b := m.bucket(tenantID)
	old := make([]domain.Projection, 0, len(input.IDs))
	for _, id := range input.IDs {
		t, ok := b[id]
		if !ok {
			return nil, domain.ErrNotFound
		}
		old = append(old, domain.ProjectionOf(t))
	}
	for _, id := range input.IDs {
		t := b[id]
		switch input.Field {
		case domain.FieldCategoryID:
			t.CategoryID = input.NewCategoryID
		case domain.FieldAccountID:
			t.AccountID = input.NewAccountID
		case domain.FieldType:
			t.Type = input.NewType
		case domain.FieldAmount:
			t.Amount = input.NewAmount
		case domain.FieldIsRecurring:
			t.IsRecurring = input.NewIsRecurring
		}
	}
	return old, nil
}

func (m *MockTransactionRepository) BulkDelete(_ context.Context, tenantID string, ids []int64) ([]domain.Projection, error) {
	b := m.bucket(tenantID)
	old := make([]domain.Projection, 0, len(ids))
	for _, id := range ids {
		t, ok := b[id]
		if !ok {
			return nil, domain.ErrNotFound
		}
		old = append(old, domain.ProjectionOf(t))
	}
	for _, id := range ids {
		delete(b, id)
	}
	return old, nil
}

func (m *MockTransactionRepository) ForAccount(_ context.Context, tenantID string, accountID int64, start, end *time.Time) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range m.bucket(tenantID) {
		if t.AccountID != accountID {
			continue
		}
		if start != nil && t.Date.Before(*start) {
			continue
		}
		if end != nil && t.Date.After(*end) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Description < out[j].Description
	})
	return out, nil
}

func (m *MockTransactionRepository) SumInRange(_ context.Context, tenantID string, accountID int64, from, to time.Time, fromInclusive, toInclusive bool) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range m.bucket(tenantID) {
		if t.AccountID != accountID {
			continue
		}
		if fromInclusive && t.Date.Before(from) {
			continue
		}
		if !fromInclusive && !t.Date.After(from) {
			continue
		}
		if toInclusive && t.Date.After(to) {
			continue
		}
		if !toInclusive && !t.Date.Before(to) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (m *MockTransactionRepository) SumAllInRange(_ context.Context, tenantID string, start, end time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range m.bucket(tenantID) {
		if t.Date.Before(start) || t.Date.After(end) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (m *MockTransactionRepository) Aggregate(_ context.Context, tenantID string, periodStart, periodEnd time.Time, predicate domain.AggregatePredicate) ([]domain.AggregateRow, error) {
	type key struct {
		categoryID *int64
		accountID  int64
	}
	rows := map[key]*domain.AggregateRow{}
	allowed := func(catID *int64) bool {
		if predicate.CategoryIDs == nil {
			return true
		}
		for _, c := range predicate.CategoryIDs {
			if (c == nil) == (catID == nil) && (c == nil || *c == *catID) {
				return true
			}
		}
		return false
	}
	for _, t := range m.bucket(tenantID) {
		if t.Type != predicate.Type || t.IsRecurring != predicate.IsRecurring {
			continue
		}
		if predicate.AccountID != nil && t.AccountID != *predicate.AccountID {
			continue
		}
		if !allowed(t.CategoryID) {
			continue
		}
		if t.Date.Before(periodStart) || !t.Date.Before(periodEnd) {
			continue
		}
		k := key{categoryID: t.CategoryID, accountID: t.AccountID}
		r, ok := rows[k]
		if !ok {
			accName, catName := m.names(tenantID, t.AccountID, t.CategoryID)
			r = &domain.AggregateRow{
				Type:        t.Type,
				CategoryID:  t.CategoryID,
				CategoryName: catName,
				AccountID:   t.AccountID,
				AccountName: accName,
				IsRecurring: t.IsRecurring,
				TotalAmount: decimal.Zero,
			}
			rows[k] = r
		}
		r.TotalAmount = r.TotalAmount.Add(t.Amount)
		r.TransactionCount++
	}
	out := make([]domain.AggregateRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}

func (m *MockTransactionRepository) AggregateAll(_ context.Context, tenantID string, periodStart, periodEnd time.Time) ([]domain.AggregateRow, error) {
	type key struct {
		categoryID  *int64
		accountID   int64
		entryType   domain.EntryType
		isRecurring bool
	}
	rows := map[key]*domain.AggregateRow{}
	for _, t := range m.bucket(tenantID) {
		if t.Date.Before(periodStart) || !t.Date.Before(periodEnd) {
			continue
		}
		k := key{categoryID: t.CategoryID, accountID: t.AccountID, entryType: t.Type, isRecurring: t.IsRecurring}
		r, ok := rows[k]
		if !ok {
			accName, catName := m.names(tenantID, t.AccountID, t.CategoryID)
			r = &domain.AggregateRow{
				Type:         t.Type,
				CategoryID:   t.CategoryID,
				CategoryName: catName,
				AccountID:    t.AccountID,
				AccountName:  accName,
				IsRecurring:  t.IsRecurring,
				TotalAmount:  decimal.Zero,
			}
			rows[k] = r
		}
		r.TotalAmount = r.TotalAmount.Add(t.Amount)
		r.TransactionCount++
	}
	out := make([]domain.AggregateRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	return out, nil
}

func (m *MockTransactionRepository) ActiveTenants(_ context.Context, since time.Time) ([]string, error) {
	seen := map[string]bool{}
	for tenantID, txns := range m.Transactions {
		for _, t := range txns {
			if !t.Date.Before(since) {
				seen[tenantID] = true
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for tenantID := range seen {
		out = append(out, tenantID)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MockTransactionRepository) GetRecentlyUsedCategories(_ context.Context, tenantID string, limit int) ([]*domain.RecentCategory, error) {
	lastUsed := map[int64]time.Time{}
	for _, t := range m.Transactions[tenantID] {
		if t.CategoryID == nil {
			continue
		}
		if existing, ok := lastUsed[*t.CategoryID]; !ok || t.Date.After(existing) {
			lastUsed[*t.CategoryID] = t.Date
		}
	}

	out := make([]*domain.RecentCategory, 0, len(lastUsed))
	for categoryID, date := range lastUsed {
		category, ok := m.Categories[tenantID][categoryID]
		if !ok {
			continue
		}
		out = append(out, &domain.RecentCategory{ID: categoryID, Name: category.Name, LastUsed: date})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUsed.Equal(out[j].LastUsed) {
			return out[i].LastUsed.After(out[j].LastUsed)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MockBalanceAnchorRepository is an in-memory implementation of
// domain.BalanceAnchorRepository, keyed by (tenantID, accountID).
type MockBalanceAnchorRepository struct {
	Anchors map[string]map[int64][]*domain.BalanceAnchor
	NextID  int64
}

func NewMockBalanceAnchorRepository() *MockBalanceAnchorRepository {
	return &MockBalanceAnchorRepository{
		Anchors: make(map[string]map[int64][]*domain.BalanceAnchor),
		NextID:  1,
	}
}

func (m *MockBalanceAnchorRepository) bucket(tenantID string, accountID int64) []*domain.BalanceAnchor {
	accs, ok := m.Anchors[tenantID]
	if !ok {
		return nil
	}
	return accs[accountID]
}

func (m *MockBalanceAnchorRepository) Create(_ context.Context, anchor *domain.BalanceAnchor) (*domain.BalanceAnchor, error) {
	anchor.ID = m.NextID
	m.NextID++
	cp := *anchor
	if _, ok := m.Anchors[anchor.TenantID]; !ok {
		m.Anchors[anchor.TenantID] = make(map[int64][]*domain.BalanceAnchor)
	}
	m.Anchors[anchor.TenantID][anchor.AccountID] = append(m.Anchors[anchor.TenantID][anchor.AccountID], &cp)
	return &cp, nil
}

func (m *MockBalanceAnchorRepository) NearestAtOrBefore(_ context.Context, tenantID string, accountID int64, date time.Time) (*domain.BalanceAnchor, error) {
	var best *domain.BalanceAnchor
	for _, a := range m.bucket(tenantID, accountID) {
		if a.Date.After(date) {
			continue
		}
		if best == nil || a.Date.After(best.Date) {
			best = a
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (m *MockBalanceAnchorRepository) NearestAfter(_ context.Context, tenantID string, accountID int64, date time.Time) (*domain.BalanceAnchor, error) {
	var best *domain.BalanceAnchor
	for _, a := range m.bucket(tenantID, accountID) {
		if !a.Date.After(date) {
			continue
		}
		if best == nil || a.Date.Before(best.Date) {
			best = a
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (m *MockBalanceAnchorRepository) List(_ context.Context, tenantID string, accountID int64) ([]*domain.BalanceAnchor, error) {
	out := append([]*domain.BalanceAnchor(nil), m.bucket(tenantID, accountID)...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// MockCubeRepository is an in-memory implementation of
// domain.CubeRepository, keyed by tenantID then the cell's
// dimensional key.
type MockCubeRepository struct {
	Cells map[string]map[cubeKey]*domain.CubeCell
	Txns  *MockTransactionRepository
}

type cubeKey struct {
	periodType  domain.PeriodType
	periodStart time.Time
	accountID   int64
	categoryID  int64
	hasCategory bool
	entryType   domain.EntryType
	isRecurring bool
}

func keyOf(target domain.RegenerationTarget) cubeKey {
	k := cubeKey{
		periodType:  target.PeriodType,
		periodStart: target.PeriodStart,
		accountID:   target.AccountID,
		entryType:   target.Type,
		isRecurring: target.IsRecurring,
	}
	if target.CategoryID != nil {
		k.categoryID = *target.CategoryID
		k.hasCategory = true
	}
	return k
}

func NewMockCubeRepository() *MockCubeRepository {
	return &MockCubeRepository{Cells: make(map[string]map[cubeKey]*domain.CubeCell)}
}

func (m *MockCubeRepository) bucket(tenantID string) map[cubeKey]*domain.CubeCell {
	b, ok := m.Cells[tenantID]
	if !ok {
		b = make(map[cubeKey]*domain.CubeCell)
		m.Cells[tenantID] = b
	}
	return b
}

func (m *MockCubeRepository) DeleteCell(_ context.Context, tenantID string, target domain.RegenerationTarget) error {
	delete(m.bucket(tenantID), keyOf(target))
	return nil
}

func (m *MockCubeRepository) UpsertCell(_ context.Context, tenantID string, target domain.RegenerationTarget, accountName string, categoryName *string, total decimal.Decimal, count int64) error {
	m.bucket(tenantID)[keyOf(target)] = &domain.CubeCell{
		TenantID:         tenantID,
		PeriodType:       target.PeriodType,
		PeriodStart:      target.PeriodStart,
		AccountID:        target.AccountID,
		AccountName:      accountName,
		CategoryID:       target.CategoryID,
		CategoryName:     categoryName,
		Type:             target.Type,
		IsRecurring:       target.IsRecurring,
		TotalAmount:      total,
		TransactionCount: count,
	}
	return nil
}

func (m *MockCubeRepository) Query(_ context.Context, tenantID string, filters domain.CubeQueryFilters) ([]*domain.CubeCell, error) {
	var out []*domain.CubeCell
	for _, c := range m.bucket(tenantID) {
		if c.PeriodType != filters.PeriodType {
			continue
		}
		if c.PeriodStart.Before(filters.Start) || c.PeriodStart.After(filters.End) {
			continue
		}
		if filters.AccountID != nil && c.AccountID != *filters.AccountID {
			continue
		}
		if filters.CategoryID != nil && (c.CategoryID == nil || *c.CategoryID != *filters.CategoryID) {
			continue
		}
		if filters.Type != nil && c.Type != *filters.Type {
			continue
		}
		if filters.IsRecurring != nil && c.IsRecurring != *filters.IsRecurring {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

func (m *MockCubeRepository) SumAll(_ context.Context, tenantID string, periodType domain.PeriodType, start, end time.Time) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, c := range m.bucket(tenantID) {
		if c.PeriodType != periodType {
			continue
		}
		if c.PeriodStart.Before(start) || c.PeriodStart.After(end) {
			continue
		}
		sum = sum.Add(c.TotalAmount)
	}
	return sum, nil
}

func (m *MockCubeRepository) EarliestActivity(_ context.Context, tenantID string) (time.Time, error) {
	if m.Txns == nil {
		return time.Time{}, domain.ErrNotFound
	}
	var earliest time.Time
	found := false
	for _, t := range m.Txns.bucket(tenantID) {
		if !found || t.Date.Before(earliest) {
			earliest = t.Date
			found = true
		}
	}
	if !found {
		return time.Time{}, domain.ErrNotFound
	}
	return earliest, nil
}
