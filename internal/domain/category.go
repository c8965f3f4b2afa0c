package domain

import "context"

// EntryType is the transaction/category kind shared by Category.Type
// and Transaction.Type.
type EntryType string

const (
	EntryTypeIncome   EntryType = "INCOME"
	EntryTypeExpense  EntryType = "EXPENSE"
	EntryTypeTransfer EntryType = "TRANSFER"
)

// ValidEntryTypes is the closed set, used for input validation.
var ValidEntryTypes = map[EntryType]bool{
	EntryTypeIncome:   true,
	EntryTypeExpense:  true,
	EntryTypeTransfer: true,
}

// Category is identified by (TenantID, ID); (TenantID, Name, Type) is
// unique.
type Category struct {
	TenantID string
	ID       int64
	Name     string
	Type     EntryType
	Color    string
}

// CategoryRepository is the C4 storage surface for categories.
type CategoryRepository interface {
	List(ctx context.Context, tenantID string) ([]*Category, error)
	Get(ctx context.Context, tenantID string, id int64) (*Category, error)
	Create(ctx context.Context, category *Category) (*Category, error)
	Update(ctx context.Context, tenantID string, id int64, mutate func(*Category)) (*Category, error)
	Delete(ctx context.Context, tenantID string, id int64) error

	ExistsByNameAndType(ctx context.Context, tenantID string, name string, entryType EntryType, excludeID int64) (bool, error)
	HasTransactions(ctx context.Context, tenantID string, categoryID int64) (bool, error)
}
