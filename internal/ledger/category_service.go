package ledger

import (
	"context"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/tenant"
)

// CategoryService handles category CRUD.
type CategoryService struct {
	categories domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories domain.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CreateCategory validates and creates a new category. Uniqueness is
// scoped to (tenant, name, type): "Rent" the expense category and
// "Rent" the income category (e.g. a landlord tenant) can coexist.
func (s *CategoryService) CreateCategory(ctx context.Context, tenantID, name string, entryType domain.EntryType, color string) (*domain.Category, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	name, err := validateName(name, domain.MaxCategoryNameLength)
	if err != nil {
		return nil, err
	}
	if !domain.ValidEntryTypes[entryType] {
		return nil, domain.ErrInvalidTransactionType
	}
	exists, err := s.categories.ExistsByNameAndType(ctx, tenantID, name, entryType, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUniqueViolation
	}
	return s.categories.Create(ctx, &domain.Category{
		TenantID: tenantID,
		Name:     name,
		Type:     entryType,
		Color:    color,
	})
}

// ListCategories returns every category for the tenant.
func (s *CategoryService) ListCategories(ctx context.Context, tenantID string) ([]*domain.Category, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return s.categories.List(ctx, tenantID)
}

// GetCategory returns a single category.
func (s *CategoryService) GetCategory(ctx context.Context, tenantID string, id int64) (*domain.Category, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return s.categories.Get(ctx, tenantID, id)
}

// UpdateCategory renames or recolors a category. Type is immutable
// after creation: changing it would silently reclassify every
// existing transaction's cube dimension out from under the cells that
// already aggregate it, without the update ever routing through the
// cube engine's regeneration path.
func (s *CategoryService) UpdateCategory(ctx context.Context, tenantID string, id int64, name, color string) (*domain.Category, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	name, err := validateName(name, domain.MaxCategoryNameLength)
	if err != nil {
		return nil, err
	}
	existing, err := s.categories.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.categories.ExistsByNameAndType(ctx, tenantID, name, existing.Type, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUniqueViolation
	}
	return s.categories.Update(ctx, tenantID, id, func(c *domain.Category) {
		c.Name = name
		c.Color = color
	})
}

// DeleteCategory removes a category, refusing if any transaction
// still references it.
func (s *CategoryService) DeleteCategory(ctx context.Context, tenantID string, id int64) error {
	if err := tenant.Validate(tenantID); err != nil {
		return err
	}
	has, err := s.categories.HasTransactions(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if has {
		return domain.ErrConflict
	}
	return s.categories.Delete(ctx, tenantID, id)
}
