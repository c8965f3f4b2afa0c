package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository against
// Postgres.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func scanCategory(row interface{ Scan(dest ...any) error }) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Type, &c.Color); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context, tenantID string) ([]*domain.Category, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `SELECT id, tenant_id, name, type, color FROM categories WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) Get(ctx context.Context, tenantID string, id int64) (*domain.Category, error) {
	c, err := scanCategory(db(ctx, r.pool).QueryRow(ctx, `SELECT id, tenant_id, name, type, color FROM categories WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	sql := `INSERT INTO categories (tenant_id, name, type, color) VALUES ($1, $2, $3, $4)
	        RETURNING id, tenant_id, name, type, color`
	return scanCategory(db(ctx, r.pool).QueryRow(ctx, sql, category.TenantID, category.Name, category.Type, category.Color))
}

func (r *CategoryRepository) Update(ctx context.Context, tenantID string, id int64, mutate func(*domain.Category)) (*domain.Category, error) {
	existing, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	mutate(existing)

	sql := `UPDATE categories SET name = $3, color = $4 WHERE tenant_id = $1 AND id = $2
	        RETURNING id, tenant_id, name, type, color`
	updated, err := scanCategory(db(ctx, r.pool).QueryRow(ctx, sql, tenantID, id, existing.Name, existing.Color))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

func (r *CategoryRepository) Delete(ctx context.Context, tenantID string, id int64) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) ExistsByNameAndType(ctx context.Context, tenantID string, name string, entryType domain.EntryType, excludeID int64) (bool, error) {
	var exists bool
	sql := `SELECT EXISTS(SELECT 1 FROM categories WHERE tenant_id = $1 AND name = $2 AND type = $3 AND id != $4)`
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, name, entryType, excludeID).Scan(&exists)
	return exists, err
}

func (r *CategoryRepository) HasTransactions(ctx context.Context, tenantID string, categoryID int64) (bool, error) {
	var exists bool
	sql := `SELECT EXISTS(SELECT 1 FROM transactions WHERE tenant_id = $1 AND category_id = $2)`
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, categoryID).Scan(&exists)
	return exists, err
}
