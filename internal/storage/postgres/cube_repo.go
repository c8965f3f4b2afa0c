package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// CubeRepository implements domain.CubeRepository against Postgres.
// The cube table's unique constraint is (tenant_id, period_type,
// period_start, account_id, category_id, type, is_recurring) -- the
// same dimensional key a RegenerationTarget identifies.
type CubeRepository struct {
	pool *pgxpool.Pool
}

// NewCubeRepository creates a new CubeRepository.
func NewCubeRepository(pool *pgxpool.Pool) *CubeRepository {
	return &CubeRepository{pool: pool}
}

func targetCategoryArg(target domain.RegenerationTarget) pgtype.Int8 {
	return nullableInt64(target.CategoryID)
}

func (r *CubeRepository) DeleteCell(ctx context.Context, tenantID string, target domain.RegenerationTarget) error {
	sql := `DELETE FROM cube_cells
	        WHERE tenant_id = $1 AND period_type = $2 AND period_start = $3
	          AND account_id = $4 AND category_id IS NOT DISTINCT FROM $5
	          AND type = $6 AND is_recurring = $7`
	_, err := db(ctx, r.pool).Exec(ctx, sql, tenantID, target.PeriodType, dateToPg(target.PeriodStart),
		target.AccountID, targetCategoryArg(target), target.Type, target.IsRecurring)
	return err
}

func (r *CubeRepository) UpsertCell(ctx context.Context, tenantID string, target domain.RegenerationTarget, accountName string, categoryName *string, total decimal.Decimal, count int64) error {
	amount, err := decimalToNumeric(total)
	if err != nil {
		return err
	}
	var catName pgtype.Text
	if categoryName != nil {
		catName = pgtype.Text{String: *categoryName, Valid: true}
	}
	sql := `INSERT INTO cube_cells
	          (tenant_id, period_type, period_start, account_id, account_name, category_id, category_name, type, is_recurring, total_amount, transaction_count, updated_at)
	        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
	        ON CONFLICT (tenant_id, period_type, period_start, account_id, category_id, type, is_recurring)
	        DO UPDATE SET account_name = EXCLUDED.account_name, category_name = EXCLUDED.category_name,
	                      total_amount = EXCLUDED.total_amount, transaction_count = EXCLUDED.transaction_count, updated_at = now()`
	_, err = db(ctx, r.pool).Exec(ctx, sql, tenantID, target.PeriodType, dateToPg(target.PeriodStart),
		target.AccountID, accountName, targetCategoryArg(target), catName, target.Type, target.IsRecurring, amount, count)
	return err
}

func (r *CubeRepository) Query(ctx context.Context, tenantID string, filters domain.CubeQueryFilters) ([]*domain.CubeCell, error) {
	sql := `SELECT id, tenant_id, period_type, period_start, account_id, account_name, category_id, category_name, type, is_recurring, total_amount, transaction_count, updated_at
	        FROM cube_cells
	        WHERE tenant_id = $1 AND period_type = $2 AND period_start >= $3 AND period_start <= $4
	          AND ($5::bigint IS NULL OR account_id = $5)
	          AND ($6::bigint IS NULL OR category_id = $6)
	          AND ($7::text IS NULL OR type = $7)
	          AND ($8::bool IS NULL OR is_recurring = $8)
	        ORDER BY period_start`

	var typeArg *string
	if filters.Type != nil {
		s := string(*filters.Type)
		typeArg = &s
	}
	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, filters.PeriodType, dateToPg(filters.Start), dateToPg(filters.End),
		filters.AccountID, filters.CategoryID, typeArg, filters.IsRecurring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CubeCell
	for rows.Next() {
		var (
			c            domain.CubeCell
			periodStart  pgtype.Date
			categoryID   pgtype.Int8
			categoryName pgtype.Text
			total        pgtype.Numeric
			updatedAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&c.ID, &c.TenantID, &c.PeriodType, &periodStart, &c.AccountID, &c.AccountName,
			&categoryID, &categoryName, &c.Type, &c.IsRecurring, &total, &c.TransactionCount, &updatedAt); err != nil {
			return nil, err
		}
		c.PeriodStart = pgToDate(periodStart)
		c.CategoryID = fromNullableInt64(categoryID)
		if categoryName.Valid {
			c.CategoryName = &categoryName.String
		}
		c.TotalAmount = numericToDecimal(total)
		c.UpdatedAt = pgToTimestamp(updatedAt)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CubeRepository) SumAll(ctx context.Context, tenantID string, periodType domain.PeriodType, start, end time.Time) (decimal.Decimal, error) {
	sql := `SELECT COALESCE(SUM(total_amount), 0) FROM cube_cells
	        WHERE tenant_id = $1 AND period_type = $2 AND period_start >= $3 AND period_start <= $4`
	var sum pgtype.Numeric
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, periodType, dateToPg(start), dateToPg(end)).Scan(&sum)
	return numericToDecimal(sum), err
}

func (r *CubeRepository) EarliestActivity(ctx context.Context, tenantID string) (time.Time, error) {
	sql := `SELECT MIN(date) FROM transactions WHERE tenant_id = $1`
	var earliest pgtype.Date
	if err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID).Scan(&earliest); err != nil {
		return time.Time{}, err
	}
	if !earliest.Valid {
		return time.Time{}, domain.ErrNotFound
	}
	return pgToDate(earliest), nil
}
