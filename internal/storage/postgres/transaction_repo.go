package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// TransactionRepository implements domain.TransactionRepository
// against Postgres.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, tenant_id, account_id, category_id, amount, description, date, type, is_recurring, created_at, updated_at`

func scanTransaction(row interface{ Scan(dest ...any) error }) (*domain.Transaction, error) {
	var (
		t          domain.Transaction
		categoryID pgtype.Int8
		amount     pgtype.Numeric
		date       pgtype.Date
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&t.ID, &t.TenantID, &t.AccountID, &categoryID, &amount, &t.Description, &date, &t.Type, &t.IsRecurring, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.CategoryID = fromNullableInt64(categoryID)
	t.Amount = numericToDecimal(amount)
	t.Date = pgToDate(date)
	t.CreatedAt = pgToTimestamp(createdAt)
	t.UpdatedAt = pgToTimestamp(updatedAt)
	return &t, nil
}

func (r *TransactionRepository) List(ctx context.Context, tenantID string, filters domain.TransactionFilters) ([]*domain.TransactionView, error) {
	const viewColumns = `t.id, t.tenant_id, t.account_id, t.category_id, t.amount, t.description, t.date, t.type, t.is_recurring, t.created_at, t.updated_at`
	sql := `SELECT ` + viewColumns + `, a.name, c.name
	        FROM transactions t
	        JOIN accounts a ON a.tenant_id = t.tenant_id AND a.id = t.account_id
	        LEFT JOIN categories c ON c.tenant_id = t.tenant_id AND c.id = t.category_id
	        WHERE t.tenant_id = $1
	          AND ($2::bigint IS NULL OR t.account_id = $2)
	          AND ($3::bigint IS NULL OR t.category_id = $3)
	          AND ($4::date IS NULL OR t.date >= $4)
	          AND ($5::date IS NULL OR t.date <= $5)
	          AND ($6::text IS NULL OR t.type = $6)
	          AND ($7::bool IS NULL OR t.is_recurring = $7)
	        ORDER BY t.date, t.id, t.description`

	var startArg, endArg *pgtype.Date
	if filters.StartDate != nil {
		d := dateToPg(*filters.StartDate)
		startArg = &d
	}
	if filters.EndDate != nil {
		d := dateToPg(*filters.EndDate)
		endArg = &d
	}
	var typeArg *string
	if filters.Type != nil {
		s := string(*filters.Type)
		typeArg = &s
	}

	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, filters.AccountID, filters.CategoryID, startArg, endArg, typeArg, filters.IsRecurring)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.TransactionView
	for rows.Next() {
		var (
			view         domain.TransactionView
			categoryID   pgtype.Int8
			amount       pgtype.Numeric
			date         pgtype.Date
			createdAt    pgtype.Timestamptz
			updatedAt    pgtype.Timestamptz
			categoryName pgtype.Text
		)
		if err := rows.Scan(&view.ID, &view.TenantID, &view.AccountID, &categoryID, &amount, &view.Description, &date, &view.Type, &view.IsRecurring, &createdAt, &updatedAt, &view.AccountName, &categoryName); err != nil {
			return nil, err
		}
		view.CategoryID = fromNullableInt64(categoryID)
		view.Amount = numericToDecimal(amount)
		view.Date = pgToDate(date)
		view.CreatedAt = pgToTimestamp(createdAt)
		view.UpdatedAt = pgToTimestamp(updatedAt)
		if categoryName.Valid {
			view.CategoryName = &categoryName.String
		}
		out = append(out, &view)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) Get(ctx context.Context, tenantID string, id int64) (*domain.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE tenant_id = $1 AND id = $2`
	t, err := scanTransaction(db(ctx, r.pool).QueryRow(ctx, sql, tenantID, id))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

func (r *TransactionRepository) GetByIDs(ctx context.Context, tenantID string, ids []int64) ([]*domain.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions WHERE tenant_id = $1 AND id = ANY($2)`
	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != len(ids) {
		return nil, domain.ErrNotFound
	}
	return out, nil
}

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToNumeric(t.Amount)
	if err != nil {
		return nil, err
	}
	sql := `INSERT INTO transactions (tenant_id, account_id, category_id, amount, description, date, type, is_recurring)
	        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	        RETURNING ` + transactionColumns
	return scanTransaction(db(ctx, r.pool).QueryRow(ctx, sql,
		t.TenantID, t.AccountID, nullableInt64(t.CategoryID), amount, t.Description, dateToPg(t.Date), t.Type, t.IsRecurring))
}

func (r *TransactionRepository) Update(ctx context.Context, tenantID string, id int64, mutate func(*domain.Transaction)) (domain.Projection, domain.Projection, error) {
	existing, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return domain.Projection{}, domain.Projection{}, err
	}
	old := domain.ProjectionOf(existing)
	mutate(existing)

	amount, err := decimalToNumeric(existing.Amount)
	if err != nil {
		return domain.Projection{}, domain.Projection{}, err
	}
	sql := `UPDATE transactions SET account_id = $3, category_id = $4, amount = $5, description = $6, date = $7, type = $8, is_recurring = $9, updated_at = now()
	        WHERE tenant_id = $1 AND id = $2
	        RETURNING ` + transactionColumns
	updated, err := scanTransaction(db(ctx, r.pool).QueryRow(ctx, sql,
		tenantID, id, existing.AccountID, nullableInt64(existing.CategoryID), amount, existing.Description, dateToPg(existing.Date), existing.Type, existing.IsRecurring))
	if isNoRows(err) {
		return domain.Projection{}, domain.Projection{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Projection{}, domain.Projection{}, err
	}
	return old, domain.ProjectionOf(updated), nil
}

func (r *TransactionRepository) Delete(ctx context.Context, tenantID string, id int64) (domain.Projection, error) {
	existing, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return domain.Projection{}, err
	}
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM transactions WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return domain.Projection{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Projection{}, domain.ErrNotFound
	}
	return domain.ProjectionOf(existing), nil
}

func (r *TransactionRepository) BulkUpdateField(ctx context.Context, tenantID string, input domain.BulkUpdateInput) ([]domain.Projection, error) {
	rows, err := r.GetByIDs(ctx, tenantID, input.IDs)
	if err != nil {
		return nil, err
	}
	old := make([]domain.Projection, len(rows))
	for i, t := range rows {
		old[i] = domain.ProjectionOf(t)
	}

	var column string
	var arg any
	switch input.Field {
	case domain.FieldCategoryID:
		column, arg = "category_id", nullableInt64(input.NewCategoryID)
	case domain.FieldAccountID:
		column, arg = "account_id", input.NewAccountID
	case domain.FieldType:
		column, arg = "type", input.NewType
	case domain.FieldAmount:
		numeric, err := decimalToNumeric(input.NewAmount)
		if err != nil {
			return nil, err
		}
		column, arg = "amount", numeric
	case domain.FieldIsRecurring:
		column, arg = "is_recurring", input.NewIsRecurring
	}

	sql := fmt.Sprintf(`UPDATE transactions SET %s = $3, updated_at = now() WHERE tenant_id = $1 AND id = ANY($2)`, column)
	if _, err := db(ctx, r.pool).Exec(ctx, sql, tenantID, input.IDs, arg); err != nil {
		return nil, err
	}
	return old, nil
}

func (r *TransactionRepository) BulkDelete(ctx context.Context, tenantID string, ids []int64) ([]domain.Projection, error) {
	rows, err := r.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	old := make([]domain.Projection, len(rows))
	for i, t := range rows {
		old[i] = domain.ProjectionOf(t)
	}
	_, err = db(ctx, r.pool).Exec(ctx, `DELETE FROM transactions WHERE tenant_id = $1 AND id = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, err
	}
	return old, nil
}

func (r *TransactionRepository) ForAccount(ctx context.Context, tenantID string, accountID int64, start, end *time.Time) ([]*domain.Transaction, error) {
	sql := `SELECT ` + transactionColumns + ` FROM transactions
	        WHERE tenant_id = $1 AND account_id = $2
	          AND ($3::date IS NULL OR date >= $3)
	          AND ($4::date IS NULL OR date <= $4)
	        ORDER BY date, id, description`
	var startArg, endArg *pgtype.Date
	if start != nil {
		d := dateToPg(*start)
		startArg = &d
	}
	if end != nil {
		d := dateToPg(*end)
		endArg = &d
	}
	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, accountID, startArg, endArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) SumInRange(ctx context.Context, tenantID string, accountID int64, from, to time.Time, fromInclusive, toInclusive bool) (decimal.Decimal, error) {
	fromOp, toOp := ">", "<"
	if fromInclusive {
		fromOp = ">="
	}
	if toInclusive {
		toOp = "<="
	}
	sql := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE tenant_id = $1 AND account_id = $2 AND date %s $3 AND date %s $4`, fromOp, toOp)
	var sum pgtype.Numeric
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, accountID, dateToPg(from), dateToPg(to)).Scan(&sum)
	return numericToDecimal(sum), err
}

func (r *TransactionRepository) SumAllInRange(ctx context.Context, tenantID string, start, end time.Time) (decimal.Decimal, error) {
	sql := `SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE tenant_id = $1 AND date >= $2 AND date <= $3`
	var sum pgtype.Numeric
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, dateToPg(start), dateToPg(end)).Scan(&sum)
	return numericToDecimal(sum), err
}

func (r *TransactionRepository) aggregate(ctx context.Context, tenantID string, periodStart, periodEnd time.Time, predicateSQL string, args []any) ([]domain.AggregateRow, error) {
	sql := `SELECT t.type, t.category_id, MIN(c.name), t.account_id, MIN(a.name), t.is_recurring, SUM(t.amount), COUNT(*)
	        FROM transactions t
	        JOIN accounts a ON a.tenant_id = t.tenant_id AND a.id = t.account_id
	        LEFT JOIN categories c ON c.tenant_id = t.tenant_id AND c.id = t.category_id
	        WHERE t.tenant_id = $1 AND t.date >= $2 AND t.date < $3` + predicateSQL + `
	        GROUP BY t.type, t.category_id, t.account_id, t.is_recurring`

	allArgs := append([]any{tenantID, dateToPg(periodStart), dateToPg(periodEnd)}, args...)
	rows, err := db(ctx, r.pool).Query(ctx, sql, allArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AggregateRow
	for rows.Next() {
		var (
			row          domain.AggregateRow
			categoryID   pgtype.Int8
			categoryName pgtype.Text
			total        pgtype.Numeric
		)
		if err := rows.Scan(&row.Type, &categoryID, &categoryName, &row.AccountID, &row.AccountName, &row.IsRecurring, &total, &row.TransactionCount); err != nil {
			return nil, err
		}
		row.CategoryID = fromNullableInt64(categoryID)
		if categoryName.Valid {
			row.CategoryName = &categoryName.String
		}
		row.TotalAmount = numericToDecimal(total)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) Aggregate(ctx context.Context, tenantID string, periodStart, periodEnd time.Time, predicate domain.AggregatePredicate) ([]domain.AggregateRow, error) {
	clauses := []string{"AND t.type = $4", "AND t.is_recurring = $5"}
	args := []any{predicate.Type, predicate.IsRecurring}
	argN := 6

	if predicate.AccountID != nil {
		clauses = append(clauses, fmt.Sprintf("AND t.account_id = $%d", argN))
		args = append(args, *predicate.AccountID)
		argN++
	}
	if predicate.CategoryIDs != nil {
		// The caller pins exactly one category (possibly nil, meaning
		// uncategorized) per regeneration target.
		cat := predicate.CategoryIDs[0]
		if cat == nil {
			clauses = append(clauses, "AND t.category_id IS NULL")
		} else {
			clauses = append(clauses, fmt.Sprintf("AND t.category_id = $%d", argN))
			args = append(args, *cat)
			argN++
		}
	}

	return r.aggregate(ctx, tenantID, periodStart, periodEnd, " "+strings.Join(clauses, " "), args)
}

func (r *TransactionRepository) AggregateAll(ctx context.Context, tenantID string, periodStart, periodEnd time.Time) ([]domain.AggregateRow, error) {
	return r.aggregate(ctx, tenantID, periodStart, periodEnd, "", nil)
}

func (r *TransactionRepository) ActiveTenants(ctx context.Context, since time.Time) ([]string, error) {
	sql := `SELECT DISTINCT tenant_id FROM transactions WHERE date >= $1 ORDER BY tenant_id`
	rows, err := db(ctx, r.pool).Query(ctx, sql, dateToPg(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		out = append(out, tenantID)
	}
	return out, rows.Err()
}

func (r *TransactionRepository) GetRecentlyUsedCategories(ctx context.Context, tenantID string, limit int) ([]*domain.RecentCategory, error) {
	sql := `
		SELECT c.id, c.name, MAX(t.date) AS last_used
		FROM transactions t
		JOIN categories c ON c.id = t.category_id AND c.tenant_id = t.tenant_id
		WHERE t.tenant_id = $1 AND t.category_id IS NOT NULL
		GROUP BY c.id, c.name
		ORDER BY last_used DESC, c.id ASC
		LIMIT $2`
	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.RecentCategory
	for rows.Next() {
		var rc domain.RecentCategory
		var lastUsed pgtype.Date
		if err := rows.Scan(&rc.ID, &rc.Name, &lastUsed); err != nil {
			return nil, err
		}
		rc.LastUsed = pgToDate(lastUsed)
		out = append(out, &rc)
	}
	return out, rows.Err()
}
