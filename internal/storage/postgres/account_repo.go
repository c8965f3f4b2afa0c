package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// AccountRepository implements domain.AccountRepository against
// Postgres.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row interface {
	Scan(dest ...any) error
}) (*domain.Account, error) {
	var (
		a         domain.Account
		balance   pgtype.Numeric
		balDate   pgtype.Date
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&a.ID, &a.TenantID, &a.Name, &a.Type, &a.NetWorthCategory, &balance, &balDate, &a.Color, &a.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	a.Balance = numericToDecimal(balance)
	a.BalanceDate = pgToDate(balDate)
	a.CreatedAt = pgToTimestamp(createdAt)
	a.UpdatedAt = pgToTimestamp(updatedAt)
	return &a, nil
}

func (r *AccountRepository) List(ctx context.Context, tenantID string, filters domain.AccountFilters) ([]*domain.Account, error) {
	sql := `SELECT id, tenant_id, name, type, net_worth_category, balance, balance_date, color, is_active, created_at, updated_at
	        FROM accounts WHERE tenant_id = $1
	          AND ($2::text IS NULL OR type = $2)
	          AND ($3::bool IS NULL OR is_active = $3)
	          AND ($4::text = '' OR name ILIKE '%' || $4 || '%')
	        ORDER BY id`
	var typeArg *string
	if filters.Type != nil {
		s := string(*filters.Type)
		typeArg = &s
	}
	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, typeArg, filters.Active, filters.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepository) Get(ctx context.Context, tenantID string, id int64) (*domain.Account, error) {
	sql := `SELECT id, tenant_id, name, type, net_worth_category, balance, balance_date, color, is_active, created_at, updated_at
	        FROM accounts WHERE tenant_id = $1 AND id = $2`
	a, err := scanAccount(db(ctx, r.pool).QueryRow(ctx, sql, tenantID, id))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	balance, err := decimalToNumeric(account.Balance)
	if err != nil {
		return nil, err
	}
	sql := `INSERT INTO accounts (tenant_id, name, type, net_worth_category, balance, balance_date, color, is_active)
	        VALUES ($1, $2, $3, $4, $5, $6, $7, true)
	        RETURNING id, tenant_id, name, type, net_worth_category, balance, balance_date, color, is_active, created_at, updated_at`
	return scanAccount(db(ctx, r.pool).QueryRow(ctx, sql,
		account.TenantID, account.Name, account.Type, account.NetWorthCategory, balance, dateToPg(account.BalanceDate), account.Color))
}

func (r *AccountRepository) Update(ctx context.Context, tenantID string, id int64, mutate func(*domain.Account)) (*domain.Account, error) {
	existing, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	mutate(existing)

	balance, err := decimalToNumeric(existing.Balance)
	if err != nil {
		return nil, err
	}
	sql := `UPDATE accounts SET name = $3, net_worth_category = $4, balance = $5, balance_date = $6, color = $7, is_active = $8, updated_at = now()
	        WHERE tenant_id = $1 AND id = $2
	        RETURNING id, tenant_id, name, type, net_worth_category, balance, balance_date, color, is_active, created_at, updated_at`
	updated, err := scanAccount(db(ctx, r.pool).QueryRow(ctx, sql,
		tenantID, id, existing.Name, existing.NetWorthCategory, balance, dateToPg(existing.BalanceDate), existing.Color, existing.IsActive))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	return updated, err
}

func (r *AccountRepository) Delete(ctx context.Context, tenantID string, id int64) error {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) ExistsActiveByName(ctx context.Context, tenantID string, name string, excludeID int64) (bool, error) {
	var exists bool
	sql := `SELECT EXISTS(SELECT 1 FROM accounts WHERE tenant_id = $1 AND name = $2 AND is_active AND id != $3)`
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) HasTransactions(ctx context.Context, tenantID string, accountID int64) (bool, error) {
	var exists bool
	sql := `SELECT EXISTS(SELECT 1 FROM transactions WHERE tenant_id = $1 AND account_id = $2)`
	err := db(ctx, r.pool).QueryRow(ctx, sql, tenantID, accountID).Scan(&exists)
	return exists, err
}
