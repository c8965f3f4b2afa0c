package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
)

// BalanceAnchorRepository implements domain.BalanceAnchorRepository
// against Postgres.
type BalanceAnchorRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceAnchorRepository creates a new BalanceAnchorRepository.
func NewBalanceAnchorRepository(pool *pgxpool.Pool) *BalanceAnchorRepository {
	return &BalanceAnchorRepository{pool: pool}
}

func scanAnchor(row interface{ Scan(dest ...any) error }) (*domain.BalanceAnchor, error) {
	var (
		a         domain.BalanceAnchor
		balance   pgtype.Numeric
		date      pgtype.Date
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&a.ID, &a.TenantID, &a.AccountID, &date, &balance, &createdAt); err != nil {
		return nil, err
	}
	a.Date = pgToDate(date)
	a.Balance = numericToDecimal(balance)
	a.CreatedAt = pgToTimestamp(createdAt)
	return &a, nil
}

func (r *BalanceAnchorRepository) Create(ctx context.Context, anchor *domain.BalanceAnchor) (*domain.BalanceAnchor, error) {
	balance, err := decimalToNumeric(anchor.Balance)
	if err != nil {
		return nil, err
	}
	sql := `INSERT INTO balance_anchors (tenant_id, account_id, date, balance) VALUES ($1, $2, $3, $4)
	        RETURNING id, tenant_id, account_id, date, balance, created_at`
	return scanAnchor(db(ctx, r.pool).QueryRow(ctx, sql, anchor.TenantID, anchor.AccountID, dateToPg(anchor.Date), balance))
}

func (r *BalanceAnchorRepository) NearestAtOrBefore(ctx context.Context, tenantID string, accountID int64, date time.Time) (*domain.BalanceAnchor, error) {
	sql := `SELECT id, tenant_id, account_id, date, balance, created_at FROM balance_anchors
	        WHERE tenant_id = $1 AND account_id = $2 AND date <= $3
	        ORDER BY date DESC LIMIT 1`
	a, err := scanAnchor(db(ctx, r.pool).QueryRow(ctx, sql, tenantID, accountID, dateToPg(date)))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *BalanceAnchorRepository) NearestAfter(ctx context.Context, tenantID string, accountID int64, date time.Time) (*domain.BalanceAnchor, error) {
	sql := `SELECT id, tenant_id, account_id, date, balance, created_at FROM balance_anchors
	        WHERE tenant_id = $1 AND account_id = $2 AND date > $3
	        ORDER BY date ASC LIMIT 1`
	a, err := scanAnchor(db(ctx, r.pool).QueryRow(ctx, sql, tenantID, accountID, dateToPg(date)))
	if isNoRows(err) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

func (r *BalanceAnchorRepository) List(ctx context.Context, tenantID string, accountID int64) ([]*domain.BalanceAnchor, error) {
	sql := `SELECT id, tenant_id, account_id, date, balance, created_at FROM balance_anchors
	        WHERE tenant_id = $1 AND account_id = $2 ORDER BY date ASC`
	rows, err := db(ctx, r.pool).Query(ctx, sql, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.BalanceAnchor
	for rows.Next() {
		a, err := scanAnchor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
