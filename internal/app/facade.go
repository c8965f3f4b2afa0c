// Package app wires the ledger, balance, and cube components together
// behind the storage transaction boundary: every ledger write and the
// cube regeneration it triggers commit or roll back as one unit, so a
// reader never observes a ledger mutation whose cube cells haven't
// caught up yet.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/balance"
	"github.com/dafibh/fortuna/cubeadmin/internal/cube"
	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/ledger"
	"github.com/dafibh/fortuna/cubeadmin/internal/pacing"
)

// TxRunner runs fn within a single storage transaction attached to
// ctx. internal/storage/postgres.TxManager is the production
// implementation; tests supply a no-op runner over in-memory mocks.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Facade is the application's single entry point: every mutation a
// caller (an admin CLI command, an import job) issues against the
// ledger goes through here, never directly through internal/ledger.
type Facade struct {
	tx           TxRunner
	Accounts     *ledger.AccountService
	Categories   *ledger.CategoryService
	Transactions *ledger.TransactionService
	Balance      *balance.Engine
	Cube         *cube.Engine
	Pacer        *pacing.Pacer
}

// New creates a Facade from its component services.
func New(tx TxRunner, accounts *ledger.AccountService, categories *ledger.CategoryService, transactions *ledger.TransactionService, bal *balance.Engine, cubeEngine *cube.Engine, pacer *pacing.Pacer) *Facade {
	return &Facade{
		tx:           tx,
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		Balance:      bal,
		Cube:         cubeEngine,
		Pacer:        pacer,
	}
}

// CreateTransaction records a posting and regenerates the cube cells
// it touches in one storage transaction.
func (f *Facade) CreateTransaction(ctx context.Context, tenantID string, input ledger.CreateTransactionInput) (*domain.Transaction, error) {
	var created *domain.Transaction
	err := f.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		var descriptor domain.ChangeDescriptor
		created, descriptor, err = f.Transactions.CreateTransaction(ctx, tenantID, input)
		if err != nil {
			return err
		}
		return f.Cube.ApplyChange(ctx, tenantID, descriptor)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateTransaction updates a posting and regenerates the cube cells
// it leaves and enters in one storage transaction.
func (f *Facade) UpdateTransaction(ctx context.Context, tenantID string, id int64, input ledger.UpdateTransactionInput) (*domain.Transaction, error) {
	var updated *domain.Transaction
	err := f.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		var descriptor domain.ChangeDescriptor
		updated, descriptor, err = f.Transactions.UpdateTransaction(ctx, tenantID, id, input)
		if err != nil {
			return err
		}
		return f.Cube.ApplyChange(ctx, tenantID, descriptor)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a posting and regenerates the cube cell it
// vacates in one storage transaction.
func (f *Facade) DeleteTransaction(ctx context.Context, tenantID string, id int64) error {
	return f.tx.WithTx(ctx, func(ctx context.Context) error {
		descriptor, err := f.Transactions.DeleteTransaction(ctx, tenantID, id)
		if err != nil {
			return err
		}
		return f.Cube.ApplyChange(ctx, tenantID, descriptor)
	})
}

// BulkUpdateTransactions applies a single-field bulk mutation and
// regenerates the handful of cube cells it touches, via the
// bulk-metadata fast path, in one storage transaction.
func (f *Facade) BulkUpdateTransactions(ctx context.Context, tenantID string, input domain.BulkUpdateInput) error {
	return f.tx.WithTx(ctx, func(ctx context.Context) error {
		descriptor, err := f.Transactions.BulkUpdateTransactions(ctx, tenantID, input)
		if err != nil {
			return err
		}
		return f.Cube.ApplyBulkChange(ctx, tenantID, descriptor)
	})
}

// BulkDeleteTransactions deletes many postings and regenerates the
// cube cells they vacate in one storage transaction.
func (f *Facade) BulkDeleteTransactions(ctx context.Context, tenantID string, ids []int64) error {
	return f.tx.WithTx(ctx, func(ctx context.Context) error {
		descriptor, err := f.Transactions.BulkDeleteTransactions(ctx, tenantID, ids)
		if err != nil {
			return err
		}
		return f.Cube.ApplyBulkChange(ctx, tenantID, descriptor)
	})
}

// ReconcileAccount anchors an observed balance as of date and, when it
// disagrees with the computed balance by more than
// domain.ReconcileTolerance, posts a single adjustment transaction for
// the exact signed difference before resyncing the account's cached
// balance -- all in one storage transaction. adjustmentType overrides
// the default INCOME/EXPENSE typing by difference sign (e.g. to record
// the adjustment as a TRANSFER); pass nil to use the default. The
// returned transaction is nil when no adjustment was needed.
func (f *Facade) ReconcileAccount(ctx context.Context, tenantID string, accountID int64, date time.Time, newBalance decimal.Decimal, adjustmentType *domain.EntryType) (*domain.Account, *domain.Transaction, error) {
	var account *domain.Account
	var adjustment *domain.Transaction
	err := f.tx.WithTx(ctx, func(ctx context.Context) error {
		// The computed balance must be read before the new anchor is
		// written, or it would just echo newBalance back and the
		// difference would always be zero.
		before, err := f.Balance.BalanceAt(ctx, tenantID, accountID, date)
		if err != nil {
			return err
		}

		if _, err := f.Accounts.ReconcileAccount(ctx, tenantID, accountID, date, newBalance); err != nil {
			return err
		}

		diff := newBalance.Sub(before.Balance)
		if diff.Abs().GreaterThan(domain.ReconcileTolerance) {
			entryType := domain.EntryTypeIncome
			if diff.IsNegative() {
				entryType = domain.EntryTypeExpense
			}
			if adjustmentType != nil {
				entryType = *adjustmentType
			}
			if !domain.ValidEntryTypes[entryType] {
				return domain.ErrInvalidTransactionType
			}

			created, descriptor, err := f.Transactions.CreateTransaction(ctx, tenantID, ledger.CreateTransactionInput{
				AccountID:   accountID,
				Amount:      diff,
				Description: "Reconciliation adjustment",
				Date:        date,
				Type:        entryType,
			})
			if err != nil {
				return err
			}
			if err := f.Cube.ApplyChange(ctx, tenantID, descriptor); err != nil {
				return err
			}
			adjustment = created
		}

		account, err = f.Balance.SyncAccountBalance(ctx, tenantID, accountID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return account, adjustment, nil
}
