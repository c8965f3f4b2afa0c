// Package balance implements C2, the balance-reconstruction engine:
// point-in-time account balances computed from the nearest anchor plus
// the signed transaction deltas between that anchor and the query
// date, or, for an account with no anchor, as the direct sum of every
// posting up to the query date.
package balance

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/tenant"
)

// Engine reconstructs account balances.
type Engine struct {
	accounts     domain.AccountRepository
	anchors      domain.BalanceAnchorRepository
	transactions domain.TransactionRepository
}

// NewEngine creates a new Engine.
func NewEngine(accounts domain.AccountRepository, anchors domain.BalanceAnchorRepository, transactions domain.TransactionRepository) *Engine {
	return &Engine{accounts: accounts, anchors: anchors, transactions: transactions}
}

// Method tags which reconstruction path produced a BalanceResult, so a
// caller (the register, the daily history, a reconciliation) can
// report how a figure was derived instead of presenting every balance
// as equally authoritative.
type Method string

const (
	// MethodAnchorForward sums postings strictly after the nearest
	// anchor at or before the query date.
	MethodAnchorForward Method = "anchor-forward"
	// MethodAnchorBackward subtracts postings after the query date from
	// the nearest later anchor, used when no anchor exists at or before
	// the query date.
	MethodAnchorBackward Method = "anchor-backward"
	// MethodDirect sums every posting from account inception, used only
	// when the account has no anchor at all.
	MethodDirect Method = "direct"
)

// BalanceResult is a reconstructed balance together with the method
// that produced it and the anchor it was reconstructed from, if any.
type BalanceResult struct {
	Balance decimal.Decimal
	Method  Method
	Anchor  *domain.BalanceAnchor
}

// BalanceAt reconstructs accountID's balance as of date (inclusive of
// that day's postings). It prefers anchor-forward -- the nearest
// anchor at or before date, plus the sum of postings strictly after
// the anchor through date -- falling back to anchor-backward when
// only a later anchor exists, and to summing from zero only when the
// account has no anchor at all.
func (e *Engine) BalanceAt(ctx context.Context, tenantID string, accountID int64, date time.Time) (BalanceResult, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return BalanceResult{}, err
	}
	date = date.UTC()

	if before, err := e.anchors.NearestAtOrBefore(ctx, tenantID, accountID, date); err == nil {
		delta, err := e.transactions.SumInRange(ctx, tenantID, accountID, before.Date, date, false, true)
		if err != nil {
			return BalanceResult{}, err
		}
		return BalanceResult{Balance: before.Balance.Add(delta), Method: MethodAnchorForward, Anchor: before}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return BalanceResult{}, err
	}

	after, err := e.anchors.NearestAfter(ctx, tenantID, accountID, date)
	if err == nil {
		// Anchor-backward: subtract the postings between date (exclusive)
		// and the anchor (inclusive) from the anchor's balance.
		delta, err := e.transactions.SumInRange(ctx, tenantID, accountID, date, after.Date, false, true)
		if err != nil {
			return BalanceResult{}, err
		}
		return BalanceResult{Balance: after.Balance.Sub(delta), Method: MethodAnchorBackward, Anchor: after}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return BalanceResult{}, err
	}

	// Direct: no anchor exists at all for this account yet.
	sum, err := e.transactions.SumInRange(ctx, tenantID, accountID, time.Time{}, date, true, true)
	if err != nil {
		return BalanceResult{}, err
	}
	return BalanceResult{Balance: sum, Method: MethodDirect}, nil
}

// DailyBalance is one point in a BalanceHistory series. Method and
// Anchor describe the reconstruction the whole series' running total
// was seeded from; Net is that day's own sum of signed posting
// amounts, distinct from Balance's running total.
type DailyBalance struct {
	Date    time.Time
	Balance decimal.Decimal
	Net     decimal.Decimal
	Method  Method
	Anchor  *domain.BalanceAnchor
}

// BalanceHistory returns one balance per calendar day in [start, end],
// computed by walking the ordered posting stream once and carrying a
// running total forward from the day before start, rather than
// calling BalanceAt per day.
func (e *Engine) BalanceHistory(ctx context.Context, tenantID string, accountID int64, start, end time.Time) ([]DailyBalance, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)

	dayBefore := start.AddDate(0, 0, -1)
	base, err := e.BalanceAt(ctx, tenantID, accountID, dayBefore)
	if err != nil {
		return nil, err
	}
	running := base.Balance

	postings, err := e.transactions.ForAccount(ctx, tenantID, accountID, &start, &end)
	if err != nil {
		return nil, err
	}

	byDay := map[int64]decimal.Decimal{}
	for _, p := range postings {
		key := p.Date.Unix()
		byDay[key] = byDay[key].Add(p.Amount)
	}

	history := make([]DailyBalance, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		net := byDay[d.Unix()]
		running = running.Add(net)
		history = append(history, DailyBalance{Date: d, Balance: running, Net: net, Method: base.Method, Anchor: base.Anchor})
	}
	return history, nil
}

// RunningBalancePosting pairs a transaction with its running balance
// immediately after it is applied, in the deterministic (date, id,
// description) order the ledger always presents a register in.
type RunningBalancePosting struct {
	Transaction *domain.Transaction
	Balance     decimal.Decimal
}

// RunningBalances reconstructs the running balance after every
// posting for accountID in [start, end], returned newest-first: the
// running total itself is computed forward from the anchor since each
// balance depends on every posting before it, but the annotated list
// callers see is reversed to match the register's newest-first
// presentation.
func (e *Engine) RunningBalances(ctx context.Context, tenantID string, accountID int64, start, end time.Time) ([]RunningBalancePosting, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	dayBefore := start.UTC().AddDate(0, 0, -1)
	base, err := e.BalanceAt(ctx, tenantID, accountID, dayBefore)
	if err != nil {
		return nil, err
	}
	running := base.Balance

	postings, err := e.transactions.ForAccount(ctx, tenantID, accountID, &start, &end)
	if err != nil {
		return nil, err
	}

	out := make([]RunningBalancePosting, len(postings))
	for i, p := range postings {
		running = running.Add(p.Amount)
		out[len(postings)-1-i] = RunningBalancePosting{Transaction: p, Balance: running}
	}
	return out, nil
}

// SyncAccountBalance recomputes accountID's current balance (as of
// today UTC) and writes it back onto the account row, the same
// denormalized cache the teacher's account listing reads to avoid
// summing transactions on every request.
func (e *Engine) SyncAccountBalance(ctx context.Context, tenantID string, accountID int64) (*domain.Account, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	result, err := e.BalanceAt(ctx, tenantID, accountID, today)
	if err != nil {
		return nil, err
	}
	return e.accounts.Update(ctx, tenantID, accountID, func(a *domain.Account) {
		a.Balance = result.Balance
		a.BalanceDate = today
	})
}

// Reconcile compares the anchor-derived balance at date against
// expected, returning the signed adjustment needed (zero if they
// already agree) -- the amount a caller would post as an adjustment
// transaction to make the ledger match a bank statement.
func (e *Engine) Reconcile(ctx context.Context, tenantID string, accountID int64, date time.Time, expected decimal.Decimal) (decimal.Decimal, error) {
	result, err := e.BalanceAt(ctx, tenantID, accountID, date)
	if err != nil {
		return decimal.Zero, err
	}
	return expected.Sub(result.Balance), nil
}
