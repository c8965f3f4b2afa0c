// Package cube implements C3, the cube maintenance engine: it keeps a
// pre-aggregated dimensional table in sync with the ledger by
// identifying exactly which cells a change touches and surgically
// deleting and re-aggregating those cells, rather than recomputing the
// whole cube on every write.
package cube

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dafibh/fortuna/cubeadmin/internal/domain"
	"github.com/dafibh/fortuna/cubeadmin/internal/tenant"
)

var periodTypes = []domain.PeriodType{domain.PeriodWeekly, domain.PeriodMonthly}

// Engine applies ledger changes to the cube and answers cube queries.
type Engine struct {
	cube         domain.CubeRepository
	transactions domain.TransactionRepository
}

// NewEngine creates a new Engine.
func NewEngine(cube domain.CubeRepository, transactions domain.TransactionRepository) *Engine {
	return &Engine{cube: cube, transactions: transactions}
}

// targetKey dedupes RegenerationTargets that resolve to the same cell.
type targetKey struct {
	periodType  domain.PeriodType
	periodStart int64
	accountID   int64
	categoryID  int64
	hasCategory bool
	entryType   domain.EntryType
	isRecurring bool
}

func keyOf(t domain.RegenerationTarget) targetKey {
	k := targetKey{
		periodType:  t.PeriodType,
		periodStart: t.PeriodStart.Unix(),
		accountID:   t.AccountID,
		entryType:   t.Type,
		isRecurring: t.IsRecurring,
	}
	if t.CategoryID != nil {
		k.categoryID = *t.CategoryID
		k.hasCategory = true
	}
	return k
}

// targetsForProjection expands one projection into one
// RegenerationTarget per period type -- WEEKLY and MONTHLY are
// maintained independently, so every change touches one cell in each.
func targetsForProjection(p domain.Projection) []domain.RegenerationTarget {
	out := make([]domain.RegenerationTarget, 0, len(periodTypes))
	for _, pt := range periodTypes {
		out = append(out, domain.RegenerationTarget{
			PeriodType:  pt,
			PeriodStart: domain.PeriodStart(pt, p.Date),
			AccountID:   p.AccountID,
			CategoryID:  p.CategoryID,
			Type:        p.Type,
			IsRecurring: p.IsRecurring,
		})
	}
	return out
}

// targetsForChange resolves a single ChangeDescriptor to its
// deduplicated set of regeneration targets: CREATE and DELETE touch
// one set of cells (the New or Old projection's), UPDATE touches the
// union of both -- one set if only a non-dimensional field (amount,
// description) changed, two if the change moved the posting to a
// different cell.
func targetsForChange(d domain.ChangeDescriptor) []domain.RegenerationTarget {
	seen := map[targetKey]domain.RegenerationTarget{}
	add := func(p *domain.Projection) {
		if p == nil {
			return
		}
		for _, t := range targetsForProjection(*p) {
			seen[keyOf(t)] = t
		}
	}
	add(d.Old)
	add(d.New)

	out := make([]domain.RegenerationTarget, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	return out
}

// regenerate deletes the stale cell at target's key and, if the
// underlying ledger rows still produce a non-empty aggregate,
// rewrites it. Absence of rows is not an error -- the cell simply
// stays deleted, which is correct when the change removed the last
// posting in that cell.
func (e *Engine) regenerate(ctx context.Context, tenantID string, target domain.RegenerationTarget) error {
	if err := e.cube.DeleteCell(ctx, tenantID, target); err != nil {
		return err
	}

	periodStart := target.PeriodStart
	periodEnd := domain.PeriodEnd(target.PeriodType, periodStart)
	predicate := domain.AggregatePredicate{
		Type:        target.Type,
		IsRecurring: target.IsRecurring,
		AccountID:   &target.AccountID,
		CategoryIDs: []*int64{target.CategoryID},
	}

	rows, err := e.transactions.Aggregate(ctx, tenantID, periodStart, periodEnd, predicate)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	row := rows[0]
	return e.cube.UpsertCell(ctx, tenantID, target, row.AccountName, row.CategoryName, row.TotalAmount, row.TransactionCount)
}

// ApplyChange regenerates every cell a single-transaction mutation
// touches. Callers invoke this within the same storage transaction
// that recorded the ledger mutation, so the cube is never observably
// stale to a concurrent reader.
func (e *Engine) ApplyChange(ctx context.Context, tenantID string, descriptor domain.ChangeDescriptor) error {
	if err := tenant.Validate(tenantID); err != nil {
		return err
	}
	targets := targetsForChange(descriptor)
	log.Debug().Str("tenant_id", tenantID).Str("trace_id", descriptor.TraceID.String()).
		Str("kind", string(descriptor.Kind)).Int("targets", len(targets)).Msg("regenerating cube cells")
	for _, target := range targets {
		if err := e.regenerate(ctx, tenantID, target); err != nil {
			return err
		}
	}
	return nil
}

// ApplyBulkChange regenerates the cells touched by a bulk update or
// bulk delete. The ledger service only enforces uniformity on the
// field being changed, so the other dimensions (account, category,
// type, is_recurring) can still vary across the selection; the target
// set is every cell that some row of OldProjections (and, for updates,
// its field-changed counterpart) maps to, deduplicated by cell key. This
// still regenerates far fewer cells than one-per-transaction whenever
// the selection clusters onto a handful of distinct dimension
// combinations (the bulk-metadata fast path), but it is not bounded to
// a single cell pair the way a fully uniform selection would be.
func (e *Engine) ApplyBulkChange(ctx context.Context, tenantID string, descriptor domain.BulkChangeDescriptor) error {
	if err := tenant.Validate(tenantID); err != nil {
		return err
	}
	if len(descriptor.OldProjections) == 0 {
		return nil
	}
	log.Debug().Str("tenant_id", tenantID).Str("trace_id", descriptor.TraceID.String()).
		Str("kind", string(descriptor.Kind)).Int("rows", len(descriptor.OldProjections)).
		Msg("regenerating cube cells for bulk change")

	// The uniformity the ledger service enforces before emitting this
	// descriptor only covers the changed field itself -- account_id,
	// is_recurring, and type are free to vary across the selection, so
	// every row's old (and, for updates, field-changed new) projection
	// must be walked individually. Collapsing is still what keeps this
	// cheap: distinct rows sharing every dimension collapse to the same
	// targetKey and regenerate once.
	seen := map[targetKey]domain.RegenerationTarget{}
	for _, old := range descriptor.OldProjections {
		for _, t := range targetsForProjection(old) {
			seen[keyOf(t)] = t
		}
		if descriptor.Kind == domain.ChangeUpdate {
			newProj := applyFieldChange(old, descriptor.Field, descriptor.Update)
			for _, t := range targetsForProjection(newProj) {
				seen[keyOf(t)] = t
			}
		}
	}

	for _, target := range seen {
		if err := e.regenerate(ctx, tenantID, target); err != nil {
			return err
		}
	}
	return nil
}

// applyFieldChange returns the projection old would become after a
// bulk update changes field, mirroring the mutation
// TransactionRepository.BulkUpdateField performs in storage.
func applyFieldChange(old domain.Projection, field domain.ChangedField, update domain.BulkUpdateInput) domain.Projection {
	p := old
	switch field {
	case domain.FieldCategoryID:
		p.CategoryID = update.NewCategoryID
	case domain.FieldAccountID:
		p.AccountID = update.NewAccountID
	case domain.FieldType:
		p.Type = update.NewType
	case domain.FieldAmount:
		p.Amount = update.NewAmount
	case domain.FieldIsRecurring:
		p.IsRecurring = update.NewIsRecurring
	}
	return p
}

// Query answers a cube read against the pre-aggregated cells.
func (e *Engine) Query(ctx context.Context, tenantID string, filters domain.CubeQueryFilters) ([]*domain.CubeCell, error) {
	if err := tenant.Validate(tenantID); err != nil {
		return nil, err
	}
	return e.cube.Query(ctx, tenantID, filters)
}
