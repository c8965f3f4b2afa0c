package domain

import "github.com/google/uuid"

// ChangeKind classifies the ledger mutation a descriptor records.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "CREATE"
	ChangeUpdate ChangeKind = "UPDATE"
	ChangeDelete ChangeKind = "DELETE"
)

// ChangeDescriptor is emitted by the ledger service for every single-
// transaction mutation and consumed by the cube engine to identify
// which cells went stale. Old is nil for CREATE, New is nil for
// DELETE; both are set for UPDATE.
type ChangeDescriptor struct {
	TenantID      string
	TransactionID int64
	Kind          ChangeKind
	Old           *Projection
	New           *Projection

	// TraceID correlates this descriptor with the cube regenerations it
	// triggers in the logs. Callers that don't need correlation (most
	// tests) can leave it as the zero uuid.UUID.
	TraceID uuid.UUID
}

// BulkChangeDescriptor is emitted once per bulk_update_transactions or
// bulk_delete_transactions call, carrying every affected row's
// pre-mutation projection plus (for updates) the single field that
// changed and its new value. For updates the ledger service emits it
// only when OldProjections share a uniform value for Field. The cube
// engine walks every row's old (and, for updates, field-changed new)
// projection and regenerates each distinct cell once.
type BulkChangeDescriptor struct {
	TenantID       string
	TransactionIDs []int64
	Kind           ChangeKind // ChangeUpdate or ChangeDelete
	OldProjections []Projection
	Field          ChangedField
	Update         BulkUpdateInput // valid only when Kind == ChangeUpdate

	// TraceID correlates this descriptor with the cube regenerations it
	// triggers in the logs.
	TraceID uuid.UUID
}
