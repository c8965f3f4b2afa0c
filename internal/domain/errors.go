package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the ledger, balance, and cube components. Every
// error kind named in the error-handling design is one sentinel;
// callers dispatch with errors.Is, never string matching or typed
// exceptions.
var (
	// ErrTenantRequired is returned when a call carries no tenant id.
	ErrTenantRequired = errors.New("tenant id is required")

	// ErrNotFound is returned when a referenced account, category,
	// transaction, or anchor does not exist within the caller's tenant.
	ErrNotFound = errors.New("resource not found")

	// ErrCrossTenant is returned when a referenced id exists but
	// belongs to a different tenant. Treated identically to ErrNotFound
	// by callers, to avoid leaking cross-tenant existence information.
	ErrCrossTenant = errors.New("resource not found")

	// ErrUniqueViolation is returned for account/category name
	// collisions within a tenant.
	ErrUniqueViolation = errors.New("unique constraint violated")

	// ErrConflict is returned when deleting an account or category
	// that is still referenced by transactions.
	ErrConflict = errors.New("resource is referenced and cannot be deleted")

	// ErrFutureReconcileDate is returned when a reconciliation date is
	// after today UTC.
	ErrFutureReconcileDate = errors.New("reconcile date is in the future")

	// ErrNonUniformBulk is returned when a bulk update's changed field
	// does not have a uniform old value across the affected rows.
	ErrNonUniformBulk = errors.New("bulk update old value is not uniform across affected rows")

	// ErrUnsupportedBulkField is returned when a bulk update attempts
	// to change the transaction date.
	ErrUnsupportedBulkField = errors.New("bulk update cannot change date")

	// ErrCubeInconsistency is returned only by ValidateConsistency.
	ErrCubeInconsistency = errors.New("cube is inconsistent with the ledger")

	// ErrNameRequired is returned when a required name field is blank.
	ErrNameRequired = errors.New("name is required")

	// ErrNameTooLong is returned when a name exceeds its field limit.
	ErrNameTooLong = errors.New("name exceeds maximum length")

	// ErrInvalidAccountType is returned for an unrecognized AccountType.
	ErrInvalidAccountType = errors.New("invalid account type")

	// ErrInvalidNetWorthCategory is returned for an unrecognized
	// NetWorthCategory.
	ErrInvalidNetWorthCategory = errors.New("invalid net worth category")

	// ErrInvalidTransactionType is returned for an unrecognized
	// EntryType.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrEmptyBulkSelection is returned when a bulk operation is given
	// zero ids.
	ErrEmptyBulkSelection = errors.New("bulk operation requires at least one id")

	// ErrMultipleFieldsChanged is returned when a bulk update attempts
	// to change more than one field at a time.
	ErrMultipleFieldsChanged = errors.New("bulk update may change at most one field")

	// ErrNoFieldsChanged is returned when a bulk update names no field.
	ErrNoFieldsChanged = errors.New("bulk update must change exactly one field")
)

// Validation constants.
const (
	MaxAccountNameLength  = 255
	MaxCategoryNameLength = 255
)

// ReconcileTolerance is the largest |new_balance - computed_balance|
// a reconciliation absorbs silently; anything larger gets a synthesized
// adjustment transaction for the exact signed difference.
var ReconcileTolerance = decimal.NewFromFloat(0.005)
