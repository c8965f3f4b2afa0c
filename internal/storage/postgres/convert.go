package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// decimalToNumeric converts a shopspring/decimal value to the
// pgtype.Numeric pgx scans money columns into and out of, following
// the teacher's own decimalToPgNumeric helper.
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

// numericToDecimal converts a scanned pgtype.Numeric back to decimal,
// treating a SQL NULL as zero.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// dateToPg converts a UTC-midnight time.Time to pgtype.Date.
func dateToPg(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t.UTC(), Valid: true}
}

// pgToDate converts a scanned pgtype.Date back to UTC time.Time.
func pgToDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time.UTC()
}

// timestampToPg converts a time.Time to pgtype.Timestamptz.
func timestampToPg(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// pgToTimestamp converts a scanned pgtype.Timestamptz back to
// time.Time.
func pgToTimestamp(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// nullableInt64 converts a *int64 to pgtype.Int8.
func nullableInt64(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

// fromNullableInt64 converts a scanned pgtype.Int8 back to *int64.
func fromNullableInt64(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	val := v.Int64
	return &val
}
