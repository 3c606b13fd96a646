package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgDiagnostics holds the server-side details of a Postgres failure,
// whichever driver surfaced it.
type pgDiagnostics struct {
	code, constraint, table, column, detail, message string
}

func findPG(err error) (pgDiagnostics, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgDiagnostics{
			code: pgxErr.Code, constraint: pgxErr.ConstraintName, table: pgxErr.TableName,
			column: pgxErr.ColumnName, detail: pgxErr.Detail, message: pgxErr.Message,
		}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgDiagnostics{
			code: string(pqErr.Code), constraint: pqErr.Constraint, table: pqErr.Table,
			column: pqErr.Column, detail: pqErr.Detail, message: pqErr.Message,
		}, true
	}
	return pgDiagnostics{}, false
}

// LogFields flattens err into structured log fields: the top message, the typed
// code when present, every wrapped layer, and pg_* keys for database failures.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_chain": chain,
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = typed.Code()
	}

	if pg, ok := findPG(err); ok {
		fields["pg_code"] = pg.code
		fields["pg_constraint"] = pg.constraint
		fields["pg_table"] = pg.table
		fields["pg_column"] = pg.column
		fields["pg_detail"] = pg.detail
		fields["pg_message"] = pg.message
	}
	return fields
}
