package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

func queryRowFuncNoOp(row pgx.QueryFuncRow) error { return nil }

// Query runs sql and scans every returned row into scans. When no rows are returned scans are left untouched,
// so callers detect absence by a zero ID.
func Query(ctx context.Context, tx pgx.Tx, sql string, args []interface{}, scans []interface{}) error {
	_, err := tx.QueryFunc(ctx, sql, args, scans, queryRowFuncNoOp)
	return err
}

// queryUpdateDelete executes an update or delete statement and reports whether any row was affected.
func queryUpdateDelete(ctx context.Context, tx pgx.Tx, sql string, args []interface{}) (bool, error) {
	ct, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func queryExists(ctx context.Context, tx pgx.Tx, sql string, args []interface{}) (bool, error) {
	var i int
	if err := Query(ctx, tx, sql, args, []interface{}{&i}); err != nil {
		return false, err
	}
	return i == 1, nil
}
