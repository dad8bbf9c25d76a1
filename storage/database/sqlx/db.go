package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/masomo-offline/core"
)

// sqlxNamedExec binds the :name parameters of query from arg and executes it on db.
func sqlxNamedExec(ctx context.Context, db core.DBExecutor, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, db, query, arg)
}
