package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/session"
)

type profileRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Grade     null.String `db:"grade"`
	Role      string      `db:"role"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r profileRow) profile() session.Profile {
	return session.Profile{ID: r.ID, Name: r.Name, Grade: r.Grade.String, Role: r.Role, CreatedAt: r.CreatedAt.UTC()}
}

type sessionRepository struct {
	db core.DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db core.DB) session.Repository {
	return &sessionRepository{db: db}
}

// SaveProfile empties the slot and inserts p in one transaction.
func (repo *sessionRepository) SaveProfile(ctx context.Context, p session.Profile) (session.Profile, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return session.Profile{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		return session.Profile{}, errors.Wrap(err, "clearing profile")
	}
	q := tx.Rebind(`INSERT INTO profile (id, name, grade, role, created_at) VALUES (?, ?, ?, ?, ?)`)
	grade := null.NewString(p.Grade, p.Grade != "")
	if _, err = tx.ExecContext(ctx, q, p.ID, p.Name, grade, p.Role, p.CreatedAt.UTC()); err != nil {
		return session.Profile{}, errors.Wrap(err, "inserting profile")
	}
	if err = tx.Commit(); err != nil {
		return session.Profile{}, errors.Wrap(err, "committing profile")
	}
	p.ProgressIDs = nil
	return p, nil
}

func (repo *sessionRepository) GetProfile(ctx context.Context) (session.Profile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, grade, role, created_at FROM profile LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Profile{}, session.ErrNoActiveSession
		}
		return session.Profile{}, errors.Wrap(err, "querying profile")
	}
	return row.profile(), nil
}

func (repo *sessionRepository) DeleteProfile(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM profile`)
	return errors.Wrap(err, "deleting profile")
}

func (repo *sessionRepository) PutAux(ctx context.Context, key string, blob []byte) error {
	q := repo.db.Rebind(`INSERT INTO aux (aux_key, value) VALUES (?, ?)
		ON CONFLICT (aux_key) DO UPDATE SET value = excluded.value`)
	_, err := repo.db.ExecContext(ctx, q, key, string(blob))
	return errors.Wrap(err, "upserting aux")
}

func (repo *sessionRepository) GetAux(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := repo.db.GetContext(ctx, &value, repo.db.Rebind(`SELECT value FROM aux WHERE aux_key = ?`), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "querying aux")
	}
	return []byte(value), nil
}
