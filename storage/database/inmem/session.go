package inmemdb

import (
	"context"

	"github.com/trezcool/masomo-offline/core/session"
)

type sessionRepository struct {
	profile *profileTable
	aux     *auxTable
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{profile: db.profile, aux: db.aux}
}

func (repo *sessionRepository) SaveProfile(_ context.Context, p session.Profile) (session.Profile, error) {
	repo.profile.Lock()
	defer repo.profile.Unlock()

	p.ProgressIDs = nil
	repo.profile.row = &p
	return p, nil
}

func (repo *sessionRepository) GetProfile(_ context.Context) (session.Profile, error) {
	repo.profile.RLock()
	defer repo.profile.RUnlock()

	if repo.profile.row == nil {
		return session.Profile{}, session.ErrNoActiveSession
	}
	return *repo.profile.row, nil
}

func (repo *sessionRepository) DeleteProfile(_ context.Context) error {
	repo.profile.Lock()
	defer repo.profile.Unlock()
	repo.profile.row = nil
	return nil
}

func (repo *sessionRepository) PutAux(_ context.Context, key string, blob []byte) error {
	repo.aux.Lock()
	defer repo.aux.Unlock()
	repo.aux.table[key] = append([]byte(nil), blob...)
	return nil
}

func (repo *sessionRepository) GetAux(_ context.Context, key string) ([]byte, error) {
	repo.aux.RLock()
	defer repo.aux.RUnlock()

	blob, ok := repo.aux.table[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob...), nil
}
