package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/masomo-offline/core/progress"
)

type progressRepository struct {
	progress *progressTable
	history  *historyTable
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) progress.Repository {
	return &progressRepository{progress: db.progress, history: db.history}
}

func (repo *progressRepository) UpsertProgress(_ context.Context, rec progress.Record) (progress.Record, error) {
	repo.progress.Lock()
	defer repo.progress.Unlock()
	repo.progress.table[rowKey{rec.StudentID, rec.TopicID}] = &rec
	return rec, nil
}

func (repo *progressRepository) GetProgress(_ context.Context, studentID, topicID string) (progress.Record, error) {
	repo.progress.RLock()
	defer repo.progress.RUnlock()

	if rec, ok := repo.progress.table[rowKey{studentID, topicID}]; ok {
		return *rec, nil
	}
	return progress.Record{}, progress.ErrNotFound
}

func (repo *progressRepository) QueryProgress(_ context.Context, studentID string) ([]progress.Record, error) {
	repo.progress.RLock()
	defer repo.progress.RUnlock()

	records := make([]progress.Record, 0)
	for _, rec := range repo.progress.table {
		if rec.StudentID == studentID {
			records = append(records, *rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].TopicID < records[j].TopicID })
	return records, nil
}

func (repo *progressRepository) UpsertHistory(_ context.Context, h progress.History) (progress.History, error) {
	repo.history.Lock()
	defer repo.history.Unlock()
	repo.history.table[rowKey{h.StudentID, h.TopicID}] = &h
	return h, nil
}

// QueryHistory returns the visits of the student, most recent first.
func (repo *progressRepository) QueryHistory(_ context.Context, studentID string) ([]progress.History, error) {
	repo.history.RLock()
	defer repo.history.RUnlock()

	hist := make([]progress.History, 0)
	for _, h := range repo.history.table {
		if h.StudentID == studentID {
			hist = append(hist, *h)
		}
	}
	sort.Slice(hist, func(i, j int) bool { return hist[i].Timestamp.After(hist[j].Timestamp) })
	return hist, nil
}
