package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/progress"
)

type historyRow struct {
	StudentID string      `db:"student_id"`
	TopicID   string      `db:"topic_id"`
	Topic     string      `db:"topic"`
	Subject   string      `db:"subject"`
	Summary   null.String `db:"summary"`
	Timestamp time.Time   `db:"timestamp"`
}

func (r historyRow) history() progress.History {
	return progress.History{
		StudentID: r.StudentID,
		TopicID:   r.TopicID,
		Topic:     r.Topic,
		Subject:   r.Subject,
		Summary:   r.Summary.String,
		Timestamp: r.Timestamp.UTC(),
	}
}

type progressRepository struct {
	db core.DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db core.DB) progress.Repository {
	return &progressRepository{db: db}
}

const progressColumns = `student_id, topic_id, last_page_index, percentage_complete, is_complete, last_updated_at`

func (repo *progressRepository) UpsertProgress(ctx context.Context, rec progress.Record) (progress.Record, error) {
	rec.LastUpdatedAt = rec.LastUpdatedAt.UTC()
	q := `INSERT INTO progress (` + progressColumns + `)
		VALUES (:student_id, :topic_id, :last_page_index, :percentage_complete, :is_complete, :last_updated_at)
		ON CONFLICT (student_id, topic_id) DO UPDATE SET
			last_page_index = excluded.last_page_index,
			percentage_complete = excluded.percentage_complete,
			is_complete = excluded.is_complete,
			last_updated_at = excluded.last_updated_at`
	if _, err := sqlxNamedExec(ctx, repo.db, q, rec); err != nil {
		return progress.Record{}, errors.Wrap(err, "upserting progress")
	}
	return rec, nil
}

func (repo *progressRepository) GetProgress(ctx context.Context, studentID, topicID string) (progress.Record, error) {
	var rec progress.Record
	q := repo.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE student_id = ? AND topic_id = ?`)
	if err := repo.db.GetContext(ctx, &rec, q, studentID, topicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.Record{}, progress.ErrNotFound
		}
		return progress.Record{}, errors.Wrap(err, "querying progress")
	}
	rec.LastUpdatedAt = rec.LastUpdatedAt.UTC()
	return rec, nil
}

func (repo *progressRepository) QueryProgress(ctx context.Context, studentID string) ([]progress.Record, error) {
	records := make([]progress.Record, 0)
	ord := core.DBOrdering{Field: "topic_id", Ascending: true}
	q := repo.db.Rebind(`SELECT ` + progressColumns + ` FROM progress WHERE student_id = ? ORDER BY ` + ord.String())
	if err := repo.db.SelectContext(ctx, &records, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	for i := range records {
		records[i].LastUpdatedAt = records[i].LastUpdatedAt.UTC()
	}
	return records, nil
}

func (repo *progressRepository) UpsertHistory(ctx context.Context, h progress.History) (progress.History, error) {
	h.Timestamp = h.Timestamp.UTC()
	row := historyRow{
		StudentID: h.StudentID,
		TopicID:   h.TopicID,
		Topic:     h.Topic,
		Subject:   h.Subject,
		Summary:   null.NewString(h.Summary, h.Summary != ""),
		Timestamp: h.Timestamp,
	}
	q := `INSERT INTO history (student_id, topic_id, topic, subject, summary, timestamp)
		VALUES (:student_id, :topic_id, :topic, :subject, :summary, :timestamp)
		ON CONFLICT (student_id, topic_id) DO UPDATE SET
			topic = excluded.topic,
			subject = excluded.subject,
			summary = excluded.summary,
			timestamp = excluded.timestamp`
	if _, err := sqlxNamedExec(ctx, repo.db, q, row); err != nil {
		return progress.History{}, errors.Wrap(err, "upserting history")
	}
	return h, nil
}

// QueryHistory returns the visits of the student, most recent first.
func (repo *progressRepository) QueryHistory(ctx context.Context, studentID string) ([]progress.History, error) {
	var rows []historyRow
	ord := core.DBOrdering{Field: "timestamp"}
	q := repo.db.Rebind(`SELECT student_id, topic_id, topic, subject, summary, timestamp
		FROM history WHERE student_id = ? ORDER BY ` + ord.String())
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying history")
	}
	hist := make([]progress.History, 0, len(rows))
	for _, r := range rows {
		hist = append(hist, r.history())
	}
	return hist, nil
}
