package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/session"
)

var (
	NowFunc = time.Now // mockable

	ErrNotFound = errors.New("progress not found")
)

type (
	// Repository is the local progress & history store. Every read is scoped to one student.
	Repository interface {
		UpsertProgress(ctx context.Context, rec Record) (Record, error)
		// GetProgress returns ErrNotFound when the student never opened the topic.
		GetProgress(ctx context.Context, studentID, topicID string) (Record, error)
		QueryProgress(ctx context.Context, studentID string) ([]Record, error)
		UpsertHistory(ctx context.Context, h History) (History, error)
		QueryHistory(ctx context.Context, studentID string) ([]History, error)
	}

	// Publisher fans progress events out to whoever is listening.
	Publisher interface {
		Publish(ctx context.Context, ev Event) error
	}

	Service struct {
		repo         Repository
		pub          Publisher
		logger       core.Logger
		keepFurthest bool
	}
)

// NewService returns the progress recorder.
// With keepFurthest a smaller page index never lowers a record; otherwise the last write wins.
func NewService(repo Repository, pub Publisher, logger core.Logger, keepFurthest bool) *Service {
	return &Service{repo: repo, pub: pub, logger: logger, keepFurthest: keepFurthest}
}

func checkSession(sess session.Session) error {
	if sess.StudentID() == "" {
		return session.ErrNoActiveSession
	}
	return nil
}

// RecordPageReached stores the reading position of the student in a topic.
func (svc *Service) RecordPageReached(ctx context.Context, sess session.Session, topicID string, pageIndex, totalPages int) (Record, error) {
	if err := checkSession(sess); err != nil {
		return Record{}, err
	}
	topicID = core.CleanString(topicID)
	if topicID == "" {
		return Record{}, core.NewValidationError(errors.New("topic is required"), core.FieldError{Field: "topic", Error: "this field is required"})
	}
	pct, complete, err := Compute(pageIndex, totalPages)
	if err != nil {
		return Record{}, core.NewValidationError(err, core.FieldError{Field: "page_index", Error: err.Error()})
	}

	rec := Record{
		StudentID:          sess.StudentID(),
		TopicID:            topicID,
		LastPageIndex:      pageIndex,
		PercentageComplete: pct,
		IsComplete:         complete,
		LastUpdatedAt:      NowFunc().UTC(),
	}
	if svc.keepFurthest {
		prev, err := svc.repo.GetProgress(ctx, rec.StudentID, topicID)
		switch {
		case err == nil:
			if prev.IsComplete || prev.LastPageIndex >= pageIndex {
				return prev, nil
			}
		case errors.Cause(err) != ErrNotFound:
			return Record{}, core.NewStorageError("getting progress", err)
		}
	}
	return svc.save(ctx, rec)
}

// MarkComplete flags the topic as complete regardless of the pages read (e.g. quiz passed).
// The furthest page already reached is kept.
func (svc *Service) MarkComplete(ctx context.Context, sess session.Session, topicID string) (Record, error) {
	if err := checkSession(sess); err != nil {
		return Record{}, err
	}
	topicID = core.CleanString(topicID)
	if topicID == "" {
		return Record{}, core.NewValidationError(errors.New("topic is required"), core.FieldError{Field: "topic", Error: "this field is required"})
	}

	rec := Record{
		StudentID:          sess.StudentID(),
		TopicID:            topicID,
		PercentageComplete: 100,
		IsComplete:         true,
		LastUpdatedAt:      NowFunc().UTC(),
	}
	prev, err := svc.repo.GetProgress(ctx, rec.StudentID, topicID)
	if err == nil {
		rec.LastPageIndex = prev.LastPageIndex
	} else if errors.Cause(err) != ErrNotFound {
		return Record{}, core.NewStorageError("getting progress", err)
	}
	return svc.save(ctx, rec)
}

// save upserts rec, then broadcasts the completed topics. The broadcast never precedes the write.
func (svc *Service) save(ctx context.Context, rec Record) (Record, error) {
	rec, err := svc.repo.UpsertProgress(ctx, rec)
	if err != nil {
		return Record{}, core.NewStorageError("saving progress", err)
	}
	if svc.pub == nil {
		return rec, nil
	}

	records, err := svc.repo.QueryProgress(ctx, rec.StudentID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("progress saved but not broadcast: %v", err), err)
		return rec, nil
	}
	ev := Event{StudentID: rec.StudentID, CompletedTopicIDs: CompletedIDs(records), At: rec.LastUpdatedAt}
	if err = svc.pub.Publish(ctx, ev); err != nil {
		svc.logger.Warn(fmt.Sprintf("publishing progress event: %v", err), err)
	}
	return rec, nil
}

// All returns every progress record of the student. An empty store yields an empty slice.
func (svc *Service) All(ctx context.Context, sess session.Session) ([]Record, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	records, err := svc.repo.QueryProgress(ctx, sess.StudentID())
	if err != nil {
		return nil, core.NewStorageError("querying progress", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (svc *Service) CompletedTopicIDs(ctx context.Context, sess session.Session) ([]string, error) {
	records, err := svc.All(ctx, sess)
	if err != nil {
		return nil, err
	}
	return CompletedIDs(records), nil
}

// Visit records that the student opened a topic, overwriting the previous visit of that topic.
func (svc *Service) Visit(ctx context.Context, sess session.Session, v Visit) (History, error) {
	if err := checkSession(sess); err != nil {
		return History{}, err
	}
	h, err := svc.repo.UpsertHistory(ctx, History{
		StudentID: sess.StudentID(),
		TopicID:   v.TopicID,
		Topic:     v.Topic,
		Subject:   v.Subject,
		Summary:   v.Summary,
		Timestamp: NowFunc().UTC(),
	})
	if err != nil {
		return History{}, core.NewStorageError("saving history", err)
	}
	return h, nil
}

func (svc *Service) History(ctx context.Context, sess session.Session) ([]History, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	hist, err := svc.repo.QueryHistory(ctx, sess.StudentID())
	if err != nil {
		return nil, core.NewStorageError("querying history", err)
	}
	if hist == nil {
		hist = []History{}
	}
	return hist, nil
}
