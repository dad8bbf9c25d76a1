package homework

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/session"
)

var ErrNotFound = errors.New("assignment not found")

type (
	// Remote is the assignment side of the remote collaborator.
	Remote interface {
		// ListAssignments returns the assignments of the student, newest first.
		ListAssignments(ctx context.Context, studentID string) ([]Assignment, error)
		// SetAssignmentStatus is idempotent. Returns ErrNotFound for an unknown id.
		SetAssignmentStatus(ctx context.Context, id, status string) error
		InsertAssignment(ctx context.Context, a Assignment) (Assignment, error)
	}

	Prober interface {
		Online(ctx context.Context) bool
	}

	// CompletionSource is the local completion truth.
	CompletionSource interface {
		CompletedTopicIDs(ctx context.Context, sess session.Session) ([]string, error)
	}

	TopicFinder interface {
		Topic(ctx context.Context, lang, id string) (content.Topic, error)
	}

	// Reconciler promotes pending remote assignments whose topic is completed locally.
	Reconciler struct {
		remote   Remote
		prober   Prober
		progress CompletionSource
		topics   TopicFinder
		logger   core.Logger

		mu       sync.Mutex
		lastGood map[string][]Assignment // {studentID: assignments}
	}
)

func NewReconciler(remote Remote, prober Prober, progress CompletionSource, topics TopicFinder, logger core.Logger) *Reconciler {
	return &Reconciler{
		remote:   remote,
		prober:   prober,
		progress: progress,
		topics:   topics,
		logger:   logger,
		lastGood: make(map[string][]Assignment),
	}
}

// Reconcile fetches the assignments of the student and promotes the ones completed locally.
// When offline, or when the list cannot be fetched, the last list fetched is returned as stale.
// A failed promotion is logged and still shown completed until the next pass.
func (r *Reconciler) Reconcile(ctx context.Context, sess session.Session) (Result, error) {
	studentID := sess.StudentID()
	if studentID == "" {
		return Result{}, session.ErrNoActiveSession
	}
	if r.remote == nil || !r.prober.Online(ctx) {
		return r.stale(studentID, true), nil
	}

	list, err := r.remote.ListAssignments(ctx, studentID)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("fetching assignments of %s: %v", studentID, err), err, sess.Profile)
		return r.stale(studentID, false), nil
	}

	completed, err := r.progress.CompletedTopicIDs(ctx, sess)
	if err != nil {
		return Result{}, err
	}
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	res := Result{Assignments: copyAssignments(list), Promoted: []string{}, Failed: []string{}}
	for i, a := range res.Assignments {
		if !a.IsPending() || !done[a.TopicID] {
			continue
		}
		if err := r.remote.SetAssignmentStatus(ctx, a.ID, StatusCompleted); err != nil {
			r.logger.Error(fmt.Sprintf("promoting assignment %s (%s): %v", a.ID, a.TopicTitle, err), err, sess.Profile)
			res.Failed = append(res.Failed, a.ID)
		} else {
			r.logger.Info(fmt.Sprintf("assignment %s (%s) auto-completed", a.ID, a.TopicTitle))
			res.Promoted = append(res.Promoted, a.ID)
		}
		res.Assignments[i].Status = StatusCompleted
	}

	r.mu.Lock()
	r.lastGood[studentID] = copyAssignments(res.Assignments)
	r.mu.Unlock()
	return res, nil
}

func (r *Reconciler) stale(studentID string, offline bool) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Result{
		Assignments: copyAssignments(r.lastGood[studentID]),
		Promoted:    []string{},
		Failed:      []string{},
		Offline:     offline,
		Stale:       true,
	}
}

// OpenTopic resolves the topic of an assignment in the local catalog.
func (r *Reconciler) OpenTopic(ctx context.Context, lang, topicID string) (content.Topic, error) {
	t, err := r.topics.Topic(ctx, lang, topicID)
	if err != nil {
		if errors.Cause(err) == content.ErrTopicNotFound {
			return content.Topic{}, content.ErrTopicNotFound
		}
		return content.Topic{}, errors.Wrap(err, "loading topic")
	}
	return t, nil
}
