package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/homework"
	"github.com/trezcool/masomo-offline/core/session"
)

const runTimeout = time.Minute

// Report sums up one background sync.
type Report struct {
	StudentID string           `json:"student_id"`
	Pushed    bool             `json:"pushed"`
	Offline   bool             `json:"offline"`
	Homework  *homework.Result `json:"homework,omitempty"`
}

// Scheduler periodically pushes the payload of the active student and reconciles the homework.
type Scheduler struct {
	cron       *gocron.Scheduler
	interval   time.Duration
	sessions   *session.Service
	pusher     *cloudsync.Pusher
	reconciler *homework.Reconciler
	logger     core.Logger
}

func New(
	conf *core.Config,
	sessions *session.Service,
	pusher *cloudsync.Pusher,
	reconciler *homework.Reconciler,
	logger core.Logger,
) *Scheduler {
	return &Scheduler{
		cron:       gocron.NewScheduler(time.UTC),
		interval:   conf.SyncInterval,
		sessions:   sessions,
		pusher:     pusher,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Start runs the sync every interval in the background. A zero interval disables it.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("background sync disabled")
		return nil
	}
	if _, err := s.cron.Every(s.interval).SingletonMode().Do(s.run); err != nil {
		return errors.Wrap(err, "scheduling sync")
	}
	s.cron.StartAsync()
	s.logger.Info(fmt.Sprintf("background sync every %s", s.interval))
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil && errors.Cause(err) != session.ErrNoActiveSession {
		s.logger.Error(fmt.Sprintf("background sync: %v", err), err)
	}
}

// RunOnce pushes and reconciles for the active student. Being offline is not an error.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	sess, err := s.sessions.Active(ctx)
	if err != nil {
		return Report{}, err
	}
	rep := Report{StudentID: sess.StudentID()}

	switch _, err = s.pusher.Push(ctx, sess); errors.Cause(err) {
	case nil:
		rep.Pushed = true
	case cloudsync.ErrOffline:
		rep.Offline = true
		s.logger.Debug("background sync skipped: offline")
		return rep, nil
	default:
		return rep, err
	}

	res, err := s.reconciler.Reconcile(ctx, sess)
	if err != nil {
		return rep, errors.Wrap(err, "reconciling homework")
	}
	rep.Homework = &res
	rep.Offline = res.Offline
	return rep, nil
}
