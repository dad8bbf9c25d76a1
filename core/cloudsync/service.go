package cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
)

var (
	NowFunc = time.Now // mockable

	ErrOffline = errors.New("the cloud backend is unreachable")
)

type (
	// Remote is the roster side of the remote collaborator.
	Remote interface {
		UpsertStudentProgress(ctx context.Context, sp StudentProgress) error
		// ListStudentProgress returns the roster, most recently synced first.
		ListStudentProgress(ctx context.Context) ([]StudentProgress, error)
	}

	Prober interface {
		Online(ctx context.Context) bool
	}

	Builder struct {
		sessions *session.Service
		progress *progress.Service
	}

	Pusher struct {
		builder *Builder
		remote  Remote
		prober  Prober
		logger  core.Logger
	}
)

func NewBuilder(sessions *session.Service, progressSvc *progress.Service) *Builder {
	return &Builder{sessions: sessions, progress: progressSvc}
}

// Build assembles the payload of sess. It never writes.
func (b *Builder) Build(ctx context.Context, sess session.Session) (Payload, error) {
	records, err := b.progress.All(ctx, sess)
	if err != nil {
		return Payload{}, err
	}
	hist, err := b.progress.History(ctx, sess)
	if err != nil {
		return Payload{}, err
	}

	items := make([]HistoryItem, 0, len(hist))
	for _, h := range hist {
		items = append(items, HistoryItem{Topic: h.Topic, Time: h.Timestamp})
	}
	return Payload{
		StudentID:       sess.Profile.ID,
		StudentName:     sess.Profile.Name,
		Grade:           sess.Profile.Grade,
		LastSync:        NowFunc().UTC(),
		CompletedTopics: progress.CompletedIDs(records),
		LearningHistory: items,
		RawProgress:     records,
	}, nil
}

// Active builds the payload of the resident student, or returns session.ErrNoActiveSession.
func (b *Builder) Active(ctx context.Context) (Payload, error) {
	sess, err := b.sessions.Active(ctx)
	if err != nil {
		return Payload{}, err
	}
	return b.Build(ctx, sess)
}

func NewPusher(builder *Builder, remote Remote, prober Prober, logger core.Logger) *Pusher {
	return &Pusher{builder: builder, remote: remote, prober: prober, logger: logger}
}

// Push uploads the payload of sess to the remote roster.
func (p *Pusher) Push(ctx context.Context, sess session.Session) (Payload, error) {
	if p.remote == nil || !p.prober.Online(ctx) {
		return Payload{}, ErrOffline
	}
	payload, err := p.builder.Build(ctx, sess)
	if err != nil {
		return Payload{}, err
	}
	sp, err := payload.StudentProgress()
	if err != nil {
		return Payload{}, errors.Wrap(err, "encoding payload")
	}
	if err = p.remote.UpsertStudentProgress(ctx, sp); err != nil {
		p.logger.Warn(fmt.Sprintf("pushing progress of %s: %v", sess.StudentID(), err), err, sess.Profile)
		return Payload{}, errors.Wrap(err, "pushing student progress")
	}
	p.logger.Info(fmt.Sprintf("progress of %s synced (%d topics completed)", sess.StudentID(), sp.CompletedCount))
	return payload, nil
}
