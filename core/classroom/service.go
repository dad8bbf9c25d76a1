package classroom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/homework"
	"github.com/trezcool/masomo-offline/core/session"
)

var ErrUnknownStudent = errors.New("this student never synced")

type (
	Prober interface {
		Online(ctx context.Context) bool
	}

	// Service backs the teacher dashboard. Everything but the prefs needs the cloud backend.
	Service struct {
		roster      cloudsync.Remote
		assignments homework.Remote
		prober      Prober
		catalog     *content.Catalog
		sessions    *session.Service
		logger      core.Logger
	}
)

func NewService(
	roster cloudsync.Remote,
	assignments homework.Remote,
	prober Prober,
	catalog *content.Catalog,
	sessions *session.Service,
	logger core.Logger,
) *Service {
	return &Service{
		roster:      roster,
		assignments: assignments,
		prober:      prober,
		catalog:     catalog,
		sessions:    sessions,
		logger:      logger,
	}
}

func (svc *Service) online(ctx context.Context) error {
	if svc.roster == nil || !svc.prober.Online(ctx) {
		return cloudsync.ErrOffline
	}
	return nil
}

// Roster lists the students, most recently synced first.
func (svc *Service) Roster(ctx context.Context) ([]Student, error) {
	if err := svc.online(ctx); err != nil {
		return nil, err
	}
	students, err := svc.roster.ListStudentProgress(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing roster")
	}
	return students, nil
}

// Assign gives a topic of the catalog as homework to a student of the roster. na must have been validated.
func (svc *Service) Assign(ctx context.Context, na NewAssignment, lang string) (homework.Assignment, error) {
	students, err := svc.Roster(ctx)
	if err != nil {
		return homework.Assignment{}, err
	}
	var student *Student
	for i := range students {
		if students[i].ID == na.StudentID {
			student = &students[i]
			break
		}
	}
	if student == nil {
		return homework.Assignment{}, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_id", Error: ErrUnknownStudent.Error()})
	}

	topic, err := svc.catalog.Topic(ctx, lang, na.TopicID)
	if err != nil {
		if errors.Cause(err) == content.ErrTopicNotFound {
			return homework.Assignment{}, core.NewValidationError(err, core.FieldError{Field: "topic_id", Error: err.Error()})
		}
		return homework.Assignment{}, errors.Wrap(err, "loading topic")
	}

	a, err := svc.assignments.InsertAssignment(ctx, homework.Assignment{
		StudentID:   student.ID,
		StudentName: student.Name,
		TopicID:     topic.ID,
		TopicTitle:  topic.Topic,
		Status:      homework.StatusPending,
	})
	if err != nil {
		return homework.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	svc.logger.Info(fmt.Sprintf("assigned %q to %s", topic.Topic, student.Name))
	return a, nil
}

var rosterHeader = []interface{}{"ID", "Name", "Grade", "Completed topics", "Last sync (UTC)"}

// ExportRoster writes the roster as an .xlsx workbook to w.
func (svc *Service) ExportRoster(ctx context.Context, w io.Writer) error {
	students, err := svc.Roster(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Sheet1"
	if err = f.SetSheetRow(sheet, "A1", &rosterHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, s := range students {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{s.ID, s.Name, s.Grade, s.CompletedCount, s.LastSync.UTC().Format("2006-01-02 15:04")}
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	_, err = f.WriteTo(w)
	return errors.Wrap(err, "writing workbook")
}

// Prefs returns the saved dashboard preferences, or the zero Prefs.
func (svc *Service) Prefs(ctx context.Context) (Prefs, error) {
	var p Prefs
	blob, err := svc.sessions.TeacherAux(ctx, PrefsKey)
	if err != nil || blob == nil {
		return p, err
	}
	if err = json.Unmarshal(blob, &p); err != nil {
		return Prefs{}, errors.Wrap(err, "decoding prefs")
	}
	return p, nil
}

// SavePrefs stores p. p must have been validated.
func (svc *Service) SavePrefs(ctx context.Context, p Prefs) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encoding prefs")
	}
	return svc.sessions.SaveTeacherAux(ctx, PrefsKey, blob)
}
