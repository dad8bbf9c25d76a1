package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNoActiveSession    = errors.New("no active student session")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrReservedID         = errors.New("this id is reserved")
)

type (
	// Repository is the single-slot profile table plus the teacher-only auxiliary blobs.
	Repository interface {
		// SaveProfile replaces whatever profile is resident; at most one profile exists afterwards.
		SaveProfile(ctx context.Context, p Profile) (Profile, error)
		// GetProfile returns ErrNoActiveSession when the slot is empty.
		GetProfile(ctx context.Context) (Profile, error)
		DeleteProfile(ctx context.Context) error
		PutAux(ctx context.Context, key string, blob []byte) error
		// GetAux returns a nil blob when key is unknown.
		GetAux(ctx context.Context, key string) ([]byte, error)
	}

	Service struct {
		repo                Repository
		teacherPasswordHash []byte
	}
)

func NewService(repo Repository, teacherPasswordHash string) *Service {
	return &Service{repo: repo, teacherPasswordHash: []byte(teacherPasswordHash)}
}

// Login makes the student the single active profile, overwriting any previous one.
// ns must have been validated.
func (svc *Service) Login(ctx context.Context, ns NewStudent) (Session, error) {
	p, err := svc.repo.SaveProfile(ctx, Profile{
		ID:        ns.ID,
		Name:      ns.Name,
		Grade:     ns.Grade,
		Role:      RoleStudent,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Session{}, errors.Wrap(err, "saving profile")
	}
	return Session{Profile: p}, nil
}

// Active returns the resident student session or ErrNoActiveSession.
func (svc *Service) Active(ctx context.Context) (Session, error) {
	p, err := svc.repo.GetProfile(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNoActiveSession {
			return Session{}, ErrNoActiveSession
		}
		return Session{}, errors.Wrap(err, "getting profile")
	}
	return Session{Profile: p}, nil
}

// Logout removes the profile only; progress and history stay keyed by the student id.
func (svc *Service) Logout(ctx context.Context) error {
	return errors.Wrap(svc.repo.DeleteProfile(ctx), "deleting profile")
}

// AuthenticateTeacher checks the teacher panel password. The profile slot is left untouched.
func (svc *Service) AuthenticateTeacher(pwd string) (TeacherSession, error) {
	if len(svc.teacherPasswordHash) == 0 {
		return TeacherSession{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(svc.teacherPasswordHash, []byte(pwd)); err != nil {
		return TeacherSession{}, ErrInvalidCredentials
	}
	return newTeacherSession(NowFunc().UTC()), nil
}

func (svc *Service) TeacherAux(ctx context.Context, key string) ([]byte, error) {
	blob, err := svc.repo.GetAux(ctx, key)
	return blob, errors.Wrap(err, "getting teacher aux")
}

func (svc *Service) SaveTeacherAux(ctx context.Context, key string, blob []byte) error {
	return errors.Wrap(svc.repo.PutAux(ctx, key, blob), "saving teacher aux")
}
