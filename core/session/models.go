package session

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo-offline/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// TeacherID identifies every teacher session; teachers are never persisted as profiles.
const TeacherID = "TEACHER"

// Profile is the identity of the student using this device.
type Profile struct {
	ID    string `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Grade string `json:"grade" db:"grade"`
	Role  string `json:"role" db:"role"`
	// ProgressIDs is the legacy denormalized list of completed topics; the progress table supersedes it.
	ProgressIDs []string  `json:"progress_ids,omitempty" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
}

func (p Profile) IsStudent() bool { return p.Role == RoleStudent }

// Session is the explicit handle on the active student, passed to every storage call.
type Session struct {
	Profile Profile
}

func (s Session) StudentID() string { return s.Profile.ID }

// TeacherSession lives only in memory (and in the teacher's token), never in the profile slot.
type TeacherSession struct {
	Profile  Profile
	IssuedAt time.Time
}

func newTeacherSession(now time.Time) TeacherSession {
	return TeacherSession{
		Profile:  Profile{ID: TeacherID, Name: "Teacher", Role: RoleTeacher, CreatedAt: now},
		IssuedAt: now,
	}
}

// NewStudent contains the login form of a student.
type NewStudent struct {
	ID    string `json:"id" validate:"required,max=64,ident"`
	Name  string `json:"name" validate:"required,max=128"`
	Grade string `json:"grade" validate:"omitempty,max=16"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.ID = core.CleanID(ns.ID)
	ns.Name = core.CleanString(ns.Name)
	ns.Grade = core.CleanString(ns.Grade)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.ID == TeacherID {
		return core.NewValidationError(ErrReservedID, core.FieldError{Field: "id", Error: ErrReservedID.Error()})
	}
	return nil
}

// TeacherLogin contains the teacher panel password.
type TeacherLogin struct {
	Password string `json:"password" validate:"required"`
}

func (tl TeacherLogin) Validate(validate *validator.Validate) error { return validate.Struct(tl) }

// HashPassword returns the bcrypt hash stored as teacherPasswordHash.
func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
