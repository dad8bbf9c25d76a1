package classroom

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
)

// PrefsKey is the aux slot holding the teacher dashboard preferences.
const PrefsKey = "teacher_prefs"

type (
	// Student is one roster row as synced by the student's device.
	Student = cloudsync.StudentProgress

	NewAssignment struct {
		StudentID string `json:"student_id" validate:"required"`
		TopicID   string `json:"topic_id" validate:"required"`
	}

	// Prefs are the dashboard defaults of the teacher of this device.
	Prefs struct {
		Grade   string `json:"grade" validate:"omitempty,max=16"`
		Subject string `json:"subject" validate:"omitempty,max=64"`
		Lang    string `json:"lang" validate:"omitempty,oneof=en hi"`
	}
)

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanID(na.StudentID)
	na.TopicID = core.CleanString(na.TopicID)
	return validate.Struct(na)
}

func (p *Prefs) Validate(validate *validator.Validate) error {
	p.Grade = core.CleanString(p.Grade)
	p.Subject = core.CleanString(p.Subject)
	p.Lang = core.CleanString(p.Lang, true)
	return validate.Struct(p)
}
