package cloudsync

import (
	"encoding/json"
	"time"

	"github.com/trezcool/masomo-offline/core/progress"
)

type (
	HistoryItem struct {
		Topic string    `json:"topic"`
		Time  time.Time `json:"time"`
	}

	// Payload is an immutable snapshot of a student's local state, ready for transmission.
	Payload struct {
		StudentID       string            `json:"student_id"`
		StudentName     string            `json:"student_name"`
		Grade           string            `json:"grade"`
		LastSync        time.Time         `json:"last_sync"`
		CompletedTopics []string          `json:"completed_topics"`
		LearningHistory []HistoryItem     `json:"learning_history"`
		RawProgress     []progress.Record `json:"raw_progress"`
	}

	// StudentProgress is the row kept by the remote collaborator for each student (the teacher roster).
	StudentProgress struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		Grade          string          `json:"grade"`
		CompletedCount int             `json:"completed_count"`
		LastSync       time.Time       `json:"last_sync"`
		RawData        json.RawMessage `json:"raw_data,omitempty"`
	}
)

// StudentProgress summarises the payload into the remote roster row.
func (p Payload) StudentProgress() (StudentProgress, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return StudentProgress{}, err
	}
	return StudentProgress{
		ID:             p.StudentID,
		Name:           p.StudentName,
		Grade:          p.Grade,
		CompletedCount: len(p.CompletedTopics),
		LastSync:       p.LastSync,
		RawData:        raw,
	}, nil
}
