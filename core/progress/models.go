package progress

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
)

// Record is the furthest point a student reached in a topic. One per (student, topic).
type Record struct {
	StudentID          string    `json:"studentId" db:"student_id"`
	TopicID            string    `json:"topicId" db:"topic_id"`
	LastPageIndex      int       `json:"lastPageIndex" db:"last_page_index"`
	PercentageComplete int       `json:"percentageComplete" db:"percentage_complete"`
	IsComplete         bool      `json:"isComplete" db:"is_complete"`
	LastUpdatedAt      time.Time `json:"lastUpdatedAt" db:"last_updated_at"` // UTC
}

func (r Record) Key() string { return Key(r.StudentID, r.TopicID) }

// History is the last visit of a student to a topic. Re-visiting overwrites it.
type History struct {
	StudentID string    `json:"studentId" db:"student_id"`
	TopicID   string    `json:"topicId" db:"topic_id"`
	Topic     string    `json:"topic" db:"topic"`
	Subject   string    `json:"subject" db:"subject"`
	Summary   string    `json:"summary" db:"summary"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"` // UTC
}

func (h History) Key() string { return Key(h.StudentID, h.TopicID) }

// Visit describes the topic being opened.
type Visit struct {
	TopicID string
	Topic   string
	Subject string
	Summary string
}

// Event is broadcast after every progress write with the full list of completed topics.
type Event struct {
	StudentID         string    `json:"student_id"`
	CompletedTopicIDs []string  `json:"completed_topic_ids"`
	At                time.Time `json:"at"`
}

// Key is the composite "{studentID}_{topicID}" key of progress and history rows.
func Key(studentID, topicID string) string {
	return studentID + "_" + topicID
}

var ErrInvalidPosition = errors.New("invalid page position")

// Compute derives the completion of a reading position:
// percentage = round((pageIndex+1)/totalPages*100) clamped to 100, complete iff pageIndex >= totalPages-1.
func Compute(pageIndex, totalPages int) (percentage int, complete bool, err error) {
	if totalPages <= 0 || pageIndex < 0 {
		return 0, false, ErrInvalidPosition
	}
	return core.Percent(pageIndex+1, totalPages), pageIndex >= totalPages-1, nil
}

// CompletedIDs projects records onto the ids of the completed topics.
func CompletedIDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if r.IsComplete {
			ids = append(ids, r.TopicID)
		}
	}
	return ids
}
