package homework

import "time"

// Assignment statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Assignment is a topic a teacher asked a student to complete. It lives on the remote collaborator.
type Assignment struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	TopicID     string    `json:"topic_id"`
	TopicTitle  string    `json:"topic_title"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a Assignment) IsPending() bool { return a.Status == StatusPending }

// Result is the outcome of one reconciliation pass.
type Result struct {
	Assignments []Assignment `json:"assignments"`
	Promoted    []string     `json:"promoted"` // ids updated remotely
	Failed      []string     `json:"failed"`   // ids shown completed but not updated remotely
	Offline     bool         `json:"offline"`
	Stale       bool         `json:"stale"` // Assignments is the last list fetched successfully
}

func copyAssignments(as []Assignment) []Assignment {
	cp := make([]Assignment, len(as))
	copy(cp, as)
	return cp
}
