package content

import (
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/masomo-offline/core/progress"
)

// Search returns the topics whose title, summary or keywords contain query (case-insensitive),
// best title matches first.
func Search(topics []Topic, query string) []Topic {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]Topic, 0)
	if q == "" {
		return results
	}

	ratios := make(map[string]float64)
	for _, t := range topics {
		title := strings.ToLower(t.Topic)
		if !(strings.Contains(title, q) || strings.Contains(strings.ToLower(t.Summary), q) || anyContains(t.Keywords, q)) {
			continue
		}
		ratios[t.ID] = difflib.NewMatcher(strings.Split(q, ""), strings.Split(title, "")).Ratio()
		results = append(results, t)
	}
	sort.SliceStable(results, func(i, j int) bool { return ratios[results[i].ID] > ratios[results[j].ID] })
	return results
}

func anyContains(keywords []string, q string) bool {
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}

// Level states on a subject map
const (
	LevelLocked    = "locked"
	LevelUnlocked  = "unlocked"
	LevelCompleted = "completed"
)

type Level struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Topic  Topic  `json:"topic"`
}

// Levels lays the topics of subject out as a path: the first level is always open and
// each level opens once the previous one is completed.
func Levels(topics []Topic, subject string, completedIDs []string) []Level {
	done := make(map[string]bool, len(completedIDs))
	for _, id := range completedIDs {
		done[id] = true
	}

	levels := make([]Level, 0)
	var prevID string
	for _, t := range topics {
		if !t.InSubject(subject) {
			continue
		}
		idx := len(levels)
		status := LevelLocked
		switch {
		case done[t.ID]:
			status = LevelCompleted
		case idx == 0, done[prevID]:
			status = LevelUnlocked
		}
		levels = append(levels, Level{Index: idx, Status: status, Topic: t})
		prevID = t.ID
	}
	return levels
}

type (
	SubjectStats struct {
		Total     int `json:"total"`
		Read      int `json:"read"`
		Completed int `json:"completed"`
	}

	Stats struct {
		TotalRead int                     `json:"total_read"`
		Completed int                     `json:"completed"`
		BySubject map[string]SubjectStats `json:"by_subject"`
	}
)

// ComputeStats summarises the progress records of a student against the catalog.
// Records of topics missing from the catalog count as read but not per subject.
func ComputeStats(topics []Topic, records []progress.Record) Stats {
	stats := Stats{TotalRead: len(records), BySubject: make(map[string]SubjectStats)}
	subjectOf := make(map[string]string, len(topics))
	for _, t := range topics {
		subjectOf[t.ID] = t.Subject
		s := stats.BySubject[t.Subject]
		s.Total++
		stats.BySubject[t.Subject] = s
	}
	for _, r := range records {
		sub, ok := subjectOf[r.TopicID]
		if !ok {
			continue
		}
		s := stats.BySubject[sub]
		s.Read++
		if r.IsComplete {
			s.Completed++
			stats.Completed++
		}
		stats.BySubject[sub] = s
	}
	return stats
}

var ErrNoQuiz = errors.New("this topic has no quiz")

type (
	// Answer to one question: Choice for mcq, Pairs (left -> right) for match.
	Answer struct {
		Choice string            `json:"choice,omitempty"`
		Pairs  map[string]string `json:"pairs,omitempty"`
	}

	QuizResult struct {
		Score  int  `json:"score"`
		Total  int  `json:"total"`
		Passed bool `json:"passed"`
	}
)

// GradeQuiz scores answers (aligned with the quiz questions by index).
// The quiz is passed with at least half of the questions right, rounded up.
func GradeQuiz(t Topic, answers []Answer) (QuizResult, error) {
	if len(t.Quiz) == 0 {
		return QuizResult{}, ErrNoQuiz
	}
	res := QuizResult{Total: len(t.Quiz)}
	for i, q := range t.Quiz {
		if i >= len(answers) {
			break
		}
		if isCorrect(q, answers[i]) {
			res.Score++
		}
	}
	res.Passed = res.Score >= int(math.Ceil(float64(res.Total)/2))
	return res, nil
}

func isCorrect(q Question, a Answer) bool {
	switch q.Type {
	case QuestionMatch:
		if len(q.Pairs) == 0 || len(a.Pairs) != len(q.Pairs) {
			return false
		}
		for _, p := range q.Pairs {
			if a.Pairs[p.Left] != p.Right {
				return false
			}
		}
		return true
	default:
		return a.Choice != "" && a.Choice == q.Answer
	}
}
