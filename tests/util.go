package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
)

// Logger records every log line; it satisfies core.Logger.
type Logger struct {
	mu    sync.Mutex
	Lines []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, level+": "+msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Count returns the number of lines logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.Lines {
		if len(line) > len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}

// Publisher collects the progress events it is given.
type Publisher struct {
	mu     sync.Mutex
	Events []progress.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, ev progress.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, ev)
	return nil
}

func (p *Publisher) Last() (progress.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Events) == 0 {
		return progress.Event{}, false
	}
	return p.Events[len(p.Events)-1], true
}

// Login makes id the active student of repo.
func Login(t *testing.T, repo session.Repository, id, name, grade string) session.Session {
	t.Helper()
	p, err := repo.SaveProfile(context.Background(), session.Profile{
		ID:        id,
		Name:      name,
		Grade:     grade,
		Role:      session.RoleStudent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	return session.Session{Profile: p}
}

// Student returns a session that was never persisted.
func Student(id string) session.Session {
	return session.Session{Profile: session.Profile{ID: id, Name: "Student " + id, Role: session.RoleStudent}}
}

// Topic builds a topic with n pages.
func Topic(id, subject, title string, n int) content.Topic {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("%s page %d", title, i+1)
	}
	return content.Topic{ID: id, Subject: subject, Topic: title, Summary: "About " + title, Pages: pages}
}

// Topics is a small catalog spanning two subjects.
func Topics() []content.Topic {
	photo := Topic("sci_7_1", "Science", "Photosynthesis", 3)
	photo.Keywords = []string{"plants", "chlorophyll"}
	photo.Quiz = []content.Question{
		{Type: content.QuestionMCQ, Question: "Plants make food using?", Options: []string{"Sunlight", "Sound"}, Answer: "Sunlight"},
		{Type: content.QuestionMCQ, Question: "Green pigment?", Options: []string{"Chlorophyll", "Keratin"}, Answer: "Chlorophyll"},
		{Type: content.QuestionMatch, Question: "Match", Pairs: []content.Pair{{Left: "CO2", Right: "input"}, {Left: "O2", Right: "output"}}},
	}
	return []content.Topic{
		photo,
		Topic("sci_7_2", "Science", "Respiration", 4),
		Topic("sci_7_3", "Science", "Nutrition in Animals", 2),
		Topic("math_7_1", "Math", "Integers", 5),
		Topic("math_7_2", "Math", "Fractions", 2),
	}
}

// Source serves topics as a content document; a non-nil Err makes it unreachable.
type Source struct {
	Topics []content.Topic
	Err    error
	Calls  int
}

func (s *Source) Fetch(_ context.Context, name string) ([]byte, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	return json.Marshal(s.Topics)
}

// Catalog returns a catalog serving Topics, cached under a temporary dir.
func Catalog(t *testing.T) *content.Catalog {
	t.Helper()
	return content.NewCatalog(&Source{Topics: Topics()}, t.TempDir(), &Logger{})
}
