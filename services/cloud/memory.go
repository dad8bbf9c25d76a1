package cloud

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/homework"
)

var NowFunc = time.Now // mockable

// Memory is an in-process stand-in for the cloud database, used in demo mode and in tests.
type Memory struct {
	mu          sync.RWMutex
	assignments []*homework.Assignment // insertion order
	roster      map[string]cloudsync.StudentProgress
	offline     bool
	listErr     error
	updateErr   map[string]error
	writes      int
}

var (
	_ homework.Remote  = (*Memory)(nil)
	_ cloudsync.Remote = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{
		roster:    make(map[string]cloudsync.StudentProgress),
		updateErr: make(map[string]error),
	}
}

func (m *Memory) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = !online
}

// FailListing makes ListAssignments return err (nil heals it).
func (m *Memory) FailListing(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// FailUpdate makes SetAssignmentStatus of id return err (nil heals it).
func (m *Memory) FailUpdate(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.updateErr, id)
		return
	}
	m.updateErr[id] = err
}

// Writes is the number of successful remote writes.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *Memory) Assignment(id string) (homework.Assignment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assignments {
		if a.ID == id {
			return *a, true
		}
	}
	return homework.Assignment{}, false
}

func (m *Memory) Online(context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.offline
}

func (m *Memory) ListAssignments(_ context.Context, studentID string) ([]homework.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.listErr != nil {
		return nil, m.listErr
	}

	list := make([]homework.Assignment, 0)
	for i := len(m.assignments) - 1; i >= 0; i-- {
		if a := m.assignments[i]; a.StudentID == studentID {
			list = append(list, *a)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (m *Memory) SetAssignmentStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateErr[id]; err != nil {
		return err
	}
	for _, a := range m.assignments {
		if a.ID == id {
			a.Status = status
			m.writes++
			return nil
		}
	}
	return homework.ErrNotFound
}

func (m *Memory) InsertAssignment(_ context.Context, a homework.Assignment) (homework.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = NowFunc().UTC()
	if a.Status == "" {
		a.Status = homework.StatusPending
	}
	m.assignments = append(m.assignments, &a)
	m.writes++
	return a, nil
}

func (m *Memory) UpsertStudentProgress(_ context.Context, sp cloudsync.StudentProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roster[sp.ID] = sp
	m.writes++
	return nil
}

func (m *Memory) ListStudentProgress(context.Context) ([]cloudsync.StudentProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roster := make([]cloudsync.StudentProgress, 0, len(m.roster))
	for _, sp := range m.roster {
		roster = append(roster, sp)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].LastSync.Equal(roster[j].LastSync) {
			return roster[i].ID < roster[j].ID
		}
		return roster[i].LastSync.After(roster[j].LastSync)
	})
	return roster, nil
}
