package inmemdb

import (
	"sync"

	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
)

type (
	// DB is the in-memory local store used by tests. Nothing survives a restart.
	DB struct {
		profile  *profileTable
		aux      *auxTable
		progress *progressTable
		history  *historyTable
	}

	profileTable struct {
		sync.RWMutex
		row *session.Profile // single slot
	}

	auxTable struct {
		sync.RWMutex
		table map[string][]byte
	}

	// rowKey is the composite primary key of the progress and history tables.
	rowKey struct {
		studentID string
		topicID   string
	}

	progressTable struct {
		sync.RWMutex
		table map[rowKey]*progress.Record
	}

	historyTable struct {
		sync.RWMutex
		table map[rowKey]*progress.History
	}
)

func Open() *DB {
	return &DB{
		profile:  &profileTable{},
		aux:      &auxTable{table: make(map[string][]byte)},
		progress: &progressTable{table: make(map[rowKey]*progress.Record)},
		history:  &historyTable{table: make(map[rowKey]*progress.History)},
	}
}
