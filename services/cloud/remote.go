package cloud

import (
	"context"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/homework"
)

// DemoBaseURL selects the in-process backend.
const DemoBaseURL = "memory"

// Remote is everything the daemon needs from the cloud backend.
type Remote interface {
	cloudsync.Remote
	homework.Remote
	Online(ctx context.Context) bool
}

var (
	_ Remote = (*Client)(nil)
	_ Remote = (*Memory)(nil)
)

// FromConfig returns the backend selected by conf.Remote.BaseURL, or nil when none is configured.
func FromConfig(conf *core.Config) Remote {
	switch conf.Remote.BaseURL {
	case "":
		return nil
	case DemoBaseURL:
		return NewMemory()
	default:
		return NewClient(conf)
	}
}
