package content_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/tests"
)

func TestCatalog_Load(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := &testutil.Source{Topics: testutil.Topics()}
	logger := &testutil.Logger{}
	catalog := content.NewCatalog(src, dir, logger)

	topics, err := catalog.Load(ctx, "en-US")
	require.NoError(t, err)
	assert.Len(t, topics, 5)
	_, err = os.Stat(filepath.Join(dir, "knowledge_en.json"))
	require.NoError(t, err, "content must be cached on disk")

	// the source goes away: a new catalog falls back to the cache
	src.Err = errors.New("no network")
	offline := content.NewCatalog(src, dir, logger)
	topics, err = offline.Load(ctx, "en")
	require.NoError(t, err)
	assert.Len(t, topics, 5)
	assert.Equal(t, 1, logger.Count("WARN"))

	// nothing cached for hindi
	_, err = offline.Load(ctx, "hi")
	assert.Equal(t, content.ErrNoContent, err)
}

func TestCatalog_Topics(t *testing.T) {
	ctx := context.Background()
	src := &testutil.Source{Topics: testutil.Topics()}
	catalog := content.NewCatalog(src, t.TempDir(), &testutil.Logger{})

	topic, err := catalog.Topic(ctx, "en", "math_7_2")
	require.NoError(t, err)
	assert.Equal(t, "Fractions", topic.Topic)
	assert.Equal(t, 2, topic.TotalPages())

	_, err = catalog.Topic(ctx, "en", "nope")
	assert.Equal(t, content.ErrTopicNotFound, err)

	science, err := catalog.BySubject(ctx, "en", "science")
	require.NoError(t, err)
	assert.Len(t, science, 3)

	results, err := catalog.Search(ctx, "en", "plants")
	require.NoError(t, err)
	assert.Equal(t, []string{"sci_7_1"}, ids(results))

	// loaded once, served from memory afterwards
	assert.Equal(t, 1, src.Calls)
}

func TestCatalog_noSource(t *testing.T) {
	catalog := content.NewCatalog(nil, t.TempDir(), &testutil.Logger{})
	_, err := catalog.Topics(context.Background(), "en")
	assert.Equal(t, content.ErrNoContent, err)
}

func TestCatalog_Topics_sourceRecovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	content.NowFunc = func() time.Time { return now }
	defer func() { content.NowFunc = time.Now }()

	raw, err := json.Marshal([]content.Topic{testutil.Topic("old_1", "Science", "Old", 1)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "knowledge_en.json"), raw, 0o644))

	src := &testutil.Source{Topics: []content.Topic{testutil.Topic("new_1", "Science", "New", 1)}, Err: errors.New("no network")}
	catalog := content.NewCatalog(src, dir, &testutil.Logger{})

	steps := []struct {
		name      string
		advance   time.Duration
		srcErr    error
		wantIDs   []string
		wantCalls int
	}{
		{name: "offline serves the cache", srcErr: errors.New("no network"), wantIDs: []string{"old_1"}, wantCalls: 1},
		{name: "back online, retry not due yet", wantIDs: []string{"old_1"}, wantCalls: 1},
		{name: "still offline when due", advance: content.RetryInterval, srcErr: errors.New("no network"), wantIDs: []string{"old_1"}, wantCalls: 2},
		{name: "back online when due", advance: content.RetryInterval, wantIDs: []string{"new_1"}, wantCalls: 3},
		{name: "fresh copy is kept", advance: content.RetryInterval, wantIDs: []string{"new_1"}, wantCalls: 3},
	}
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			now = now.Add(st.advance)
			src.Err = st.srcErr

			topics, err := catalog.Topics(ctx, "en")
			require.NoError(t, err)
			assert.Equal(t, st.wantIDs, ids(topics))
			assert.Equal(t, st.wantCalls, src.Calls)
		})
	}

	// the recovered copy replaced the cache
	cached, err := os.ReadFile(filepath.Join(dir, "knowledge_en.json"))
	require.NoError(t, err)
	assert.Contains(t, string(cached), "new_1")
}
