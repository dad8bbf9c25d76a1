package cloudsync_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
	"github.com/trezcool/masomo-offline/services/cloud"
	"github.com/trezcool/masomo-offline/storage/database/inmem"
	"github.com/trezcool/masomo-offline/tests"
)

func setup(t *testing.T) (*cloudsync.Builder, *progress.Service, *session.Service) {
	t.Helper()
	db := inmemdb.Open()
	progressSvc := progress.NewService(inmemdb.NewProgressRepository(db), nil, &testutil.Logger{}, false)
	sessSvc := session.NewService(inmemdb.NewSessionRepository(db), "")
	return cloudsync.NewBuilder(sessSvc, progressSvc), progressSvc, sessSvc
}

func TestBuilder_Build(t *testing.T) {
	ctx := context.Background()
	builder, progressSvc, sessSvc := setup(t)

	_, err := builder.Active(ctx)
	assert.Equal(t, session.ErrNoActiveSession, err)

	sess, err := sessSvc.Login(ctx, session.NewStudent{ID: "STD-101", Name: "Asha", Grade: "7"})
	require.NoError(t, err)

	payload, err := builder.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "STD-101", payload.StudentID)
	assert.NotNil(t, payload.CompletedTopics)
	assert.NotNil(t, payload.LearningHistory)
	assert.NotNil(t, payload.RawProgress)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cloudsync.NowFunc = func() time.Time { return now }
	defer func() { cloudsync.NowFunc = time.Now }()

	_, err = progressSvc.RecordPageReached(ctx, sess, "sci_7_1", 2, 3)
	require.NoError(t, err)
	_, err = progressSvc.RecordPageReached(ctx, sess, "sci_7_2", 0, 4)
	require.NoError(t, err)
	_, err = progressSvc.Visit(ctx, sess, progress.Visit{TopicID: "sci_7_1", Topic: "Photosynthesis", Subject: "Science"})
	require.NoError(t, err)

	before, err := progressSvc.All(ctx, sess)
	require.NoError(t, err)

	payload, err = builder.Build(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Asha", payload.StudentName)
	assert.Equal(t, "7", payload.Grade)
	assert.Equal(t, now, payload.LastSync)
	assert.ElementsMatch(t, []string{"sci_7_1"}, payload.CompletedTopics)
	require.Len(t, payload.LearningHistory, 1)
	assert.Equal(t, "Photosynthesis", payload.LearningHistory[0].Topic)
	assert.Len(t, payload.RawProgress, 2)

	// pure read
	after, err := progressSvc.All(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"student_id", "student_name", "grade", "last_sync", "completed_topics", "learning_history", "raw_progress"} {
		assert.Contains(t, doc, key)
	}
}

func TestPusher_Push(t *testing.T) {
	ctx := context.Background()
	builder, progressSvc, sessSvc := setup(t)
	remote := cloud.NewMemory()
	pusher := cloudsync.NewPusher(builder, remote, remote, &testutil.Logger{})

	sess, err := sessSvc.Login(ctx, session.NewStudent{ID: "STD-101", Name: "Asha", Grade: "7"})
	require.NoError(t, err)
	_, err = progressSvc.MarkComplete(ctx, sess, "sci_7_1")
	require.NoError(t, err)

	remote.SetOnline(false)
	_, err = pusher.Push(ctx, sess)
	assert.Equal(t, cloudsync.ErrOffline, err)
	assert.Zero(t, remote.Writes())

	remote.SetOnline(true)
	payload, err := pusher.Push(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, []string{"sci_7_1"}, payload.CompletedTopics)

	roster, err := remote.ListStudentProgress(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "STD-101", roster[0].ID)
	assert.Equal(t, 1, roster[0].CompletedCount)

	var stored cloudsync.Payload
	require.NoError(t, json.Unmarshal(roster[0].RawData, &stored))
	assert.Equal(t, payload.StudentID, stored.StudentID)
}
