package cloud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/homework"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	conf := &core.Config{Remote: core.RemoteConfig{BaseURL: srv.URL, APIKey: "anon-key", Timeout: 2 * time.Second}}
	return NewClient(conf)
}

func TestClient_ListAssignments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, assignmentsPath, r.URL.Path)
		assert.Equal(t, "eq.STD-101", r.URL.Query().Get("student_id"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"a2","student_id":"STD-101","topic_id":"sci_7_2","status":"pending"},
			{"id":"a1","student_id":"STD-101","topic_id":"sci_7_1","status":"completed"}]`)
	})

	list, err := client.ListAssignments(context.Background(), "STD-101")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID)
	assert.True(t, list[0].IsPending())
}

func TestClient_ListAssignments_error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})
	_, err := client.ListAssignments(context.Background(), "STD-101")
	assert.Error(t, err)
}

func TestClient_SetAssignmentStatus(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		wantErr error
	}{
		{name: "updated", resp: `[{"id":"a1","status":"completed"}]`},
		{name: "unknown id", resp: `[]`, wantErr: homework.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPatch, r.Method)
				assert.Equal(t, "eq.a1", r.URL.Query().Get("id"))
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, homework.StatusCompleted, body["status"])

				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.resp)
			})
			err := client.SetAssignmentStatus(context.Background(), "a1", homework.StatusCompleted)
			if err != tt.wantErr {
				t.Errorf("SetAssignmentStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_UpsertStudentProgress(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, studentProgressPath, r.URL.Path)
		assert.Equal(t, "resolution=merge-duplicates", r.Header.Get("Prefer"))

		var sp cloudsync.StudentProgress
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sp))
		assert.Equal(t, "STD-101", sp.ID)
		assert.Equal(t, 2, sp.CompletedCount)
		w.WriteHeader(http.StatusCreated)
	})

	err := client.UpsertStudentProgress(context.Background(), cloudsync.StudentProgress{ID: "STD-101", Name: "Asha", CompletedCount: 2})
	assert.NoError(t, err)
}

func TestClient_Online(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	assert.True(t, client.Online(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	assert.False(t, down.Online(context.Background()))

	unset := NewClient(&core.Config{})
	assert.False(t, unset.Online(context.Background()))
}

func TestContentSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/knowledge_en.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `[{"id":"sci_7_1"}]`)
	}))
	defer srv.Close()

	src := NewContentSource(&core.Config{Content: core.ContentConfig{BaseURL: srv.URL}, Remote: core.RemoteConfig{Timeout: time.Second}})
	raw, err := src.Fetch(context.Background(), "knowledge_en.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"sci_7_1"}]`, string(raw))

	_, err = src.Fetch(context.Background(), "knowledge_hi.json")
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	defer func() { NowFunc = time.Now }()

	for i, topic := range []string{"sci_7_1", "sci_7_2"} {
		at := t0.Add(time.Duration(i) * time.Minute)
		NowFunc = func() time.Time { return at }
		_, err := mem.InsertAssignment(ctx, homework.Assignment{StudentID: "STD-101", TopicID: topic})
		require.NoError(t, err)
	}
	list, err := mem.ListAssignments(ctx, "STD-101")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sci_7_2", list[0].TopicID)
	assert.Equal(t, homework.StatusPending, list[0].Status)
	assert.NotEmpty(t, list[0].ID)

	assert.Equal(t, homework.ErrNotFound, mem.SetAssignmentStatus(ctx, "nope", homework.StatusCompleted))

	require.NoError(t, mem.UpsertStudentProgress(ctx, cloudsync.StudentProgress{ID: "A", LastSync: t0}))
	require.NoError(t, mem.UpsertStudentProgress(ctx, cloudsync.StudentProgress{ID: "B", LastSync: t0.Add(time.Hour)}))
	require.NoError(t, mem.UpsertStudentProgress(ctx, cloudsync.StudentProgress{ID: "A", LastSync: t0.Add(2 * time.Hour)}))
	roster, err := mem.ListStudentProgress(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "A", roster[0].ID)
}
