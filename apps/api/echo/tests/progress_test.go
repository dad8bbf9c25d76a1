package tests

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/masomo-offline/apps/api/echo"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/progress"
)

func TestProgressAPI_requiresSession(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/progress"},
		{http.MethodPut, "/v1/progress/sci_7_1"},
		{http.MethodPost, "/v1/progress/sci_7_1/complete"},
		{http.MethodGet, "/v1/history"},
		{http.MethodGet, "/v1/stats"},
		{http.MethodGet, "/v1/progress/events"},
		{http.MethodPost, "/v1/sync"},
		{http.MethodGet, "/v1/sync/payload"},
		{http.MethodGet, "/v1/homework"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, nil)
			assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		})
	}
}

func TestProgressAPI_recordPage(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "STD-101", "Asha")

	tests := []struct {
		name     string
		topic    string
		data     PageReachedRequest
		wantCode int
		wantPct  int
		wantDone bool
	}{
		{name: "first page, pages from catalog", topic: "sci_7_1", data: PageReachedRequest{PageIndex: 0}, wantCode: http.StatusOK, wantPct: 33},
		{name: "second page", topic: "sci_7_1", data: PageReachedRequest{PageIndex: 1, TotalPages: 3}, wantCode: http.StatusOK, wantPct: 67},
		{name: "last page", topic: "sci_7_1", data: PageReachedRequest{PageIndex: 2}, wantCode: http.StatusOK, wantPct: 100, wantDone: true},
		{name: "negative page", topic: "sci_7_2", data: PageReachedRequest{PageIndex: -1}, wantCode: http.StatusBadRequest},
		{name: "unknown topic", topic: "geo_9_9", data: PageReachedRequest{PageIndex: 0}, wantCode: http.StatusNotFound},
		{name: "unknown topic with explicit pages", topic: "geo_9_9", data: PageReachedRequest{PageIndex: 0, TotalPages: 4}, wantCode: http.StatusOK, wantPct: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPut, "/v1/progress/"+tt.topic, tt.data)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var r progress.Record
			decode(t, rec, &r)
			assert.Equal(t, "STD-101", r.StudentID)
			assert.Equal(t, tt.data.PageIndex, r.LastPageIndex)
			assert.Equal(t, tt.wantPct, r.PercentageComplete)
			assert.Equal(t, tt.wantDone, r.IsComplete)
		})
	}

	rec := app.do(http.MethodGet, "/v1/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var records []progress.Record
	decode(t, rec, &records)
	require.Len(t, records, 2)

	rec = app.do(http.MethodGet, "/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats content.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalRead)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, content.SubjectStats{Total: 3, Read: 1, Completed: 1}, stats.BySubject["Science"])
	assert.Equal(t, content.SubjectStats{Total: 2}, stats.BySubject["Math"])
}

func TestContentAPI(t *testing.T) {
	app := newTestApp(t)

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			path    string
			wantIDs []string
		}{
			{"/v1/topics", []string{"sci_7_1", "sci_7_2", "sci_7_3", "math_7_1", "math_7_2"}},
			{"/v1/topics?subject=math", []string{"math_7_1", "math_7_2"}},
			{"/v1/topics/search?q=chlorophyll", []string{"sci_7_1"}},
			{"/v1/topics/search?q=%20", []string{}},
		}
		for _, tt := range tests {
			rec := app.do(http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code, tt.path)
			var topics []content.Topic
			decode(t, rec, &topics)
			ids := make([]string, 0, len(topics))
			for _, tp := range topics {
				ids = append(ids, tp.ID)
			}
			assert.Equal(t, tt.wantIDs, ids, tt.path)
		}
	})

	t.Run("retrieve without session", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/topics/sci_7_2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		decode(t, rec, &body)
		assert.Equal(t, "Respiration", body["topic"])
		assert.NotContains(t, body, "progress")

		rec = app.do(http.MethodGet, "/v1/topics/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	app.login(t, "STD-101", "Asha")

	t.Run("retrieve records history", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/v1/progress/sci_7_2", PageReachedRequest{PageIndex: 1})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = app.do(http.MethodGet, "/v1/topics/sci_7_2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			ID       string           `json:"id"`
			Progress *progress.Record `json:"progress"`
		}
		decode(t, rec, &body)
		require.NotNil(t, body.Progress)
		assert.Equal(t, 50, body.Progress.PercentageComplete)

		rec = app.do(http.MethodGet, "/v1/history", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var hist []progress.History
		decode(t, rec, &hist)
		require.Len(t, hist, 1)
		assert.Equal(t, "sci_7_2", hist[0].TopicID)
		assert.Equal(t, "Respiration", hist[0].Topic)
		assert.Equal(t, "Science", hist[0].Subject)
	})

	t.Run("quiz", func(t *testing.T) {
		fail := QuizRequest{Answers: []content.Answer{{Choice: "Sound"}, {Choice: "Keratin"}}}
		rec := app.do(http.MethodPost, "/v1/topics/sci_7_1/quiz", fail)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res struct {
			content.QuizResult
			Completed bool `json:"completed"`
		}
		decode(t, rec, &res)
		assert.Equal(t, content.QuizResult{Score: 0, Total: 3}, res.QuizResult)
		assert.False(t, res.Completed)

		pass := QuizRequest{Answers: []content.Answer{
			{Choice: "Sunlight"},
			{Choice: "Keratin"},
			{Pairs: map[string]string{"CO2": "input", "O2": "output"}},
		}}
		rec = app.do(http.MethodPost, "/v1/topics/sci_7_1/quiz", pass)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &res)
		assert.Equal(t, content.QuizResult{Score: 2, Total: 3, Passed: true}, res.QuizResult)
		assert.True(t, res.Completed)

		rec = app.do(http.MethodPost, "/v1/topics/sci_7_3/quiz", pass)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maps", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/maps/science", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var levels []content.Level
		decode(t, rec, &levels)
		require.Len(t, levels, 3)
		assert.Equal(t, content.LevelCompleted, levels[0].Status) // quiz passed
		assert.Equal(t, content.LevelUnlocked, levels[1].Status)
		assert.Equal(t, content.LevelLocked, levels[2].Status)
	})
}

func TestProgressAPI_events(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "STD-101", "Asha")
	rec := app.do(http.MethodPost, "/v1/progress/math_7_2/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ts := httptest.NewServer(app.server)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/progress/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan progress.Event, 4)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev progress.Event
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev) == nil {
				events <- ev
			}
		}
	}()

	next := func() progress.Event {
		t.Helper()
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed")
			return ev
		case <-time.After(3 * time.Second):
			t.Fatal("no progress event received")
		}
		return progress.Event{}
	}

	snapshot := next()
	assert.Equal(t, "STD-101", snapshot.StudentID)
	assert.Equal(t, []string{"math_7_2"}, snapshot.CompletedTopicIDs)

	rec = app.do(http.MethodPut, "/v1/progress/sci_7_3", PageReachedRequest{PageIndex: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	ev := next()
	assert.ElementsMatch(t, []string{"math_7_2", "sci_7_3"}, ev.CompletedTopicIDs)
}
