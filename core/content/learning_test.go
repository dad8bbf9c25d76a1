package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/tests"
)

func ids(topics []content.Topic) []string {
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, t.ID)
	}
	return out
}

func TestSearch(t *testing.T) {
	topics := testutil.Topics()
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query", query: "  ", want: []string{}},
		{name: "title", query: "INTEGERS", want: []string{"math_7_1"}},
		{name: "keyword", query: "chlorophyll", want: []string{"sci_7_1"}},
		{name: "summary", query: "about fr", want: []string{"math_7_2"}},
		{name: "closest title first", query: "respiration", want: []string{"sci_7_2"}},
		{name: "no match", query: "volcano", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(content.Search(topics, tt.query)))
		})
	}
}

func TestSearch_ranking(t *testing.T) {
	topics := []content.Topic{
		{ID: "long", Topic: "Nutrition in Animals and Plants"},
		{ID: "exact", Topic: "Nutrition"},
	}
	assert.Equal(t, []string{"exact", "long"}, ids(content.Search(topics, "nutrition")))
}

func TestLevels(t *testing.T) {
	topics := testutil.Topics()
	statuses := func(levels []content.Level) []string {
		out := make([]string, 0, len(levels))
		for _, l := range levels {
			out = append(out, l.Status)
		}
		return out
	}

	tests := []struct {
		name      string
		subject   string
		completed []string
		want      []string
	}{
		{name: "fresh", subject: "Science", want: []string{content.LevelUnlocked, content.LevelLocked, content.LevelLocked}},
		{name: "first done", subject: "science", completed: []string{"sci_7_1"},
			want: []string{content.LevelCompleted, content.LevelUnlocked, content.LevelLocked}},
		{name: "out of order", subject: "Science", completed: []string{"sci_7_2"},
			want: []string{content.LevelUnlocked, content.LevelCompleted, content.LevelUnlocked}},
		{name: "other subject", subject: "Math", completed: []string{"sci_7_1"},
			want: []string{content.LevelUnlocked, content.LevelLocked}},
		{name: "unknown subject", subject: "Art", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statuses(content.Levels(topics, tt.subject, tt.completed)))
		})
	}
}

func TestComputeStats(t *testing.T) {
	records := []progress.Record{
		{TopicID: "sci_7_1", IsComplete: true},
		{TopicID: "sci_7_2"},
		{TopicID: "math_7_1", IsComplete: true},
		{TopicID: "removed_topic", IsComplete: true},
	}
	stats := content.ComputeStats(testutil.Topics(), records)
	assert.Equal(t, 4, stats.TotalRead)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, content.SubjectStats{Total: 3, Read: 2, Completed: 1}, stats.BySubject["Science"])
	assert.Equal(t, content.SubjectStats{Total: 2, Read: 1, Completed: 1}, stats.BySubject["Math"])
}

func TestGradeQuiz(t *testing.T) {
	topic := testutil.Topics()[0] // 3 questions, pass mark 2
	match := map[string]string{"CO2": "input", "O2": "output"}

	tests := []struct {
		name       string
		answers    []content.Answer
		wantScore  int
		wantPassed bool
	}{
		{name: "all right", answers: []content.Answer{{Choice: "Sunlight"}, {Choice: "Chlorophyll"}, {Pairs: match}}, wantScore: 3, wantPassed: true},
		{name: "two right", answers: []content.Answer{{Choice: "Sunlight"}, {Choice: "Keratin"}, {Pairs: match}}, wantScore: 2, wantPassed: true},
		{name: "one right", answers: []content.Answer{{Choice: "Sunlight"}, {Choice: "Keratin"}, {Pairs: map[string]string{"CO2": "output", "O2": "input"}}}, wantScore: 1},
		{name: "unanswered", wantScore: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := content.GradeQuiz(topic, tt.answers)
			if err != nil {
				t.Fatalf("GradeQuiz() error = %v", err)
			}
			if res.Score != tt.wantScore || res.Passed != tt.wantPassed || res.Total != 3 {
				t.Errorf("GradeQuiz() = %+v, want score %d passed %v", res, tt.wantScore, tt.wantPassed)
			}
		})
	}

	if _, err := content.GradeQuiz(testutil.Topics()[1], nil); err != content.ErrNoQuiz {
		t.Errorf("GradeQuiz() error = %v, want %v", err, content.ErrNoQuiz)
	}
}

func TestLangFor(t *testing.T) {
	for code, want := range map[string]string{"hi": "hi", "hi-IN": "hi", "en-US": "en", "": "en", "fr": "en"} {
		if got := content.LangFor(code); got != want {
			t.Errorf("LangFor(%q) = %q, want %q", code, got, want)
		}
	}
}
