package content

import "strings"

// Question types
const (
	QuestionMCQ   = "mcq"
	QuestionMatch = "match"
)

type (
	Pair struct {
		Left  string `json:"left"`
		Right string `json:"right"`
	}

	Question struct {
		Type     string   `json:"type"`
		Question string   `json:"question"`
		Options  []string `json:"options,omitempty"`
		Answer   string   `json:"answer,omitempty"`
		Pairs    []Pair   `json:"pairs,omitempty"`
	}

	// Topic is a unit of lesson content, as found in knowledge_<lang>.json.
	Topic struct {
		ID       string     `json:"id"`
		Subject  string     `json:"subject"`
		Topic    string     `json:"topic"`
		Summary  string     `json:"summary"`
		Keywords []string   `json:"keywords,omitempty"`
		Pages    []string   `json:"pages"`
		Quiz     []Question `json:"quiz,omitempty"`
	}
)

func (t Topic) TotalPages() int { return len(t.Pages) }

func (t Topic) InSubject(subject string) bool {
	return strings.EqualFold(t.Subject, strings.TrimSpace(subject))
}

// LangFor maps a UI language code onto an available content language.
func LangFor(code string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), "hi") {
		return "hi"
	}
	return "en"
}

// FileName is the name of the content document of lang.
func FileName(lang string) string {
	return "knowledge_" + LangFor(lang) + ".json"
}
