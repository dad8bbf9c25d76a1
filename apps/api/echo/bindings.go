package echoapi

import (
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/classroom"
	"github.com/trezcool/masomo-offline/core/content"
)

var (
	orderingParam = "ordering"
	langParam     = "lang"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// SortStudents orders the roster in place. Unknown fields are ignored; ties keep the remote order.
func (ord *Ordering) SortStudents(students []classroom.Student) {
	if len(ord.Orderings) == 0 {
		return
	}
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		for _, o := range ord.Orderings {
			var cmp int
			switch o.Field {
			case "id":
				cmp = strings.Compare(a.ID, b.ID)
			case "name":
				cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
			case "grade":
				cmp = strings.Compare(a.Grade, b.Grade)
			case "completed_count":
				cmp = a.CompletedCount - b.CompletedCount
			case "last_sync":
				switch {
				case a.LastSync.Before(b.LastSync):
					cmp = -1
				case a.LastSync.After(b.LastSync):
					cmp = 1
				}
			}
			if cmp == 0 {
				continue
			}
			if o.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

// bindLang returns the content language of the request: ?lang=, then Accept-Language, then def.
func bindLang(ctx echo.Context, def string) string {
	if lang := ctx.QueryParam(langParam); lang != "" {
		return lang
	}
	if al := ctx.Request().Header.Get("Accept-Language"); al != "" {
		return strings.SplitN(al, ",", 2)[0]
	}
	return def
}

type (
	TeacherLoginResponse struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expires_in"` // seconds
	}

	PageReachedRequest struct {
		PageIndex  int `json:"page_index"`
		TotalPages int `json:"total_pages"`
	}

	QuizRequest struct {
		Answers []content.Answer `json:"answers"`
	}
)
