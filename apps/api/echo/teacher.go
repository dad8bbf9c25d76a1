package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/classroom"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type teacherApi struct {
	conf      *core.Config
	classroom *classroom.Service
	validate  *validator.Validate
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := teacherApi{
		conf:      deps.Conf,
		classroom: deps.Classroom,
		validate:  deps.Validate,
	}

	tg := g.Group("/teacher", jwt, teacherMiddleware())
	tg.GET("/students", api.roster)
	tg.GET("/students.xlsx", api.exportRoster)
	tg.POST("/assignments", api.assign)
	tg.GET("/prefs", api.prefs)
	tg.PUT("/prefs", api.savePrefs)
}

// lang defaults to the language saved in the dashboard preferences.
func (api *teacherApi) lang(ctx echo.Context) string {
	def := api.conf.Content.DefaultLang
	if p, err := api.classroom.Prefs(ctx.Request().Context()); err == nil && p.Lang != "" {
		def = p.Lang
	}
	return bindLang(ctx, def)
}

// Handlers

func (api *teacherApi) roster(ctx echo.Context) error {
	students, err := api.classroom.Roster(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing roster")
	}
	if students == nil {
		students = []classroom.Student{}
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	ordering.SortStudents(students)
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) exportRoster(ctx echo.Context) error {
	var buf bytes.Buffer
	if err := api.classroom.ExportRoster(ctx.Request().Context(), &buf); err != nil {
		return errors.Wrap(err, "exporting roster")
	}
	fname := fmt.Sprintf("students_%s.xlsx", time.Now().UTC().Format("20060102"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fname))
	return ctx.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

func (api *teacherApi) assign(ctx echo.Context) error {
	var data classroom.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.classroom.Assign(ctx.Request().Context(), data, api.lang(ctx))
	if err != nil {
		return errors.Wrap(err, "assigning homework")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *teacherApi) prefs(ctx echo.Context) error {
	p, err := api.classroom.Prefs(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting prefs")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *teacherApi) savePrefs(ctx echo.Context) error {
	var data classroom.Prefs
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Prefs")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.classroom.SavePrefs(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "saving prefs")
	}
	return ctx.JSON(http.StatusOK, data)
}
