package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
)

type sessionApi struct {
	conf     *core.Config
	jwt      middleware.JWTConfig
	sessions *session.Service
	progress *progress.Service
	validate *validator.Validate
	logger   core.Logger
}

func registerSessionAPI(g *echo.Group, s *Server) {
	api := sessionApi{
		conf:     s.deps.Conf,
		jwt:      s.jwt,
		sessions: s.deps.Sessions,
		progress: s.deps.Progress,
		validate: s.deps.Validate,
		logger:   s.deps.Logger,
	}

	sg := g.Group("/session")
	sg.POST("", api.login)
	sg.GET("", api.retrieve)
	sg.DELETE("", api.logout)
	// TODO: rate limit teacher login attempts
	sg.POST("/teacher", api.loginTeacher)
}

// Handlers

func (api *sessionApi) login(ctx echo.Context) error {
	var data session.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.sessions.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	api.logger.Info("student logged in", sess.Profile)
	return api.respond(ctx, http.StatusCreated, sess)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.sessions.Active(ctx.Request().Context())
	if err != nil {
		return err
	}
	return api.respond(ctx, http.StatusOK, sess)
}

// respond sends the profile with its legacy list of completed topics filled from the progress table.
func (api *sessionApi) respond(ctx echo.Context, code int, sess session.Session) error {
	ids, err := api.progress.CompletedTopicIDs(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "getting completed topics")
	}
	p := sess.Profile
	p.ProgressIDs = ids
	return ctx.JSON(code, p)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if err := api.sessions.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) loginTeacher(ctx echo.Context) error {
	var data session.TeacherLogin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherLogin")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ts, err := api.sessions.AuthenticateTeacher(data.Password)
	if err != nil {
		return err
	}
	token, err := generateToken(api.jwt, getTeacherClaims(api.conf, ts))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TeacherLoginResponse{
		Token:     token,
		ExpiresIn: int64(api.conf.Server.JWTExpirationDelta.Seconds()),
	})
}
