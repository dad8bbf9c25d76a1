package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/homework"
	"github.com/trezcool/masomo-offline/core/session"
)

type syncApi struct {
	conf       *core.Config
	sessions   *session.Service
	builder    *cloudsync.Builder
	pusher     *cloudsync.Pusher
	reconciler *homework.Reconciler
}

func registerSyncAPI(g *echo.Group, deps Deps) {
	api := syncApi{
		conf:       deps.Conf,
		sessions:   deps.Sessions,
		builder:    deps.Builder,
		pusher:     deps.Pusher,
		reconciler: deps.Reconciler,
	}

	g.GET("/sync/payload", api.payload)
	g.POST("/sync", api.push)

	hg := g.Group("/homework")
	hg.GET("", api.homework)
	hg.GET("/:topic/topic", api.openTopic)
}

// Handlers

func (api *syncApi) payload(ctx echo.Context) error {
	p, err := api.builder.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building payload")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *syncApi) push(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	p, err := api.pusher.Push(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "pushing payload")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *syncApi) homework(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	res, err := api.reconciler.Reconcile(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "reconciling homework")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *syncApi) openTopic(ctx echo.Context) error {
	topic, err := api.reconciler.OpenTopic(ctx.Request().Context(), bindLang(ctx, api.conf.Content.DefaultLang), ctx.Param("topic"))
	if err != nil {
		return errors.Wrap(err, "opening homework topic")
	}
	return ctx.JSON(http.StatusOK, topic)
}
