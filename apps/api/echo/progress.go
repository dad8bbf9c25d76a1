package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
	"github.com/trezcool/masomo-offline/services/broadcast"
)

var sseHeartbeat = 25 * time.Second // mockable

type progressApi struct {
	conf     *core.Config
	catalog  *content.Catalog
	sessions *session.Service
	progress *progress.Service
	bus      broadcast.Bus
	logger   core.Logger
}

func registerProgressAPI(g *echo.Group, deps Deps) {
	api := progressApi{
		conf:     deps.Conf,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		progress: deps.Progress,
		bus:      deps.Bus,
		logger:   deps.Logger,
	}

	pg := g.Group("/progress")
	pg.GET("", api.query)
	pg.GET("/events", api.events)
	pg.PUT("/:topic", api.recordPage)
	pg.POST("/:topic/complete", api.complete)

	g.GET("/history", api.history)
	g.GET("/stats", api.stats)
}

// Handlers

func (api *progressApi) recordPage(ctx echo.Context) error {
	var data PageReachedRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PageReachedRequest")
	}

	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	topicID := ctx.Param("topic")
	if data.TotalPages == 0 {
		topic, err := api.catalog.Topic(reqCtx, bindLang(ctx, api.conf.Content.DefaultLang), topicID)
		if err != nil {
			return errors.Wrap(err, "getting topic")
		}
		data.TotalPages = topic.TotalPages()
	}

	rec, err := api.progress.RecordPageReached(reqCtx, sess, topicID, data.PageIndex, data.TotalPages)
	if err != nil {
		return errors.Wrap(err, "recording page reached")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *progressApi) complete(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	rec, err := api.progress.MarkComplete(reqCtx, sess, ctx.Param("topic"))
	if err != nil {
		return errors.Wrap(err, "marking topic complete")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *progressApi) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	records, err := api.progress.All(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *progressApi) history(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	hist, err := api.progress.History(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "querying history")
	}
	return ctx.JSON(http.StatusOK, hist)
}

func (api *progressApi) stats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	records, err := api.progress.All(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	topics, err := api.catalog.Topics(reqCtx, bindLang(ctx, api.conf.Content.DefaultLang))
	if err != nil {
		return errors.Wrap(err, "loading topics")
	}
	return ctx.JSON(http.StatusOK, content.ComputeStats(topics, records))
}

// events streams the progress events of the active student as server-sent events,
// starting with the current list of completed topics.
func (api *progressApi) events(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	sess, err := api.sessions.Active(reqCtx)
	if err != nil {
		return err
	}
	flusher, ok := ctx.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming unsupported")
	}

	events, cancel := api.bus.Subscribe()
	defer cancel()

	completed, err := api.progress.CompletedTopicIDs(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "getting completed topics")
	}

	h := ctx.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	ctx.Response().WriteHeader(http.StatusOK)

	w := ctx.Response()
	snapshot := progress.Event{StudentID: sess.StudentID(), CompletedTopicIDs: completed, At: progress.NowFunc().UTC()}
	if err = writeEvent(w, snapshot); err != nil {
		return nil
	}
	flusher.Flush()

	ticker := time.NewTicker(sseHeartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-reqCtx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.StudentID != sess.StudentID() {
				continue
			}
			if err = writeEvent(w, ev); err != nil {
				api.logger.Debug("progress stream closed: " + err.Error())
				return nil
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err = fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w *echo.Response, ev progress.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: progress\ndata: %s\n\n", data)
	return err
}
