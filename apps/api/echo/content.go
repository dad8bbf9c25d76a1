package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/content"
	"github.com/trezcool/masomo-offline/core/progress"
	"github.com/trezcool/masomo-offline/core/session"
)

type contentApi struct {
	conf     *core.Config
	catalog  *content.Catalog
	sessions *session.Service
	progress *progress.Service
	logger   core.Logger
}

type (
	topicResponse struct {
		content.Topic
		Progress *progress.Record `json:"progress,omitempty"`
	}

	quizResponse struct {
		content.QuizResult
		Completed bool `json:"completed"`
	}
)

func registerContentAPI(g *echo.Group, deps Deps) {
	api := contentApi{
		conf:     deps.Conf,
		catalog:  deps.Catalog,
		sessions: deps.Sessions,
		progress: deps.Progress,
		logger:   deps.Logger,
	}

	tg := g.Group("/topics")
	tg.GET("", api.query)
	tg.GET("/search", api.search)
	tg.GET("/:id", api.retrieve)
	tg.POST("/:id/quiz", api.gradeQuiz)

	g.GET("/maps/:subject", api.levels)
}

func (api *contentApi) lang(ctx echo.Context) string {
	return bindLang(ctx, api.conf.Content.DefaultLang)
}

// activeSession returns the student session, or ok=false when nobody is logged in.
func (api *contentApi) activeSession(ctx echo.Context) (sess session.Session, ok bool, err error) {
	sess, err = api.sessions.Active(ctx.Request().Context())
	switch {
	case err == nil:
		return sess, true, nil
	case errors.Cause(err) == session.ErrNoActiveSession:
		return session.Session{}, false, nil
	default:
		return session.Session{}, false, errors.Wrap(err, "getting active session")
	}
}

// Handlers

func (api *contentApi) query(ctx echo.Context) error {
	topics, err := api.catalog.BySubject(ctx.Request().Context(), api.lang(ctx), ctx.QueryParam("subject"))
	if err != nil {
		return errors.Wrap(err, "querying topics")
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *contentApi) search(ctx echo.Context) error {
	topics, err := api.catalog.Search(ctx.Request().Context(), api.lang(ctx), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching topics")
	}
	return ctx.JSON(http.StatusOK, topics)
}

func (api *contentApi) retrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	topic, err := api.catalog.Topic(reqCtx, api.lang(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting topic")
	}
	resp := topicResponse{Topic: topic}

	sess, ok, err := api.activeSession(ctx)
	if err != nil || !ok {
		return ctx.JSON(http.StatusOK, resp)
	}
	if _, err = api.progress.Visit(reqCtx, sess, progress.Visit{
		TopicID: topic.ID,
		Topic:   topic.Topic,
		Subject: topic.Subject,
		Summary: topic.Summary,
	}); err != nil {
		api.logger.Warn("recording visit: "+err.Error(), err, sess.Profile)
	}
	records, err := api.progress.All(reqCtx, sess)
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	for i := range records {
		if records[i].TopicID == topic.ID {
			resp.Progress = &records[i]
			break
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *contentApi) gradeQuiz(ctx echo.Context) error {
	var data QuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizRequest")
	}

	reqCtx := ctx.Request().Context()
	topic, err := api.catalog.Topic(reqCtx, api.lang(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting topic")
	}
	res, err := content.GradeQuiz(topic, data.Answers)
	if err != nil {
		return err
	}
	resp := quizResponse{QuizResult: res}
	if !res.Passed {
		return ctx.JSON(http.StatusOK, resp)
	}

	sess, ok, err := api.activeSession(ctx)
	if err != nil {
		return err
	}
	if ok {
		if _, err = api.progress.MarkComplete(reqCtx, sess, topic.ID); err != nil {
			return errors.Wrap(err, "marking topic complete")
		}
		resp.Completed = true
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *contentApi) levels(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	topics, err := api.catalog.Topics(reqCtx, api.lang(ctx))
	if err != nil {
		return errors.Wrap(err, "loading topics")
	}

	var completed []string
	sess, ok, err := api.activeSession(ctx)
	if err != nil {
		return err
	}
	if ok {
		if completed, err = api.progress.CompletedTopicIDs(reqCtx, sess); err != nil {
			return errors.Wrap(err, "getting completed topics")
		}
	}
	return ctx.JSON(http.StatusOK, content.Levels(topics, ctx.Param("subject"), completed))
}
