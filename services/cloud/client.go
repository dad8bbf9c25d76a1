package cloud

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/cloudsync"
	"github.com/trezcool/masomo-offline/core/homework"
)

const (
	assignmentsPath     = "/rest/v1/assignments"
	studentProgressPath = "/rest/v1/student_progress"
	probeTimeout        = 3 * time.Second
)

// Client talks to the REST interface of the cloud database.
type Client struct {
	rc      *resty.Client
	baseURL string
}

var (
	_ homework.Remote  = (*Client)(nil)
	_ cloudsync.Remote = (*Client)(nil)
)

func NewClient(conf *core.Config) *Client {
	rc := resty.New().
		SetBaseURL(conf.Remote.BaseURL).
		SetTimeout(conf.Remote.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", conf.Remote.APIKey).
		SetAuthToken(conf.Remote.APIKey)
	return &Client{rc: rc, baseURL: conf.Remote.BaseURL}
}

// Online reports whether the remote answers at all. Never blocks longer than a few seconds.
func (c *Client) Online(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resp, err := c.rc.R().SetContext(ctx).Head("/rest/v1/")
	return err == nil && resp.StatusCode() < http.StatusInternalServerError
}

func checkResponse(resp *resty.Response, err error, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	if resp.IsError() {
		return errors.Errorf("%s: %s: %s", op, resp.Status(), resp.String())
	}
	return nil
}

func (c *Client) ListAssignments(ctx context.Context, studentID string) ([]homework.Assignment, error) {
	var list []homework.Assignment
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select":     "*",
			"student_id": "eq." + studentID,
			"order":      core.DBOrdering{Field: "created_at"}.Param(),
		}).
		SetResult(&list).
		Get(assignmentsPath)
	if err = checkResponse(resp, err, "listing assignments"); err != nil {
		return nil, err
	}
	if list == nil {
		list = []homework.Assignment{}
	}
	return list, nil
}

func (c *Client) SetAssignmentStatus(ctx context.Context, id, status string) error {
	var updated []homework.Assignment
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetHeader("Prefer", "return=representation").
		SetBody(map[string]string{"status": status}).
		SetResult(&updated).
		Patch(assignmentsPath)
	if err = checkResponse(resp, err, "updating assignment"); err != nil {
		return err
	}
	if len(updated) == 0 {
		return homework.ErrNotFound
	}
	return nil
}

func (c *Client) InsertAssignment(ctx context.Context, a homework.Assignment) (homework.Assignment, error) {
	var created []homework.Assignment
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(map[string]string{
			"student_id":   a.StudentID,
			"student_name": a.StudentName,
			"topic_id":     a.TopicID,
			"topic_title":  a.TopicTitle,
			"status":       a.Status,
		}).
		SetResult(&created).
		Post(assignmentsPath)
	if err = checkResponse(resp, err, "inserting assignment"); err != nil {
		return homework.Assignment{}, err
	}
	if len(created) == 0 {
		return homework.Assignment{}, errors.New("inserting assignment: empty response")
	}
	return created[0], nil
}

func (c *Client) UpsertStudentProgress(ctx context.Context, sp cloudsync.StudentProgress) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates").
		SetBody(sp).
		Post(studentProgressPath)
	return checkResponse(resp, err, "upserting student progress")
}

func (c *Client) ListStudentProgress(ctx context.Context) ([]cloudsync.StudentProgress, error) {
	var roster []cloudsync.StudentProgress
	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"select": "*",
			"order":  core.DBOrdering{Field: "last_sync"}.Param(),
		}).
		SetResult(&roster).
		Get(studentProgressPath)
	if err = checkResponse(resp, err, "listing student progress"); err != nil {
		return nil, err
	}
	if roster == nil {
		roster = []cloudsync.StudentProgress{}
	}
	return roster, nil
}

// ContentSource downloads the lesson documents from a static file host.
type ContentSource struct {
	rc *resty.Client
}

func NewContentSource(conf *core.Config) *ContentSource {
	rc := resty.New().
		SetBaseURL(conf.Content.BaseURL).
		SetTimeout(conf.Remote.Timeout)
	return &ContentSource{rc: rc}
}

func (s *ContentSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.rc.R().SetContext(ctx).Get("/" + name)
	if err = checkResponse(resp, err, fmt.Sprintf("fetching %s", name)); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
