package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jgivc/coursecache/internal/common"
	"github.com/jgivc/coursecache/internal/config"
	"github.com/jgivc/coursecache/internal/entity"
)

const (
	headerAuth    = "Authorization"
	perPage       = 100
	maxCoursePage = 100
)

type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ModuleItemType string

const (
	ModuleItemFile       ModuleItemType = "File"
	ModuleItemPage       ModuleItemType = "Page"
	ModuleItemDiscussion ModuleItemType = "Discussion"
	ModuleItemAssignment ModuleItemType = "Assignment"
	ModuleItemQuiz       ModuleItemType = "Quiz"
)

type ModuleItem struct {
	ID        string         `json:"id"`
	Type      ModuleItemType `json:"type"`
	ContentID string         `json:"content_id"`
	PageSlug  string         `json:"page_url"`
	URL       string         `json:"url"`
}

// AssociatedTab maps a module item to the tab whose API serves its content,
// or "" when the item type has no offline representation.
func (m ModuleItem) AssociatedTab() entity.TabType {
	switch m.Type {
	case ModuleItemFile:
		return entity.TabFiles
	case ModuleItemPage:
		return entity.TabPages
	case ModuleItemDiscussion:
		return entity.TabDiscussions
	case ModuleItemAssignment:
		return entity.TabAssignments
	case ModuleItemQuiz:
		return entity.TabQuizzes
	default:
		return ""
	}
}

type Page struct {
	Slug      string `json:"url"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	FrontPage bool   `json:"front_page"`
}

type ExportJob struct {
	ID            string  `json:"id"`
	WorkflowState string  `json:"workflow_state"`
	Progress      float32 `json:"progress"`
	AttachmentURL string  `json:"attachment_url"`
}

// Finished reports whether the export job reached a terminal workflow state.
func (j *ExportJob) Finished() bool {
	return j.WorkflowState == "exported" || j.WorkflowState == "failed"
}

func (j *ExportJob) Failed() bool {
	return j.WorkflowState == "failed"
}

type BrandTheme struct {
	Variables map[string]string `json:"variables"`
	LogoURL   string            `json:"logo_url"`
}

type StudioMediaItem struct {
	ID          string `json:"id"`
	LTILaunchID string `json:"lti_launch_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	MIMEType    string `json:"mime_type"`
	Size        int64  `json:"size"`
}

type apiErrorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Errors    []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Client is a thin course API client. It decodes non-2xx replies into
// common.APIError so callers can apply the ignorable-error policy.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	log     *slog.Logger
}

func NewClient(cfg *config.APIConfig, log *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: time.Duration(cfg.Timeout)},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		log:     log.With(slog.String("item", "APIClient")),
	}
}

func (c *Client) do(ctx context.Context, method, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}
	req.Header.Set(headerAuth, "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &common.APIError{StatusCode: resp.StatusCode}

	var body apiErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.ErrorCode
		apiErr.Message = body.Message
		if apiErr.Message == "" && len(body.Errors) > 0 {
			apiErr.Message = body.Errors[0].Message
		}
	}

	return apiErr
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	rawURL := c.baseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	return c.do(ctx, http.MethodGet, rawURL, out)
}

// GetCourses pages through the full course list so the all-courses screen
// stays usable offline even for courses outside the dashboard.
func (c *Client) GetCourses(ctx context.Context) ([]Course, error) {
	var all []Course

	for page := 1; page <= maxCoursePage; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))

		var courses []Course
		if err := c.getJSON(ctx, "/api/v1/courses", query, &courses); err != nil {
			return nil, fmt.Errorf("cannot get course list page %d: %w", page, err)
		}

		all = append(all, courses...)
		if len(courses) < perPage {
			break
		}
	}

	return all, nil
}

// SubmitTabExport starts a bulk content export for one tab of a course and
// returns the job to poll. A reply without a job id means the export never
// started and the failure is fatal for that tab.
func (c *Client) SubmitTabExport(ctx context.Context, courseID string, tab entity.TabType) (*ExportJob, error) {
	rawURL := fmt.Sprintf("%s/api/v1/courses/%s/content_exports?export_type=offline&select=%s",
		c.baseURL, url.PathEscape(courseID), url.QueryEscape(string(tab)))

	var job ExportJob
	if err := c.do(ctx, http.MethodPost, rawURL, &job); err != nil {
		return nil, fmt.Errorf("cannot submit %s export for course %s: %w", tab, courseID, err)
	}

	if job.ID == "" {
		return nil, common.ErrNoJobIDReturned
	}

	return &job, nil
}

func (c *Client) GetExportJob(ctx context.Context, courseID, jobID string) (*ExportJob, error) {
	var job ExportJob
	path := fmt.Sprintf("/api/v1/courses/%s/content_exports/%s", url.PathEscape(courseID), url.PathEscape(jobID))
	if err := c.getJSON(ctx, path, nil, &job); err != nil {
		return nil, fmt.Errorf("cannot get export job %s: %w", jobID, err)
	}

	return &job, nil
}

func (c *Client) GetModuleItems(ctx context.Context, courseID string) ([]ModuleItem, error) {
	var items []ModuleItem
	path := fmt.Sprintf("/api/v1/courses/%s/module_items", url.PathEscape(courseID))
	if err := c.getJSON(ctx, path, nil, &items); err != nil {
		return nil, fmt.Errorf("cannot get module items for course %s: %w", courseID, err)
	}

	return items, nil
}

func (c *Client) GetFrontPage(ctx context.Context, courseID string) (*Page, error) {
	var page Page
	path := fmt.Sprintf("/api/v1/courses/%s/front_page", url.PathEscape(courseID))
	if err := c.getJSON(ctx, path, nil, &page); err != nil {
		return nil, fmt.Errorf("cannot get front page for course %s: %w", courseID, err)
	}

	return &page, nil
}

func (c *Client) GetPage(ctx context.Context, courseID, slug string) (*Page, error) {
	var page Page
	path := fmt.Sprintf("/api/v1/courses/%s/pages/%s", url.PathEscape(courseID), url.PathEscape(slug))
	if err := c.getJSON(ctx, path, nil, &page); err != nil {
		return nil, fmt.Errorf("cannot get page %s for course %s: %w", slug, courseID, err)
	}

	return &page, nil
}

func (c *Client) GetBrandTheme(ctx context.Context) (*BrandTheme, error) {
	var theme BrandTheme
	if err := c.getJSON(ctx, "/api/v1/brand_variables", nil, &theme); err != nil {
		return nil, fmt.Errorf("cannot get brand theme: %w", err)
	}

	return &theme, nil
}

func (c *Client) GetStudioMediaItems(ctx context.Context, courseID string) ([]StudioMediaItem, error) {
	var items []StudioMediaItem
	path := fmt.Sprintf("/api/v1/courses/%s/studio_media", url.PathEscape(courseID))
	if err := c.getJSON(ctx, path, nil, &items); err != nil {
		return nil, fmt.Errorf("cannot get studio media for course %s: %w", courseID, err)
	}

	return items, nil
}

// Download streams a file. The URL may be absolute (pre-signed) or relative
// to the API base. Size is -1 when the server does not report a length.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	if strings.HasPrefix(rawURL, "/") {
		rawURL = c.baseURL + rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot build download request: %w", err)
	}
	req.Header.Set(headerAuth, "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("download request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()

		return nil, 0, decodeAPIError(resp)
	}

	return resp.Body, resp.ContentLength, nil
}
