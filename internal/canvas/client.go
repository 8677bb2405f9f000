package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Collection endpoints request the remote maximum page size; smaller
// pages still paginate correctly through the Link header.
const pageSize = "100"

// Logger is the logging surface the client needs. csync.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// Client talks to a Canvas-style LMS API: bearer-token authentication,
// Link-header pagination, pre-signed download URLs.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  Logger
}

// NewClient returns a client for the API rooted at baseURL. A nil
// logger disables logging.
func NewClient(baseURL, token string, logger Logger) *Client {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// No client-wide timeout: file downloads may legitimately run
		// long, and every call takes a context.
		http:   &http.Client{},
		logger: logger,
	}
}

// Courses returns the active courses visible to the token, possibly
// partial if a later page fails (see fetchAll).
func (c *Client) Courses(ctx context.Context) []Course {
	q := url.Values{"enrollment_state": {"active"}, "per_page": {pageSize}}
	return fetchAll[Course](ctx, c, c.apiURL("/courses", q))
}

// Modules returns the course's modules with item lists embedded when
// the remote includes them.
func (c *Client) Modules(ctx context.Context, courseID int64) []Module {
	q := url.Values{"include[]": {"items"}, "per_page": {pageSize}}
	return fetchAll[Module](ctx, c, c.apiURL(fmt.Sprintf("/courses/%d/modules", courseID), q))
}

// ModuleItems returns a module's items; used when the modules response
// did not embed them.
func (c *Client) ModuleItems(ctx context.Context, courseID, moduleID int64) []ModuleItem {
	q := url.Values{"per_page": {pageSize}}
	return fetchAll[ModuleItem](ctx, c, c.apiURL(fmt.Sprintf("/courses/%d/modules/%d/items", courseID, moduleID), q))
}

// File resolves full file metadata by id.
func (c *Client) File(ctx context.Context, fileID int64) (*File, error) {
	var f File
	if err := c.getJSON(ctx, c.apiURL(fmt.Sprintf("/files/%d", fileID), nil), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Page fetches a wiki page with its rendered body.
func (c *Client) Page(ctx context.Context, courseID int64, pageURL string) (*Page, error) {
	var p Page
	u := c.apiURL(fmt.Sprintf("/courses/%d/pages/%s", courseID, url.PathEscape(pageURL)), nil)
	if err := c.getJSON(ctx, u, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Assignment fetches assignment detail including its description and
// declared attachments.
func (c *Client) Assignment(ctx context.Context, courseID, assignmentID int64) (*Assignment, error) {
	var a Assignment
	u := c.apiURL(fmt.Sprintf("/courses/%d/assignments/%d", courseID, assignmentID), nil)
	if err := c.getJSON(ctx, u, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// CourseFiles enumerates the course's top-level Files area. A
// permission denial there is a course-level outcome: the returned
// error satisfies IsForbidden and the caller marks the whole course
// access-denied. When the flat listing is unavailable for any other
// reason, the folder tree is enumerated instead.
func (c *Client) CourseFiles(ctx context.Context, courseID int64) ([]File, error) {
	probeURL := c.apiURL(fmt.Sprintf("/courses/%d/files", courseID), url.Values{"per_page": {"1"}})
	status, err := c.probe(ctx, probeURL)
	switch {
	case err != nil:
		c.logger.Debug("files probe failed, trying folder enumeration", "course_id", courseID, "error", err)
		return c.filesViaFolders(ctx, courseID)
	case status == http.StatusForbidden:
		return nil, &APIError{StatusCode: status, URL: probeURL}
	case status != http.StatusOK:
		c.logger.Debug("files listing unavailable, trying folder enumeration",
			"course_id", courseID, "status", status)
		return c.filesViaFolders(ctx, courseID)
	}

	q := url.Values{"per_page": {pageSize}}
	return fetchAll[File](ctx, c, c.apiURL(fmt.Sprintf("/courses/%d/files", courseID), q)), nil
}

// filesViaFolders walks the course's folder tree and concatenates each
// folder's files. A denial on the folder listing is still a
// course-level denial.
func (c *Client) filesViaFolders(ctx context.Context, courseID int64) ([]File, error) {
	probeURL := c.apiURL(fmt.Sprintf("/courses/%d/folders", courseID), url.Values{"per_page": {"1"}})
	status, err := c.probe(ctx, probeURL)
	if err == nil && status == http.StatusForbidden {
		return nil, &APIError{StatusCode: status, URL: probeURL}
	}

	q := url.Values{"per_page": {pageSize}}
	folders := fetchAll[Folder](ctx, c, c.apiURL(fmt.Sprintf("/courses/%d/folders", courseID), q))
	var all []File
	for _, folder := range folders {
		files := fetchAll[File](ctx, c, c.apiURL(fmt.Sprintf("/folders/%d/files", folder.ID), q))
		all = append(all, files...)
	}
	return all, nil
}

// Download opens the content behind a pre-signed download URL. The
// caller owns the returned body. Permission denials satisfy
// IsForbidden on the returned error.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	// Download URLs carry their own verifier token; no bearer header.
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return resp.Body, nil
}

// apiURL joins an API path and query onto the base URL.
func (c *Client) apiURL(p string, q url.Values) string {
	u := c.baseURL + "/api/v1" + p
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// getJSON fetches a single resource into out. Non-success statuses
// come back as *APIError.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	_, err := c.getPage(ctx, rawURL, out)
	return err
}

// getPage performs one authenticated GET, decodes the body into out,
// and returns the next-page link if the response names one.
func (c *Client) getPage(ctx context.Context, rawURL string, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", fmt.Errorf("decoding response from %s: %w", rawURL, err)
	}
	return nextLink(resp.Header.Get("Link")), nil
}

// probe issues one GET and reports only the status code.
func (c *Client) probe(ctx context.Context, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
