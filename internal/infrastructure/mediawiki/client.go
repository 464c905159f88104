// Package mediawiki talks to the MediaWiki action API. Reads are anonymous;
// edits run on behalf of a user with the user's OAuth bearer token. All calls
// share one token-bucket limiter so a burst of media refreshes cannot flood
// the wiki.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize caps wiki responses (10MB)
const maxResponseSize = 10 * 1024 * 1024

var (
	ErrNotConfigured     = errors.New("mediawiki: api url is not configured")
	ErrPageNotFound      = errors.New("mediawiki: page does not exist")
	ErrMissingToken      = errors.New("mediawiki: user is not connected to the wiki")
	ErrActionNotAllowed  = errors.New("mediawiki: only the query action may be proxied")
	ErrUnexpectedPayload = errors.New("mediawiki: unexpected response")
)

// Observer is told how long each API call took
type Observer interface {
	WikiRequest(ctx context.Context, action string, elapsed time.Duration)
}

// Client is a throttled MediaWiki API client
type Client struct {
	apiURL     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
	logger     *zap.Logger
}

// NewClient creates a client from config
func NewClient(cfg config.MediaWikiConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "wikimedia-cz-tracker"
	}
	return &Client{
		apiURL:     cfg.APIURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}, nil
}

// SetObserver installs an observer for API call timings
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// do sends one API call. GET carries params in the query string, POST as a
// form body. token is the user's bearer token, empty for anonymous calls.
func (c *Client) do(ctx context.Context, method string, params url.Values, token string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("mediawiki: rate limiter: %w", err)
	}
	if params.Get("format") == "" {
		params.Set("format", "json")
	}

	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("mediawiki: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: request failed: %w", err)
	}
	defer resp.Body.Close()
	if c.observer != nil {
		c.observer.WikiRequest(ctx, params.Get("action"), time.Since(start))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("mediawiki: failed to read response: %w", err)
	}
	c.logger.Debug("MediaWiki call",
		zap.String("action", params.Get("action")),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("mediawiki: HTTP %d", resp.StatusCode)
	}
	return body, nil
}

// call runs do and decodes the JSON into out, surfacing API errors
func (c *Client) call(ctx context.Context, method string, params url.Values, token string, out interface{ apiError() *APIError }) error {
	body, err := c.do(ctx, method, params, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}
	if apiErr := out.apiError(); apiErr != nil {
		return apiErr
	}
	return nil
}

func (e *envelope) apiError() *APIError {
	return e.Error
}

func (c *Client) queryPage(ctx context.Context, params url.Values, token string) (*page, error) {
	params.Set("action", "query")
	params.Set("formatversion", "2")
	var resp queryResponse
	if err := c.call(ctx, http.MethodGet, params, token, &resp); err != nil {
		return nil, err
	}
	if len(resp.Query.Pages) == 0 {
		return nil, ErrUnexpectedPayload
	}
	p := resp.Query.Pages[0]
	if p.Missing || p.Invalid {
		return nil, ErrPageNotFound
	}
	return &p, nil
}

// PageID resolves a page title to its id
func (c *Client) PageID(ctx context.Context, title string) (int64, error) {
	p, err := c.queryPage(ctx, url.Values{"titles": {title}}, "")
	if err != nil {
		return 0, err
	}
	return p.PageID, nil
}

// Title resolves a page id to its title
func (c *Client) Title(ctx context.Context, pageID int64) (string, error) {
	p, err := c.queryPage(ctx, url.Values{"pageids": {strconv.FormatInt(pageID, 10)}}, "")
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

// GetContent returns the current wikitext of a page as seen by the user
func (c *Client) GetContent(ctx context.Context, token string, pageID int64) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	p, err := c.queryPage(ctx, url.Values{
		"pageids": {strconv.FormatInt(pageID, 10)},
		"prop":    {"revisions"},
		"rvprop":  {"content"},
		"rvslots": {"main"},
	}, token)
	if err != nil {
		return "", err
	}
	if len(p.Revisions) == 0 {
		return "", ErrPageNotFound
	}
	return p.Revisions[0].Slots.Main.Content, nil
}

// csrfToken fetches an edit token for the user
func (c *Client) csrfToken(ctx context.Context, token string) (string, error) {
	var resp queryResponse
	params := url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {"csrf"},
	}
	if err := c.call(ctx, http.MethodGet, params, token, &resp); err != nil {
		return "", err
	}
	if resp.Query.Tokens.CSRFToken == "" {
		return "", fmt.Errorf("%w: no csrf token", ErrUnexpectedPayload)
	}
	return resp.Query.Tokens.CSRFToken, nil
}

// PutContent replaces the wikitext of a page on behalf of the user
func (c *Client) PutContent(ctx context.Context, token string, pageID int64, text, summary string, minor bool) error {
	if token == "" {
		return ErrMissingToken
	}
	csrf, err := c.csrfToken(ctx, token)
	if err != nil {
		return err
	}
	params := url.Values{
		"action":   {"edit"},
		"pageid":   {strconv.FormatInt(pageID, 10)},
		"text":     {text},
		"summary":  {summary},
		"nocreate": {"1"},
		"token":    {csrf},
	}
	if minor {
		params.Set("minor", "1")
	}
	var resp editResponse
	if err := c.call(ctx, http.MethodPost, params, token, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "missingtitle" {
			return ErrPageNotFound
		}
		return err
	}
	if resp.Edit.Result != "Success" {
		return fmt.Errorf("%w: edit result %q", ErrUnexpectedPayload, resp.Edit.Result)
	}
	return nil
}

// MediaData loads image info, visible categories and global usage of a
// file. A positive width returns the thumbnail URL of that width.
func (c *Client) MediaData(ctx context.Context, pageID int64, width int) (*MediaData, error) {
	params := url.Values{
		"pageids": {strconv.FormatInt(pageID, 10)},
		"prop":    {"imageinfo|categories|globalusage"},
		"iiprop":  {"dimensions|url|canonicaltitle"},
		"clprop":  {"hidden"},
	}
	if width > 0 {
		params.Set("iiurlwidth", strconv.Itoa(width))
	}
	p, err := c.queryPage(ctx, params, "")
	if err != nil {
		return nil, err
	}
	if len(p.ImageInfo) == 0 {
		return nil, fmt.Errorf("%w: page %d is not a file", ErrUnexpectedPayload, pageID)
	}
	info := p.ImageInfo[0]
	data := &MediaData{
		PageID:     p.PageID,
		Title:      info.CanonicalTitle,
		URL:        info.URL,
		Width:      info.Width,
		Height:     info.Height,
		Categories: []string{},
		Usages:     p.GlobalUsage,
	}
	if width > 0 && info.ThumbURL != "" {
		data.URL = info.ThumbURL
	}
	for _, cat := range p.Categories {
		if !cat.Hidden {
			data.Categories = append(data.Categories, cat.Title)
		}
	}
	if data.Usages == nil {
		data.Usages = []Usage{}
	}
	return data, nil
}

// Proxy forwards a read-only query for the browser. Anything but
// action=query is refused. token may be empty.
func (c *Client) Proxy(ctx context.Context, method string, params url.Values, token string) ([]byte, error) {
	if params.Get("action") != "query" {
		return nil, ErrActionNotAllowed
	}
	return c.do(ctx, method, params, token)
}
