package workapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"quill/internal/catalog"
	"quill/internal/logging"
	"quill/internal/media"
	"quill/internal/services"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 5 * time.Second
	userAgent             = "quill/1"
)

// Config holds resolved endpoint URLs and credentials.
type Config struct {
	CreateWorkURL    string
	WorksURL         string
	ManageWorkURL    string
	SuggestTagsURL   string
	GenerateCoverURL string
	CatalogURL       string
	Token            string
	TimeoutSeconds   int
}

// Client issues backend requests.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a client for cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			CreateWorkURL:    strings.TrimSpace(cfg.CreateWorkURL),
			WorksURL:         strings.TrimRight(strings.TrimSpace(cfg.WorksURL), "/"),
			ManageWorkURL:    strings.TrimRight(strings.TrimSpace(cfg.ManageWorkURL), "/"),
			SuggestTagsURL:   strings.TrimSpace(cfg.SuggestTagsURL),
			GenerateCoverURL: strings.TrimSpace(cfg.GenerateCoverURL),
			CatalogURL:       strings.TrimRight(strings.TrimSpace(cfg.CatalogURL), "/"),
			Token:            strings.TrimSpace(cfg.Token),
			TimeoutSeconds:   cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logging.NewNop(),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "workapi")
	return client
}

// CreateWork posts a new work and returns its id.
func (c *Client) CreateWork(ctx context.Context, req CreateWorkRequest) (int64, error) {
	const op = "create work"
	if c.cfg.CreateWorkURL == "" {
		return 0, fmt.Errorf("%s: endpoint not configured", op)
	}
	form := newMultipartForm()
	if err := form.addJSON("work", req.Work); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if req.Banner != nil {
		if err := form.addFile("banner", *req.Banner); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	if req.Cover != nil {
		if err := form.addFile("cover", *req.Cover); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}
	body, contentType, err := form.finish()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	respBody, err := c.do(ctx, op, http.MethodPost, c.cfg.CreateWorkURL, contentType, body)
	if err != nil {
		return 0, err
	}
	id, err := decodeWorkID(respBody)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UploadCover patches the cover of an existing work.
func (c *Client) UploadCover(ctx context.Context, workID int64, upload CoverUpload) error {
	const op = "upload cover"
	if upload.File == nil && strings.TrimSpace(upload.IAURL) == "" {
		return fmt.Errorf("%s: cover file or generated url required", op)
	}
	endpoint, err := c.workURL(workID, "cover")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	form := newMultipartForm()
	if upload.File != nil {
		if err := form.addFile("cover", *upload.File); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if u := strings.TrimSpace(upload.IAURL); u != "" {
		if err := form.addField("coverIaUrl", u); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	body, contentType, err := form.finish()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.do(ctx, op, http.MethodPatch, endpoint, contentType, body)
	return err
}

// UploadBanner patches the banner of an existing work. The cover part is
// optional.
func (c *Client) UploadBanner(ctx context.Context, workID int64, banner media.File, cover *media.File) error {
	const op = "upload banner"
	endpoint, err := c.workURL(workID, "banner")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	form := newMultipartForm()
	if err := form.addFile("banner", banner); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cover != nil {
		if err := form.addFile("cover", *cover); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	body, contentType, err := form.finish()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = c.do(ctx, op, http.MethodPatch, endpoint, contentType, body)
	return err
}

// SaveWork sends the management fields of an existing work.
func (c *Client) SaveWork(ctx context.Context, workID int64, req SaveRequest) error {
	const op = "save work"
	if workID <= 0 {
		return fmt.Errorf("%s: work id required", op)
	}
	if c.cfg.ManageWorkURL == "" {
		return fmt.Errorf("%s: endpoint not configured", op)
	}
	if req.CategoryIDs == nil {
		req.CategoryIDs = []int{}
	}
	if req.TagIDs == nil {
		req.TagIDs = []string{}
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}
	endpoint := c.cfg.ManageWorkURL + "/" + strconv.FormatInt(workID, 10)
	_, err = c.do(ctx, op, http.MethodPut, endpoint, "application/json", encoded)
	return err
}

// SuggestTags returns AI tag suggestions for a description.
func (c *Client) SuggestTags(ctx context.Context, req SuggestTagsRequest) ([]string, error) {
	const op = "suggest tags"
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%s: description required", op)
	}
	if req.ExistingTags == nil {
		req.ExistingTags = []string{}
	}
	encoded, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%s: encode body: %w", op, err)
	}
	body, err := c.do(ctx, op, http.MethodPost, c.cfg.SuggestTagsURL, "application/json", encoded)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return parsed.Suggestions, nil
}

// GenerateCover returns the URL of a generated cover image.
func (c *Client) GenerateCover(ctx context.Context, req GenerateCoverRequest) (string, error) {
	const op = "generate cover"
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	body, err := c.do(ctx, op, http.MethodPost, c.cfg.GenerateCoverURL, "application/json", encoded)
	if err != nil {
		return "", err
	}
	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if strings.TrimSpace(parsed.URL) == "" {
		return "", fmt.Errorf("%s: response missing url", op)
	}
	return strings.TrimSpace(parsed.URL), nil
}

// GetWork fetches a work for editing.
func (c *Client) GetWork(ctx context.Context, workID int64) (WorkDTO, error) {
	const op = "get work"
	var dto WorkDTO
	endpoint, err := c.workURL(workID, "")
	if err != nil {
		return dto, fmt.Errorf("%s: %w", op, err)
	}
	body, err := c.doWithRetry(ctx, op, endpoint)
	if err != nil {
		return dto, err
	}
	if err := json.Unmarshal(body, &dto); err != nil {
		return dto, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if dto.ID == 0 {
		dto.ID = workID
	}
	return dto, nil
}

// FetchCatalog loads one reference list.
func (c *Client) FetchCatalog(ctx context.Context, kind catalog.Kind) ([]catalog.Entry, error) {
	op := "fetch catalog " + string(kind)
	if c.cfg.CatalogURL == "" {
		return nil, fmt.Errorf("%s: endpoint not configured", op)
	}
	body, err := c.doWithRetry(ctx, op, c.cfg.CatalogURL+"/"+url.PathEscape(string(kind)))
	if err != nil {
		return nil, err
	}
	var entries []catalog.Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return entries, nil
}

func (c *Client) workURL(workID int64, suffix string) (string, error) {
	if workID <= 0 {
		return "", errors.New("work id required")
	}
	if c.cfg.WorksURL == "" {
		return "", errors.New("works endpoint not configured")
	}
	endpoint := c.cfg.WorksURL + "/" + strconv.FormatInt(workID, 10)
	if suffix != "" {
		endpoint += "/" + suffix
	}
	return endpoint, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint, contentType string, body []byte) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%s: endpoint not configured", op)
	}
	logger := logging.WithContext(ctx, c.logger).With(logging.String("op", op))
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		logger = logger.With(logging.String(logging.FieldCorrelationID, requestID))
	}
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	logger.Debug("api request", logging.String("method", method), logging.String("url", endpoint), logging.Int("bytes", len(body)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("api request failed", logging.Error(err), logging.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%s: http error (timeout=%s): %w", op, c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		apiErr := &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(respBody),
			RetryAfter: retryAfter,
		}
		logger.Warn("api request rejected",
			logging.Int("status", resp.StatusCode),
			logging.String("message", apiErr.Message),
			logging.Duration("elapsed", time.Since(start)),
		)
		return nil, apiErr
	}
	logger.Debug("api request completed", logging.Int("status", resp.StatusCode), logging.Duration("elapsed", time.Since(start)))
	return respBody, nil
}

func (c *Client) doWithRetry(ctx context.Context, op, endpoint string) ([]byte, error) {
	attempts := c.retryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.do(ctx, op, http.MethodGet, endpoint, "", nil)
		if err == nil {
			return body, nil
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= http.StatusInternalServerError:
			if apiErr.RetryAfter > 0 {
				return c.capDelay(apiErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if c.retryMaxDelay > 0 && delay > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}

// decodeWorkID accepts a bare number, a quoted number, or an object with an
// "id" field.
func decodeWorkID(body []byte) (int64, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return 0, errors.New("empty response")
	}
	var id int64
	if err := json.Unmarshal(trimmed, &id); err == nil && id > 0 {
		return id, nil
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil && parsed > 0 {
			return parsed, nil
		}
	}
	var obj struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil && obj.ID != "" {
		if parsed, err := obj.ID.Int64(); err == nil && parsed > 0 {
			return parsed, nil
		}
	}
	return 0, fmt.Errorf("unrecognized work id in response %q", string(trimmed))
}

// multipartForm buffers a multipart body. Parts stay small enough (20 MiB
// per image) to build in memory, which also gives a Content-Length.
type multipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) addJSON(name string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s part: %w", name, err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="blob"`, name))
	header.Set("Content-Type", "application/json")
	part, err := f.writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create %s part: %w", name, err)
	}
	_, err = part.Write(encoded)
	return err
}

func (f *multipartForm) addField(name, value string) error {
	return f.writer.WriteField(name, value)
}

func (f *multipartForm) addFile(name string, file media.File) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer reader.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := file.Name
	if filename == "" {
		filename = name
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, filename))
	header.Set("Content-Type", contentType)
	part, err := f.writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create %s part: %w", name, err)
	}
	if _, err := io.Copy(part, reader); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}

func (f *multipartForm) finish() ([]byte, string, error) {
	if err := f.writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return f.buf.Bytes(), f.writer.FormDataContentType(), nil
}
