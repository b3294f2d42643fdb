// Package httpapi is the JSON transport for the remote search service:
// GET /schema, POST /search and POST /export.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	domexport "github.com/kailas-cloud/varsearch/internal/domain/export"
	"github.com/kailas-cloud/varsearch/internal/domain/schema"
	"github.com/kailas-cloud/varsearch/internal/domain/schema/field"
	"github.com/kailas-cloud/varsearch/internal/domain/search/request"
	"github.com/kailas-cloud/varsearch/internal/domain/search/response"
)

// Endpoint paths relative to the base URL.
const (
	PathSchema = "/schema"
	PathSearch = "/search"
	PathExport = "/export"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultFilenamePrefix = "codex-export"
)

// Client talks to the remote search API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *zap.Logger
	filenamePrefix string
}

// New creates a Client targeting baseURL (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: defaultTimeout},
		logger:         zap.NewNop(),
		filenamePrefix: defaultFilenamePrefix,
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// GetSchema fetches the field catalog.
func (c *Client) GetSchema(ctx context.Context) (schema.Schema, error) {
	var w wireSchema
	if err := c.doJSON(ctx, http.MethodGet, PathSchema, nil, &w); err != nil {
		return schema.Schema{}, fmt.Errorf("get schema: %w", err)
	}
	fields, err := w.toFields(c.logger)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("get schema: %w", err)
	}
	s, err := schema.New(fields)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("get schema: %w", err)
	}
	return s, nil
}

// Search posts a search request and decodes the result page.
func (c *Client) Search(ctx context.Context, req request.Request) (response.Response, error) {
	var resp response.Response
	if err := c.doJSON(ctx, http.MethodPost, PathSearch, req, &resp); err != nil {
		return response.Response{}, err
	}
	return resp, nil
}

// Export posts an export request and returns the binary payload.
func (c *Client) Export(ctx context.Context, req request.Export) (domexport.Download, error) {
	resp, body, err := c.do(ctx, http.MethodPost, PathExport, req)
	if err != nil {
		return domexport.Download{}, err
	}

	f := req.Format()
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = f.ContentType()
	}
	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = domexport.DefaultFilename(c.filenamePrefix, f)
	}
	return domexport.Download{
		Format:      f,
		Filename:    name,
		ContentType: ct,
		Data:        body,
	}, nil
}

// doJSON performs a request with an optional JSON body and decodes a JSON response.
func (c *Client) doJSON(ctx context.Context, method, p string, body, result any) error {
	_, respBody, err := c.do(ctx, method, p, body)
	if err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// do sends the request and returns the response with its fully read body.
// Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, p string, body any) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+p, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("performing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", p),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, newAPIError(resp.StatusCode, respBody)
	}
	return resp, respBody, nil
}

// errorMessage extracts a human-readable message from an error body.
// FastAPI-style {"detail": "..."} and {"error": "..."} are unwrapped;
// anything else is returned as trimmed text.
func errorMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}
	var errResp struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if json.Unmarshal(body, &errResp) != nil {
		return text
	}
	var detail string
	if len(errResp.Detail) > 0 && json.Unmarshal(errResp.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return text
}

// filenameFromDisposition returns the base file name from a
// Content-Disposition header, or "" when absent or malformed.
func filenameFromDisposition(cd string) string {
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := strings.TrimSpace(params["filename"])
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// wireField is a catalog entry in list form.
type wireField struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// wireSchema accepts both {"fields":[{...}]} and {"fields":{"name":"type"}}.
type wireSchema struct {
	list   []wireField
	byName map[string]string
}

func (w *wireSchema) UnmarshalJSON(data []byte) error {
	var env struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}
	raw := bytes.TrimSpace(env.Fields)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &w.list); err != nil {
			return fmt.Errorf("decode schema fields: %w", err)
		}
	case '{':
		if err := json.Unmarshal(raw, &w.byName); err != nil {
			return fmt.Errorf("decode schema fields: %w", err)
		}
	default:
		return fmt.Errorf("decode schema fields: unexpected %q", raw[0])
	}
	return nil
}

// toFields converts the wire form. Entries with an unknown type are skipped.
func (w wireSchema) toFields(logger *zap.Logger) ([]field.Field, error) {
	if w.byName != nil {
		names := make([]string, 0, len(w.byName))
		for n := range w.byName {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			w.list = append(w.list, wireField{Name: n, Type: w.byName[n]})
		}
	}

	fields := make([]field.Field, 0, len(w.list))
	for _, wf := range w.list {
		ft, err := field.ParseType(wf.Type)
		if err != nil {
			logger.Warn("skipping schema field", zap.String("field", wf.Name), zap.Error(err))
			continue
		}
		f, err := field.New(wf.Name, wf.Label, ft, wf.Description, wf.Suggestions)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
