// Package client is a typed HTTP client for the onboarding API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"kyc-backend/internal/onboarding"
)

const defaultTimeout = 60 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    any
}

func (e *APIError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("api error %d: %s (%v)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Document is a file to upload.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadDocument loads path and sniffs its content type.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// CreateResult is the answer to Create.
type CreateResult struct {
	WorkflowID string            `json:"workflowId"`
	Onboarding onboarding.Record `json:"onboarding"`
}

// UploadResult is the answer to Upload.
type UploadResult struct {
	Message       string `json:"message"`
	WorkflowID    string `json:"workflowId"`
	RelayResponse any    `json:"relayResponse"`
}

// Client calls the onboarding API rooted at BaseURL (for example http://localhost:8080/api).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New constructs a Client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Create starts a new onboarding session.
func (c *Client) Create(ctx context.Context) (CreateResult, error) {
	var out CreateResult
	err := c.doJSON(ctx, http.MethodPost, "/onboarding/create", nil, &out)
	return out, err
}

// Upload sends both documents for workflowID.
func (c *Client) Upload(ctx context.Context, workflowID string, pan, aadhaar Document) (UploadResult, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := writePart(w, onboarding.FormPANFile, pan); err != nil {
		return UploadResult{}, err
	}
	if err := writePart(w, onboarding.FormAadhaarFile, aadhaar); err != nil {
		return UploadResult{}, err
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/onboarding/"+url.PathEscape(workflowID)+"/upload", body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadResult
	err = c.send(req, &out)
	return out, err
}

// Status fetches the status view of workflowID.
func (c *Client) Status(ctx context.Context, workflowID string) (onboarding.StatusView, error) {
	var out struct {
		Status onboarding.StatusView `json:"status"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/onboarding/"+url.PathEscape(workflowID)+"/status", nil, &out)
	return out.Status, err
}

// Webhook posts a partial update, as the workflow engine does.
func (c *Client) Webhook(ctx context.Context, workflowID string, patch map[string]any) (onboarding.Record, error) {
	var out struct {
		Onboarding onboarding.Record `json:"onboarding"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/onboarding/"+url.PathEscape(workflowID)+"/webhook", patch, &out)
	return out.Onboarding, err
}

// List returns records with status, or the most recent limit records when
// status is empty. A limit of zero or less leaves the server default.
func (c *Client) List(ctx context.Context, status string, limit int) ([]onboarding.Record, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/onboardings"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Onboardings []onboarding.Record `json:"onboardings"`
	}
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out.Onboardings, err
}

// Stats fetches the dashboard counters.
func (c *Client) Stats(ctx context.Context) (onboarding.Stats, error) {
	var out struct {
		Stats onboarding.Stats `json:"stats"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/dashboard/stats", nil, &out)
	return out.Stats, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var env struct {
			Error   string `json:"error"`
			Details any    `json:"details"`
		}
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
			apiErr.Details = env.Details
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func writePart(w *multipart.Writer, field string, doc Document) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, strings.ReplaceAll(doc.Name, `"`, "")))
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(doc.Data)
	return err
}
