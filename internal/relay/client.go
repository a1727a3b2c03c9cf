// Package relay forwards uploaded identity documents to the external
// verification workflow in a single multipart POST.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"kyc-backend/internal/shared/telemetry"
)

const (
	// DefaultTimeout bounds one relay call.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 1 << 20

	FieldWorkflowID  = "workflow_id"
	FieldPANFile     = "pan_file"
	FieldAadhaarFile = "aadhaar_file"
)

// File is one document part of the relay body.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Request is the payload forwarded to the workflow engine.
type Request struct {
	WorkflowID string
	PAN        File
	Aadhaar    File
}

// Response is what the workflow engine answered. Body is decoded JSON when
// the engine returned JSON, the raw text otherwise, nil when empty.
type Response struct {
	StatusCode int
	Body       any
}

// StatusError reports a non-2xx answer from the workflow engine.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("workflow engine returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("workflow engine returned status %d: %s", e.StatusCode, e.Body)
}

// Client posts relay requests to URL. It makes exactly one attempt per call.
type Client struct {
	URL        string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New constructs a Client for url with the given timeout.
func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		URL:        url,
		HTTPClient: &http.Client{},
		Timeout:    timeout,
	}
}

// Relay sends the workflow id and both documents as multipart/form-data.
func (c *Client) Relay(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := otel.Tracer("kyc-backend/relay").Start(ctx, "relay.trigger")
	defer span.End()
	span.SetAttributes(
		attribute.String("kyc.workflow_id", req.WorkflowID),
		attribute.Int("kyc.pan_bytes", len(req.PAN.Data)),
		attribute.Int("kyc.aadhaar_bytes", len(req.Aadhaar.Data)),
	)

	resp, err := c.do(ctx, req, timeout)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		telemetry.Error("relay.failed", map[string]any{
			"workflow_id": req.WorkflowID,
			"url":         c.URL,
			"error":       err.Error(),
		})
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	telemetry.Info("relay.accepted", map[string]any{
		"workflow_id": req.WorkflowID,
		"status_code": resp.StatusCode,
	})
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request, timeout time.Duration) (Response, error) {
	body, contentType, err := encode(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode relay body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("create relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	httpResp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("workflow engine did not respond within %s: %w", timeout, err)
		}
		return Response{}, fmt.Errorf("workflow engine unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read relay response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Response{StatusCode: httpResp.StatusCode}, &StatusError{
			StatusCode: httpResp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(raw)), 512),
		}
	}
	return Response{StatusCode: httpResp.StatusCode, Body: decodeBody(raw)}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encode(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField(FieldWorkflowID, req.WorkflowID); err != nil {
		return nil, "", err
	}
	if err := writeFile(w, FieldPANFile, req.PAN); err != nil {
		return nil, "", err
	}
	if err := writeFile(w, FieldAadhaarFile, req.Aadhaar); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Name)))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}

func decodeBody(raw []byte) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err == nil {
		return decoded
	}
	return string(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
