// Package processing talks to the photo processing service.
package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/passportframe/internal/dataurl"
)

// DefaultTimeout bounds a single request when the caller's context has no
// deadline.
const DefaultTimeout = 30 * time.Second

// ProcessRequest is the JSON body sent to the process endpoint.
type ProcessRequest struct {
	ImageData string `json:"imageData"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ErrorResponse is the JSON body returned on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse is the JSON body returned by the upload endpoint.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Image    string `json:"image"`
	Error    string `json:"error,omitempty"`
}

// ServiceError is a failure reported by the service. Message is shown to the
// user unchanged.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// Client sends framed photos to the processing service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Timeout time.Duration
}

// New returns a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient, Timeout: DefaultTimeout}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

// Process submits canvas as a PNG data URL and returns the processed photo.
// Failures reported by the service are returned as *ServiceError.
func (c *Client) Process(ctx context.Context, canvas image.Image) ([]byte, error) {
	data, err := dataurl.PNG(canvas)
	if err != nil {
		return nil, err
	}
	b := canvas.Bounds()
	body, err := json.Marshal(ProcessRequest{ImageData: data, Width: b.Dx(), Height: b.Dy()})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/process"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("process request: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 || isJSON(res.Header.Get("Content-Type")) {
		return nil, serviceError(res.StatusCode, res.Header.Get("Content-Type"), payload)
	}
	return payload, nil
}

// Upload sends a source photo to the upload endpoint and returns the stored
// name and the decoded preview.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, image.Image, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", nil, fmt.Errorf("build form: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/upload"), &buf)
	if err != nil {
		return "", nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.httpClient().Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("upload request: %w", err)
	}
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", nil, serviceError(res.StatusCode, res.Header.Get("Content-Type"), payload)
	}
	var up UploadResponse
	if err := json.Unmarshal(payload, &up); err != nil {
		return "", nil, fmt.Errorf("decode upload response: %w", err)
	}
	if !up.Success {
		msg := up.Error
		if msg == "" {
			msg = "upload failed"
		}
		return "", nil, &ServiceError{Status: res.StatusCode, Message: msg}
	}
	img, err := dataurl.Decode(up.Image)
	if err != nil {
		return "", nil, fmt.Errorf("upload preview: %w", err)
	}
	return up.Filename, img, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json"
}

func serviceError(status int, contentType string, payload []byte) *ServiceError {
	if isJSON(contentType) {
		var er ErrorResponse
		if err := json.Unmarshal(payload, &er); err == nil && er.Error != "" {
			return &ServiceError{Status: status, Message: er.Error}
		}
	}
	if status < 200 || status > 299 {
		return &ServiceError{Status: status, Message: fmt.Sprintf("HTTP error! status: %d", status)}
	}
	return &ServiceError{Status: status, Message: "Unknown processing error"}
}
