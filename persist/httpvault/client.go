// Package httpvault uploads save records to an HTTP save vault as multipart forms.
package httpvault

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"chainboy/persist"
)

const (
	driverName     = "http"
	DefaultTimeout = 30 * time.Second
)

type Driver struct{}

func (d *Driver) DisplayName() string { return "HTTP vault" }

func (d *Driver) DisplayDescription() string {
	return "POST saves as multipart/form-data to {endpoint}/saves"
}

func (d *Driver) Open(cfg persist.Config) (persist.Persister, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("httpvault: endpoint is required")
	}
	return NewClient(cfg.Endpoint, cfg.DeviceID, cfg.Timeout), nil
}

func init() {
	persist.Register(driverName, &Driver{})
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	TransactionID string `json:"transactionId"`
	Message       string `json:"message,omitempty"`
}

// ErrorResponse is the body the vault sends along with a failure status. Message, when
// present, is what the user sees; otherwise Error is.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	baseURL  string
	deviceID string
	client   *http.Client
}

func NewClient(baseURL, deviceID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Upload(ctx context.Context, record persist.Record) (persist.TransactionID, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("state", fileName(record.Title))
	if err != nil {
		return "", fmt.Errorf("could not create form file: %w", err)
	}
	if _, err = part.Write(record.State); err != nil {
		return "", fmt.Errorf("could not write save state: %w", err)
	}

	fields := [][2]string{
		{"title", record.Title},
		{"platform", record.Platform},
		{"captured_at", record.CapturedAt.Format(time.RFC3339Nano)},
		{"device_id", c.deviceID},
	}
	for _, f := range fields {
		if err = writer.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("could not write field %s: %w", f[0], err)
		}
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("could not finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/saves", &buf)
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			// message is the human-readable one; error may only be a short label:
			if errResp.Message != "" {
				return "", errors.New(errResp.Message)
			}
			if errResp.Error != "" {
				return "", errors.New(errResp.Error)
			}
		}
		return "", fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var uploadResp UploadResponse
	if err = json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("could not decode response: %w", err)
	}
	if uploadResp.TransactionID == "" {
		return "", errors.New("vault response carried no transaction id")
	}

	return persist.TransactionID(uploadResp.TransactionID), nil
}

func fileName(title string) string {
	if title == "" {
		return "save.sav"
	}
	return title + ".sav"
}
