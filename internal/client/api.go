// Package client drives the emergency API the way the web client does:
// client-side checks, the three requests and a transient alert surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sosbeacon/server/internal/model"
	"github.com/sosbeacon/server/internal/validation"
)

// APIError is returned for a non-2xx response. Message is the server's
// message field when the body carried one.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// ContactResponse is the body of POST /api/phone
type ContactResponse struct {
	Message string                 `json:"message"`
	Contact model.EmergencyContact `json:"contact"`
}

// AlertResponse is the body of POST /api/sos
type AlertResponse struct {
	Message string               `json:"message"`
	Alert   model.EmergencyAlert `json:"alert"`
}

// RecordingResponse is the body of POST /api/video/upload
type RecordingResponse struct {
	Message   string               `json:"message"`
	Recording model.VideoRecording `json:"recording"`
}

// API is a typed client for the emergency endpoints
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI creates a client for the server at baseURL. A nil httpClient gets a
// client with a 30s timeout.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// SaveContact posts the contact. On a non-2xx response the decoded body is
// returned together with an *APIError.
func (a *API) SaveContact(ctx context.Context, p validation.PhonePayload) (ContactResponse, error) {
	var out ContactResponse
	err := a.post(ctx, "/api/phone", p, &out)
	return out, err
}

// SendSOS posts the coordinates
func (a *API) SendSOS(ctx context.Context, p validation.LocationPayload) (AlertResponse, error) {
	var out AlertResponse
	err := a.post(ctx, "/api/sos", p, &out)
	return out, err
}

// UploadVideo posts the recording metadata
func (a *API) UploadVideo(ctx context.Context, p validation.VideoPayload) (RecordingResponse, error) {
	var out RecordingResponse
	err := a.post(ctx, "/api/video/upload", p, &out)
	return out, err
}

func (a *API) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	decodeErr := json.Unmarshal(body, out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: body}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	return nil
}
