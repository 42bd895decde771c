package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/validation"
)

// Messages shown by the controller
const (
	ContactSavedMessage  = "Contact information saved successfully"
	NoContactMessage     = "Please enter a valid phone number first"
	NoVideoMessage       = "No video to upload"
	RecordingStatus      = "Recording in progress..."
	RecordingReadyStatus = "Recording complete. Ready to upload."
)

// Metadata sent for every recording
const (
	RecordingFileName = "emergency_recording.webm"
	RecordingMimeType = "video/webm"
)

var (
	// ErrBusy is returned while the same action is still in flight
	ErrBusy = errors.New("action already in progress")
	// ErrNoContact is returned by TriggerSOS before a contact was saved
	ErrNoContact = errors.New("no contact information saved")
	// ErrNoRecording is returned by UploadVideo before a recording exists
	ErrNoRecording = errors.New("no recording to upload")
	// ErrRecording is returned by StartRecording while a capture is running
	ErrRecording = errors.New("recording already in progress")
	// ErrNotRecording is returned by StopRecording without a running capture
	ErrNotRecording = errors.New("not recording")
	// ErrClosed is returned by StartRecording once Close was called
	ErrClosed = errors.New("controller closed")
)

type action int

const (
	actionContact action = iota
	actionSOS
	actionUpload
	actionRecord
)

// Recording is an assembled capture ready for preview and upload
type Recording struct {
	Data     []byte
	MimeType string
}

// Controller runs the contact, SOS and video actions against one alert
// surface. Each action refuses to start again while it is pending.
type Controller struct {
	api      *API
	alerts   *AlertSurface
	geo      Geolocator
	media    MediaDevices
	contacts ContactCache
	logger   *zap.Logger

	mu        sync.Mutex
	pending   map[action]bool
	stream    Stream
	collected chan [][]byte
	ended     chan struct{}
	recording *Recording
	status    string
	closed    bool
}

// NewController creates a controller
func NewController(
	api *API,
	alerts *AlertSurface,
	geo Geolocator,
	media MediaDevices,
	contacts ContactCache,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:      api,
		alerts:   alerts,
		geo:      geo,
		media:    media,
		contacts: contacts,
		logger:   logger,
		pending:  make(map[action]bool),
	}
}

func (c *Controller) begin(a action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[a] {
		return false
	}
	c.pending[a] = true
	return true
}

func (c *Controller) end(a action) {
	c.mu.Lock()
	delete(c.pending, a)
	c.mu.Unlock()
}

// Pending reports whether the SOS request is in flight
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[actionSOS]
}

// SaveContact checks the form, saves the contact on the server and keeps it
// locally for TriggerSOS. Form errors are returned without an alert.
func (c *Controller) SaveContact(ctx context.Context, p validation.PhonePayload) error {
	if err := validation.CheckContactForm(p); err != nil {
		return err
	}
	if !c.begin(actionContact) {
		return ErrBusy
	}
	defer c.end(actionContact)

	if _, err := c.api.SaveContact(ctx, p); err != nil {
		c.alerts.Show("Failed to save contact information: "+errorText(err), SeverityError)
		return err
	}
	if err := c.contacts.Save(p); err != nil {
		c.logger.Warn("failed to cache contact", zap.Error(err))
	}

	c.alerts.Show(ContactSavedMessage, SeveritySuccess)
	return nil
}

// TriggerSOS sends the current position. Without a saved contact no request
// is made.
func (c *Controller) TriggerSOS(ctx context.Context) error {
	if !c.begin(actionSOS) {
		return ErrBusy
	}
	defer c.end(actionSOS)

	contact, ok, err := c.contacts.Load()
	if err != nil {
		c.logger.Warn("failed to load cached contact", zap.Error(err))
	}
	if !ok || contact.PhoneNumber == "" {
		c.alerts.Show(NoContactMessage, SeverityError)
		return ErrNoContact
	}

	pos, err := c.geo.CurrentPosition(ctx)
	if err != nil {
		c.alerts.Show("Unable to access location services: "+err.Error(), SeverityError)
		return err
	}

	resp, err := c.api.SendSOS(ctx, validation.LocationPayload{
		Latitude:  coordinate(pos.Latitude),
		Longitude: coordinate(pos.Longitude),
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			c.alerts.Show(apiErr.Message, SeverityError)
			return err
		}
		c.alerts.Show("Error sending SOS alert: "+err.Error(), SeverityError)
		return err
	}

	// shown as an error even on 2xx
	c.alerts.Show(resp.Message, SeverityError)
	return nil
}

// StartRecording opens the camera and buffers chunks until StopRecording
func (c *Controller) StartRecording(ctx context.Context) error {
	if !c.begin(actionRecord) {
		return ErrBusy
	}
	defer c.end(actionRecord)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.stream != nil {
		c.mu.Unlock()
		return ErrRecording
	}
	c.mu.Unlock()

	stream, err := c.media.Open(ctx)
	if err != nil {
		c.alerts.Show("Failed to access camera: "+err.Error(), SeverityError)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		stream.Stop()
		return ErrClosed
	}

	collected := make(chan [][]byte, 1)
	ended := make(chan struct{})
	go func() {
		var chunks [][]byte
		for chunk := range stream.Chunks() {
			if len(chunk) > 0 {
				chunks = append(chunks, chunk)
			}
		}
		close(ended)
		collected <- chunks
	}()

	c.stream = stream
	c.collected = collected
	c.ended = ended
	c.recording = nil
	c.status = RecordingStatus
	c.mu.Unlock()
	return nil
}

// CaptureEnded is closed once the running capture has no more chunks. Without
// a capture the returned channel is already closed.
func (c *Controller) CaptureEnded() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.ended
}

// StopRecording releases the camera and assembles the buffered chunks
func (c *Controller) StopRecording() (*Recording, error) {
	c.mu.Lock()
	stream, collected := c.stream, c.collected
	c.stream, c.collected, c.ended = nil, nil, nil
	c.mu.Unlock()

	if stream == nil {
		return nil, ErrNotRecording
	}

	stream.Stop()
	chunks := <-collected

	rec := &Recording{Data: bytes.Join(chunks, nil), MimeType: RecordingMimeType}

	c.mu.Lock()
	c.recording = rec
	c.status = RecordingReadyStatus
	c.mu.Unlock()
	return rec, nil
}

// Recording returns the last assembled recording
func (c *Controller) Recording() (*Recording, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording, c.recording != nil
}

// Status returns the recording status line, empty before the first recording
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// UploadVideo sends the metadata of the last recording
func (c *Controller) UploadVideo(ctx context.Context) error {
	if _, ok := c.Recording(); !ok {
		c.alerts.Show(NoVideoMessage, SeverityError)
		return ErrNoRecording
	}
	if !c.begin(actionUpload) {
		return ErrBusy
	}
	defer c.end(actionUpload)

	resp, err := c.api.UploadVideo(ctx, validation.VideoPayload{
		FileName: RecordingFileName,
		MimeType: RecordingMimeType,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			c.alerts.Show(apiErr.Message, SeverityError)
			return err
		}
		c.alerts.Show("Error uploading video: "+err.Error(), SeverityError)
		return err
	}

	// shown as an error even on 2xx
	c.alerts.Show(resp.Message, SeverityError)
	return nil
}

// Close releases the camera whether or not a recording is running. A camera
// that finishes opening after Close is stopped right away.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	stream, collected := c.stream, c.collected
	c.stream, c.collected, c.ended = nil, nil, nil
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
		<-collected
	}
}

// errorText prefers the server's message over the raw error
func errorText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fmt.Sprint(err)
}
