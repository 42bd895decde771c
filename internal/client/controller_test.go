package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sosbeacon/server/internal/validation"
)

// fakeServer answers like the emergency API with forced failures
type fakeServer struct {
	calls atomic.Int32
	last  map[string]interface{}
	mu    sync.Mutex
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	record := func(r *http.Request) {
		f.calls.Add(1)
		var in map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.last = in
		f.mu.Unlock()
	}
	mux.HandleFunc("/api/phone", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, map[string]interface{}{
			"message": "Contact information saved successfully",
			"contact": map[string]interface{}{"id": 1, "countryCode": "+1", "phoneNumber": "5551234567", "userId": nil},
		})
	})
	mux.HandleFunc("/api/sos", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusInternalServerError, map[string]interface{}{
			"message": "Emergency message failed to send. Please try again or call emergency services directly.",
			"alert":   map[string]interface{}{"id": 1, "status": "failed"},
		})
	})
	mux.HandleFunc("/api/video/upload", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusInternalServerError, map[string]interface{}{
			"message":   "Video upload failed. Please check your connection and try again later.",
			"recording": map[string]interface{}{"id": 1, "uploadStatus": false},
		})
	})
	return mux
}

func (f *fakeServer) lastBody() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// fakeStream emits the given chunks, then waits for Stop
type fakeStream struct {
	ch      chan []byte
	stopped atomic.Bool
	once    sync.Once
}

func newFakeStream(chunks ...[]byte) *fakeStream {
	s := &fakeStream{ch: make(chan []byte, len(chunks))}
	for _, c := range chunks {
		s.ch <- c
	}
	return s
}

func (s *fakeStream) Chunks() <-chan []byte { return s.ch }
func (s *fakeStream) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.ch)
	})
}

type fakeMedia struct {
	stream *fakeStream
	err    error
}

func (m fakeMedia) Open(ctx context.Context) (Stream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func newTestController(t *testing.T, geo Geolocator, media MediaDevices) (*Controller, *fakeServer, *AlertSurface) {
	t.Helper()
	fs := &fakeServer{}
	srv := httptest.NewServer(fs.handler())
	t.Cleanup(srv.Close)

	alerts := NewAlertSurface(AlertDuration, nil)
	ctrl := NewController(NewAPI(srv.URL, srv.Client()), alerts, geo, media, NewMemoryContactCache(), nil)
	t.Cleanup(ctrl.Close)
	return ctrl, fs, alerts
}

func currentAlert(t *testing.T, s *AlertSurface) Alert {
	t.Helper()
	a, ok := s.Current()
	require.True(t, ok, "an alert must be visible")
	return a
}

func TestController_SOSWithoutContactMakesNoRequest(t *testing.T) {
	pos := &Position{Latitude: 37, Longitude: -122}
	ctrl, fs, alerts := newTestController(t, StaticGeolocator{Position: pos}, fakeMedia{})

	err := ctrl.TriggerSOS(context.Background())
	assert.ErrorIs(t, err, ErrNoContact)
	assert.Equal(t, int32(0), fs.calls.Load())
	assert.Equal(t, Alert{Message: NoContactMessage, Severity: SeverityError}, currentAlert(t, alerts))
}

func TestController_SaveContactThenSOS(t *testing.T) {
	pos := &Position{Latitude: 37.5, Longitude: -122.25}
	ctrl, fs, alerts := newTestController(t, StaticGeolocator{Position: pos}, fakeMedia{})
	ctx := context.Background()

	require.NoError(t, ctrl.SaveContact(ctx, validation.PhonePayload{CountryCode: "+1", PhoneNumber: "5551234567"}))
	assert.Equal(t, Alert{Message: ContactSavedMessage, Severity: SeveritySuccess}, currentAlert(t, alerts))

	err := ctrl.TriggerSOS(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	a := currentAlert(t, alerts)
	assert.Equal(t, SeverityError, a.Severity)
	assert.Equal(t, "Emergency message failed to send. Please try again or call emergency services directly.", a.Message)

	body := fs.lastBody()
	assert.Equal(t, "37.5", body["latitude"])
	assert.Equal(t, "-122.25", body["longitude"])
	assert.False(t, ctrl.Pending())
}

func TestController_SaveContactFormErrors(t *testing.T) {
	ctrl, fs, alerts := newTestController(t, StaticGeolocator{}, fakeMedia{})

	err := ctrl.SaveContact(context.Background(), validation.PhonePayload{CountryCode: "+7", PhoneNumber: "12"})
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
	assert.Equal(t, int32(0), fs.calls.Load())
	_, ok := alerts.Current()
	assert.False(t, ok)
}

func TestController_LocationError(t *testing.T) {
	geo := StaticGeolocator{Err: errors.New("User denied Geolocation")}
	ctrl, fs, alerts := newTestController(t, geo, fakeMedia{})
	ctx := context.Background()
	require.NoError(t, ctrl.SaveContact(ctx, validation.PhonePayload{CountryCode: "+1", PhoneNumber: "555-123-4567"}))

	require.Error(t, ctrl.TriggerSOS(ctx))
	assert.Equal(t, int32(1), fs.calls.Load(), "only the contact request was sent")
	assert.Equal(t, "Unable to access location services: User denied Geolocation", currentAlert(t, alerts).Message)
}

func TestController_TransportError(t *testing.T) {
	alerts := NewAlertSurface(AlertDuration, nil)
	cache := NewMemoryContactCache()
	require.NoError(t, cache.Save(validation.PhonePayload{CountryCode: "+1", PhoneNumber: "5551234567"}))

	api := NewAPI("http://127.0.0.1:1", &http.Client{Timeout: time.Second})
	ctrl := NewController(api, alerts, StaticGeolocator{Position: &Position{}}, fakeMedia{}, cache, nil)

	require.Error(t, ctrl.TriggerSOS(context.Background()))
	assert.Contains(t, currentAlert(t, alerts).Message, "Error sending SOS alert: ")
}

func TestController_Recording(t *testing.T) {
	stream := newFakeStream([]byte("ab"), []byte("cd"))
	ctrl, fs, alerts := newTestController(t, StaticGeolocator{}, fakeMedia{stream: stream})
	ctx := context.Background()

	require.ErrorIs(t, ctrl.UploadVideo(ctx), ErrNoRecording)
	assert.Equal(t, NoVideoMessage, currentAlert(t, alerts).Message)
	assert.Equal(t, int32(0), fs.calls.Load())

	require.NoError(t, ctrl.StartRecording(ctx))
	assert.Equal(t, RecordingStatus, ctrl.Status())
	assert.ErrorIs(t, ctrl.StartRecording(ctx), ErrRecording)

	rec, err := ctrl.StopRecording()
	require.NoError(t, err)
	assert.True(t, stream.stopped.Load())
	assert.Equal(t, []byte("abcd"), rec.Data)
	assert.Equal(t, RecordingMimeType, rec.MimeType)
	assert.Equal(t, RecordingReadyStatus, ctrl.Status())

	_, err = ctrl.StopRecording()
	assert.ErrorIs(t, err, ErrNotRecording)

	require.Error(t, ctrl.UploadVideo(ctx))
	assert.Equal(t, "Video upload failed. Please check your connection and try again later.", currentAlert(t, alerts).Message)
	body := fs.lastBody()
	assert.Equal(t, RecordingFileName, body["fileName"])
	assert.Equal(t, RecordingMimeType, body["mimeType"])
}

func TestController_CameraError(t *testing.T) {
	ctrl, _, alerts := newTestController(t, StaticGeolocator{}, fakeMedia{err: errors.New("Permission denied")})

	require.Error(t, ctrl.StartRecording(context.Background()))
	assert.Equal(t, "Failed to access camera: Permission denied", currentAlert(t, alerts).Message)
}

func TestController_CloseReleasesCamera(t *testing.T) {
	stream := newFakeStream()
	ctrl, _, _ := newTestController(t, StaticGeolocator{}, fakeMedia{stream: stream})

	require.NoError(t, ctrl.StartRecording(context.Background()))
	ctrl.Close()
	assert.True(t, stream.stopped.Load())
}

// blockingMedia holds Open until release is closed
type blockingMedia struct {
	stream  *fakeStream
	opening chan struct{}
	release chan struct{}
}

func (m blockingMedia) Open(ctx context.Context) (Stream, error) {
	close(m.opening)
	<-m.release
	return m.stream, nil
}

func TestController_CloseDuringCameraOpen(t *testing.T) {
	media := blockingMedia{
		stream:  newFakeStream(),
		opening: make(chan struct{}),
		release: make(chan struct{}),
	}
	ctrl, _, _ := newTestController(t, StaticGeolocator{}, media)

	errc := make(chan error, 1)
	go func() { errc <- ctrl.StartRecording(context.Background()) }()

	<-media.opening
	ctrl.Close()
	close(media.release)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("StartRecording did not return")
	}
	assert.True(t, media.stream.stopped.Load(), "camera must be released")
	assert.ErrorIs(t, ctrl.StartRecording(context.Background()), ErrClosed)

	_, err := ctrl.StopRecording()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestController_SuccessfulResponsesShowAsError(t *testing.T) {
	mux := http.NewServeMux()
	reply := func(message string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
		}
	}
	mux.HandleFunc("/api/sos", reply("Emergency alert sent successfully"))
	mux.HandleFunc("/api/video/upload", reply("Video uploaded successfully"))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cache := NewMemoryContactCache()
	require.NoError(t, cache.Save(validation.PhonePayload{CountryCode: "+1", PhoneNumber: "5551234567"}))
	alerts := NewAlertSurface(AlertDuration, nil)
	stream := newFakeStream([]byte("ab"))
	ctrl := NewController(NewAPI(srv.URL, srv.Client()), alerts,
		StaticGeolocator{Position: &Position{Latitude: 1, Longitude: 2}}, fakeMedia{stream: stream}, cache, nil)
	t.Cleanup(ctrl.Close)
	ctx := context.Background()

	require.NoError(t, ctrl.TriggerSOS(ctx))
	assert.Equal(t, Alert{Message: "Emergency alert sent successfully", Severity: SeverityError}, currentAlert(t, alerts))

	require.NoError(t, ctrl.StartRecording(ctx))
	_, err := ctrl.StopRecording()
	require.NoError(t, err)
	require.NoError(t, ctrl.UploadVideo(ctx))
	assert.Equal(t, Alert{Message: "Video uploaded successfully", Severity: SeverityError}, currentAlert(t, alerts))
}

func TestController_BusyGuard(t *testing.T) {
	ctrl, _, _ := newTestController(t, StaticGeolocator{}, fakeMedia{})
	require.True(t, ctrl.begin(actionSOS))
	defer ctrl.end(actionSOS)

	assert.True(t, ctrl.Pending())
	assert.ErrorIs(t, ctrl.TriggerSOS(context.Background()), ErrBusy)
}

func TestFileMediaDevices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.webm")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	stream, err := FileMediaDevices{Path: path, ChunkSize: 4}.Open(context.Background())
	require.NoError(t, err)

	var got []byte
	for chunk := range stream.Chunks() {
		got = append(got, chunk...)
	}
	stream.Stop()
	stream.Stop()
	assert.Equal(t, "0123456789", string(got))

	_, err = FileMediaDevices{Path: filepath.Join(t.TempDir(), "missing")}.Open(context.Background())
	assert.Error(t, err)
}

func TestFileContactCache(t *testing.T) {
	cache := FileContactCache{Path: filepath.Join(t.TempDir(), "state", "contact.json")}

	_, ok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	want := validation.PhonePayload{CountryCode: "+44", PhoneNumber: "(555) 123-4567"}
	require.NoError(t, cache.Save(want))

	got, ok, err := cache.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}
