package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/dispatch"
	"github.com/sosbeacon/server/internal/emergency"
	"github.com/sosbeacon/server/internal/metrics"
	"github.com/sosbeacon/server/internal/model"
	"github.com/sosbeacon/server/internal/validation"
)

// Response messages shown to the user
const (
	ContactSavedMessage  = "Contact information saved successfully"
	ContactErrorMessage  = "Failed to save contact information"
	SOSFailedMessage     = "Emergency message failed to send. Please try again or call emergency services directly."
	SOSSentMessage       = "Emergency alert sent"
	SOSErrorMessage      = "Error processing emergency alert"
	VideoFailedMessage   = "Video upload failed. Please check your connection and try again later."
	VideoUploadedMessage = "Video uploaded successfully"
	VideoErrorMessage    = "Error uploading video"
)

// Endpoint labels for validation metrics
const (
	endpointPhone = "phone"
	endpointSOS   = "sos"
	endpointVideo = "video_upload"
)

// EmergencyHandler serves the contact, SOS and video endpoints
type EmergencyHandler struct {
	service *emergency.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEmergencyHandler creates a new emergency handler
func NewEmergencyHandler(service *emergency.Service, m *metrics.Metrics, logger *zap.Logger) *EmergencyHandler {
	return &EmergencyHandler{service: service, metrics: m, logger: logger}
}

// contactResponse is the body of POST /api/phone
type contactResponse struct {
	Message string                 `json:"message"`
	Contact model.EmergencyContact `json:"contact"`
}

// alertResponse is the body of POST /api/sos
type alertResponse struct {
	Message string               `json:"message"`
	Alert   model.EmergencyAlert `json:"alert"`
}

// recordingResponse is the body of POST /api/video/upload
type recordingResponse struct {
	Message   string               `json:"message"`
	Recording model.VideoRecording `json:"recording"`
}

// HandleSaveContact handles POST /api/phone
func (h *EmergencyHandler) HandleSaveContact(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.rejectBody(w, endpointPhone, ContactErrorMessage, err)
		return
	}

	payload, err := validation.ParsePhone(body)
	if err != nil {
		h.rejectInvalid(w, endpointPhone, ContactErrorMessage, err)
		return
	}

	contact, err := h.service.SaveContact(r.Context(), payload)
	if err != nil {
		h.logger.Error("save contact failed", zap.Error(err))
		respondWithInternalError(w, ContactErrorMessage, err)
		return
	}

	respondJSON(w, http.StatusOK, contactResponse{Message: ContactSavedMessage, Contact: contact})
}

// HandleSendSOS handles POST /api/sos. The dispatch stub fails by default, so
// the usual answer is 500 with the stored failed alert.
func (h *EmergencyHandler) HandleSendSOS(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.rejectBody(w, endpointSOS, SOSErrorMessage, err)
		return
	}

	payload, err := validation.ParseLocation(body)
	if err != nil {
		h.rejectInvalid(w, endpointSOS, SOSErrorMessage, err)
		return
	}

	alert, err := h.service.SendSOS(r.Context(), payload)
	switch {
	case errors.Is(err, dispatch.ErrDispatchFailed):
		respondJSON(w, http.StatusInternalServerError, alertResponse{Message: SOSFailedMessage, Alert: alert})
	case err != nil:
		h.logger.Error("send SOS failed", zap.Error(err))
		respondWithInternalError(w, SOSErrorMessage, err)
	default:
		respondJSON(w, http.StatusOK, alertResponse{Message: SOSSentMessage, Alert: alert})
	}
}

// HandleUploadVideo handles POST /api/video/upload. Only metadata is accepted.
func (h *EmergencyHandler) HandleUploadVideo(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.rejectBody(w, endpointVideo, VideoErrorMessage, err)
		return
	}

	payload, err := validation.ParseVideo(body)
	if err != nil {
		h.rejectInvalid(w, endpointVideo, VideoErrorMessage, err)
		return
	}

	rec, err := h.service.UploadVideo(r.Context(), payload)
	switch {
	case errors.Is(err, dispatch.ErrUploadFailed):
		respondJSON(w, http.StatusInternalServerError, recordingResponse{Message: VideoFailedMessage, Recording: rec})
	case err != nil:
		h.logger.Error("upload video failed", zap.Error(err))
		respondWithInternalError(w, VideoErrorMessage, err)
	default:
		respondJSON(w, http.StatusOK, recordingResponse{Message: VideoUploadedMessage, Recording: rec})
	}
}

// rejectInvalid maps a validation error to 400 and anything else to 500
func (h *EmergencyHandler) rejectInvalid(w http.ResponseWriter, endpoint, generic string, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		h.metrics.ValidationFailed(endpoint)
		respondWithError(w, http.StatusBadRequest, vErr.Error())
		return
	}
	h.logger.Error("unexpected payload error", zap.String("endpoint", endpoint), zap.Error(err))
	respondWithInternalError(w, generic, err)
}

// rejectBody handles a body that could not be read
func (h *EmergencyHandler) rejectBody(w http.ResponseWriter, endpoint, generic string, err error) {
	if errors.Is(err, errBodyTooLarge) {
		h.metrics.ValidationFailed(endpoint)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Warn("failed to read request body", zap.String("endpoint", endpoint), zap.Error(err))
	respondWithInternalError(w, generic, err)
}
