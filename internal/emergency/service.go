// Package emergency implements the three user flows of the API: saving an
// emergency contact, raising an SOS alert and uploading a recording.
package emergency

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sosbeacon/server/internal/dispatch"
	"github.com/sosbeacon/server/internal/logging"
	"github.com/sosbeacon/server/internal/metrics"
	"github.com/sosbeacon/server/internal/model"
	"github.com/sosbeacon/server/internal/repo"
	"github.com/sosbeacon/server/internal/validation"
)

// Service orchestrates the adapters and the record store
type Service struct {
	store      repo.Store
	dispatcher dispatch.Dispatcher
	uploader   dispatch.Uploader
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService creates a new emergency service
func NewService(
	store repo.Store,
	dispatcher dispatch.Dispatcher,
	uploader dispatch.Uploader,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:      store,
		dispatcher: dispatcher,
		uploader:   uploader,
		metrics:    m,
		logger:     logger,
	}
}

// SaveContact stores a validated contact
func (s *Service) SaveContact(ctx context.Context, p validation.PhonePayload) (model.EmergencyContact, error) {
	contact, err := s.store.Contacts().Save(ctx, model.NewContact{
		CountryCode: p.CountryCode,
		PhoneNumber: p.PhoneNumber,
	})
	if err != nil {
		return model.EmergencyContact{}, fmt.Errorf("failed to save contact: %w", err)
	}

	s.metrics.ContactSaved()
	s.logger.Info("emergency contact saved",
		zap.Int64("contact_id", contact.ID),
		zap.String("phone", logging.MaskPhone(contact.CountryCode+contact.PhoneNumber)),
	)
	return contact, nil
}

// SendSOS forwards the alert to the dispatcher and records it. The alert is
// stored whatever the dispatch outcome; its status is "sent" only when the
// dispatcher accepted it. A dispatch failure is returned wrapped together with
// the stored alert.
func (s *Service) SendSOS(ctx context.Context, p validation.LocationPayload) (model.EmergencyAlert, error) {
	dispatchErr := s.dispatcher.Dispatch(ctx, dispatch.Location{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
	})

	status := model.AlertStatusSent
	if dispatchErr != nil {
		status = model.AlertStatusFailed
	}

	// The alert is recorded even when the caller has gone away
	alert, err := s.store.Alerts().Save(context.WithoutCancel(ctx), model.NewEmergencyAlert{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Status:    status,
	})
	if err != nil {
		s.metrics.AlertProcessed(metrics.OutcomeError)
		return model.EmergencyAlert{}, fmt.Errorf("failed to save alert: %w", err)
	}

	if dispatchErr != nil {
		s.metrics.AlertProcessed(metrics.OutcomeFailed)
		s.logger.Warn("emergency alert not dispatched",
			zap.Int64("alert_id", alert.ID),
			zap.Error(dispatchErr),
		)
		return alert, downstreamError(dispatchErr, dispatch.ErrDispatchFailed)
	}

	s.metrics.AlertProcessed(metrics.OutcomeSent)
	s.logger.Info("emergency alert dispatched", zap.Int64("alert_id", alert.ID))
	return alert, nil
}

// UploadVideo hands the recording metadata to the uploader and records it with
// uploadStatus set from the outcome
func (s *Service) UploadVideo(ctx context.Context, p validation.VideoPayload) (model.VideoRecording, error) {
	uploadErr := s.uploader.Upload(ctx, dispatch.VideoMeta{
		FileName: p.FileName,
		MimeType: p.MimeType,
	})

	rec, err := s.store.Videos().Save(context.WithoutCancel(ctx), model.NewVideoRecording{
		FileName:     p.FileName,
		MimeType:     p.MimeType,
		UploadStatus: uploadErr == nil,
	})
	if err != nil {
		s.metrics.VideoProcessed(metrics.OutcomeError)
		return model.VideoRecording{}, fmt.Errorf("failed to save recording: %w", err)
	}

	if uploadErr != nil {
		s.metrics.VideoProcessed(metrics.OutcomeFailed)
		s.logger.Warn("video upload failed",
			zap.Int64("recording_id", rec.ID),
			zap.Error(uploadErr),
		)
		return rec, downstreamError(uploadErr, dispatch.ErrUploadFailed)
	}

	s.metrics.VideoProcessed(metrics.OutcomeSent)
	s.logger.Info("video uploaded", zap.Int64("recording_id", rec.ID))
	return rec, nil
}

// downstreamError makes sure every adapter failure, including a cancelled
// wait, is reported as the adapter's sentinel
func downstreamError(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
