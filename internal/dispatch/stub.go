package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DispatchDelay is the latency the dispatch stub simulates
	DispatchDelay = 1000 * time.Millisecond
	// UploadDelay is the latency the upload stub simulates
	UploadDelay = 1500 * time.Millisecond
)

// StubDispatcher implements Dispatcher without contacting anything. It waits
// for its delay, then fails when Fail is set.
type StubDispatcher struct {
	delay  time.Duration
	fail   bool
	logger *zap.Logger
}

// NewStubDispatcher creates a dispatch stub
func NewStubDispatcher(delay time.Duration, fail bool, logger *zap.Logger) *StubDispatcher {
	return &StubDispatcher{delay: delay, fail: fail, logger: logger}
}

// Dispatch simulates forwarding the alert
func (d *StubDispatcher) Dispatch(ctx context.Context, loc Location) error {
	ref := uuid.New()
	d.logger.Debug("dispatching emergency alert",
		zap.String("ref", ref.String()),
		zap.String("latitude", loc.Latitude),
		zap.String("longitude", loc.Longitude),
	)

	if err := wait(ctx, d.delay); err != nil {
		return fmt.Errorf("dispatch %s: %w", ref, err)
	}
	if d.fail {
		return fmt.Errorf("dispatch %s: %w", ref, ErrDispatchFailed)
	}

	d.logger.Debug("emergency alert dispatched", zap.String("ref", ref.String()))
	return nil
}

// StubUploader implements Uploader without storing anything
type StubUploader struct {
	delay  time.Duration
	fail   bool
	logger *zap.Logger
}

// NewStubUploader creates an upload stub
func NewStubUploader(delay time.Duration, fail bool, logger *zap.Logger) *StubUploader {
	return &StubUploader{delay: delay, fail: fail, logger: logger}
}

// Upload simulates storing the recording
func (u *StubUploader) Upload(ctx context.Context, meta VideoMeta) error {
	ref := uuid.New()
	u.logger.Debug("uploading video",
		zap.String("ref", ref.String()),
		zap.String("file_name", meta.FileName),
		zap.String("mime_type", meta.MimeType),
	)

	if err := wait(ctx, u.delay); err != nil {
		return fmt.Errorf("upload %s: %w", ref, err)
	}
	if u.fail {
		return fmt.Errorf("upload %s: %w", ref, ErrUploadFailed)
	}

	u.logger.Debug("video uploaded", zap.String("ref", ref.String()))
	return nil
}

// wait blocks for d or until ctx is done
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
