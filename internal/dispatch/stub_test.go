package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStubDispatcher(t *testing.T) {
	loc := Location{Latitude: "37.0", Longitude: "-122.0"}

	t.Run("fails after delay", func(t *testing.T) {
		d := NewStubDispatcher(20*time.Millisecond, true, zap.NewNop())
		start := time.Now()
		err := d.Dispatch(context.Background(), loc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDispatchFailed))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("succeeds when not failing", func(t *testing.T) {
		d := NewStubDispatcher(time.Millisecond, false, zap.NewNop())
		assert.NoError(t, d.Dispatch(context.Background(), loc))
	})

	t.Run("returns early on cancel", func(t *testing.T) {
		d := NewStubDispatcher(time.Hour, true, zap.NewNop())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := d.Dispatch(ctx, loc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.False(t, errors.Is(err, ErrDispatchFailed))
	})
}

func TestStubUploader(t *testing.T) {
	meta := VideoMeta{FileName: "emergency_recording.webm", MimeType: "video/webm"}

	t.Run("fails after delay", func(t *testing.T) {
		u := NewStubUploader(20*time.Millisecond, true, zap.NewNop())
		start := time.Now()
		err := u.Upload(context.Background(), meta)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUploadFailed))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("succeeds when not failing", func(t *testing.T) {
		u := NewStubUploader(0, false, zap.NewNop())
		assert.NoError(t, u.Upload(context.Background(), meta))
	})
}

func TestDelays(t *testing.T) {
	assert.Equal(t, time.Second, DispatchDelay)
	assert.Equal(t, 1500*time.Millisecond, UploadDelay)
}
