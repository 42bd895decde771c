// Package dispatch holds the adapters for the external services an SOS
// request depends on: the emergency dispatch service and video storage.
package dispatch

import (
	"context"
	"errors"
)

var (
	// ErrDispatchFailed is returned when the dispatch service did not accept the alert
	ErrDispatchFailed = errors.New("emergency dispatch failed")
	// ErrUploadFailed is returned when the recording could not be stored
	ErrUploadFailed = errors.New("video upload failed")
)

// Location is the position reported with an SOS request
type Location struct {
	Latitude  string
	Longitude string
}

// VideoMeta describes a recording. The media bytes are not transferred.
type VideoMeta struct {
	FileName string
	MimeType string
}

// Dispatcher forwards an SOS alert to the emergency dispatch service
type Dispatcher interface {
	Dispatch(ctx context.Context, loc Location) error
}

// Uploader stores a video recording with the storage service
type Uploader interface {
	Upload(ctx context.Context, meta VideoMeta) error
}
