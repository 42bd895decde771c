package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// Position is a device location fix
type Position struct {
	Latitude  float64
	Longitude float64
}

// coordinate formats a coordinate the way it is sent to the server
func coordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Geolocator provides the current device position
type Geolocator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Stream is a live capture. Chunks is closed when the capture ends or Stop
// is called. Stop releases the device and may be called more than once.
type Stream interface {
	Chunks() <-chan []byte
	Stop()
}

// MediaDevices grants access to the camera and microphone
type MediaDevices interface {
	Open(ctx context.Context) (Stream, error)
}

// ErrLocationUnavailable is returned by StaticGeolocator without a position
var ErrLocationUnavailable = errors.New("location unavailable")

// StaticGeolocator reports a fixed position, or Err when set
type StaticGeolocator struct {
	Position *Position
	Err      error
}

// CurrentPosition implements Geolocator
func (g StaticGeolocator) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if g.Err != nil {
		return Position{}, g.Err
	}
	if g.Position == nil {
		return Position{}, ErrLocationUnavailable
	}
	return *g.Position, nil
}

// defaultChunkSize mirrors a typical recorder timeslice payload
const defaultChunkSize = 64 << 10

// FileMediaDevices stands in for a camera by streaming a media file
type FileMediaDevices struct {
	Path      string
	ChunkSize int
}

// Open opens the file and starts streaming it in chunks
func (d FileMediaDevices) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("open media source: %w", err)
	}

	size := d.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	s := &readerStream{
		src:    f,
		chunks: make(chan []byte),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run(size)
	return s, nil
}

// readerStream emits the contents of src as chunks
type readerStream struct {
	src    io.ReadCloser
	chunks chan []byte
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *readerStream) Chunks() <-chan []byte { return s.chunks }

func (s *readerStream) run(size int) {
	defer close(s.done)
	defer close(s.chunks)

	for {
		buf := make([]byte, size)
		n, err := s.src.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			return
		}
		select {
		case <-s.stop:
			return
		default:
		}
	}
}

// Stop ends the stream and closes the source
func (s *readerStream) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
		_ = s.src.Close()
	})
}
