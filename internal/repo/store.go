package repo

import (
	"context"
	"errors"

	"github.com/sosbeacon/server/internal/model"
)

// ErrUsernameTaken is returned by UserRepo.Create for a duplicate username
var ErrUsernameTaken = errors.New("username already exists")

// ContactRepo defines the record store operations for emergency contacts
type ContactRepo interface {
	Save(ctx context.Context, in model.NewContact) (model.EmergencyContact, error)
	Get(ctx context.Context, id int64) (model.EmergencyContact, bool, error)
}

// AlertRepo defines the record store operations for emergency alerts
type AlertRepo interface {
	Save(ctx context.Context, in model.NewEmergencyAlert) (model.EmergencyAlert, error)
	Get(ctx context.Context, id int64) (model.EmergencyAlert, bool, error)
}

// VideoRepo defines the record store operations for video recordings
type VideoRepo interface {
	Save(ctx context.Context, in model.NewVideoRecording) (model.VideoRecording, error)
	Get(ctx context.Context, id int64) (model.VideoRecording, bool, error)
}

// UserRepo defines the record store operations for users
type UserRepo interface {
	Create(ctx context.Context, in model.NewUser) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, bool, error)
	GetByUsername(ctx context.Context, username string) (model.User, bool, error)
}

// Store groups the per-entity repositories. Ids are allocated per entity type,
// start at 1 and only grow. Records are never updated or deleted.
type Store interface {
	Contacts() ContactRepo
	Alerts() AlertRepo
	Videos() VideoRepo
	Users() UserRepo
	Close() error
}

// alertStatus applies the default status for a new alert
func alertStatus(status string) string {
	if status == "" {
		return model.AlertStatusFailed
	}
	return status
}
