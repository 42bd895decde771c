package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sosbeacon/server/internal/model"
)

type videoRepo struct {
	db *sql.DB
}

// NewVideoRepo creates a Postgres-backed VideoRepo
func NewVideoRepo(db *sql.DB) VideoRepo {
	return &videoRepo{db: db}
}

// Save inserts recording metadata
func (r *videoRepo) Save(ctx context.Context, in model.NewVideoRecording) (model.VideoRecording, error) {
	query := `
		INSERT INTO video_recordings (file_name, mime_type, upload_status, user_id)
		VALUES ($1, $2, $3, NULL)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, in.FileName, in.MimeType, in.UploadStatus).Scan(&id); err != nil {
		return model.VideoRecording{}, fmt.Errorf("failed to insert video recording: %w", err)
	}
	return model.VideoRecording{
		ID:           id,
		FileName:     in.FileName,
		MimeType:     in.MimeType,
		UploadStatus: in.UploadStatus,
	}, nil
}

// Get retrieves recording metadata by ID
func (r *videoRepo) Get(ctx context.Context, id int64) (model.VideoRecording, bool, error) {
	query := `
		SELECT id, file_name, mime_type, upload_status, user_id
		FROM video_recordings
		WHERE id = $1
	`
	var v model.VideoRecording
	var userID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&v.ID, &v.FileName, &v.MimeType, &v.UploadStatus, &userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.VideoRecording{}, false, nil
		}
		return model.VideoRecording{}, false, fmt.Errorf("failed to query video recording: %w", err)
	}
	v.UserID = nullableID(userID)
	return v, true, nil
}
