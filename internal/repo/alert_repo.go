package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sosbeacon/server/internal/model"
)

type alertRepo struct {
	db *sql.DB
}

// NewAlertRepo creates a Postgres-backed AlertRepo
func NewAlertRepo(db *sql.DB) AlertRepo {
	return &alertRepo{db: db}
}

// Save inserts an alert. An empty status is stored as "failed".
func (r *alertRepo) Save(ctx context.Context, in model.NewEmergencyAlert) (model.EmergencyAlert, error) {
	status := alertStatus(in.Status)
	query := `
		INSERT INTO emergency_alerts (latitude, longitude, user_id, contact_id, status)
		VALUES ($1, $2, NULL, NULL, $3)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, in.Latitude, in.Longitude, status).Scan(&id); err != nil {
		return model.EmergencyAlert{}, fmt.Errorf("failed to insert alert: %w", err)
	}
	return model.EmergencyAlert{
		ID:        id,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Status:    status,
	}, nil
}

// Get retrieves an alert by ID
func (r *alertRepo) Get(ctx context.Context, id int64) (model.EmergencyAlert, bool, error) {
	query := `
		SELECT id, latitude, longitude, user_id, contact_id, status
		FROM emergency_alerts
		WHERE id = $1
	`
	var a model.EmergencyAlert
	var lat, lon sql.NullString
	var userID, contactID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &lat, &lon, &userID, &contactID, &a.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EmergencyAlert{}, false, nil
		}
		return model.EmergencyAlert{}, false, fmt.Errorf("failed to query alert: %w", err)
	}
	a.Latitude = lat.String
	a.Longitude = lon.String
	a.UserID = nullableID(userID)
	a.ContactID = nullableID(contactID)
	return a, true, nil
}
