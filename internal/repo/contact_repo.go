package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sosbeacon/server/internal/model"
)

type contactRepo struct {
	db *sql.DB
}

// NewContactRepo creates a Postgres-backed ContactRepo
func NewContactRepo(db *sql.DB) ContactRepo {
	return &contactRepo{db: db}
}

// Save inserts a contact. user_id stays NULL until accounts are wired in.
func (r *contactRepo) Save(ctx context.Context, in model.NewContact) (model.EmergencyContact, error) {
	query := `
		INSERT INTO emergency_contacts (country_code, phone_number, user_id)
		VALUES ($1, $2, NULL)
		RETURNING id
	`
	var id int64
	if err := r.db.QueryRowContext(ctx, query, in.CountryCode, in.PhoneNumber).Scan(&id); err != nil {
		return model.EmergencyContact{}, fmt.Errorf("failed to insert contact: %w", err)
	}
	return model.EmergencyContact{
		ID:          id,
		CountryCode: in.CountryCode,
		PhoneNumber: in.PhoneNumber,
	}, nil
}

// Get retrieves a contact by ID
func (r *contactRepo) Get(ctx context.Context, id int64) (model.EmergencyContact, bool, error) {
	query := `
		SELECT id, country_code, phone_number, user_id
		FROM emergency_contacts
		WHERE id = $1
	`
	var c model.EmergencyContact
	var userID sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.CountryCode, &c.PhoneNumber, &userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.EmergencyContact{}, false, nil
		}
		return model.EmergencyContact{}, false, fmt.Errorf("failed to query contact: %w", err)
	}
	c.UserID = nullableID(userID)
	return c, true, nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
