package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sosbeacon/server/internal/model"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations
const pgUniqueViolation = "23505"

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a Postgres-backed UserRepo
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

// Create inserts a user; a duplicate username yields ErrUsernameTaken
func (r *userRepo) Create(ctx context.Context, in model.NewUser) (model.User, error) {
	query := `
		INSERT INTO users (username, password)
		VALUES ($1, $2)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, in.Username, in.Password).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return model.User{ID: id, Username: in.Username, Password: in.Password}, nil
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id int64) (model.User, bool, error) {
	query := `
		SELECT id, username, password
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

// GetByUsername retrieves a user by username
func (r *userRepo) GetByUsername(ctx context.Context, username string) (model.User, bool, error) {
	query := `
		SELECT id, username, password
		FROM users
		WHERE username = $1
	`
	return r.scanOne(ctx, query, username)
}

func (r *userRepo) scanOne(ctx context.Context, query string, arg interface{}) (model.User, bool, error) {
	var user model.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, false, nil
		}
		return model.User{}, false, fmt.Errorf("failed to query user: %w", err)
	}
	return user, true, nil
}
