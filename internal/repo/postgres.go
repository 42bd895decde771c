package repo

import "database/sql"

// PostgresStore is a durable Store with the same save/get contract as MemoryStore
type PostgresStore struct {
	db       *sql.DB
	contacts ContactRepo
	alerts   AlertRepo
	videos   VideoRepo
	users    UserRepo
}

// NewPostgresStore wires the Postgres repositories over an open, migrated database
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:       db,
		contacts: NewContactRepo(db),
		alerts:   NewAlertRepo(db),
		videos:   NewVideoRepo(db),
		users:    NewUserRepo(db),
	}
}

func (s *PostgresStore) Contacts() ContactRepo { return s.contacts }
func (s *PostgresStore) Alerts() AlertRepo     { return s.alerts }
func (s *PostgresStore) Videos() VideoRepo     { return s.videos }
func (s *PostgresStore) Users() UserRepo       { return s.users }

// Close closes the underlying connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
