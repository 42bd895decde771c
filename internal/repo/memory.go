package repo

import (
	"context"
	"sync"

	"github.com/sosbeacon/server/internal/model"
)

// table is one entity's id counter and rows. Allocating the id and inserting
// the row happen under the same lock so concurrent saves never share an id.
type table[T any] struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]T
}

func newTable[T any]() *table[T] {
	return &table[T]{nextID: 1, rows: make(map[int64]T)}
}

func (t *table[T]) insert(build func(id int64) T) T {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	rec := build(id)
	t.rows[id] = rec
	return rec
}

func (t *table[T]) get(id int64) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[id]
	return rec, ok
}

// MemoryStore keeps every record in process memory. Nothing survives a restart.
type MemoryStore struct {
	contacts *memoryContactRepo
	alerts   *memoryAlertRepo
	videos   *memoryVideoRepo
	users    *memoryUserRepo
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts: &memoryContactRepo{t: newTable[model.EmergencyContact]()},
		alerts:   &memoryAlertRepo{t: newTable[model.EmergencyAlert]()},
		videos:   &memoryVideoRepo{t: newTable[model.VideoRecording]()},
		users:    &memoryUserRepo{t: newTable[model.User]()},
	}
}

func (s *MemoryStore) Contacts() ContactRepo { return s.contacts }
func (s *MemoryStore) Alerts() AlertRepo     { return s.alerts }
func (s *MemoryStore) Videos() VideoRepo     { return s.videos }
func (s *MemoryStore) Users() UserRepo       { return s.users }

// Close is a no-op; the store has nothing to release
func (s *MemoryStore) Close() error { return nil }

type memoryContactRepo struct {
	t *table[model.EmergencyContact]
}

func (r *memoryContactRepo) Save(_ context.Context, in model.NewContact) (model.EmergencyContact, error) {
	return r.t.insert(func(id int64) model.EmergencyContact {
		return model.EmergencyContact{
			ID:          id,
			CountryCode: in.CountryCode,
			PhoneNumber: in.PhoneNumber,
			UserID:      nil,
		}
	}), nil
}

func (r *memoryContactRepo) Get(_ context.Context, id int64) (model.EmergencyContact, bool, error) {
	c, ok := r.t.get(id)
	return c, ok, nil
}

type memoryAlertRepo struct {
	t *table[model.EmergencyAlert]
}

func (r *memoryAlertRepo) Save(_ context.Context, in model.NewEmergencyAlert) (model.EmergencyAlert, error) {
	return r.t.insert(func(id int64) model.EmergencyAlert {
		return model.EmergencyAlert{
			ID:        id,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			UserID:    nil,
			ContactID: nil,
			Status:    alertStatus(in.Status),
		}
	}), nil
}

func (r *memoryAlertRepo) Get(_ context.Context, id int64) (model.EmergencyAlert, bool, error) {
	a, ok := r.t.get(id)
	return a, ok, nil
}

type memoryVideoRepo struct {
	t *table[model.VideoRecording]
}

func (r *memoryVideoRepo) Save(_ context.Context, in model.NewVideoRecording) (model.VideoRecording, error) {
	return r.t.insert(func(id int64) model.VideoRecording {
		return model.VideoRecording{
			ID:           id,
			FileName:     in.FileName,
			MimeType:     in.MimeType,
			UploadStatus: in.UploadStatus,
			UserID:       nil,
		}
	}), nil
}

func (r *memoryVideoRepo) Get(_ context.Context, id int64) (model.VideoRecording, bool, error) {
	v, ok := r.t.get(id)
	return v, ok, nil
}

type memoryUserRepo struct {
	t *table[model.User]
}

// Create checks username uniqueness and inserts under the table lock
func (r *memoryUserRepo) Create(_ context.Context, in model.NewUser) (model.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	for _, u := range r.t.rows {
		if u.Username == in.Username {
			return model.User{}, ErrUsernameTaken
		}
	}
	u := model.User{ID: r.t.nextID, Username: in.Username, Password: in.Password}
	r.t.nextID++
	r.t.rows[u.ID] = u
	return u, nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id int64) (model.User, bool, error) {
	u, ok := r.t.get(id)
	return u, ok, nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (model.User, bool, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()

	for _, u := range r.t.rows {
		if u.Username == username {
			return u, true, nil
		}
	}
	return model.User{}, false, nil
}
