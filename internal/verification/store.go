package verification

import (
	"context"
	"sync"
	"time"

	"account_service/internal/models"
)

// Record is one pending signup, keyed by normalized email. The candidate
// account fields live only here until the code is confirmed.
type Record struct {
	Code      string
	UserData  models.PendingUser
	CreatedAt time.Time
	ExpiresAt time.Time
	Attempts  int
}

// RecordStore abstracts where pending records live so the service can run
// against the in-process map or a shared cache such as Redis.
//
// Expiry is enforced by the service against Record.ExpiresAt; the ttl passed
// to Set is a hint for stores that support native key expiry.
type RecordStore interface {
	Get(ctx context.Context, email string) (Record, bool, error)
	Set(ctx context.Context, email string, rec Record, ttl time.Duration) error
	Delete(ctx context.Context, email string) error
}

// MemoryStore keeps pending records in a process-local map. Stale entries are
// removed by the service the next time the same email is touched.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) Get(_ context.Context, email string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]

	return rec, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, email string, rec Record, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[email] = rec

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, email)

	return nil
}
