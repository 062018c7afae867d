package identity

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for development and tests.
// All methods serialize on a single mutex so concurrent registrations with
// the same email observe insert-or-nothing semantics, matching the SQL
// stores' unique-index behavior.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]User
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		users:  make(map[int64]User),
	}
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.MemoryStore.FindByID"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.MemoryStore.FindByEmail"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	norm := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if NormalizeEmail(u.Email) == norm {
			return u, nil
		}
	}
	return User{}, NotFoundError{Op: op, Resource: "user"}
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (User, error) {
	const op = "identity.MemoryStore.FindByUsername"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	norm := NormalizeUsername(username)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if NormalizeUsername(u.Username) == norm {
			return u, nil
		}
	}
	return User{}, NotFoundError{Op: op, Resource: "user"}
}

func (s *MemoryStore) Insert(ctx context.Context, in InsertInput) (User, error) {
	const op = "identity.MemoryStore.Insert"
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if in.Email == "" || in.Username == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "missing fields"}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	emailNorm := NormalizeEmail(in.Email)
	usernameNorm := NormalizeUsername(in.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if NormalizeEmail(u.Email) == emailNorm {
			return User{}, ConflictError{Op: op, Field: "email"}
		}
	}
	for _, u := range s.users {
		if NormalizeUsername(u.Username) == usernameNorm {
			return User{}, ConflictError{Op: op, Field: "username"}
		}
	}

	u := User{
		ID:           s.nextID,
		Username:     in.Username,
		Email:        emailNorm,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) Update(ctx context.Context, u User) error {
	const op = "identity.MemoryStore.Update"
	if err := ctx.Err(); err != nil {
		return err
	}

	usernameNorm := NormalizeUsername(u.Username)

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[u.ID]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if NormalizeUsername(other.Username) == usernameNorm {
			return ConflictError{Op: op, Field: "username"}
		}
	}

	cur.Username = u.Username
	cur.PasswordHash = u.PasswordHash
	cur.ResetToken = u.ResetToken
	cur.ResetTokenExpiresAt = u.ResetTokenExpiresAt
	s.users[u.ID] = cur
	return nil
}
