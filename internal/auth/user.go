package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// User 가입 사용자. PasswordHash 는 응답에 절대 포함하지 않음
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore 사용자 저장소
type UserStore interface {
	// Create 이메일 중복이면 ErrEmailExists
	Create(ctx context.Context, user *User) error
	// GetByEmail 없으면 ErrUserNotFound
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByID 없으면 ErrUserNotFound
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// normalizeEmail 이메일은 소문자 + 공백 제거 후 비교
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// Memory
// =============================================================================

// MemoryUserStore DATABASE_URL 없이 실행할 때 쓰는 프로세스 로컬 저장소
type MemoryUserStore struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byID    map[uuid.UUID]string
}

// NewMemoryUserStore creates an empty in-memory store
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byEmail: make(map[string]User),
		byID:    make(map[uuid.UUID]string),
	}
}

var _ UserStore = (*MemoryUserStore)(nil)

func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	email := normalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrEmailExists
	}
	u := *user
	u.Email = email
	s.byEmail[email] = u
	s.byID[u.ID] = email
	return nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.byEmail[email]
	return &u, nil
}
