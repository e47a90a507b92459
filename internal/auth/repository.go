package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository auth.users 테이블 저장소
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository 새 저장소 생성
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ UserStore = (*Repository)(nil)

// Create 사용자 insert. email UNIQUE 충돌 시 ErrEmailExists
func (r *Repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO auth.users (id, name, email, password_hash, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query,
		user.ID.String(), user.Name, normalizeEmail(user.Email), user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEmailExists
	}
	return nil
}

// GetByEmail 이메일로 조회
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `
		SELECT id::text, name, email, password_hash, created_at
		FROM auth.users
		WHERE email = $1`, normalizeEmail(email))
}

// GetByID ID로 조회
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `
		SELECT id::text, name, email, password_hash, created_at
		FROM auth.users
		WHERE id = $1::uuid`, id.String())
}

func (r *Repository) getOne(ctx context.Context, query string, arg string) (*User, error) {
	var (
		u  User
		id string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", id, err)
	}
	return &u, nil
}
