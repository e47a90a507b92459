package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonny/niftyquant/internal/contracts"
)

const (
	// CookieName 로그인 시 발급하는 세션 쿠키
	CookieName = "niftyquant_session"

	issuer = "niftyquant"

	// bcrypt 는 72바이트 이후를 무시함
	maxPasswordBytes = 72
)

// Config token signing settings
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int // 0 = bcrypt.DefaultCost
}

// Claims JWT payload
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignupInput 가입 요청
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput 로그인 요청
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult 로그인 성공 결과
type LoginResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// Service 가입 / 로그인 / 토큰 검증
// ⭐ SSOT: 비밀번호 해시와 JWT 서명은 여기서만
type Service struct {
	config Config
	users  UserStore
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> 만료 시각 (로그아웃된 토큰)
}

// NewService creates an auth service. Secret must be set
func NewService(config Config, users UserStore, log zerolog.Logger) (*Service, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("auth: signing secret is empty")
	}
	if config.TokenTTL <= 0 {
		return nil, errors.New("auth: token ttl must be > 0")
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config:  config,
		users:   users,
		log:     log.With().Str("component", "auth").Logger(),
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// RandomSecret 32바이트 서명 키 (JWT_SECRET 미설정 개발 환경용, 재시작 시 기존 토큰 무효)
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return b, nil
}

// Signup 사용자 생성
func (s *Service) Signup(ctx context.Context, input SignupInput) (*User, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", contracts.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: malformed email %q", contracts.ErrInvalidInput, email)
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password longer than %d bytes", contracts.ErrInvalidInput, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("User signed up")
	return user, nil
}

// Login 비밀번호 확인 후 토큰 발급
// 없는 이메일과 틀린 비밀번호는 같은 에러 (계정 존재 여부 노출 안 함)
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	s.log.Debug().Str("user_id", user.ID.String()).Msg("User logged in")
	return &LoginResult{User: user, Token: token, ExpiresAt: expires}, nil
}

// Authenticate 토큰 검증 후 사용자 조회
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Logout 토큰을 만료 시각까지 폐기 목록에 등록
func (s *Service) Logout(_ context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, jti)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time

	s.log.Debug().Str("user_id", claims.Subject).Msg("User logged out")
	return nil
}

func (s *Service) issue(user *User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.config.TokenTTL)

	claims := Claims{
		Name:  user.Name,
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.config.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// =============================================================================
// Request helpers
// =============================================================================

type contextKey struct{}

// WithUser 인증된 사용자를 context 에 저장
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext 인증 미들웨어가 저장한 사용자
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(contextKey{}).(*User)
	return user, ok && user != nil
}

// TokenFromRequest Authorization: Bearer 헤더 우선, 없으면 세션 쿠키
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
