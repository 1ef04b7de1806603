package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountCreationFailed = errors.New("failed to create an account")
	ErrInvalidEmail          = errors.New("invalid email")
)

// dummyHash se compara cuando el email no existe para que ambos fallos tarden lo mismo.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskboard-dummy-password"), bcrypt.DefaultCost)

// AuthService coordina el alta y el ingreso de usuarios.
type AuthService struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{logger: logger, users: users}
}

type SignInInput struct {
	Email    string
	Password string
}

type SignUpInput struct {
	Email    string
	Name     string
	Password string
}

// SignIn devuelve el usuario si las credenciales coinciden. Email desconocido
// y contraseña incorrecta producen el mismo ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(input.Password))
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// SignUp crea el usuario. Cualquier fallo del store (incluido un email
// duplicado) se reporta como ErrAccountCreationFailed.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, ErrAccountCreationFailed
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         cleanText(input.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Warn("create user failed", zap.Error(err), zap.String("email", email))
		return domain.User{}, fmt.Errorf("%w: %w", ErrAccountCreationFailed, err)
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
