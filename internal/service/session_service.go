package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const (
	DefaultSessionTTL = 30 * 24 * time.Hour
	sessionTokenBytes = 20
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrEmptyToken      = errors.New("session token is empty")
)

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSessionToken devuelve un token opaco de 160 bits leídos de crypto/rand.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToLower(tokenEncoding.EncodeToString(buf)), nil
}

// HashSessionToken deriva el id persistido de la sesión a partir del token.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionService crea, valida e invalida sesiones.
type SessionService struct {
	logger   *zap.Logger
	sessions repository.SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(logger *zap.Logger, sessions repository.SessionRepository, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		logger:   logger,
		sessions: sessions,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession es el único lugar donde se decide la expiración de una sesión.
func (s *SessionService) CreateSession(ctx context.Context, token, userID string) (domain.Session, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, ErrEmptyToken
	}
	now := s.now()
	session := domain.Session{
		ID:        HashSessionToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// ValidateSessionToken resuelve el token a su sesión. Las sesiones vencidas se borran.
func (s *SessionService) ValidateSessionToken(ctx context.Context, token string) (domain.Session, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Session{}, ErrSessionNotFound
	}
	id := HashSessionToken(token)
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, ErrSessionNotFound
		}
		return domain.Session{}, err
	}
	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, id); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn("delete expired session failed", zap.Error(err), zap.String("user_id", session.UserID))
		}
		return domain.Session{}, ErrSessionExpired
	}
	return session, nil
}

// InvalidateSession borra la sesión del token. Un token vacío o desconocido no es un error.
func (s *SessionService) InvalidateSession(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, HashSessionToken(token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
