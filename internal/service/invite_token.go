package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInviteTokenInvalid = errors.New("invite token invalid")
	ErrInviteTokenExpired = errors.New("invite token expired")
)

const inviteTokenType = "workspace_invite"

// InviteTokenService firma y valida los enlaces de invitación a workspaces.
type InviteTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type InviteClaims struct {
	WorkspaceID string `json:"wid"`
	Email       string `json:"email"`
	TokenType   string `json:"typ"`
	jwt.RegisteredClaims
}

func NewInviteTokenService(secret string, ttl time.Duration) *InviteTokenService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &InviteTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "taskboard",
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *InviteTokenService) Sign(workspaceID, email string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrInviteTokenInvalid
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := InviteClaims{
		WorkspaceID: workspaceID,
		Email:       normalizeEmail(email),
		TokenType:   inviteTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   workspaceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, expiresAt, err
}

func (s *InviteTokenService) Parse(tokenString string) (InviteClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return InviteClaims{}, ErrInviteTokenInvalid
	}
	var claims InviteClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return InviteClaims{}, ErrInviteTokenExpired
		}
		return InviteClaims{}, ErrInviteTokenInvalid
	}
	if claims.TokenType != inviteTokenType || claims.WorkspaceID == "" || claims.Email == "" {
		return InviteClaims{}, ErrInviteTokenInvalid
	}
	if claims.Subject != claims.WorkspaceID {
		return InviteClaims{}, ErrInviteTokenInvalid
	}
	return claims, nil
}
