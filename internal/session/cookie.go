package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"prompt-studio/shared/models"
)

// CookieName - имя cookie с идентификатором сессии.
const CookieName = "prompt_studio_session"

const issuer = "prompt-studio"

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec подписывает идентификатор сессии в JWT (HS256).
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewCookieCodec(secret string, ttl time.Duration) (*CookieCodec, error) {
	if secret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	return &CookieCodec{secret: []byte(secret), ttl: ttl}, nil
}

// NewSessionID создает новый случайный идентификатор сессии.
func NewSessionID() string {
	return uuid.NewString()
}

// Issue возвращает подписанный токен для сессии.
func (c *CookieCodec) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse проверяет токен и возвращает идентификатор сессии.
func (c *CookieCodec) Parse(token string) (string, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrSessionInvalid, err)
	}
	if !parsed.Valid || claims.SessionID == "" {
		return "", models.ErrSessionInvalid
	}
	return claims.SessionID, nil
}

// MaxAge - срок жизни cookie в секундах.
func (c *CookieCodec) MaxAge() int {
	return int(c.ttl / time.Second)
}
