package serverutils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionClaims identify a server-side session. The token alone grants
// nothing; the session row must still exist.
type SessionClaims struct {
	SessionID uuid.UUID `json:"sid"`
	Email     string    `json:"email"`
	jwt.RegisteredClaims
}

type SessionTokens struct {
	secret []byte
	issuer string
}

func NewSessionTokens(secret, issuer string) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), issuer: issuer}
}

func (s *SessionTokens) Issue(sessionID, userID uuid.UUID, email string, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (s *SessionTokens) Parse(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if claims.SessionID == uuid.Nil {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

func (c *SessionClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
