package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const streamTokenIssuer = "mindful-journal"

// ErrTokenSessionMismatch is returned when a valid token names another session
var ErrTokenSessionMismatch = errors.New("token was issued for another session")

// StreamClaims represents the claims of a stream token
type StreamClaims struct {
	SessionID int64 `json:"sid"`
	jwt.RegisteredClaims
}

// StreamTokenManager issues and checks the tokens that authorise a client to
// open the live channel of one session
type StreamTokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStreamTokenManager creates a new token manager
func NewStreamTokenManager(secret string, ttl time.Duration) *StreamTokenManager {
	return &StreamTokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a token bound to sessionID
func (m *StreamTokenManager) Issue(sessionID int64) (string, error) {
	now := m.now()
	claims := StreamClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(sessionID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    streamTokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign stream token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and checks that it was issued for sessionID
func (m *StreamTokenManager) Validate(tokenString string, sessionID int64) (*StreamClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StreamClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(streamTokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*StreamClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.SessionID != sessionID {
		return nil, ErrTokenSessionMismatch
	}

	return claims, nil
}

// TTL returns the lifetime of issued tokens
func (m *StreamTokenManager) TTL() time.Duration {
	return m.ttl
}
