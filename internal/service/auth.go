package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sprocketdb/sprocket/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)

// jwtSecretKey is the settings-store key the signing secret lives under.
const jwtSecretKey = "jwt_secret"

// Principal is the identity carried by a validated bearer token.
type Principal struct {
	Subject string
}

type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates an auth service signing with the given secret.
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// LoadOrInitSecret returns the JWT signing secret from the settings store,
// generating and persisting one on first use.
func LoadOrInitSecret(ctx context.Context, store *config.Store) (string, error) {
	secret, err := store.GetSetting(ctx, jwtSecretKey)
	if err != nil {
		return "", err
	}
	if secret != "" {
		return secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	secret = hex.EncodeToString(buf)
	if err := store.SetSetting(ctx, jwtSecretKey, secret); err != nil {
		return "", err
	}
	return secret, nil
}

// ValidateJWT verifies a bearer token and returns the identity it carries.
func (s *AuthService) ValidateJWT(ctx context.Context, tokenStr string) (*Principal, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredentials
	}

	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return &Principal{Subject: claims.Subject}, nil
}

// IssueJWT creates a new signed token for the given subject.
func (s *AuthService) IssueJWT(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "sprocket",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

type jwtClaims struct {
	jwt.RegisteredClaims
}
