package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Config represents JWT configuration
type Config struct {
	Secret        string
	AccessExpiry  time.Duration
	Issuer        string
	SigningMethod jwt.SigningMethod
}

// DefaultConfig returns default JWT configuration
func DefaultConfig(secret string) *Config {
	return &Config{
		Secret:        secret,
		AccessExpiry:  2 * time.Hour,
		Issuer:        "lostfound-api",
		SigningMethod: jwt.SigningMethodHS256,
	}
}

// Manager issues and validates access tokens. The secret is fixed at construction.
type Manager struct {
	secret []byte
	cfg    Config
}

// NewManager creates a token manager. An empty secret is rejected.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("JWT config is required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("JWT secret is required")
	}

	c := *cfg
	if c.SigningMethod == nil {
		c.SigningMethod = jwt.SigningMethodHS256
	}
	if c.AccessExpiry <= 0 {
		c.AccessExpiry = 2 * time.Hour
	}

	return &Manager{secret: []byte(c.Secret), cfg: c}, nil
}

// GenerateToken generates a new JWT token
func (m *Manager) GenerateToken(userID, username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.cfg.AccessExpiry)

	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.cfg.Issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(m.cfg.SigningMethod, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token does not contain a user id")
	}

	return claims, nil
}
