package service

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"pasassistant/internal/config"
	"pasassistant/internal/domain"
)

const accessAudience = "access"

// Claims represents the JWT claims identifying the caller.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// AuthService defines the bearer token contract. Tokens are issued by the
// identity provider in production; IssueToken serves operators and tests.
type AuthService interface {
	IssueToken(email string) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	cfg config.JWTConfig
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(cfg config.JWTConfig) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) IssueToken(email string) (string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", time.Time{}, eris.New("auth: email is required")
	}
	now := time.Now()
	expiresAt := now.Add(s.cfg.Expiry)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{accessAudience},
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "signing access token")
	}
	return signed, expiresAt, nil
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithAudience(accessAudience))
	if err != nil {
		return nil, eris.Wrap(domain.ErrUnauthorized, err.Error())
	}
	if !token.Valid || claims.Email == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
