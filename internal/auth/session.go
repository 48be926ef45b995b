package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sporthub-service/internal/apperrors"
)

var (
	ErrTokenInvalid = apperrors.Unauthenticated("session token is invalid")
	ErrTokenExpired = apperrors.Unauthenticated("session token has expired")
)

// Claims carried by a session token. Sessions are minted once a phone
// number passes verification.
type Claims struct {
	UserID int    `json:"user_id"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

// Service signs and validates session tokens.
type Service struct {
	secret []byte
	expire time.Duration
}

func NewService(secret string, expire time.Duration) *Service {
	return &Service{secret: []byte(secret), expire: expire}
}

// Generate mints a session token for a verified user.
func (s *Service) Generate(userID int, phone string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Phone:  phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sporthub-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.Internal("sign session token", err)
	}
	return signed, nil
}

// Validate parses a token and returns its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
