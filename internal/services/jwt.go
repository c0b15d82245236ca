package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTService verifies access tokens issued by the identity service. Both
// sides share the HS256 secret.
type JWTService struct {
	secret       []byte
	accessExpiry time.Duration
}

type Claims struct {
	UserID    uuid.UUID  `json:"user_id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	StudentID *uuid.UUID `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secret string, accessExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:       []byte(secret),
		accessExpiry: accessExpiry,
	}
}

// GenerateAccessToken signs a token with the same claims the identity
// service issues. Used by tooling and tests.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email, role string, studentID *uuid.UUID) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "peifeira-api",
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
