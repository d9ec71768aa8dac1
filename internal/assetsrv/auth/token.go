package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tansive/assetvault/internal/common/apperrors"
)

const tokenIssuer = "assetvault"

// NewToken signs an HS256 token whose subject is the identity.
func NewToken(secret []byte, identity string, ttl time.Duration) (string, apperrors.Error) {
	if identity == "" {
		return "", ErrTokenCreation.Msg("identity is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", ErrTokenCreation.Err(err)
	}
	return s, nil
}

// ParseToken verifies the token and returns its subject.
func ParseToken(secret []byte, tokenString string) (string, apperrors.Error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", ErrInvalidToken.Err(err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
