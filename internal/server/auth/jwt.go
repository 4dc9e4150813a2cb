// Package auth verifies the access tokens that identify the acting user.
// Tokens are issued by the portal's identity layer; GenerateToken exists
// for tooling and tests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taxintake/intakeengine/internal/common"
)

// Claims carries the actor id and role next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// Actor is an authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

// IsStaff reports whether the actor works on intakes rather than owns one.
func (a Actor) IsStaff() bool {
	return a.Role == common.RoleStaff || a.Role == common.RoleAdmin
}

func GenerateToken(userID, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies an HS256 token and returns its actor. Expired tokens
// give common.ErrTokenExpired; anything else unusable gives
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Actor{}, common.ErrTokenExpired
		}
		return Actor{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return Actor{}, common.ErrInvalidToken
	}
	switch claims.Role {
	case common.RoleClient, common.RoleStaff, common.RoleAdmin:
	default:
		return Actor{}, fmt.Errorf("%w: unknown role %q", common.ErrInvalidToken, claims.Role)
	}

	return Actor{UserID: claims.UserID, Role: claims.Role}, nil
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
