package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/washwala/laundry-api/config"
	"github.com/washwala/laundry-api/services"
)

type tokenClaims struct {
	CustomClaims
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for actor that EnsureValidToken accepts.
// The production identity provider issues the same shape.
func IssueToken(cfg *config.Config, actor services.Actor, ttl time.Duration) (string, error) {
	if actor.UserID == 0 {
		return "", fmt.Errorf("cannot issue a token without a user id")
	}

	now := time.Now()
	claims := tokenClaims{
		CustomClaims: CustomClaims{
			Role:      actor.Kind.String(),
			LaundryID: actor.LaundryID,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(actor.UserID), 10),
			Issuer:    cfg.JWTIssuer,
			Audience:  jwt.ClaimStrings{cfg.JWTAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
