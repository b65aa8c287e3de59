package jwtmw

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims はアクセストークンのクレームです。sub はユーザーIDの10進文字列です。
type Claims struct {
	Email string `json:"email,omitempty"`
	Tier  string `json:"tier"`
	jwt.RegisteredClaims
}

// Generator defines the interface for JWT token generation.
type Generator interface {
	GenerateToken(userID uint, email, tier string) (string, error)
}

// generator signs HS256 tokens.
type generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *generator {
	return &generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken は userID, email, tier を含む署名済みトークンを生成します。
func (g *generator) GenerateToken(userID uint, email, tier string) (string, error) {
	now := g.now()
	claims := Claims{
		Email: email,
		Tier:  tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
