package session

import (
	"errors"
	"os"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/golang-jwt/jwt/v5"
)

const TokenExpiration = 24 * time.Hour

// TokenConfig is read once at startup and never mutated afterwards.
type TokenConfig struct {
	Secret     string
	Issuer     string
	Audience   string
	Expiration time.Duration
}

var activeTokenConfig *TokenConfig

func ParseTokenConfigFromEnv() (*TokenConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("environment variable JWT_SECRET is not set")
	}
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "periodico"
	}
	audience := os.Getenv("JWT_AUDIENCE")
	if audience == "" {
		audience = "periodico-api"
	}
	return &TokenConfig{Secret: secret, Issuer: issuer, Audience: audience, Expiration: TokenExpiration}, nil
}

func BootstrapTokens(c *TokenConfig) error {
	if c == nil || c.Secret == "" {
		return errors.New("token signing secret is required")
	}
	if c.Expiration < 0 {
		return errors.New("token expiration must not be negative")
	}
	if c.Expiration == 0 {
		c.Expiration = TokenExpiration
	}
	activeTokenConfig = c
	return nil
}

type Claims struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

func IssueToken(identity Identity, admin bool) (string, error) {
	c := activeTokenConfig
	if c == nil {
		return "", errors.New("token config is not bootstrapped")
	}
	now := time.Now()
	claims := Claims{
		Name:  identity.Name,
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			Issuer:    c.Issuer,
			Audience:  jwt.ClaimStrings{c.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.Expiration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.Secret))
}

// ValidateToken rejects malformed, badly signed, expired tokens and tokens
// issued for another issuer or audience.
func ValidateToken(tokenString string) (*Identity, bool, error) {
	c := activeTokenConfig
	if c == nil {
		return nil, false, errors.New("token config is not bootstrapped")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(c.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.Issuer),
		jwt.WithAudience(c.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, false, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, false, errors.New("invalid token")
	}
	uid, err := types.ParseID(claims.Subject)
	if err != nil {
		return nil, false, err
	}
	return &Identity{ID: uid, Name: claims.Name}, claims.Admin, nil
}
