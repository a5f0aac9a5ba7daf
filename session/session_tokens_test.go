package session_test

import (
	"errors"
	"testing"
	"time"

	"periodico/session"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/gomega"
)

func TestIssueAndValidateToken(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should be able to issue and validate token", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())

		token, err := session.IssueToken(session.Identity{ID: 100, Name: "ann"}, true)
		Expect(err).To(BeNil())
		Expect(token).ToNot(BeEmpty())

		identity, admin, err := session.ValidateToken(token)
		Expect(err).To(BeNil())
		Expect(admin).To(BeTrue())
		Expect(*identity).To(Equal(session.Identity{ID: 100, Name: "ann"}))
	})

	t.Run("should reject malformed token", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())

		identity, admin, err := session.ValidateToken("not-a-token")
		Expect(err).ToNot(BeNil())
		Expect(admin).To(BeFalse())
		Expect(identity).To(BeNil())
	})

	t.Run("should reject token signed with another secret", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "secret-one", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())
		token, err := session.IssueToken(session.Identity{ID: 100, Name: "ann"}, false)
		Expect(err).To(BeNil())

		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "secret-two", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())
		_, _, err = session.ValidateToken(token)
		Expect(err).ToNot(BeNil())
	})

	t.Run("should reject expired token", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())

		now := time.Now()
		claims := session.Claims{
			Name: "ann",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "100",
				Issuer:    "periodico",
				Audience:  jwt.ClaimStrings{"periodico-api"},
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		Expect(err).To(BeNil())

		_, _, err = session.ValidateToken(token)
		Expect(err).ToNot(BeNil())
		Expect(errors.Is(err, jwt.ErrTokenExpired)).To(BeTrue())
	})

	t.Run("should refuse to bootstrap a negative expiration", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "periodico-api",
			Expiration: -time.Minute})).ToNot(BeNil())
	})

	t.Run("should reject token issued by another issuer", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "someone-else", Audience: "periodico-api"})).To(BeNil())
		token, err := session.IssueToken(session.Identity{ID: 100, Name: "ann"}, false)
		Expect(err).To(BeNil())

		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())
		_, _, err = session.ValidateToken(token)
		Expect(err).ToNot(BeNil())
	})

	t.Run("should reject token issued for another audience", func(t *testing.T) {
		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "other-api"})).To(BeNil())
		token, err := session.IssueToken(session.Identity{ID: 100, Name: "ann"}, false)
		Expect(err).To(BeNil())

		Expect(session.BootstrapTokens(&session.TokenConfig{
			Secret: "test-secret", Issuer: "periodico", Audience: "periodico-api"})).To(BeNil())
		_, _, err = session.ValidateToken(token)
		Expect(err).ToNot(BeNil())
	})
}

func TestParseTokenConfigFromEnv(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should fail when JWT_SECRET is not set", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := session.ParseTokenConfigFromEnv()
		Expect(err).ToNot(BeNil())
	})

	t.Run("should fall back to default issuer and audience", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("JWT_ISSUER", "")
		t.Setenv("JWT_AUDIENCE", "")
		c, err := session.ParseTokenConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(*c).To(Equal(session.TokenConfig{Secret: "test-secret", Issuer: "periodico",
			Audience: "periodico-api", Expiration: session.TokenExpiration}))
	})
}
