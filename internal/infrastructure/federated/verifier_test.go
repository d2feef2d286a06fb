package federated

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/usedbooks/internal/infrastructure/config"
	apperrors "github.com/xiebiao/usedbooks/pkg/errors"
)

const (
	testIssuer   = "https://accounts.example.com"
	testAudience = "usedbooks-web"
)

func signHS(t *testing.T, secret string, claims idTokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims() idTokenClaims {
	now := time.Now()
	return idTokenClaims{
		Email: "Reader@Example.com",
		Name:  "Reader",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1234567890",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestNewVerifier_RequiresKey(t *testing.T) {
	_, err := NewVerifier(config.FederatedConfig{Enabled: true})
	assert.Error(t, err)

	_, err = NewVerifier(config.FederatedConfig{PublicKeyPEM: "not a pem"})
	assert.Error(t, err)
}

func TestVerify_HS256(t *testing.T) {
	v, err := NewVerifier(config.FederatedConfig{Issuer: testIssuer, Audience: testAudience, SharedSecret: "shh"})
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), signHS(t, "shh", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "google", id.Provider)
	assert.Equal(t, "1234567890", id.Subject)
	assert.Equal(t, "reader@example.com", id.Email)
	assert.Equal(t, "Reader", id.DisplayName)
}

func TestVerify_Rejects(t *testing.T) {
	v, err := NewVerifier(config.FederatedConfig{Issuer: testIssuer, Audience: testAudience, SharedSecret: "shh"})
	require.NoError(t, err)

	wrongAud := validClaims()
	wrongAud.Audience = jwt.ClaimStrings{"someone-else"}

	wrongIss := validClaims()
	wrongIss.Issuer = "https://evil.example.com"

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noEmail := validClaims()
	noEmail.Email = ""

	unverified := validClaims()
	f := false
	unverified.EmailVerified = &f

	cases := map[string]string{
		"wrong secret":   signHS(t, "other", validClaims()),
		"wrong audience": signHS(t, "shh", wrongAud),
		"wrong issuer":   signHS(t, "shh", wrongIss),
		"expired":        signHS(t, "shh", expired),
		"no email":       signHS(t, "shh", noEmail),
		"unverified":     signHS(t, "shh", unverified),
		"garbage":        "a.b.c",
	}
	for name, token := range cases {
		_, err := v.Verify(context.Background(), token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, name)
	}
}

func TestVerify_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewVerifier(config.FederatedConfig{Provider: "oidc", Issuer: testIssuer, Audience: testAudience, PublicKeyPEM: string(pemKey)})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims()).SignedString(key)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "oidc", id.Provider)

	// 公钥模式下拒绝HS256，防止拿公钥当HMAC密钥伪造
	_, err = v.Verify(context.Background(), signHS(t, string(pemKey), validClaims()))
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
