package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invsync/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "invsync-test",
	})
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		Subject:  "user-42",
		Username: "alice",
		Roles:    []string{RoleInventoryManager},
		TTL:      15 * time.Minute,
	}
}

func TestValidateToken_Success(t *testing.T) {
	svc := newTestJWTService()
	token, err := svc.GenerateToken(newTestInput())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "invsync-test", claims.Issuer)
	assert.True(t, claims.HasRole(RoleInventoryManager))
	assert.False(t, claims.HasRole(RoleAdmin))
	assert.True(t, claims.HasAnyRole(RoleAdmin, RoleInventoryManager))
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()
	input.TTL = -time.Minute
	token, err := svc.GenerateToken(input)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-characters", Issuer: "invsync-test"})
	token, err := other.GenerateToken(newTestInput())
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	token, err := other.GenerateToken(newTestInput())
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsOtherSigningMethods(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    "invsync-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateToken_RequiresSubject(t *testing.T) {
	input := newTestInput()
	input.Subject = ""

	_, err := newTestJWTService().GenerateToken(input)
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestClaims_Actor(t *testing.T) {
	assert.Equal(t, "alice", (&Claims{Username: "alice"}).Actor())

	anonymous := &Claims{}
	anonymous.Subject = "user-7"
	assert.Equal(t, "user-7", anonymous.Actor())
}
