package security_test

import (
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"elearning_go/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := security.NewTokenService("secret", time.Hour)
	tok, err := ts.Issue("ali", 3)
	require.NoError(t, err)

	claims, err := ts.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ali", claims.Username)
	assert.Equal(t, int64(3), claims.UserID)

	other := security.NewTokenService("different", time.Hour)
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	ts := security.NewTokenService("secret", time.Hour)
	tok, err := ts.IssueWithTTL("ali", 3, -time.Minute)
	require.NoError(t, err)
	_, err = ts.Parse(tok)
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := security.NewPasswordHasher(bcrypt.MinCost)
	hashed, err := h.Hash("pw")
	require.NoError(t, err)
	assert.True(t, h.Matches("pw", hashed))
	assert.False(t, h.Matches("nope", hashed))
}

func TestEncryptorRoundTrip(t *testing.T) {
	e, err := security.NewEncryptor([]byte("any length secret"), nil)
	require.NoError(t, err)

	enc, err := e.Encrypt("hello")
	require.NoError(t, err)
	assert.NotContains(t, enc, "hello")

	plain, err := e.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "hello", plain)

	_, err = e.Decrypt("garbage")
	assert.ErrorIs(t, err, security.ErrDecrypt)
}

func TestEncryptorReadsLegacyFernet(t *testing.T) {
	var k fernet.Key
	require.NoError(t, k.Generate())
	legacy, err := fernet.EncryptAndSign([]byte("old message"), &k)
	require.NoError(t, err)

	e, err := security.NewEncryptor([]byte("new secret"), []string{k.Encode()})
	require.NoError(t, err)
	plain, err := e.Decrypt(string(legacy))
	require.NoError(t, err)
	assert.Equal(t, "old message", plain)
}
