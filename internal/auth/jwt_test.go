package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-for-sharebutes-tests")
	t.Setenv("JWT_EXPIRE_HOURS", "")
	require.NoError(t, InitJWTSecret())
}

func TestInitJWTSecret(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		assert.Error(t, InitJWTSecret())
	})

	t.Run("invalid expire hours", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "some-secret")
		t.Setenv("JWT_EXPIRE_HOURS", "eight")
		assert.Error(t, InitJWTSecret())
	})

	t.Run("negative expire hours", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "some-secret")
		t.Setenv("JWT_EXPIRE_HOURS", "-5")
		assert.Error(t, InitJWTSecret())
	})

	t.Run("valid configuration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "some-secret")
		t.Setenv("JWT_EXPIRE_HOURS", "24")
		assert.NoError(t, InitJWTSecret())
	})
}

func TestGenerateAndVerifyJWT(t *testing.T) {
	initTestSecret(t)

	token, err := GenerateJWT("64f1c0ffee0ddba11ca7a123", "ngo")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyJWT(token)
	require.NoError(t, err)

	assert.Equal(t, "64f1c0ffee0ddba11ca7a123", claims["user_id"])
	assert.Equal(t, "ngo", claims["user_type"])

	exp, ok := claims["exp"].(float64)
	require.True(t, ok)
	assert.Greater(t, int64(exp), time.Now().Unix())
}

func TestVerifyJWTRejectsTamperedToken(t *testing.T) {
	initTestSecret(t)

	token, err := GenerateJWT("abc", "donor")
	require.NoError(t, err)

	tampered := token[:len(token)-3] + "xxx"

	_, err = VerifyJWT(tampered)
	assert.Error(t, err)
}

func TestVerifyJWTRejectsGarbage(t *testing.T) {
	initTestSecret(t)

	_, err := VerifyJWT("not.a.token")
	assert.Error(t, err)

	_, err = VerifyJWT("")
	assert.Error(t, err)
}

func TestVerifyJWTRejectsExpiredToken(t *testing.T) {
	initTestSecret(t)

	savedExpiry := jwtExpiry
	jwtExpiry = -time.Hour
	token, err := GenerateJWT("abc", "donor")
	jwtExpiry = savedExpiry
	require.NoError(t, err)

	_, err = VerifyJWT(token)
	assert.Error(t, err)
}

func TestVerifyJWTRejectsWrongSecret(t *testing.T) {
	initTestSecret(t)

	token, err := GenerateJWT("abc", "donor")
	require.NoError(t, err)

	saved := jwtSecret
	jwtSecret = "a-completely-different-secret"
	t.Cleanup(func() { jwtSecret = saved })

	_, err = VerifyJWT(token)
	assert.Error(t, err)
}
