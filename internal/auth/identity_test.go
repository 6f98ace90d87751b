package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestFromToken(t *testing.T) {
	t.Run("sub and role claims", func(t *testing.T) {
		id, err := FromToken(signedToken(t, jwt.MapClaims{"sub": "user-1", "role": "staff"}))
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, "staff", id.Role)
	})

	t.Run("user_id fallback", func(t *testing.T) {
		id, err := FromToken(signedToken(t, jwt.MapClaims{"user_id": "user-2"}))
		require.NoError(t, err)
		assert.Equal(t, "user-2", id.UserID)
		assert.Empty(t, id.Role)
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := FromToken(signedToken(t, jwt.MapClaims{"role": "admin"}))
		assert.Error(t, err)
	})

	t.Run("not a token", func(t *testing.T) {
		_, err := FromToken("definitely-not-a-jwt")
		assert.Error(t, err)
	})
}

func TestContext_WatchAndSet(t *testing.T) {
	ctx := NewContext()
	assert.False(t, ctx.Authenticated())
	assert.Nil(t, ctx.Current())

	var seen []*Identity
	ctx.Watch(func(id *Identity) { seen = append(seen, id) })

	login := &Identity{UserID: "u1", Role: "student"}
	ctx.Set(login)
	assert.True(t, ctx.Authenticated())
	assert.Equal(t, login, ctx.Current())

	ctx.Set(nil)
	assert.False(t, ctx.Authenticated())

	require.Len(t, seen, 2)
	assert.Equal(t, login, seen[0])
	assert.Nil(t, seen[1])
}
