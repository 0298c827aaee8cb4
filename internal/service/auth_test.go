package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestLogin(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateTestUser(t, db, "alice")
	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		token, err := authSvc.Login(ctx, user.Email, testhelpers.TestPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := authSvc.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := authSvc.Login(ctx, user.Email, "wrong-password")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := authSvc.Login(ctx, "nobody@example.com", testhelpers.TestPassword)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateTestUser(t, db, "bob")

	other := service.NewAuthService(db, "another-secret", time.Hour, nil)
	token, err := other.GenerateToken(user)
	require.NoError(t, err)

	authSvc := service.NewAuthService(db, "test-secret", time.Hour, nil)
	_, err = authSvc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = authSvc.ValidateToken(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	user := testhelpers.CreateTestUser(t, db, "carol")

	authSvc := service.NewAuthService(db, "test-secret", time.Nanosecond, nil)
	token, err := authSvc.GenerateToken(user)
	require.NoError(t, err)

	time.Sleep(time.Second)
	_, err = authSvc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	client, mr := setupTestRedis(t)

	stores := map[string]service.RevocationStore{
		"memory": service.NewMemoryRevocationStore(),
		"redis":  service.NewRedisRevocationStore(client),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			db := testhelpers.SetupTestDB(t)
			user := testhelpers.CreateTestUser(t, db, "dave")
			authSvc := service.NewAuthService(db, "test-secret", time.Hour, store)
			ctx := context.Background()

			token, err := authSvc.GenerateToken(user)
			require.NoError(t, err)
			claims, err := authSvc.ValidateToken(ctx, token)
			require.NoError(t, err)

			require.NoError(t, authSvc.Logout(ctx, claims))

			_, err = authSvc.ValidateToken(ctx, token)
			assert.ErrorIs(t, err, service.ErrTokenRevoked)

			// a fresh login is unaffected
			fresh, err := authSvc.GenerateToken(user)
			require.NoError(t, err)
			_, err = authSvc.ValidateToken(ctx, fresh)
			assert.NoError(t, err)
		})
	}

	// the Redis key expires with the token
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(keys[0]).Seconds(), 5)
}

func TestMemoryRevocationStoreExpires(t *testing.T) {
	store := service.NewMemoryRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "short", 10*time.Millisecond))
	require.NoError(t, store.Revoke(ctx, "ignored", 0))

	revoked, err := store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "ignored")
	require.NoError(t, err)
	assert.False(t, revoked)

	time.Sleep(20 * time.Millisecond)
	revoked, err = store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked)
}
