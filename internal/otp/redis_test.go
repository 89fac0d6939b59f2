package otp

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisRegistry(t *testing.T) {
	runRegistrySuite(t, func(t *testing.T, opts Options) Registry {
		client, _ := newTestRedis(t)
		return NewRedisRegistry(client, opts)
	})
}

func TestRedisRegistryKeyRetention(t *testing.T) {
	client, mr := newTestRedis(t)
	reg := NewRedisRegistry(client, Options{})
	ctx := context.Background()

	_, err := reg.Issue(ctx, "Ana@Example.com", samplePending("ana@example.com"))
	require.NoError(t, err)

	require.True(t, mr.Exists("otp:v1:ana@example.com"))
	require.Equal(t, 2*DefaultTTL, mr.TTL("otp:v1:ana@example.com"))

	mr.FastForward(2*DefaultTTL + time.Second)
	_, err = reg.Verify(ctx, "ana@example.com", "123456")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRegistryMismatchKeepsTTL(t *testing.T) {
	client, mr := newTestRedis(t)
	reg := NewRedisRegistry(client, Options{MaxAttempts: 5, Generate: sequence()})
	ctx := context.Background()

	_, err := reg.Issue(ctx, "ana@example.com", samplePending("ana@example.com"))
	require.NoError(t, err)
	mr.FastForward(time.Minute)

	_, err = reg.Verify(ctx, "ana@example.com", "000000")
	require.ErrorIs(t, err, ErrMismatch)
	require.Equal(t, 2*DefaultTTL-time.Minute, mr.TTL("otp:v1:ana@example.com"))
}

func TestRedisRegistryCorruptEntry(t *testing.T) {
	client, mr := newTestRedis(t)
	reg := NewRedisRegistry(client, Options{})
	require.NoError(t, mr.Set("otp:v1:ana@example.com", "not json"))

	_, err := reg.Verify(context.Background(), "ana@example.com", "123456")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisRegistryIssueOverwritesCorruptEntry(t *testing.T) {
	client, mr := newTestRedis(t)
	reg := NewRedisRegistry(client, Options{ResendCooldown: time.Minute})
	ctx := context.Background()
	require.NoError(t, mr.Set("otp:v1:ana@example.com", "not json"))

	code, err := reg.Issue(ctx, "ana@example.com", samplePending("ana@example.com"))
	require.NoError(t, err)
	_, err = reg.Verify(ctx, "ana@example.com", code)
	require.NoError(t, err)
}
