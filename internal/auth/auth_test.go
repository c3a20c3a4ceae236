package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"garden_buddy/internal/storage"
	"garden_buddy/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCounter struct{}

func (brokenCounter) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("redis down")
}

func TestParseTier(t *testing.T) {
	for in, want := range map[string]pkg.Tier{"": pkg.TierGuest, "guest": pkg.TierGuest, " Free ": pkg.TierFree, "PRO": pkg.TierPro} {
		got, err := ParseTier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTier("gold")
	assert.Error(t, err)
}

func TestStaticService(t *testing.T) {
	s, err := NewStaticService("u1", "me@example.com", "pro")
	require.NoError(t, err)
	assert.Equal(t, pkg.User{ID: "u1", Email: "me@example.com", Tier: pkg.TierPro}, s.Account())
	assert.Equal(t, pkg.TierPro, s.Resolve("u1").Tier)

	other := s.Resolve("someone")
	assert.Equal(t, pkg.User{ID: "someone", Tier: pkg.TierGuest}, other)
	assert.True(t, strings.HasPrefix(s.Resolve("").ID, "guest-"))

	_, err = NewStaticService("", "", "free")
	assert.Error(t, err)

	g, err := NewStaticService("", "", "")
	require.NoError(t, err)
	assert.False(t, g.Account().Authenticated())
	assert.NotEmpty(t, g.Account().ID)
}

func TestGuestQuota(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore(0)
	q := NewGuestQuota(kv, storage.Keys{Prefix: "garden"}, 0)
	guest := pkg.User{ID: "g1", Tier: pkg.TierGuest}

	for i := 1; i <= DefaultGuestLimit; i++ {
		assert.True(t, q.Allow(ctx, guest), "message %d", i)
	}
	assert.False(t, q.Allow(ctx, guest), "sixteenth message is refused")
	assert.False(t, q.Allow(ctx, guest))

	member := pkg.User{ID: "m1", Tier: pkg.TierFree}
	for i := 0; i < DefaultGuestLimit+5; i++ {
		assert.True(t, q.Allow(ctx, member))
	}
	_, err := kv.Get(ctx, storage.Keys{Prefix: "garden"}.GuestCounter("m1"))
	assert.ErrorIs(t, err, storage.ErrNotFound, "members are not counted")
}

func TestGuestQuotaCounterFailureAllows(t *testing.T) {
	q := NewGuestQuota(brokenCounter{}, storage.Keys{}, 1)
	assert.True(t, q.Allow(context.Background(), pkg.User{ID: "g"}))
}
