// Package auth resolves who is chatting and enforces the guest allowance
package auth

import (
	"context"
	"fmt"
	"strings"

	"garden_buddy/internal/logger"
	"garden_buddy/internal/storage"
	"garden_buddy/pkg"

	"github.com/google/uuid"
)

// DefaultGuestLimit is how many messages a guest may send
const DefaultGuestLimit = 15

// LimitMessage is shown once a guest exceeds the allowance
const LimitMessage = "⚠️ **Usage Limit Reached**\n\nYou've reached the limit of free guest interactions. To continue saving your garden data and getting AI advice, please create a free account."

// ParseTier maps a config string onto a Tier. Empty means guest.
func ParseTier(s string) (pkg.Tier, error) {
	switch pkg.Tier(strings.ToLower(strings.TrimSpace(s))) {
	case "", pkg.TierGuest:
		return pkg.TierGuest, nil
	case pkg.TierFree:
		return pkg.TierFree, nil
	case pkg.TierPro:
		return pkg.TierPro, nil
	default:
		return "", fmt.Errorf("unknown tier %q", s)
	}
}

// StaticService knows a single account from configuration. Anyone else is a guest.
type StaticService struct {
	account pkg.User
}

// NewStaticService creates a new auth service for the configured account
func NewStaticService(userID, email, tier string) (*StaticService, error) {
	t, err := ParseTier(tier)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		if t != pkg.TierGuest {
			return nil, fmt.Errorf("tier %s needs a user id", t)
		}
		userID = "guest-" + uuid.NewString()
	}
	return &StaticService{account: pkg.User{ID: userID, Email: email, Tier: t}}, nil
}

// Account returns the configured user
func (s *StaticService) Account() pkg.User {
	return s.account
}

// Resolve maps an id presented by a client onto a user. Unknown ids are
// guests; an empty id gets a fresh guest id.
func (s *StaticService) Resolve(id string) pkg.User {
	if id == s.account.ID {
		return s.account
	}
	if id == "" {
		id = "guest-" + uuid.NewString()
	}
	return pkg.User{ID: id, Tier: pkg.TierGuest}
}

// GuestQuota counts messages from users without an account
type GuestQuota struct {
	counter storage.Counter
	keys    storage.Keys
	limit   int
}

// NewGuestQuota creates a new quota. A limit <= 0 uses DefaultGuestLimit.
func NewGuestQuota(counter storage.Counter, keys storage.Keys, limit int) *GuestQuota {
	if limit <= 0 {
		limit = DefaultGuestLimit
	}
	return &GuestQuota{counter: counter, keys: keys, limit: limit}
}

// Allow records one message for user and reports whether it may proceed.
// Authenticated users are never counted. A counter failure lets the message
// through.
func (q *GuestQuota) Allow(ctx context.Context, user pkg.User) bool {
	if user.Authenticated() {
		return true
	}
	n, err := q.counter.Incr(ctx, q.keys.GuestCounter(user.ID))
	if err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to count guest interaction")
		return true
	}
	return n <= int64(q.limit)
}
