package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/cache"
)

// TokenBlacklist revokes tokens before they expire
type TokenBlacklist interface {
	// AddToBlacklist revokes a single token by its JTI
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	// IsBlacklisted reports whether the JTI was revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// AddUserTokensToBlacklist revokes every token issued to the user so far.
	// Used on logout-everywhere and account deactivation.
	AddUserTokensToBlacklist(ctx context.Context, userID int64, ttl time.Duration) error
	// IsUserTokenInvalidated reports whether a token issued at issuedAt
	// predates the user's last revocation
	IsUserTokenInvalidated(ctx context.Context, userID int64, issuedAt time.Time) (bool, error)
}

const defaultBlacklistPrefix = "token:blacklist:"

// StoreTokenBlacklist keeps revocations in a cache.Store, so the same code
// serves Redis deployments and the in-memory fallback.
type StoreTokenBlacklist struct {
	store     cache.Store
	keyPrefix string
	now       func() time.Time
}

// NewStoreTokenBlacklist creates a blacklist on top of store
func NewStoreTokenBlacklist(store cache.Store) *StoreTokenBlacklist {
	return &StoreTokenBlacklist{
		store:     store,
		keyPrefix: defaultBlacklistPrefix,
		now:       time.Now,
	}
}

func (b *StoreTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *StoreTokenBlacklist) userKey(userID int64) string {
	return b.keyPrefix + "user:" + strconv.FormatInt(userID, 10)
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *StoreTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.store.Set(ctx, b.jtiKey(jti), []byte("1"), ttl); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *StoreTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	_, err := b.store.Get(ctx, b.jtiKey(jti))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return true, nil
}

// AddUserTokensToBlacklist stores the current time as the user's
// invalidation mark
func (b *StoreTokenBlacklist) AddUserTokensToBlacklist(ctx context.Context, userID int64, ttl time.Duration) error {
	mark := strconv.FormatInt(b.now().Unix(), 10)
	if err := b.store.Set(ctx, b.userKey(userID), []byte(mark), ttl); err != nil {
		return fmt.Errorf("failed to invalidate user tokens: %w", err)
	}
	return nil
}

// IsUserTokenInvalidated checks the token issue time against the mark.
// Tokens issued at or before the mark are invalid.
func (b *StoreTokenBlacklist) IsUserTokenInvalidated(ctx context.Context, userID int64, issuedAt time.Time) (bool, error) {
	raw, err := b.store.Get(ctx, b.userKey(userID))
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user token invalidation: %w", err)
	}
	mark, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return issuedAt.Unix() <= mark, nil
}

var _ TokenBlacklist = (*StoreTokenBlacklist)(nil)
