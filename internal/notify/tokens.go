package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TokenStore keeps each user's registered push tokens in a Redis set.
// Delivery itself happens through a Pusher; the store only tracks targets.
type TokenStore struct {
	redis *redis.Client
}

func NewTokenStore(redisClient *redis.Client) *TokenStore {
	return &TokenStore{redis: redisClient}
}

func tokenKey(userID string) string {
	return fmt.Sprintf("push:tokens:%s", userID)
}

// Register adds a device token for the user. Re-registering is a no-op.
func (s *TokenStore) Register(ctx context.Context, userID, token string) error {
	if token == "" {
		return fmt.Errorf("notify: empty push token")
	}
	if err := s.redis.SAdd(ctx, tokenKey(userID), token).Err(); err != nil {
		return fmt.Errorf("notify: register token: %w", err)
	}
	return nil
}

// Clear removes one device token, or every token for the user when token is
// empty (logout-all).
func (s *TokenStore) Clear(ctx context.Context, userID, token string) error {
	var err error
	if token == "" {
		err = s.redis.Del(ctx, tokenKey(userID)).Err()
	} else {
		err = s.redis.SRem(ctx, tokenKey(userID), token).Err()
	}
	if err != nil {
		return fmt.Errorf("notify: clear token: %w", err)
	}
	return nil
}

// Tokens returns the user's registered device tokens.
func (s *TokenStore) Tokens(ctx context.Context, userID string) ([]string, error) {
	tokens, err := s.redis.SMembers(ctx, tokenKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: list tokens: %w", err)
	}
	return tokens, nil
}
