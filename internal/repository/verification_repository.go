package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationRepository stores one-time verification codes in Redis with a
// TTL, so codes survive restarts and scale-out. Consume is a GETDEL so a
// code can only be used once.
type VerificationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(client *redis.Client, ttl time.Duration) *VerificationRepository {
	return &VerificationRepository{client: client, ttl: ttl}
}

func (r *VerificationRepository) key(email string) string {
	return fmt.Sprintf("verify:%s", email)
}

// Store saves a code for the email, replacing any previous one.
func (r *VerificationRepository) Store(ctx context.Context, email, code string) error {
	if err := r.client.Set(ctx, r.key(email), code, r.ttl).Err(); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the stored code. Returns an empty
// string when no unexpired code exists.
func (r *VerificationRepository) Consume(ctx context.Context, email string) (string, error) {
	code, err := r.client.GetDel(ctx, r.key(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("consume verification code: %w", err)
	}
	return code, nil
}
