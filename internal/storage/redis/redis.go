package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"account_service/internal/models"
	"account_service/internal/verification"

	"github.com/redis/go-redis/v9"
)

// RecordStore is the shared-cache implementation of verification.RecordStore,
// for deployments running more than one API instance.
type RecordStore struct {
	client *redis.Client
}

var _ verification.RecordStore = (*RecordStore)(nil)

func New(ctx context.Context, addr, pass string, db int) (*RecordStore, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RecordStore{
		client: client,
	}, nil
}

func key(email string) string {
	return fmt.Sprintf("signup:pending:%s", email)
}

func (r *RecordStore) Get(ctx context.Context, email string) (verification.Record, bool, error) {
	const op = "storage.redis.Get"

	fields, err := r.client.HGetAll(ctx, key(email)).Result()
	if err != nil {
		return verification.Record{}, false, fmt.Errorf("%s: %w", op, err)
	}

	if len(fields) == 0 {
		return verification.Record{}, false, nil
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return verification.Record{}, false, fmt.Errorf("%s: bad created_at: %w", op, err)
	}

	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return verification.Record{}, false, fmt.Errorf("%s: bad expires_at: %w", op, err)
	}

	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return verification.Record{}, false, fmt.Errorf("%s: bad attempts: %w", op, err)
	}

	rec := verification.Record{
		Code: fields["code"],
		UserData: models.PendingUser{
			Name:     fields["name"],
			Email:    fields["email"],
			PassHash: []byte(fields["pass_hash"]),
		},
		CreatedAt: time.Unix(createdAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
		Attempts:  attempts,
	}

	return rec, true, nil
}

func (r *RecordStore) Set(ctx context.Context, email string, rec verification.Record, ttl time.Duration) error {
	const op = "storage.redis.Set"

	data := map[string]interface{}{
		"code":       rec.Code,
		"name":       rec.UserData.Name,
		"email":      rec.UserData.Email,
		"pass_hash":  string(rec.UserData.PassHash),
		"created_at": rec.CreatedAt.Unix(),
		"expires_at": rec.ExpiresAt.Unix(),
		"attempts":   rec.Attempts,
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, key(email))
	pipe.HSet(ctx, key(email), data)
	pipe.Expire(ctx, key(email), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RecordStore) Delete(ctx context.Context, email string) error {
	const op = "storage.redis.Delete"

	if err := r.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RecordStore) Close() {
	r.client.Close()
}
