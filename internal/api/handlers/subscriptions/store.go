package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"pennypilot/internal/repositories/redisconn"
	"pennypilot/internal/repositories/sqlconnect"

	"github.com/redis/go-redis/v9"
)

// sqlCustomerStore keeps the stripe customer id on the users row, keyed by
// the email used as the linking key.
type sqlCustomerStore struct{}

func (s *sqlCustomerStore) StripeCustomerID(ctx context.Context, email string) (string, error) {
	db := sqlconnect.DB
	if db == nil {
		return "", errors.New("DB is not initialized")
	}

	var customerID sql.NullString
	err := db.QueryRowContext(ctx, "SELECT stripe_customer_id FROM users WHERE email = ?", email).Scan(&customerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	if !customerID.Valid {
		return "", nil
	}
	return customerID.String, nil
}

func (s *sqlCustomerStore) SaveStripeCustomerID(ctx context.Context, email, customerID string) error {
	db := sqlconnect.DB
	if db == nil {
		return errors.New("DB is not initialized")
	}

	_, err := db.ExecContext(ctx, "UPDATE users SET stripe_customer_id = ? WHERE email = ?", customerID, email)
	return err
}

const lockTTL = 10 * time.Second

// redisLocker takes a SETNX lease per key. The TTL bounds how long a crashed
// holder can block others.
type redisLocker struct {
	client *redis.Client
}

func (l *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:" + key

	ok, err := l.client.SetNX(ctx, lockKey, 1, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock failed: %w", err)
	}
	if !ok {
		// Busy-wait briefly for the holder to finish; the lease expiring
		// also releases us.
		deadline := time.Now().Add(lockTTL)
		for time.Now().Before(deadline) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
			ok, err = l.client.SetNX(ctx, lockKey, 1, lockTTL).Result()
			if err != nil {
				return nil, fmt.Errorf("redis lock failed: %w", err)
			}
			if ok {
				break
			}
		}
		if !ok {
			return nil, errors.New("timed out waiting for lock")
		}
	}

	return func() {
		l.client.Del(context.Background(), lockKey)
	}, nil
}

// localLocker is the single-process fallback when Redis is unavailable.
type localLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLocalLocker() *localLocker {
	return &localLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *localLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

func newDefaultLocker() Locker {
	if redisconn.Client != nil {
		return &redisLocker{client: redisconn.Client}
	}
	return newLocalLocker()
}
