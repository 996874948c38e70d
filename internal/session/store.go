package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// Record is the server-side session state resolved from an opaque token.
// The client only ever holds the token; identity and role are never read
// from anything the client can edit.
type Record struct {
	UserID uuid.UUID `json:"user_id"`
	Login  string    `json:"login"`
	Role   string    `json:"role"`
}

// Store manages session records.
type Store interface {
	Create(ctx context.Context, record Record) (token string, err error)
	Get(ctx context.Context, token string) (*Record, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a session store backed by redis with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID uuid.UUID) string {
	return "user_sessions:" + userID.String()
}

// Create stores the record under a fresh opaque token and indexes it by user
// so every session of a user can be revoked at once.
func (s *redisStore) Create(ctx context.Context, record Record) (string, error) {
	token := uuid.NewString()

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	userKey := userSessionsKey(record.UserID)
	if err := s.client.SAdd(ctx, userKey, token).Err(); err != nil {
		return "", fmt.Errorf("failed to index session: %w", err)
	}
	s.client.Expire(ctx, userKey, s.ttl)

	return token, nil
}

func (s *redisStore) Get(ctx context.Context, token string) (*Record, error) {
	payload, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	record := &Record{}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}

	return record, nil
}

// Delete removes a single session. Deleting an absent token is a no-op.
func (s *redisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUser revokes every session of the user, used on account deletion.
func (s *redisStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	userKey := userSessionsKey(userID)

	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	for _, token := range tokens {
		if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	if err := s.client.Del(ctx, userKey).Err(); err != nil {
		return fmt.Errorf("failed to delete session index: %w", err)
	}

	return nil
}
