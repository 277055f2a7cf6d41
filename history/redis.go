package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists threads in Redis: one JSON hash entry per thread under
// <prefix>thread:<id>, the message log as a JSON-encoded list under
// <prefix>messages:<id>, and a set of known thread ids under <prefix>threads.
// Suitable for distributed deployments sharing history across processes.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisOptions configure the Redis store.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string // default "agentpool:"
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(optFns ...func(o *RedisOptions)) (*RedisStore, error) {
	opts := RedisOptions{Addr: "localhost:6379", KeyPrefix: "agentpool:"}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("history: connect to redis: %w", err)
	}

	return &RedisStore{client: client, keyPrefix: opts.KeyPrefix}, nil
}

// NewRedisStoreFromClient wraps an existing client (used by tests against
// miniredis and by callers managing their own connection options).
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "agentpool:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) threadKey(id string) string   { return s.keyPrefix + "thread:" + id }
func (s *RedisStore) messagesKey(id string) string { return s.keyPrefix + "messages:" + id }
func (s *RedisStore) indexKey() string             { return s.keyPrefix + "threads" }

// CreateThread implements Store.
func (s *RedisStore) CreateThread(ctx context.Context, t Thread) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("history: marshal thread: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.threadKey(t.ID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), t.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// GetThread implements Store.
func (s *RedisStore) GetThread(ctx context.Context, id string) (Thread, error) {
	data, err := s.client.Get(ctx, s.threadKey(id)).Bytes()
	if err == redis.Nil {
		return Thread{}, ErrThreadNotFound
	}
	if err != nil {
		return Thread{}, err
	}
	var t Thread
	if err := json.Unmarshal(data, &t); err != nil {
		return Thread{}, fmt.Errorf("history: decode thread: %w", err)
	}
	return t, nil
}

// ListThreads implements Store.
func (s *RedisStore) ListThreads(ctx context.Context) ([]Thread, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Thread, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetThread(ctx, id)
		if err == ErrThreadNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// DeleteThread implements Store.
func (s *RedisStore) DeleteThread(ctx context.Context, id string) error {
	removed, err := s.client.SRem(ctx, s.indexKey(), id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrThreadNotFound
	}
	return s.client.Del(ctx, s.threadKey(id), s.messagesKey(id)).Err()
}

// AppendMessage implements Store.
func (s *RedisStore) AppendMessage(ctx context.Context, msg Message) error {
	if err := s.requireThread(ctx, msg.ThreadID); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("history: marshal message: %w", err)
	}
	return s.client.RPush(ctx, s.messagesKey(msg.ThreadID), data).Err()
}

// GetMessages implements Store.
func (s *RedisStore) GetMessages(ctx context.Context, threadID string) ([]Message, error) {
	if err := s.requireThread(ctx, threadID); err != nil {
		return nil, err
	}
	raw, err := s.client.LRange(ctx, s.messagesKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("history: decode message: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// ReplaceMessages implements Store.
func (s *RedisStore) ReplaceMessages(ctx context.Context, threadID string, msgs []Message) error {
	if err := s.requireThread(ctx, threadID); err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.messagesKey(threadID))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("history: marshal message: %w", err)
		}
		pipe.RPush(ctx, s.messagesKey(threadID), data)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close implements Store.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) requireThread(ctx context.Context, id string) error {
	ok, err := s.client.SIsMember(ctx, s.indexKey(), id).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrThreadNotFound
	}
	return nil
}
