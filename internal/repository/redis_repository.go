package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

// Both scripts run atomically on the server, which gives Redis the same
// insert-if-absent and increment-and-fetch guarantees as the other stores.
var (
	insertLinkScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'code', ARGV[1], 'url', ARGV[2], 'clicks', ARGV[3], 'created_at', ARGV[4])
redis.call('SADD', KEYS[2], ARGV[1])
return 1
`)

	incrementClicksScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
redis.call('HINCRBY', KEYS[1], 'clicks', 1)
return redis.call('HGETALL', KEYS[1])
`)
)

type RedisLinkRepository struct {
	client *redis.Client
	keys   *KeyBuilder
}

var _ Backend = (*RedisLinkRepository)(nil)

func NewRedisLinkRepository(client *redis.Client, namespace string) *RedisLinkRepository {
	return &RedisLinkRepository{
		client: client,
		keys:   NewKeyBuilder(namespace),
	}
}

func (r *RedisLinkRepository) Insert(ctx context.Context, link *model.Link) error {
	created, err := insertLinkScript.Run(
		ctx,
		r.client,
		[]string{r.keys.Link(link.Code), r.keys.Index()},
		link.Code,
		link.URL,
		link.Clicks,
		link.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return apperrors.NewStoreError("redis", "insert", err)
	}
	if created == 0 {
		return apperrors.ErrCodeExists
	}
	return nil
}

func (r *RedisLinkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	fields, err := r.client.HGetAll(ctx, r.keys.Link(code)).Result()
	if err != nil {
		return nil, apperrors.NewStoreError("redis", "find", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	return linkFromHash(fields)
}

func (r *RedisLinkRepository) IncrementClicks(ctx context.Context, code string) (*model.Link, error) {
	reply, err := incrementClicksScript.Run(ctx, r.client, []string{r.keys.Link(code)}).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("redis", "increment", err)
	}

	fields := make(map[string]string, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		fields[reply[i]] = reply[i+1]
	}
	return linkFromHash(fields)
}

func (r *RedisLinkRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.client.SCard(ctx, r.keys.Index()).Result()
	if err != nil {
		return 0, apperrors.NewStoreError("redis", "count", err)
	}
	return count, nil
}

func (r *RedisLinkRepository) InsertMany(ctx context.Context, links []*model.Link) (int, error) {
	inserted := 0
	for _, link := range links {
		err := r.Insert(ctx, link)
		if errors.Is(err, apperrors.ErrCodeExists) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (r *RedisLinkRepository) Name() string { return "redis" }

func (r *RedisLinkRepository) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return apperrors.NewStoreError("redis", "ping", err)
	}
	return nil
}

func (r *RedisLinkRepository) Close() error {
	return r.client.Close()
}

func linkFromHash(fields map[string]string) (*model.Link, error) {
	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, apperrors.NewStoreError("redis", "decode", fmt.Errorf("clicks: %w", err))
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, apperrors.NewStoreError("redis", "decode", fmt.Errorf("created_at: %w", err))
	}

	return &model.Link{
		Code:      fields["code"],
		URL:       fields["url"],
		Clicks:    clicks,
		CreatedAt: createdAt,
	}, nil
}
