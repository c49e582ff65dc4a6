package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Kosench/shortlink/internal/database"
)

// Open connects to the store named by uri and returns a ready Backend.
// The scheme selects the implementation.
func Open(ctx context.Context, uri string, timeout time.Duration) (Backend, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid storage uri: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "postgres", "postgresql":
		db, err := database.Connect(ctx, uri, timeout)
		if err != nil {
			return nil, err
		}
		return NewPostgresLinkRepository(db), nil

	case "mongodb", "mongodb+srv":
		client, collection, err := database.ConnectMongo(ctx, uri, timeout)
		if err != nil {
			return nil, err
		}
		return NewMongoLinkRepository(client, collection), nil

	case "redis", "rediss":
		// go-redis rejects unknown options, so namespace is stripped first
		query := parsed.Query()
		namespace := query.Get("namespace")
		query.Del("namespace")
		parsed.RawQuery = query.Encode()

		client, err := database.ConnectRedis(ctx, parsed.String(), timeout)
		if err != nil {
			return nil, err
		}
		return NewRedisLinkRepository(client, namespace), nil

	case "memory":
		return NewMemoryLinkRepository(), nil

	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", parsed.Scheme)
	}
}
