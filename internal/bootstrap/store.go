package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/socialclone/go-social-backend/config"
	"github.com/socialclone/go-social-backend/internal/auth"
	"github.com/socialclone/go-social-backend/internal/store"
	"github.com/socialclone/go-social-backend/internal/store/firebasedb"
	"github.com/socialclone/go-social-backend/internal/store/memstore"
	"github.com/socialclone/go-social-backend/internal/store/pgstore"
	"github.com/socialclone/go-social-backend/internal/store/redisstore"
)

// OpenStore selects and connects the realtime store driver. For the
// firebase driver the already-initialized Admin SDK clients are
// reused; they may be nil for the other drivers.
func OpenStore(ctx context.Context, cfg *config.Config, firebase *auth.FirebaseClients) (store.Store, error) {
	switch cfg.Store.Driver {
	case "firebase":
		if firebase == nil || firebase.Database == nil {
			return nil, fmt.Errorf("firebase store driver requires the Admin SDK database client")
		}
		return firebasedb.New(firebase.Database, time.Duration(cfg.Store.PollInterval)*time.Second), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Store.RedisAddr,
			DB:   cfg.Store.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return redisstore.New(client), nil

	case "postgres":
		return pgstore.Open(ctx, cfg.Store.PostgresDSN)

	case "memory":
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}
