package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakritea/artisan-studio/config"
)

const redisPingTimeout = 5 * time.Second

// ConnectRedis dials the configured topology and pings it.
//
//nolint:ireturn // single, sentinel and cluster clients share redis.UniversalClient.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	desc := target.desc
	var client redis.UniversalClient
	if target.cluster {
		client = redis.NewClusterClient(target.opts.Cluster())
	} else {
		client = redis.NewUniversalClient(target.opts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis %s: %w", redactURL(desc), pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", redactURL(desc))
	}
	return client, nil
}

// redisTarget is a resolved Redis topology. desc names it for logs and may
// carry credentials.
type redisTarget struct {
	opts    *redis.UniversalOptions
	cluster bool
	desc    string
}

// redisOptions maps RedisConfig onto go-redis options.
func redisOptions(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		opts := &redis.UniversalOptions{
			Addrs:    trimAll(cfg.ClusterNodes),
			Password: cfg.Password,
		}
		if len(opts.Addrs) == 0 {
			// A lone URI seeds cluster discovery.
			if err := applyURI(opts, cfg.URI); err != nil {
				return redisTarget{}, fmt.Errorf("parse redis cluster url: %w", err)
			}
			opts.DB = 0
		}
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis cluster mode needs CLUSTER_NODES or URI")
		}
		return redisTarget{opts: opts, cluster: true, desc: "cluster:" + strings.Join(opts.Addrs, ",")}, nil

	case cfg.UseSentinel:
		nodes := trimAll(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return redisTarget{}, errors.New("redis sentinel mode needs SENTINEL_NODES")
		}
		if strings.TrimSpace(cfg.SentinelMasterName) == "" {
			return redisTarget{}, errors.New("redis sentinel mode needs SENTINEL_MASTER_NAME")
		}
		opts := &redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		}
		return redisTarget{opts: opts, desc: "sentinel:" + cfg.SentinelMasterName}, nil

	default:
		opts := &redis.UniversalOptions{Password: cfg.Password, DB: cfg.DB}
		if err := applyURI(opts, cfg.URI); err != nil {
			return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
		}
		if len(opts.Addrs) == 0 {
			return redisTarget{}, errors.New("redis URI is required")
		}
		return redisTarget{opts: opts, desc: strings.TrimSpace(cfg.URI)}, nil
	}
}

// applyURI fills the address from uri, which is either host:port or a
// redis:// / rediss:// URL. Credentials and DB in a URL win over opts.
func applyURI(opts *redis.UniversalOptions, uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "redis://") && !strings.HasPrefix(uri, "rediss://") {
		opts.Addrs = []string{uri}
		return nil
	}

	parsed, err := redis.ParseURL(uri)
	if err != nil {
		return err
	}
	opts.Addrs = []string{parsed.Addr}
	opts.Username = parsed.Username
	if parsed.Password != "" {
		opts.Password = parsed.Password
	}
	opts.DB = parsed.DB
	opts.TLSConfig = parsed.TLSConfig
	return nil
}

func trimAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
