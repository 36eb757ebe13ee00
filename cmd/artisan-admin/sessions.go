package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakritea/artisan-studio/config"
	redisstore "github.com/prakritea/artisan-studio/internal/adapters/redis"
	"github.com/prakritea/artisan-studio/internal/bootstrap"
	"github.com/prakritea/artisan-studio/internal/domain/studio"
	"github.com/prakritea/artisan-studio/internal/ports"
	"github.com/prakritea/artisan-studio/internal/service"
)

type sessionOptions struct {
	ID      string
	Timeout time.Duration
}

func parseSessionFlags(name string, args []string) (sessionOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := sessionOptions{Timeout: defaultRedisTimeout}
	fs.StringVar(&opts.ID, "id", "", "Session ID (the session_id cookie value)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultRedisTimeout, "Maximum duration to wait for Redis")

	if err := fs.Parse(args); err != nil {
		return sessionOptions{}, err
	}
	opts.ID = strings.TrimSpace(opts.ID)
	if opts.ID == "" {
		return sessionOptions{}, errors.New("--id is required")
	}
	if opts.Timeout <= 0 {
		return sessionOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

// withRedis runs fn with a client for the configured Redis. The memory store
// lives inside the web process, so there is nothing to inspect from here.
func withRedis(cmdCtx *commandContext, timeout time.Duration, fn func(context.Context, redis.UniversalClient) error) error {
	if cmdCtx.Config.Session.Store == config.StoreModeMemory {
		return errors.New("SESSION_STORE=memory keeps state inside the web process; nothing to inspect")
	}

	ctx, cancel := withTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: cmdCtx.Config.Redis, Logger: cmdCtx.Logger})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return fn(ctx, client)
}

func sessionStore(cfg config.SessionConfig, client redis.UniversalClient) *redisstore.SessionStore {
	return redisstore.NewSessionStore(client, redisstore.SessionStoreOptions{Prefix: cfg.KeyPrefix, TTL: cfg.TTL})
}

func runSessionShow(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("session-show", args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		ttl, err := client.TTL(ctx, cmdCtx.Config.Session.KeyPrefix+opts.ID).Result()
		if err != nil {
			return fmt.Errorf("read ttl: %w", err)
		}
		return showSession(ctx, cmdCtx.Out, sessionStore(cmdCtx.Config.Session, client), opts.ID, ttl)
	})
}

func showSession(ctx context.Context, w io.Writer, store ports.SessionStore, id string, ttl time.Duration) error {
	sess, err := store.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return writef(w, "Session %s not found\n", id)
	}
	if err != nil {
		return err
	}

	status := "guest"
	if sess.IsAuthenticated() {
		status = "signed in as " + sess.Username
	}
	if err := writef(w, "Session: %s\nStatus: %s\nCreated: %s\n", sess.ID, status, sess.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	return writef(w, "Expires: %s\n", renderTTL(ttl))
}

func runSessionClear(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("session-clear", args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		sessions := service.NewSessionService(service.SessionServiceOptions{
			Store:  sessionStore(cmdCtx.Config.Session, client),
			Events: redisstore.NewSessionEvents(client, cmdCtx.Logger),
			Logger: cmdCtx.Logger,
		})
		if err := sessions.Clear(ctx, opts.ID); err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Session %s signed out\n", opts.ID)
	})
}

func runFlowShow(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionFlags("flow-show", args)
	if err != nil {
		return err
	}
	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		flows := redisstore.NewFlowStore(client, redisstore.FlowStoreOptions{TTL: cmdCtx.Config.Studio.ImageTTL})
		return showFlow(ctx, cmdCtx.Out, flows, opts.ID)
	})
}

func showFlow(ctx context.Context, w io.Writer, flows ports.FlowStore, id string) error {
	flow, err := flows.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return writef(w, "No studio flow for session %s\n", id)
	}
	if err != nil {
		return err
	}

	if err := writef(w, "Flow: %s\nState: %s\nUpdated: %s\n", flow.ID, flow.State(), flow.UpdatedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	for _, img := range []struct {
		label string
		ref   *studio.ImageRef
	}{
		{"Content", flow.Content},
		{"Style", flow.Style},
		{"Result", flow.Generation.Result},
	} {
		if img.ref == nil {
			continue
		}
		if err := writef(w, "%s: %s (%s, %d bytes)\n", img.label, img.ref.ID, img.ref.ContentType, img.ref.Size); err != nil {
			return err
		}
	}
	if flow.Generation.Failure != "" {
		return writef(w, "Failure: %s\n", flow.Generation.Failure)
	}
	return nil
}

func renderTTL(d time.Duration) string {
	switch {
	case d == -1:
		return "never"
	case d < 0:
		return "unknown"
	default:
		return d.Round(time.Second).String()
	}
}
