package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/freshen-dev/freshen/adapter"
	"github.com/freshen-dev/freshen/adapter/redis"
	"github.com/freshen-dev/freshen/adapter/webhook"
	"github.com/freshen-dev/freshen/cli/config"
	"github.com/freshen-dev/freshen/history"
	"github.com/freshen-dev/freshen/iox"
	"github.com/freshen-dev/freshen/types"
)

// firstOf returns the first non-empty value. Implements the flag-over-config
// precedence used across commands.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// buildLedger creates the build history ledger for the selected backend.
func buildLedger(ctx context.Context, app, backend, path, region, endpoint string, pathStyle bool) (*history.Ledger, error) {
	switch backend {
	case "fs":
		if path == "" {
			return nil, fmt.Errorf("storage path is required for fs backend")
		}
		return history.NewFS(app, path)
	case "s3":
		bucket, prefix := history.ParseS3Path(path)
		return history.NewS3(ctx, app, history.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       region,
			Endpoint:     endpoint,
			UsePathStyle: pathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be fs or s3)", backend)
	}
}

// buildAdapter creates the notification adapter named by config, or nil when
// none is configured.
func buildAdapter(cfg *config.Config) (adapter.Adapter, error) {
	ac := cfg.Adapter
	retries := webhook.DefaultRetries
	if ac.Retries != nil {
		retries = *ac.Retries
	}

	switch ac.Type {
	case "":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     ac.URL,
			Channel: ac.Channel,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s (must be webhook or redis)", ac.Type)
	}
}

// notifyAdapter publishes one event through the configured adapter,
// best-effort. A failed or missing adapter never fails the command.
func notifyAdapter(ctx context.Context, cfg *config.Config, eventType, app, buildID, previousID, manifestURL string) {
	a, err := buildAdapter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: adapter unavailable: %v\n", err)
		return
	}
	if a == nil {
		return
	}
	defer iox.DiscardClose(a)

	event := &adapter.UpdateEvent{
		SchemaVersion: types.Version,
		EventType:     eventType,
		App:           app,
		BuildID:       buildID,
		PreviousID:    previousID,
		ManifestURL:   manifestURL,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.Publish(ctx, event); err != nil {
		fmt.Fprintf(os.Stderr, "warning: adapter publish failed: %v\n", err)
	}
}
