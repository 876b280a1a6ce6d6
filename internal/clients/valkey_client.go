package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/spacesedan/feedbackflow/config"
)

var (
	valkeyInstance *ValkeyClient
	valkeyErr      error
	valkeyOnce     sync.Once
)

type ValkeyClient struct {
	Client valkey.Client
	cfg    config.ValkeyConfig
	mu     sync.Mutex
}

// InitValkey connects once per process and returns the shared client.
func InitValkey(cfg config.ValkeyConfig) (*ValkeyClient, error) {
	valkeyOnce.Do(func() {
		client, err := newValkey(cfg)
		if err != nil {
			valkeyErr = err
			return
		}
		slog.Info("[ValkeyClient] Successfully connected to valkey",
			slog.String("address", cfg.Address))
		valkeyInstance = &ValkeyClient{Client: client, cfg: cfg}
	})
	return valkeyInstance, valkeyErr
}

func newValkey(cfg config.ValkeyConfig) (valkey.Client, error) {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := newValkey(vc.cfg)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}
	vc.Client.Close()
	vc.Client = client
	slog.Info("[ValkeyClient] Valkey client recreated")
}

func (vc *ValkeyClient) client() valkey.Client {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.Client
}

func (vc *ValkeyClient) Close() {
	vc.client().Close()
}

func (vc *ValkeyClient) Ping(ctx context.Context) error {
	c := vc.client()
	return c.Do(ctx, c.B().Ping().Build()).Error()
}

// MarkProcessed remembers a message id for its source for a day.
func (vc *ValkeyClient) MarkProcessed(ctx context.Context, source string, id string) error {
	key := processedKey(source)
	build := func(c valkey.Client) []valkey.Completed {
		return []valkey.Completed{
			c.B().Sadd().Key(key).Member(id).Build(),
			c.B().Expire().Key(key).Seconds(VALKEY_PROCESSED_TTL_SECONDS).Build(),
		}
	}

	for _, res := range vc.DoMultiWithRetry(ctx, build, VALKEY_RETRIES) {
		if err := res.Error(); err != nil {
			return err
		}
	}

	slog.Debug("[ValkeyClient] Marked message processed",
		slog.String("source", source),
		slog.String("id", id))
	return nil
}

// IsProcessed treats lookup errors as not processed so messages are
// analyzed rather than dropped.
func (vc *ValkeyClient) IsProcessed(ctx context.Context, source string, id string) bool {
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Sismember().Key(processedKey(source)).Member(id).Build()
	}, VALKEY_RETRIES)

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

// GetCached returns the cached value for key, or false on a miss.
func (vc *ValkeyClient) GetCached(ctx context.Context, key string) ([]byte, bool, error) {
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Get().Key(key).Build()
	}, VALKEY_RETRIES)

	value, err := res.ToString()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (vc *ValkeyClient) SetCached(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Set().Key(key).Value(string(value)).ExSeconds(seconds).Build()
	}, VALKEY_RETRIES).Error()
}

func (vc *ValkeyClient) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Del().Key(keys...).Build()
	}, VALKEY_RETRIES).Error()
}

func processedKey(source string) string {
	if source == "" {
		source = "default"
	}
	return VALKEY_PROCESSED_KEY_PREFIX + strings.ToLower(source)
}

// DoMultiWithRetry rebuilds the commands on every attempt since executed
// commands are recycled by the client.
func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, build func(valkey.Client) []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	_ = retry(ctx, retries, VALKEY_RETRY_DELAY, func(attempt int) error {
		c := vc.client()
		results = c.DoMulti(ctx, build(c)...)
		for _, r := range results {
			if err := r.Error(); err != nil {
				vc.attemptFailed("Do Multi", attempt, err)
				return err
			}
		}
		return nil
	})

	return results
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Client) valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult

	_ = retry(ctx, retries, VALKEY_RETRY_DELAY, func(attempt int) error {
		c := vc.client()
		result = c.Do(ctx, build(c))
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			return nil
		}
		vc.attemptFailed("Do", attempt, err)
		return err
	})

	return result
}

func (vc *ValkeyClient) attemptFailed(op string, attempt int, err error) {
	slog.Warn("[ValkeyClient] "+op+" failed",
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()))
	if isConnectionError(err) {
		vc.recreateClient()
	}
}

// retry calls fn up to attempts times, waiting delay between failures. It
// does not wait after the last attempt and gives up once ctx is done. The
// error of the last call is returned.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func(attempt int) error) error {
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(i); err == nil || i == attempts {
			return err
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
