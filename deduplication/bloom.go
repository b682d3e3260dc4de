package deduplication

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"contentorbit/config"
)

// RedisBloom is a minimal Redis-backed Bloom wrapper using RedisBloom
// commands. It is the fast path in front of the SQLite URL history.
type RedisBloom struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisBloom connects to Redis and reserves the filter when absent
func NewRedisBloom(cfg config.RedisConfig, key string, ttl time.Duration) (*RedisBloom, error) {
	if key == "" {
		key = "contentorbit:bloom"
	}
	if ttl <= 0 {
		ttl = config.DedupWindow
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	rb := &RedisBloom{client: client, key: key, ttl: ttl}

	// BF.RESERVE is best-effort: without the RedisBloom module BF.ADD
	// may still auto-create the filter.
	exists, err := client.Exists(ctx, key).Result()
	if err == nil && exists == 0 {
		client.Do(ctx, "BF.RESERVE", key,
			fmt.Sprintf("%f", config.BloomErrorRate), config.BloomCapacity)
	}

	return rb, nil
}

// Close closes the underlying Redis client
func (r *RedisBloom) Close() error {
	return r.client.Close()
}

// Exists checks if the hashed value is present in the bloom filter
func (r *RedisBloom) Exists(hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.client.Do(ctx, "BF.EXISTS", r.key, hash).Result()
	if err != nil {
		return false, err
	}

	switch v := res.(type) {
	case int64:
		return v == 1, nil
	case string:
		return v == "1", nil
	default:
		return false, fmt.Errorf("unexpected BF.EXISTS response type %T: %v", res, res)
	}
}

// Add inserts the hashed value and refreshes the key TTL, so the filter
// stays alive for ttl after the most recent insertion.
func (r *RedisBloom) Add(hash string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Do(ctx, "BF.ADD", r.key, hash).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, r.key, r.ttl).Err()
}

// HashURL returns the sha256 hex of the normalized URL. This is the
// authoritative dedup key stored in posted_urls.
func HashURL(raw string) string {
	h := sha256.Sum256([]byte(normalizeURL(raw)))
	return hex.EncodeToString(h[:])
}

// HashURLTitle combines normalized URL and title for the bloom filter,
// which also guards against the same story republished under a new slug.
func HashURLTitle(rawURL, title string) string {
	combined := normalizeURL(rawURL) + "|" + normalizeTitle(title)
	h := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(h[:])
}

func normalizeTitle(t string) string {
	t = strings.TrimSpace(t)
	t = strings.ToLower(t)
	return strings.Join(strings.Fields(t), " ")
}

// normalizeURL lowercases scheme and host, drops the fragment, strips
// common tracking params and the trailing slash.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" || lk == "ref" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return strings.TrimRight(u.String(), "/")
}
