package tagstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tagcache/keycodec"
)

var ErrNilClient = errors.New("tagstore: nil redis client")

const (
	tagKeyPrefix = "tag:"
	memberSep    = ":"
)

// TTLFunc resolves the expiry for one tag's set. Return a positive duration
// to align the set with the cache's expiry policy, or <= 0 for no expiry
// (the set then lives until RemoveTag or external cleanup).
type TTLFunc func(tag string) time.Duration

// FixedTTL applies the same expiry to every tag.
func FixedTTL(d time.Duration) TTLFunc {
	return func(string) time.Duration { return d }
}

// Redis shares the tag index between replicas: one Redis SET per tag, keyed
// "tag:<tag>", members "<cacheName>:<encodedKey>". Redis set semantics give
// per-add atomicity and deduplication; no client-side locking.
//
// Cache names must not contain ":" - members split on the first separator,
// so keys containing it are preserved verbatim but cache names are not.
// Lookups return keys in their encoded string form; pair with
// keycodec.Strings on the caches so eviction agrees on the representation.
type Redis struct {
	rdb         goredis.UniversalClient
	keys        keycodec.Codec
	ttl         TTLFunc
	closeClient bool
}

var _ Store = (*Redis)(nil)

type RedisConfig struct {
	Client      goredis.UniversalClient
	Keys        keycodec.Codec // nil => keycodec.Strings{}
	TTL         TTLFunc        // nil => no expiry
	CloseClient bool           // set true only if this store exclusively owns the client
}

func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	keys := cfg.Keys
	if keys == nil {
		keys = keycodec.Strings{}
	}
	return &Redis{
		rdb:         cfg.Client,
		keys:        keys,
		ttl:         cfg.TTL,
		closeClient: cfg.CloseClient,
	}, nil
}

func tagKey(tag string) string { return tagKeyPrefix + tag }

func encodeMember(cacheName, encodedKey string) string {
	return cacheName + memberSep + encodedKey
}

// splitMember splits on the first separator only.
func splitMember(m string) (cacheName, encodedKey string, ok bool) {
	i := strings.Index(m, memberSep)
	if i < 0 {
		return "", "", false
	}
	return m[:i], m[i+1:], true
}

// AddMappings issues one SADD per tag; when a TTL resolves positive the
// EXPIRE is pipelined with it in the same round-trip.
func (s *Redis) AddMappings(ctx context.Context, tags []string, cacheName string, key any) error {
	if len(tags) == 0 {
		return nil
	}
	enc, err := s.keys.EncodeKey(key)
	if err != nil {
		return fmt.Errorf("tagstore: encode key: %w", err)
	}
	member := encodeMember(cacheName, enc)

	_, err = s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, tag := range tags {
			k := tagKey(tag)
			p.SAdd(ctx, k, member)
			if s.ttl != nil {
				if d := s.ttl(tag); d > 0 {
					p.Expire(ctx, k, d)
				}
			}
		}
		return nil
	})
	return err
}

func (s *Redis) KeysForTags(ctx context.Context, tags []string) (map[string][]any, error) {
	grouped := make(map[string]map[string]struct{})
	for _, tag := range tags {
		members, err := s.rdb.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			name, enc, ok := splitMember(m)
			if !ok {
				// foreign write in the tag keyspace; drop it
				continue
			}
			set, exists := grouped[name]
			if !exists {
				set = make(map[string]struct{})
				grouped[name] = set
			}
			set[enc] = struct{}{}
		}
	}

	out := make(map[string][]any, len(grouped))
	for name, set := range grouped {
		keys := make([]any, 0, len(set))
		for k := range set {
			keys = append(keys, k)
		}
		out[name] = keys
	}
	return out, nil
}

func (s *Redis) RemoveTag(ctx context.Context, tag string) error {
	return s.rdb.Del(ctx, tagKey(tag)).Err()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
