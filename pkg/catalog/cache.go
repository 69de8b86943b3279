package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/bizauthz/pkg/observability"
)

const (
	tierLRU   = "lru"
	tierRedis = "redis"

	redisKeyPrefix = "bizauthz:permission:"

	// invalidationChannel carries the local keys evicted by a write so that
	// every instance sharing the Redis tier drops its own copies
	invalidationChannel = "bizauthz:permission:invalidate"

	subscribeTimeout = 2 * time.Second
)

// CacheConfig configures a CachedRepository
type CacheConfig struct {
	Size int
	TTL  time.Duration
	// Redis enables the shared second tier when set
	Redis   *redis.Client
	Metrics *observability.Metrics
	Logger  *observability.Logger
}

// CachedRepository is a read-through cache in front of another Repository.
// Lookups by id and by name are cached in a local expiring LRU and, when
// configured, in Redis. Absent entries are never cached. Writes invalidate
// both tiers after the underlying store accepts them, and are broadcast over
// Redis pub/sub so other instances evict their local copies. When the
// subscription cannot be established the local tier is bypassed.
type CachedRepository struct {
	next    Repository
	local   *lru.LRU[string, *Permission]
	redis   *redis.Client
	ttl     time.Duration
	group   singleflight.Group
	metrics *observability.Metrics
	logger  *observability.Logger

	// mu orders local fills against evictions; generation is bumped by every
	// eviction so a fill that loaded before it is discarded
	mu         sync.Mutex
	generation uint64
	useLocal   bool

	pubsub *redis.PubSub
	done   chan struct{}
}

// NewCachedRepository wraps next with the configured cache tiers
func NewCachedRepository(next Repository, config CacheConfig) *CachedRepository {
	size := config.Size
	if size < 10 {
		size = 10
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	c := &CachedRepository{
		next:     next,
		local:    lru.NewLRU[string, *Permission](size, nil, ttl),
		redis:    config.Redis,
		ttl:      ttl,
		metrics:  config.Metrics,
		logger:   logger,
		useLocal: true,
	}
	if c.redis != nil {
		c.subscribe()
	}
	return c
}

// subscribe listens for evictions published by other instances
func (c *CachedRepository) subscribe() {
	ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
	defer cancel()

	pubsub := c.redis.Subscribe(ctx, invalidationChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		c.useLocal = false
		c.logger.WithError(err).Warn("failed to subscribe to cache invalidations, local cache tier disabled")
		return
	}

	c.pubsub = pubsub
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		for msg := range pubsub.Channel() {
			var keys []string
			if err := json.Unmarshal([]byte(msg.Payload), &keys); err != nil {
				c.logger.WithError(err).Warn("ignoring malformed cache invalidation")
				continue
			}
			c.evictLocal(keys)
		}
	}()
}

// Close stops the invalidation listener
func (c *CachedRepository) Close() error {
	if c.pubsub == nil {
		return nil
	}
	err := c.pubsub.Close()
	<-c.done
	c.pubsub = nil
	return err
}

func idKey(id string) string     { return "id:" + id }
func nameKey(name string) string { return "name:" + name }

func (c *CachedRepository) Create(ctx context.Context, p *Permission) error {
	if err := c.next.Create(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID, p.Name)
	return nil
}

func (c *CachedRepository) FindByID(ctx context.Context, id string) (*Permission, error) {
	return c.lookup(ctx, idKey(id), func() (*Permission, error) {
		return c.next.FindByID(ctx, id)
	})
}

func (c *CachedRepository) FindByName(ctx context.Context, name string) (*Permission, error) {
	return c.lookup(ctx, nameKey(name), func() (*Permission, error) {
		return c.next.FindByName(ctx, name)
	})
}

func (c *CachedRepository) Update(ctx context.Context, p *Permission) error {
	if err := c.next.Update(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.ID, p.Name)
	return nil
}

func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	existing, err := c.next.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.next.Delete(ctx, id); err != nil {
		return err
	}

	name := ""
	if existing != nil {
		name = existing.Name
	}
	c.invalidate(ctx, id, name)
	return nil
}

// List is not cached
func (c *CachedRepository) List(ctx context.Context, q ListQuery) ([]Permission, int, error) {
	return c.next.List(ctx, q)
}

// Stats is not cached
func (c *CachedRepository) Stats(ctx context.Context) (Stats, error) {
	return c.next.Stats(ctx)
}

func (c *CachedRepository) lookup(ctx context.Context, key string, load func() (*Permission, error)) (*Permission, error) {
	if c.useLocal {
		if p, ok := c.local.Get(key); ok {
			c.metrics.RecordCacheHit(tierLRU)
			return p.clone(), nil
		}
		c.metrics.RecordCacheMiss(tierLRU)
	}

	gen := c.currentGeneration()
	if p := c.getRedis(ctx, key); p != nil {
		c.metrics.RecordCacheHit(tierRedis)
		c.storeLocal(gen, p)
		return p.clone(), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		gen := c.currentGeneration()
		p, err := load()
		if err != nil || p == nil {
			return p, err
		}
		c.store(ctx, gen, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	p, _ := v.(*Permission)
	return p.clone(), nil
}

func (c *CachedRepository) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// storeLocal caches p locally unless an eviction happened after gen was read.
// Reports whether p was stored.
func (c *CachedRepository) storeLocal(gen uint64, p *Permission) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	if c.useLocal {
		cached := p.clone()
		c.local.Add(idKey(p.ID), cached)
		c.local.Add(nameKey(p.Name), cached)
	}
	return true
}

func (c *CachedRepository) store(ctx context.Context, gen uint64, p *Permission) {
	if !c.storeLocal(gen, p) || c.redis == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.WithError(err).Warn("failed to marshal permission for cache")
		return
	}
	pipe := c.redis.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+idKey(p.ID), data, c.ttl)
	pipe.Set(ctx, redisKeyPrefix+nameKey(p.Name), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WithError(err).Warn("failed to populate redis cache")
	}
}

func (c *CachedRepository) getRedis(ctx context.Context, key string) *Permission {
	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		c.metrics.RecordCacheMiss(tierRedis)
		return nil
	}
	if err != nil {
		c.metrics.RecordCacheMiss(tierRedis)
		c.logger.WithError(err).Warn("redis get failed")
		return nil
	}

	var p Permission
	if err := json.Unmarshal(data, &p); err != nil {
		// corrupt entry
		c.redis.Del(ctx, redisKeyPrefix+key)
		c.metrics.RecordCacheMiss(tierRedis)
		return nil
	}
	return &p
}

func (c *CachedRepository) invalidate(ctx context.Context, id, name string) {
	keys := []string{idKey(id)}
	if name != "" {
		keys = append(keys, nameKey(name))
	}

	c.evictLocal(keys)
	for _, key := range keys {
		c.group.Forget(key)
	}

	if c.redis == nil {
		return
	}
	redisKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		redisKeys = append(redisKeys, redisKeyPrefix+key)
	}
	if err := c.redis.Del(ctx, redisKeys...).Err(); err != nil {
		c.logger.WithError(err).WithField("permission_id", id).Warn("failed to invalidate redis cache")
	}

	payload, err := json.Marshal(keys)
	if err != nil {
		return
	}
	if err := c.redis.Publish(ctx, invalidationChannel, payload).Err(); err != nil {
		c.logger.WithError(err).WithField("permission_id", id).Warn("failed to publish cache invalidation")
	}
}

func (c *CachedRepository) evictLocal(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	for _, key := range keys {
		c.local.Remove(key)
	}
}
