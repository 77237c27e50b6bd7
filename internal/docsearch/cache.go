package docsearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

const defaultAnswerCacheTTL = 10 * time.Minute

// AnswerCache memoizes synthesized answers per organization and normalized
// question. A nil redis client disables caching; every method degrades to a
// miss so the pipeline works identically without Redis.
type AnswerCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewAnswerCache creates a cache over the given client. A zero ttl means the
// default.
func NewAnswerCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *AnswerCache {
	if ttl <= 0 {
		ttl = defaultAnswerCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AnswerCache{redis: client, ttl: ttl, logger: logger}
}

// Get returns the cached response for the query, or (nil, false) on a miss.
func (c *AnswerCache) Get(ctx context.Context, orgID, query string) (*ChatResponse, bool) {
	if c == nil || c.redis == nil {
		return nil, false
	}

	payload, err := c.redis.Get(ctx, c.key(orgID, query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("answer cache read failed", "error", err)
		}
		return nil, false
	}

	var resp ChatResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.logger.Warn("answer cache entry corrupt, dropping", "error", err)
		c.redis.Del(ctx, c.key(orgID, query))
		return nil, false
	}
	return &resp, true
}

// Put stores a successful response. Failures are logged and swallowed; the
// cache is an optimization, never a dependency.
func (c *AnswerCache) Put(ctx context.Context, orgID, query string, resp *ChatResponse) {
	if c == nil || c.redis == nil || resp == nil || !resp.Success {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("answer cache marshal failed", "error", err)
		return
	}
	if err := c.redis.Set(ctx, c.key(orgID, query), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("answer cache write failed", "error", err)
	}
}

func (c *AnswerCache) key(orgID, query string) string {
	digest := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("docsearch:answer:%s:%s", orgID, hex.EncodeToString(digest[:]))
}
