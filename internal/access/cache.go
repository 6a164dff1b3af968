package access

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/omnigate/omnigate/internal/pkg/logs"
)

// Cache is the process-wide admission decision engine. Reads (the common
// case) run concurrently under a read lock; rule changes take the write lock
// only for the in-memory mutation, after the durable write has committed.
//
// The cache warms lazily from the Store on first use. If the store is
// unreachable while the cache is cold, checks fail open: availability of
// message flow takes precedence over strict enforcement.
type Cache struct {
	store Store

	mu      sync.RWMutex
	loaded  bool
	rules   map[string]Rule
	buckets map[string]map[RuleType]*typeBucket // scope → type → patterns
}

type typeBucket struct {
	exact    map[string]struct{}
	prefixes map[string]struct{}
}

func NewCache(store Store) *Cache {
	return &Cache{
		store:   store,
		rules:   make(map[string]Rule),
		buckets: make(map[string]map[RuleType]*typeBucket),
	}
}

// Check reports whether the identifier is admitted. instanceScope may be
// empty for a global-only check. Absence of any matching rule means allow
// (default-open); otherwise the more specific match wins, and an exact tie
// favors allow.
func (c *Cache) Check(ctx context.Context, identifier, instanceScope string) bool {
	if strings.TrimSpace(identifier) == "" {
		return true
	}

	if err := c.ensureLoaded(ctx); err != nil {
		logs.CtxWarn(ctx, "[access] rule store unreachable, admitting %s (fail-open): %v", identifier, err)
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	allowScore := c.bestScore(RuleAllow, identifier, instanceScope)
	blockScore := c.bestScore(RuleBlock, identifier, instanceScope)

	if allowScore < 0 && blockScore < 0 {
		return true
	}
	return allowScore >= blockScore
}

// bestScore computes the best match specificity for one rule type across the
// global bucket and the instance bucket. Exact matches score the identifier
// length, prefix matches the prefix length, no match -1.
func (c *Cache) bestScore(ruleType RuleType, identifier, instanceScope string) int {
	score := -1

	scopes := []string{""}
	if instanceScope != "" {
		scopes = append(scopes, instanceScope)
	}

	for _, scope := range scopes {
		byType, ok := c.buckets[scope]
		if !ok {
			continue
		}
		bucket, ok := byType[ruleType]
		if !ok {
			continue
		}

		if _, ok := bucket.exact[identifier]; ok && len(identifier) > score {
			score = len(identifier)
		}
		for prefix := range bucket.prefixes {
			if strings.HasPrefix(identifier, prefix) && len(prefix) > score {
				score = len(prefix)
			}
		}
	}
	return score
}

// AddRule persists the rule first, then updates the in-memory cache. A failed
// durable write leaves the cache untouched.
func (c *Cache) AddRule(ctx context.Context, rule Rule) (Rule, error) {
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if err := c.ensureLoaded(ctx); err != nil {
		return Rule{}, fmt.Errorf("load rules: %w", err)
	}
	if err := c.store.Persist(ctx, rule); err != nil {
		return Rule{}, fmt.Errorf("persist rule: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.rules[rule.ID]; ok {
		c.removeLocked(prev)
	}
	c.insertLocked(rule)
	return rule, nil
}

// RemoveRule deletes from the durable store first, then from the cache.
func (c *Cache) RemoveRule(ctx context.Context, id string) error {
	if err := c.ensureLoaded(ctx); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rule, ok := c.rules[id]; ok {
		c.removeLocked(rule)
	}
	return nil
}

// Rules returns a snapshot of all cached rules.
func (c *Cache) Rules(ctx context.Context) ([]Rule, error) {
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Rule, 0, len(c.rules))
	for _, rule := range c.rules {
		out = append(out, rule)
	}
	return out, nil
}

// Reload forces a full refresh from the durable store.
func (c *Cache) Reload(ctx context.Context) error {
	rules, err := c.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("reload rules: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(rules)
	return nil
}

// ensureLoaded warms the cache on first use. The write lock guarantees a
// single loader; the cache stays cold after a failed load so the next check
// retries.
func (c *Cache) ensureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	rules, err := c.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	c.resetLocked(rules)
	return nil
}

func (c *Cache) resetLocked(rules []Rule) {
	c.rules = make(map[string]Rule, len(rules))
	c.buckets = make(map[string]map[RuleType]*typeBucket)
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			logs.Warn("[access] skipping malformed rule %s: %v", rule.ID, err)
			continue
		}
		c.insertLocked(rule)
	}
	c.loaded = true
}

func (c *Cache) insertLocked(rule Rule) {
	c.rules[rule.ID] = rule
	c.bucketLocked(rule)
}

func (c *Cache) bucketLocked(rule Rule) {
	byType, ok := c.buckets[rule.Scope]
	if !ok {
		byType = make(map[RuleType]*typeBucket, 2)
		c.buckets[rule.Scope] = byType
	}
	bucket, ok := byType[rule.Type]
	if !ok {
		bucket = &typeBucket{
			exact:    make(map[string]struct{}),
			prefixes: make(map[string]struct{}),
		}
		byType[rule.Type] = bucket
	}

	if rule.IsPrefix() {
		bucket.prefixes[rule.Prefix()] = struct{}{}
	} else {
		bucket.exact[rule.Pattern] = struct{}{}
	}
}

// removeLocked rebuilds the buckets from the surviving rules. Two rules can
// share a pattern, type and scope, so deleting the bucket entry directly
// would disable the survivor.
func (c *Cache) removeLocked(rule Rule) {
	delete(c.rules, rule.ID)

	c.buckets = make(map[string]map[RuleType]*typeBucket)
	for _, r := range c.rules {
		c.bucketLocked(r)
	}
}
