// Package cache 提供进程内的泛型 LRU 缓存，条目在写入后经过 TTL 失效
//
// 引用数据快照由 refcache 放在这里，过期后由下一次读取触发重新加载。
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache 通用泛型缓存，并发安全
type Cache[K comparable, V any] struct {
	name   string
	config Config

	items   map[K]*list.Element
	lruList *list.List // 最近使用的在前

	mu    sync.Mutex
	stats Stats
}

type entry[K comparable, V any] struct {
	key      K
	value    V
	storedAt time.Time
}

// Config 缓存配置
type Config struct {
	Name string

	// MaxSize 最大条目数，0 表示不限制
	MaxSize int

	// TTL 写入后的有效期，0 表示永不过期
	TTL time.Duration

	// Now 时钟，测试时替换；为空时使用 time.Now
	Now func() time.Time
}

// Stats 缓存统计
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Expires   int64
	Size      int
}

// New 创建缓存
func New[K comparable, V any](config Config) *Cache[K, V] {
	if config.Name == "" {
		config.Name = "unnamed"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Cache[K, V]{
		name:    config.Name,
		config:  config,
		items:   make(map[K]*list.Element),
		lruList: list.New(),
	}
}

// Name 缓存名称
func (c *Cache[K, V]) Name() string { return c.name }

// Get 获取未过期的值
func (c *Cache[K, V]) Get(key K) (value V, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return value, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.remove(el)
		c.stats.Misses++
		c.stats.Expires++
		return value, false
	}
	c.lruList.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Set 写入值并重置其有效期
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.config.Now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.storedAt = now
		c.lruList.MoveToFront(el)
		return
	}
	if c.config.MaxSize > 0 && len(c.items) >= c.config.MaxSize {
		if oldest := c.lruList.Back(); oldest != nil {
			c.remove(oldest)
			c.stats.Evictions++
		}
	}
	c.items[key] = c.lruList.PushFront(&entry[K, V]{key: key, value: value, storedAt: now})
}

// Delete 删除条目，返回条目是否存在
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(el)
	return true
}

// Len 当前条目数（含尚未被读取清理的过期条目）
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats 返回统计副本
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.items)
	return s
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	if c.config.TTL <= 0 {
		return false
	}
	return c.config.Now().Sub(e.storedAt) >= c.config.TTL
}

// remove 需要持锁调用
func (c *Cache[K, V]) remove(el *list.Element) {
	e := el.Value.(*entry[K, V])
	c.lruList.Remove(el)
	delete(c.items, e.key)
}
