// Package lock 提供发布前的咨询锁
//
// 同一键在任意时刻只能被一个持有者占有。Local 只在进程内有效，Redis 跨进程。
package lock

import (
	"context"
	"strings"
)

// Unlock 释放锁，可重复调用
type Unlock func()

// ILocker 咨询锁
type ILocker interface {
	// Lock 获取 key 的排他锁；在等待上限或 ctx 结束前拿不到锁时返回 LOCK_TIMEOUT
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Key 以冒号拼接锁键
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
