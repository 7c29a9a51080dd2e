package messaging

import (
	"context"
	"sync"
)

// MemoryPublisher 把消息保存在内存中，用于测试与本地试运行
type MemoryPublisher struct {
	mu       sync.Mutex
	messages []IMessage
	// Err 非 nil 时 Publish 返回该错误
	Err error
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(ctx context.Context, msg IMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.messages = append(p.messages, msg)
	return nil
}

// Messages 返回已发布消息的副本
func (p *MemoryPublisher) Messages() []IMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]IMessage(nil), p.messages...)
}
