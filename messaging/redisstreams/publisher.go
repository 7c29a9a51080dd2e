// Package redisstreams 通过 Redis Streams 发布消息
package redisstreams

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ptvdata/logging"
	"ptvdata/messaging"
)

// client 发布者用到的 go-redis 命令子集，*redis.Client 满足该接口
type client interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Config Redis Streams 发布配置
type Config struct {
	// StreamPrefix 流名前缀，流名为前缀加消息类型
	StreamPrefix string
	// MaxLen 流的近似最大长度，0 表示不裁剪
	MaxLen int64
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{StreamPrefix: "ptv:", MaxLen: 10000}
}

// Publisher 实现 messaging.IPublisher，每条消息一次 XADD
type Publisher struct {
	cfg    Config
	client client
	logger logging.Logger
}

// NewPublisher 创建发布者；客户端由调用方负责关闭
func NewPublisher(c client, cfg Config) *Publisher {
	if cfg.StreamPrefix == "" {
		cfg.StreamPrefix = DefaultConfig().StreamPrefix
	}
	return &Publisher{cfg: cfg, client: c, logger: logging.ComponentLogger("transport.redisstreams")}
}

// Publish 追加消息到对应的流
func (p *Publisher) Publish(ctx context.Context, msg messaging.IMessage) error {
	values, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{Stream: p.streamName(msg.GetType()), Values: values}
	if p.cfg.MaxLen > 0 {
		args.MaxLen = p.cfg.MaxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return err
	}
	p.logger.Debug(ctx, "published message",
		logging.String("stream", args.Stream),
		logging.String("entry", id))
	return nil
}

func (p *Publisher) streamName(messageType string) string {
	return p.cfg.StreamPrefix + messageType
}

func encodeMessage(msg messaging.IMessage) (map[string]any, error) {
	payload, err := json.Marshal(msg.GetPayload())
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(msg.GetMetadata())
	if err != nil {
		return nil, err
	}
	ts := msg.GetTimestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	return map[string]any{
		"id":        msg.GetID(),
		"type":      msg.GetType(),
		"timestamp": ts.UnixNano(),
		"payload":   string(payload),
		"metadata":  string(metadata),
	}, nil
}

// DecodeEntry 解码流中的一条记录，供消费方使用
func DecodeEntry(entry redis.XMessage) (*messaging.Message, error) {
	id, _ := entry.Values["id"].(string)
	msgType, _ := entry.Values["type"].(string)
	payloadRaw, _ := entry.Values["payload"].(string)
	metadataRaw, _ := entry.Values["metadata"].(string)

	var payload any
	if payloadRaw != "" {
		if err := json.Unmarshal([]byte(payloadRaw), &payload); err != nil {
			return nil, err
		}
	}
	metadata := make(map[string]any)
	if metadataRaw != "" {
		if err := json.Unmarshal([]byte(metadataRaw), &metadata); err != nil {
			return nil, err
		}
	}

	// 从 Redis 读回的字段都是字符串
	var ts time.Time
	switch v := entry.Values["timestamp"].(type) {
	case int64:
		ts = time.Unix(0, v).UTC()
	case string:
		if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			ts = time.Unix(0, ns).UTC()
		}
	}
	if id == "" {
		id = entry.ID
	}
	return &messaging.Message{
		ID:        id,
		Type:      msgType,
		Timestamp: ts,
		Payload:   payload,
		Metadata:  metadata,
	}, nil
}
