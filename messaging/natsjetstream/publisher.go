// Package natsjetstream 通过 NATS JetStream 发布消息
package natsjetstream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"ptvdata/logging"
	"ptvdata/messaging"
)

// Config JetStream 发布配置
type Config struct {
	Stream        string
	SubjectPrefix string

	// 可选：流参数
	Retention         string // limits|interest|workqueue（默认 limits）
	MaxAge            time.Duration
	MaxBytes          int64 // 0 表示不设置
	Replicas          int   // 0 表示默认
	MaxMsgsPerSubject int64 // 默认 -1
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Stream:            "PTV_NOTIFICATIONS",
		SubjectPrefix:     "ptv.",
		Retention:         "limits",
		MaxAge:            30 * 24 * time.Hour,
		MaxMsgsPerSubject: -1,
	}
}

// jetStream 发布者用到的 JetStream 能力；nats.JetStreamContext 满足该接口
type jetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// Publisher 实现 messaging.IPublisher
//
// 第一次发布前确保流存在；消息 ID 写入 Nats-Msg-Id 头，由 JetStream 去重。
type Publisher struct {
	cfg    Config
	js     jetStream
	logger logging.Logger

	once      sync.Once
	streamErr error
}

// NewPublisher 基于已建立的连接创建发布者
func NewPublisher(conn *nats.Conn, cfg Config) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, err
	}
	return newPublisher(js, cfg), nil
}

func newPublisher(js jetStream, cfg Config) *Publisher {
	def := DefaultConfig()
	if cfg.Stream == "" {
		cfg.Stream = def.Stream
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = def.SubjectPrefix
	}
	if cfg.MaxMsgsPerSubject == 0 {
		cfg.MaxMsgsPerSubject = def.MaxMsgsPerSubject
	}
	return &Publisher{
		cfg:    cfg,
		js:     js,
		logger: logging.ComponentLogger("transport.nats"),
	}
}

// Publish 发布消息并等待 JetStream 确认
func (p *Publisher) Publish(ctx context.Context, msg messaging.IMessage) error {
	if err := p.ensureStream(); err != nil {
		return err
	}
	data, err := marshalMessage(msg)
	if err != nil {
		return err
	}
	m := nats.NewMsg(p.subjectName(msg.GetType()))
	m.Data = data
	if id := msg.GetID(); id != "" {
		m.Header.Set(nats.MsgIdHdr, id)
	}
	ack, err := p.js.PublishMsg(m, nats.Context(ctx))
	if err != nil {
		return err
	}
	p.logger.Debug(ctx, "published message",
		logging.String("subject", m.Subject),
		logging.String("stream", ack.Stream),
		logging.Int64("seq", int64(ack.Sequence)),
		logging.Bool("duplicate", ack.Duplicate))
	return nil
}

func (p *Publisher) ensureStream() error {
	p.once.Do(func() {
		_, err := p.js.StreamInfo(p.cfg.Stream)
		if err == nil {
			return
		}
		if !errors.Is(err, nats.ErrStreamNotFound) && !strings.Contains(err.Error(), "stream not found") {
			p.streamErr = err
			return
		}
		retention := nats.LimitsPolicy
		switch strings.ToLower(p.cfg.Retention) {
		case "interest":
			retention = nats.InterestPolicy
		case "workqueue":
			retention = nats.WorkQueuePolicy
		}
		sc := &nats.StreamConfig{
			Name:              p.cfg.Stream,
			Subjects:          []string{p.cfg.SubjectPrefix + ">"},
			Retention:         retention,
			MaxAge:            p.cfg.MaxAge,
			MaxMsgsPerSubject: p.cfg.MaxMsgsPerSubject,
		}
		if p.cfg.MaxBytes > 0 {
			sc.MaxBytes = p.cfg.MaxBytes
		}
		if p.cfg.Replicas > 0 {
			sc.Replicas = p.cfg.Replicas
		}
		_, p.streamErr = p.js.AddStream(sc)
	})
	return p.streamErr
}

func (p *Publisher) subjectName(messageType string) string {
	return p.cfg.SubjectPrefix + messageType
}

type wireMessage struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  map[string]any  `json:"metadata"`
}

func marshalMessage(msg messaging.IMessage) ([]byte, error) {
	payload, err := json.Marshal(msg.GetPayload())
	if err != nil {
		return nil, err
	}
	metadata := msg.GetMetadata()
	if metadata == nil {
		metadata = make(map[string]any)
	}
	ts := msg.GetTimestamp()
	if ts.IsZero() {
		ts = time.Now()
	}
	return json.Marshal(wireMessage{ID: msg.GetID(), Type: msg.GetType(), Timestamp: ts.UnixNano(), Payload: payload, Metadata: metadata})
}

// UnmarshalMessage 解码发布的消息，供订阅方使用
func UnmarshalMessage(data []byte) (*messaging.Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	var payload any
	if len(wire.Payload) > 0 {
		if err := json.Unmarshal(wire.Payload, &payload); err != nil {
			return nil, err
		}
	}
	if wire.Metadata == nil {
		wire.Metadata = make(map[string]any)
	}
	return &messaging.Message{
		ID:        wire.ID,
		Type:      wire.Type,
		Timestamp: time.Unix(0, wire.Timestamp).UTC(),
		Payload:   payload,
		Metadata:  wire.Metadata,
	}, nil
}
