package refcache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"ptvdata/cache"
	"ptvdata/domain/repository"
	"ptvdata/logging"
)

const snapshotKey = "reference"

// Provider 读取并缓存引用数据快照
//
// 快照过期后的第一次 Get 触发加载；并发的 Get 共享同一次加载。
type Provider struct {
	uow    repository.IProvider
	cache  *cache.Cache[string, *Snapshot]
	group  singleflight.Group
	logger logging.Logger
}

// NewProvider 创建快照提供者；refresh 为快照有效期，0 表示加载后一直有效直到 Invalidate
func NewProvider(uow repository.IProvider, refresh time.Duration) *Provider {
	return &Provider{
		uow: uow,
		cache: cache.New[string, *Snapshot](cache.Config{
			Name:    "refcache",
			MaxSize: 1,
			TTL:     refresh,
		}),
		logger: logging.ComponentLogger("refcache"),
	}
}

// Get 返回当前快照
func (p *Provider) Get(ctx context.Context) (*Snapshot, error) {
	if snap, ok := p.cache.Get(snapshotKey); ok {
		return snap, nil
	}
	v, err, shared := p.group.Do(snapshotKey, func() (any, error) {
		return p.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.Debug(ctx, "reference snapshot load shared")
	}
	return v.(*Snapshot), nil
}

// Name 底层缓存名称
func (p *Provider) Name() string { return p.cache.Name() }

// Stats 底层缓存的命中统计
func (p *Provider) Stats() cache.Stats { return p.cache.Stats() }

// Invalidate 丢弃当前快照，下一次 Get 重新加载
func (p *Provider) Invalidate() {
	p.cache.Delete(snapshotKey)
}

func (p *Provider) load(ctx context.Context) (*Snapshot, error) {
	var snap *Snapshot
	err := p.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		languages, err := uow.Reference().Languages(ctx)
		if err != nil {
			return err
		}
		types, err := uow.Reference().TypeCodes(ctx)
		if err != nil {
			return err
		}
		snap = NewSnapshot(languages, types)
		return nil
	})
	if err != nil {
		p.logger.Warn(ctx, "reference snapshot load failed", logging.Error(err))
		return nil, err
	}
	p.cache.Set(snapshotKey, snap)
	p.logger.Info(ctx, "reference snapshot loaded",
		logging.Int("languages", len(snap.orderedLangs)),
		logging.Int("types", len(snap.typeCodes)))
	return snap, nil
}
