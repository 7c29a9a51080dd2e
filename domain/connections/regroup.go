// Package connections 批量加载服务-渠道连接的明细并按连接两侧重新分组
//
// 每类明细只查询一次（覆盖所有请求的根），再按分组侧与另一侧两级分组挂回连接对象，
// 避免逐个连接查询。服务侧与渠道侧共用同一实现，只交换分组键。
package connections

import (
	"context"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

// Regroup 按两级键分组
//
// 结果中只出现有数据的键；调用方通过 Lookup 读取时缺失的组得到空切片。
func Regroup[D any, G comparable, S comparable](details []D, groupKey func(D) G, subKey func(D) S) map[G]map[S][]D {
	out := make(map[G]map[S][]D)
	for _, d := range details {
		g := groupKey(d)
		inner, ok := out[g]
		if !ok {
			inner = make(map[S][]D)
			out[g] = inner
		}
		s := subKey(d)
		inner[s] = append(inner[s], d)
	}
	return out
}

// Lookup 读取分组，缺失时返回非 nil 的空切片
func Lookup[D any, G comparable, S comparable](groups map[G]map[S][]D, g G, s S) []D {
	if inner, ok := groups[g]; ok {
		if items, ok := inner[s]; ok {
			return items
		}
	}
	return []D{}
}

// Keys 返回连接在给定分组侧下的 (分组键, 子键)
func Keys(side model.ConnectionSide) (group func(model.ConnectionDetail) uuid.UUID, sub func(model.ConnectionDetail) uuid.UUID) {
	service := func(d model.ConnectionDetail) uuid.UUID { return d.ServiceRootID }
	channel := func(d model.ConnectionDetail) uuid.UUID { return d.ChannelRootID }
	if side == model.SideChannel {
		return channel, service
	}
	return service, channel
}

func connectionKeys(side model.ConnectionSide, c *model.Connection) (uuid.UUID, uuid.UUID) {
	if side == model.SideChannel {
		return c.ChannelRootID, c.ServiceRootID
	}
	return c.ServiceRootID, c.ChannelRootID
}

// Attach 把各类明细挂到连接上；每个连接的每个明细类别都会得到初始化过的切片
func Attach(conns []*model.Connection, side model.ConnectionSide, fetched map[model.DetailKind][]model.ConnectionDetail) {
	group, sub := Keys(side)
	grouped := make(map[model.DetailKind]map[uuid.UUID]map[uuid.UUID][]model.ConnectionDetail, len(model.DetailKinds))
	for _, kind := range model.DetailKinds {
		grouped[kind] = Regroup(fetched[kind], group, sub)
	}
	for _, c := range conns {
		g, s := connectionKeys(side, c)
		if c.Details == nil {
			c.Details = make(map[model.DetailKind][]model.ConnectionDetail, len(model.DetailKinds))
		}
		for _, kind := range model.DetailKinds {
			c.Details[kind] = Lookup(grouped[kind], g, s)
		}
	}
}

// Load 取回分组侧根的全部连接并挂上明细
//
// 连接查询一次，随后每类明细各查询一次。
func Load(ctx context.Context, repo repository.IConnectionRepository, side model.ConnectionSide, roots []uuid.UUID) ([]*model.Connection, error) {
	if len(roots) == 0 {
		return []*model.Connection{}, nil
	}
	conns, err := repo.ListByRoots(ctx, side, roots)
	if err != nil {
		return nil, err
	}
	fetched := make(map[model.DetailKind][]model.ConnectionDetail, len(model.DetailKinds))
	if len(conns) > 0 {
		for _, kind := range model.DetailKinds {
			details, err := repo.ListDetails(ctx, kind, side, roots)
			if err != nil {
				return nil, err
			}
			fetched[kind] = details
		}
	}
	Attach(conns, side, fetched)
	return conns, nil
}

// ByRoot 按分组侧根 ID 索引连接
func ByRoot(conns []*model.Connection, side model.ConnectionSide) map[uuid.UUID][]*model.Connection {
	out := make(map[uuid.UUID][]*model.Connection)
	for _, c := range conns {
		g, _ := connectionKeys(side, c)
		out[g] = append(out[g], c)
	}
	return out
}
