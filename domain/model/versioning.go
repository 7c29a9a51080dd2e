package model

import (
	"time"

	"github.com/google/uuid"
)

// Position 版本位置 (major, minor)
type Position struct {
	Major int
	Minor int
}

// Less 按 (major, minor) 字典序比较
func (p Position) Less(o Position) bool {
	if p.Major != o.Major {
		return p.Major < o.Major
	}
	return p.Minor < o.Minor
}

// Baseline 同一主版本的 (major, 0)
func (p Position) Baseline() Position {
	return Position{Major: p.Major}
}

// Versioning 版本记录
//
// 同一版本记录可被多个类别的实体共享，Entities 按类别保存挂在该记录上的聚合。
type Versioning struct {
	ID           uuid.UUID
	UnificRootID uuid.NullUUID
	Position
	Ignored   bool
	Created   time.Time
	CreatedBy string

	Entities map[EntityKind][]*Aggregate
}

// EntitiesOf 返回指定类别的聚合，缺失时返回 nil
func (v *Versioning) EntitiesOf(kind EntityKind) []*Aggregate {
	if v.Entities == nil {
		return nil
	}
	return v.Entities[kind]
}

// Attach 把聚合追加到指定类别的集合
func (v *Versioning) Attach(kind EntityKind, agg *Aggregate) {
	if v.Entities == nil {
		v.Entities = make(map[EntityKind][]*Aggregate)
	}
	v.Entities[kind] = append(v.Entities[kind], agg)
}
