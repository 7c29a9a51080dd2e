// Package versioning 实现版本行的可见性过滤、最新版本解析与缺失版本的填补选择
package versioning

import (
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

// VoidedMajors 返回 minor-0 行被忽略的主版本集合；这些主版本下的所有次版本都视为作废
func VoidedMajors(rows []*model.Versioning) map[int]bool {
	voided := make(map[int]bool)
	for _, v := range rows {
		if v.Minor == 0 && v.Ignored {
			voided[v.Major] = true
		}
	}
	return voided
}

// Live 过滤出可出现在历史与最新版本查询中的版本行，保持原顺序
func Live(rows []*model.Versioning) []*model.Versioning {
	voided := VoidedMajors(rows)
	out := make([]*model.Versioning, 0, len(rows))
	for _, v := range rows {
		if v.Ignored || voided[v.Major] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// LiveRefs 按同样规则过滤实体版本引用；voided 来自 VoidedMajors
func LiveRefs(refs []repository.VersionRef, voided map[int]bool) []repository.VersionRef {
	out := make([]repository.VersionRef, 0, len(refs))
	for _, r := range refs {
		if r.Ignored || voided[r.Major] {
			continue
		}
		out = append(out, r)
	}
	return out
}
