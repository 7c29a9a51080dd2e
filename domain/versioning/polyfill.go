package versioning

import (
	"sort"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

// Rule 填补命中的规则
type Rule string

const (
	// RuleExact 相同 (major, minor)
	RuleExact Rule = "exact"
	// RuleBaseline 同主版本的 (major, 0)
	RuleBaseline Rule = "baseline"
	// RuleEarlier 不晚于请求位置的最近版本
	RuleEarlier Rule = "earlier"
	// RuleLater 晚于请求位置的最近版本
	RuleLater Rule = "later"
)

// Polyfill 为请求位置选择代替的实体版本
//
// 优先级：精确匹配 > (major, 0) > 不晚于请求位置的最大位置 > 晚于请求位置的最小位置。
// 同一位置有多个引用时取创建时间最新者，再按实体 ID 排序，结果与输入顺序无关。
func Polyfill(index []repository.VersionRef, want model.Position) (repository.VersionRef, Rule, bool) {
	if len(index) == 0 {
		return repository.VersionRef{}, "", false
	}
	sorted := sortedRefs(index)

	if ref, ok := at(sorted, want); ok {
		return ref, RuleExact, true
	}
	if want.Minor != 0 {
		if ref, ok := at(sorted, want.Baseline()); ok {
			return ref, RuleBaseline, true
		}
	}

	// sorted 按位置升序，向前找最后一个不晚于 want 的、向后找第一个晚于 want 的
	idx := sort.Search(len(sorted), func(i int) bool { return want.Less(sorted[i].Position) })
	if idx > 0 {
		return firstAt(sorted, sorted[idx-1].Position), RuleEarlier, true
	}
	return sorted[idx], RuleLater, true
}

// sortedRefs 按位置升序；同位置时创建时间新者在前，再按实体 ID
func sortedRefs(index []repository.VersionRef) []repository.VersionRef {
	out := append([]repository.VersionRef(nil), index...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Position != b.Position {
			return a.Position.Less(b.Position)
		}
		if !a.Created.Equal(b.Created) {
			return a.Created.After(b.Created)
		}
		return a.EntityID.String() < b.EntityID.String()
	})
	return out
}

func at(sorted []repository.VersionRef, pos model.Position) (repository.VersionRef, bool) {
	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Position.Less(pos) })
	if i < len(sorted) && sorted[i].Position == pos {
		return sorted[i], true
	}
	return repository.VersionRef{}, false
}

func firstAt(sorted []repository.VersionRef, pos model.Position) repository.VersionRef {
	ref, _ := at(sorted, pos)
	return ref
}
