// Package naming 实现聚合显示名称的选择规则，并为历史与通知条目解析另一方实体的当前状态
package naming

import (
	"sort"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/refcache"
)

// DisplayName 返回聚合在某语言下的显示名称
//
// 聚合声明了显示名称类型映射且包含该语言的映射时，取该类型的名称；
// 其他情况（没有任何映射、映射只覆盖其他语言、或映射类型没有对应名称）取默认 Name 类型。
func DisplayName(agg *model.Aggregate, snap *refcache.Snapshot, languageID uuid.UUID) (string, bool) {
	if typeID, ok := mappedType(agg, languageID); ok {
		if v, ok := nameOfType(agg, typeID, languageID); ok {
			return v, true
		}
	}
	defaultType, ok := snap.TypeID(model.TypeCategoryName, model.NameTypeName)
	if !ok {
		return "", false
	}
	return nameOfType(agg, defaultType, languageID)
}

// DisplayNames 返回所有有名称的语言的显示名称，键为语言编码
func DisplayNames(agg *model.Aggregate, snap *refcache.Snapshot) map[string]string {
	out := make(map[string]string)
	for _, lang := range nameLanguages(agg) {
		code, ok := snap.LanguageCode(lang)
		if !ok {
			continue
		}
		if v, ok := DisplayName(agg, snap, lang); ok {
			out[code] = v
		}
	}
	return out
}

func mappedType(agg *model.Aggregate, languageID uuid.UUID) (uuid.UUID, bool) {
	for _, m := range agg.DisplayNameTypes {
		if m.LocalizationID == languageID {
			return m.DisplayNameTypeID, true
		}
	}
	return uuid.Nil, false
}

func nameOfType(agg *model.Aggregate, typeID, languageID uuid.UUID) (string, bool) {
	for _, n := range agg.Names {
		if n.TypeID == typeID && n.LocalizationID == languageID {
			return n.Value, true
		}
	}
	return "", false
}

func nameLanguages(agg *model.Aggregate) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, n := range agg.Names {
		if !seen[n.LocalizationID] {
			seen[n.LocalizationID] = true
			out = append(out, n.LocalizationID)
		}
	}
	return out
}

// LanguageState 某语言的发布状态
type LanguageState struct {
	Code   string
	Status model.PublishingStatus
}

// LanguageStates 按语言排序号排列的语言可用性
func LanguageStates(agg *model.Aggregate, snap *refcache.Snapshot) []LanguageState {
	las := append([]model.LanguageAvailability(nil), agg.LanguageAvailabilities...)
	sort.SliceStable(las, func(i, j int) bool {
		return snap.LanguageOrder(las[i].LanguageID) < snap.LanguageOrder(las[j].LanguageID)
	})
	out := make([]LanguageState, 0, len(las))
	for _, la := range las {
		code, ok := snap.LanguageCode(la.LanguageID)
		if !ok {
			continue
		}
		out = append(out, LanguageState{Code: code, Status: la.Status})
	}
	return out
}
