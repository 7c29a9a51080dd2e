// Package refcache 提供引用数据（语言、语言排序、类型编码）的只读快照
//
// 快照在进程内构建一次并以指针传入各服务调用，任何调用都不修改它；
// 刷新时整体替换为新的快照。
package refcache

import (
	"sort"

	"github.com/google/uuid"

	"ptvdata/domain/model"
)

// Snapshot 不可变的引用数据快照
type Snapshot struct {
	languages     map[uuid.UUID]model.Language
	languageCodes map[string]uuid.UUID
	orderedLangs  []model.Language
	types         map[string]map[string]uuid.UUID
	typeCodes     map[uuid.UUID]model.TypeCode
}

// NewSnapshot 从引用数据构造快照
func NewSnapshot(languages []model.Language, types []model.TypeCode) *Snapshot {
	s := &Snapshot{
		languages:     make(map[uuid.UUID]model.Language, len(languages)),
		languageCodes: make(map[string]uuid.UUID, len(languages)),
		types:         make(map[string]map[string]uuid.UUID),
		typeCodes:     make(map[uuid.UUID]model.TypeCode, len(types)),
	}
	for _, l := range languages {
		s.languages[l.ID] = l
		s.languageCodes[l.Code] = l.ID
	}
	s.orderedLangs = append([]model.Language(nil), languages...)
	sort.SliceStable(s.orderedLangs, func(i, j int) bool {
		if s.orderedLangs[i].OrderNumber != s.orderedLangs[j].OrderNumber {
			return s.orderedLangs[i].OrderNumber < s.orderedLangs[j].OrderNumber
		}
		return s.orderedLangs[i].Code < s.orderedLangs[j].Code
	})
	for _, tc := range types {
		byCode, ok := s.types[tc.Category]
		if !ok {
			byCode = make(map[string]uuid.UUID)
			s.types[tc.Category] = byCode
		}
		byCode[tc.Code] = tc.ID
		s.typeCodes[tc.ID] = tc
	}
	return s
}

// LanguageCode 语言 ID 对应的编码
func (s *Snapshot) LanguageCode(id uuid.UUID) (string, bool) {
	l, ok := s.languages[id]
	return l.Code, ok
}

// LanguageID 编码对应的语言 ID
func (s *Snapshot) LanguageID(code string) (uuid.UUID, bool) {
	id, ok := s.languageCodes[code]
	return id, ok
}

// LanguageOrder 语言排序号，未知语言排在最后
func (s *Snapshot) LanguageOrder(id uuid.UUID) int {
	if l, ok := s.languages[id]; ok {
		return l.OrderNumber
	}
	return int(^uint(0) >> 1)
}

// Languages 按排序号排列的语言，返回副本
func (s *Snapshot) Languages() []model.Language {
	return append([]model.Language(nil), s.orderedLangs...)
}

// TypeID 分类下编码对应的类型 ID
func (s *Snapshot) TypeID(category, code string) (uuid.UUID, bool) {
	id, ok := s.types[category][code]
	return id, ok
}

// TypeCode 类型 ID 对应的编码
func (s *Snapshot) TypeCode(id uuid.UUID) (model.TypeCode, bool) {
	tc, ok := s.typeCodes[id]
	return tc, ok
}
