package model

// PageSize 历史与通知列表的固定页大小
const PageSize = 10

// Page 分页结果
//
// PageNumber 为下一次应请求的页码（请求页码 + 1），调用方据此增量翻页。
type Page[T any] struct {
	Items         []T
	Count         int
	MoreAvailable bool
	PageNumber    int
}

// NewPage 根据请求页码（从 0 开始）与未分页总数构造分页结果，负数页码与 Skip 一样按 0 处理
func NewPage[T any](items []T, count, requested int) Page[T] {
	if items == nil {
		items = []T{}
	}
	if requested < 0 {
		requested = 0
	}
	return Page[T]{
		Items:         items,
		Count:         count,
		MoreAvailable: (requested+1)*PageSize < count,
		PageNumber:    requested + 1,
	}
}

// Skip 请求页码对应的偏移量，负数页码按 0 处理
func Skip(requested int) int {
	if requested < 0 {
		return 0
	}
	return requested * PageSize
}
