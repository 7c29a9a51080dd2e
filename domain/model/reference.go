package model

import "github.com/google/uuid"

// Language 引用数据：语言
type Language struct {
	ID          uuid.UUID
	Code        string
	OrderNumber int
}

// TypeCode 引用数据：分类下的类型编码
type TypeCode struct {
	ID       uuid.UUID
	Category string
	Code     string
}
