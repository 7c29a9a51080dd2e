// Package repository 定义数据访问层消费的仓储与工作单元契约
package repository

import (
	"context"

	"ptvdata/domain/model"
)

// SaveMode 工作单元保存模式
type SaveMode int

const (
	// SaveModeNormal 写入缓冲的跟踪记录并提交
	SaveModeNormal SaveMode = iota
	// SaveModeNonTracked 丢弃缓冲的跟踪记录后提交
	SaveModeNonTracked
)

// IProvider 工作单元提供者
//
// ExecuteReader 在只读事务中执行 fn，结束后总是回滚。
// ExecuteWriter 在写事务中执行 fn；只有 fn 内调用 Save 的部分会被提交，
// fn 返回时尚未保存的修改一律回滚。
type IProvider interface {
	ExecuteReader(ctx context.Context, fn func(ctx context.Context, uow IUnitOfWork) error) error
	ExecuteWriter(ctx context.Context, fn func(ctx context.Context, uow IUnitOfWork) error) error
}

// IUnitOfWork 一次读或写范围内的仓储集合
type IUnitOfWork interface {
	Versioning() IVersioningRepository
	Entities() IEntityRepository
	Connections() IConnectionRepository
	Tracking() ITrackingRepository
	Reference() IReferenceRepository

	// TrackEntity 缓冲一条实体跟踪记录，Save 时写入
	TrackEntity(op model.EntityOperation)
	// TrackConnection 缓冲一条连接跟踪记录，Save 时写入
	TrackConnection(op model.ConnectionOperation)

	// Save 提交当前事务；读工作单元上调用返回错误
	Save(ctx context.Context, mode SaveMode) error

	ReadOnly() bool
}
