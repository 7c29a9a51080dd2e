// Package history 重建实体自身的版本历史与连接变更历史
//
// 两类历史都按 model.PageSize 分页，总数取自未分页的结果集。
// 实体历史中缺少请求类别实体的版本行会从同一根下的其他版本补齐。
package history

import (
	"time"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/domain/naming"
	"ptvdata/domain/versioning"
)

// Search 历史查询参数
//
// ID 是某个版本化实体的 ID，不是 Unific Root；PageNumber 从 0 开始。
type Search struct {
	ID         uuid.UUID
	PageNumber int
}

// EntityHistoryItem 实体历史中的一行
type EntityHistoryItem struct {
	VersioningID uuid.UUID
	Version      model.Position
	Created      time.Time
	CreatedBy    string

	// Entity 该行展示的实体；EntityID 无效表示根下没有任何可用版本
	Entity naming.Summary

	// Polyfilled 实体取自其他版本行，Rule 为命中的补齐规则
	Polyfilled bool
	Rule       versioning.Rule
}

// ConnectionHistoryItem 连接历史中的一行，Other 为另一侧当前的最新版本
type ConnectionHistoryItem struct {
	OperationID   uuid.UUID
	OperationType model.OperationType
	Created       time.Time
	CreatedBy     string
	Relation      string
	Other         naming.Summary
}
