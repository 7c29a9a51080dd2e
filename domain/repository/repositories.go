package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ptvdata/domain/fetchplan"
	"ptvdata/domain/model"
)

// VersionRef 某类别实体在某个版本位置上的引用
type VersionRef struct {
	EntityID     uuid.UUID
	VersioningID uuid.UUID
	model.Position
	Ignored bool
	Created time.Time
}

// HistoryQuery 实体自身历史查询
type HistoryQuery struct {
	RootID uuid.UUID
	// ExcludeRemovedServices 排除挂有当前已移除服务的版本行（组织历史）
	ExcludeRemovedServices bool
	Skip                   int
	Take                   int
}

// IVersioningRepository 版本记录仓储
type IVersioningRepository interface {
	// ResolveRoot 通过版本化实体 ID 找到 Unific Root；没有未忽略的版本行时返回 NOT_FOUND
	ResolveRoot(ctx context.Context, kind model.EntityKind, entityID uuid.UUID) (uuid.UUID, error)

	// ListByRoot 返回根下全部版本行（含已忽略），不附带实体
	ListByRoot(ctx context.Context, rootID uuid.UUID) ([]*model.Versioning, error)

	// ListEntityVersions 返回根下某类别实体的版本引用（含已忽略的版本行）
	ListEntityVersions(ctx context.Context, kind model.EntityKind, rootID uuid.UUID) ([]VersionRef, error)

	// PageHistory 返回未忽略且所属主版本未作废的版本行的一页，以及未分页总数
	//
	// 排序：created DESC, major DESC, minor DESC。
	PageHistory(ctx context.Context, q HistoryQuery) ([]*model.Versioning, int, error)

	Get(ctx context.Context, id uuid.UUID) (*model.Versioning, error)
	Insert(ctx context.Context, v *model.Versioning) error
	UpdatePosition(ctx context.Context, id uuid.UUID, pos model.Position) error
}

// IEntityRepository 版本化聚合仓储
type IEntityRepository interface {
	// Get 只加载聚合头；不存在时返回 NOT_FOUND
	Get(ctx context.Context, id uuid.UUID) (*model.Aggregate, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Aggregate, error)

	// ListByVersioning 返回挂在这些版本行上的全部类别的聚合头
	ListByVersioning(ctx context.Context, versioningIDs []uuid.UUID) ([]*model.Aggregate, error)
	ListByRoot(ctx context.Context, kind model.EntityKind, rootID uuid.UUID) ([]*model.Aggregate, error)

	// Include 按计划填充聚合的导航集合
	Include(ctx context.Context, plan fetchplan.Plan, aggs []*model.Aggregate) error

	LanguageAvailabilities(ctx context.Context, id uuid.UUID) ([]model.LanguageAvailability, error)

	// LockForUpdate 在写事务中锁定聚合行；不支持行锁的方言上只校验存在
	LockForUpdate(ctx context.Context, id uuid.UUID) (*model.Aggregate, error)

	// Insert 写入聚合头与已填充的版本内子集合
	Insert(ctx context.Context, agg *model.Aggregate) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PublishingStatus, modifiedBy string, at time.Time) error
	UpsertLanguageAvailability(ctx context.Context, id uuid.UUID, la model.LanguageAvailability) error
}

// IConnectionRepository 服务-渠道连接仓储
type IConnectionRepository interface {
	// ListByRoots 返回指定一侧根 ID 的全部连接，不含明细
	ListByRoots(ctx context.Context, side model.ConnectionSide, roots []uuid.UUID) ([]*model.Connection, error)
	// ListDetails 一次取回某类明细在所有给定根上的行
	ListDetails(ctx context.Context, kind model.DetailKind, side model.ConnectionSide, roots []uuid.UUID) ([]model.ConnectionDetail, error)

	Insert(ctx context.Context, c *model.Connection) error
	Delete(ctx context.Context, serviceRootID, channelRootID uuid.UUID) error
}

// ConnectionOperationQuery 连接跟踪记录查询
type ConnectionOperationQuery struct {
	// Kind 与 RootID 同时设置时只返回涉及该根的记录
	Kind       model.EntityKind
	RootID     uuid.UUID
	Operations []model.OperationType
	Since      *time.Time
	// OrderByID 在 created DESC 之后追加 id ASC
	OrderByID bool
	Skip      int
	Take      int
}

// EntityOperationQuery 实体跟踪记录查询
type EntityOperationQuery struct {
	Kinds          []model.EntityKind
	ExcludeKinds   []model.EntityKind
	Operations     []model.OperationType
	Since          *time.Time
	OrganizationID uuid.NullUUID
	Skip           int
	Take           int
}

// ITrackingRepository 跟踪记录仓储
type ITrackingRepository interface {
	PageConnectionOperations(ctx context.Context, q ConnectionOperationQuery) ([]model.ConnectionOperation, int, error)
	CountConnectionOperations(ctx context.Context, q ConnectionOperationQuery) (int, error)
	PageEntityOperations(ctx context.Context, q EntityOperationQuery) ([]model.EntityOperation, int, error)
	CountEntityOperations(ctx context.Context, q EntityOperationQuery) (int, error)

	InsertConnectionOperations(ctx context.Context, ops ...model.ConnectionOperation) error
	InsertEntityOperations(ctx context.Context, ops ...model.EntityOperation) error

	// DeleteBefore 删除早于 cutoff 的跟踪记录，返回删除行数
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// IReferenceRepository 引用数据仓储
type IReferenceRepository interface {
	Languages(ctx context.Context) ([]model.Language, error)
	TypeCodes(ctx context.Context) ([]model.TypeCode, error)
}
