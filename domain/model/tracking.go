package model

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionOperation 关系变更的跟踪记录
//
// Relation 标识关系种类（例如 ServiceChannel），Left/Right 为关系两侧的 Unific Root。
type ConnectionOperation struct {
	ID            uuid.UUID
	OperationType OperationType
	Created       time.Time
	CreatedBy     string
	Relation      string
	LeftKind      EntityKind
	LeftRootID    uuid.UUID
	RightKind     EntityKind
	RightRootID   uuid.UUID
}

// Other 返回相对 (kind, root) 的另一侧；ok=false 表示该记录与给定一侧无关
func (o ConnectionOperation) Other(kind EntityKind, root uuid.UUID) (EntityKind, uuid.UUID, bool) {
	switch {
	case o.LeftKind == kind && o.LeftRootID == root:
		return o.RightKind, o.RightRootID, true
	case o.RightKind == kind && o.RightRootID == root:
		return o.LeftKind, o.LeftRootID, true
	}
	return "", uuid.Nil, false
}

// EntityOperation 实体状态变更的跟踪记录
type EntityOperation struct {
	ID             uuid.UUID
	OperationType  OperationType
	Created        time.Time
	CreatedBy      string
	EntityKind     EntityKind
	RootID         uuid.UUID
	EntityID       uuid.UUID
	OrganizationID uuid.NullUUID
	LanguageID     uuid.NullUUID
}

// 连接关系名称
const (
	RelationServiceChannel            = "ServiceChannel"
	RelationOrganizationService       = "OrganizationService"
	RelationServiceCollectionService  = "ServiceCollectionService"
	RelationGeneralDescriptionService = "GeneralDescriptionService"
)
