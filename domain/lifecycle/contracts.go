// Package lifecycle 编排版本化实体的读取、保存与发布状态变更
//
// 每种实体类别通过 Descriptor 描述自己的能力，共用同一套事务编排：
// 读取在只读工作单元中进行，保存的前置、主体与后置步骤各自独立提交，
// 状态变更委托给 ICommonService 并在写事务之后重新读取。
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
)

// Descriptor 实体类别的能力描述
type Descriptor struct {
	Kind model.EntityKind
	// HasLanguageAvailability 是否有按语言的发布状态
	HasLanguageAvailability bool
	// HasVersionedRoot 是否挂在 Unific Root 上
	HasVersionedRoot bool
}

// descriptors 各实体类别的默认描述
var descriptors = map[model.EntityKind]Descriptor{
	model.KindServiceChannel:     {Kind: model.KindServiceChannel, HasLanguageAvailability: true, HasVersionedRoot: true},
	model.KindService:            {Kind: model.KindService, HasLanguageAvailability: true, HasVersionedRoot: true},
	model.KindOrganization:       {Kind: model.KindOrganization, HasLanguageAvailability: true, HasVersionedRoot: true},
	model.KindServiceCollection:  {Kind: model.KindServiceCollection, HasLanguageAvailability: true, HasVersionedRoot: true},
	model.KindGeneralDescription: {Kind: model.KindGeneralDescription, HasLanguageAvailability: true, HasVersionedRoot: true},
}

// DescriptorFor 返回类别的默认描述
func DescriptorFor(kind model.EntityKind) (Descriptor, bool) {
	d, ok := descriptors[kind]
	return d, ok
}

// Action 保存或计划动作
type Action string

const (
	ActionSave            Action = "Save"
	ActionSaveAndPublish  Action = "SaveAndPublish"
	ActionSchedulePublish Action = "SchedulePublish"
	ActionScheduleArchive Action = "ScheduleArchive"
)

// Transition 一次状态变更的参数
type Transition struct {
	Kind model.EntityKind
	ID   uuid.UUID
	// LanguageID 语言级变更的目标语言，其他变更为 uuid.Nil
	LanguageID uuid.UUID
	Actor      string
}

// Schedule 计划发布或归档
type Schedule struct {
	Action Action
	At     time.Time
	// LanguageIDs 为空表示全部语言
	LanguageIDs []uuid.UUID
}

// ICommonService 执行发布状态机上的变更，返回变更后实体的 ID
type ICommonService interface {
	PublishEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	ChangeEntityToDeleted(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	ChangeEntityToRemoved(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	WithdrawEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	RestoreEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	ArchiveLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	RestoreLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	WithdrawLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)
	SchedulePublishArchiveEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition, s Schedule) (uuid.UUID, error)
}

// ValidationMessage 一条业务校验消息
type ValidationMessage struct {
	Key        string
	Message    string
	LanguageID uuid.NullUUID
}

// IValidator 实体发布前校验
type IValidator interface {
	Validate(ctx context.Context, uow repository.IUnitOfWork, kind model.EntityKind, id uuid.UUID) ([]ValidationMessage, error)
}

// Loader 在工作单元内读取实体视图
type Loader[V any] func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) (V, error)

// SchedulePublishError 计划发布前的校验未通过
type SchedulePublishError struct {
	Messages []ValidationMessage
}

func (e *SchedulePublishError) Error() string {
	keys := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		keys[i] = m.Key
	}
	return fmt.Sprintf("[%s] schedule publish validation failed: %s", errors.ErrCodeSchedulePublish, strings.Join(keys, ", "))
}

func (e *SchedulePublishError) Code() errors.ErrorCode { return errors.ErrCodeSchedulePublish }

// Is 与 errors.ErrSchedulePublish 等同错误码的哨兵匹配
func (e *SchedulePublishError) Is(target error) bool {
	c, ok := target.(interface{ Code() errors.ErrorCode })
	return ok && c.Code() == errors.ErrCodeSchedulePublish
}
