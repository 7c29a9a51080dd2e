package lifecycle

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/domain/versioning"
	"ptvdata/errors"
)

// StateMachine 默认的 ICommonService，在工作单元内执行发布状态机
//
//	Draft/Modified -> Published       发布
//	Published      -> Modified        撤回
//	任意(非 Removed) -> Deleted        归档
//	任意           -> Removed          移除
//	Deleted        -> Modified        恢复
//
// 每次变更都缓冲一条实体跟踪记录，由调用方的 Save 写入。
type StateMachine struct {
	now func() time.Time
}

// NewStateMachine 创建状态机
func NewStateMachine() *StateMachine {
	return &StateMachine{now: time.Now}
}

// WithClock 替换时钟，测试用
func (m *StateMachine) WithClock(now func() time.Time) *StateMachine {
	return &StateMachine{now: now}
}

func conflict(t Transition, from model.PublishingStatus, action string) error {
	return errors.Errorf(errors.ErrCodeConflict, "%s %s: cannot %s from %s", t.Kind, t.ID, action, from).
		WithContext("entity_id", t.ID.String())
}

func (m *StateMachine) track(uow repository.IUnitOfWork, op model.OperationType, agg *model.Aggregate, t Transition, at time.Time) {
	rec := model.EntityOperation{
		OperationType:  op,
		Created:        at,
		CreatedBy:      t.Actor,
		EntityKind:     agg.Kind,
		RootID:         agg.UnificRootID,
		EntityID:       agg.ID,
		OrganizationID: agg.OrganizationID,
	}
	if t.LanguageID != uuid.Nil {
		rec.LanguageID = uuid.NullUUID{UUID: t.LanguageID, Valid: true}
	}
	uow.TrackEntity(rec)
}

func (m *StateMachine) lock(ctx context.Context, uow repository.IUnitOfWork, t Transition) (*model.Aggregate, error) {
	agg, err := uow.Entities().LockForUpdate(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if agg.Kind != t.Kind {
		return nil, errors.NotFound(string(t.Kind), t.ID)
	}
	return agg, nil
}

// PublishEntity 发布实体
//
// 同一根下原已发布的版本改为 OldPublished；版本位置提升为 (最大主版本+1, 0)。
// 草稿与已修改的语言一并发布。已发布的实体原样返回。
func (m *StateMachine) PublishEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	switch agg.PublishingStatus {
	case model.StatusPublished:
		return agg.ID, nil
	case model.StatusDraft, model.StatusModified:
	default:
		return uuid.Nil, conflict(t, agg.PublishingStatus, "publish")
	}
	at := m.now()

	siblings, err := uow.Entities().ListByRoot(ctx, agg.Kind, agg.UnificRootID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, s := range siblings {
		if s.ID != agg.ID && s.PublishingStatus == model.StatusPublished {
			if err := uow.Entities().UpdateStatus(ctx, s.ID, model.StatusOldPublished, t.Actor, at); err != nil {
				return uuid.Nil, err
			}
		}
	}

	rows, err := uow.Versioning().ListByRoot(ctx, agg.UnificRootID)
	if err != nil {
		return uuid.Nil, err
	}
	maxMajor := 0
	var current *model.Versioning
	for _, v := range versioning.Live(rows) {
		maxMajor = max(maxMajor, v.Major)
	}
	for _, v := range rows {
		if v.ID == agg.VersioningID {
			current = v
		}
	}
	if current == nil {
		return uuid.Nil, errors.NotFound("versioning", agg.VersioningID)
	}
	if current.Minor != 0 || current.Major < maxMajor {
		if err := uow.Versioning().UpdatePosition(ctx, current.ID, model.Position{Major: maxMajor + 1}); err != nil {
			return uuid.Nil, err
		}
	}

	if err := uow.Entities().UpdateStatus(ctx, agg.ID, model.StatusPublished, t.Actor, at); err != nil {
		return uuid.Nil, err
	}
	las, err := uow.Entities().LanguageAvailabilities(ctx, agg.ID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, la := range las {
		if la.Status != model.StatusDraft && la.Status != model.StatusModified {
			continue
		}
		la.Status = model.StatusPublished
		la.ValidFrom = nil
		if err := uow.Entities().UpsertLanguageAvailability(ctx, agg.ID, la); err != nil {
			return uuid.Nil, err
		}
	}
	m.track(uow, model.OperationPublished, agg, t, at)
	return agg.ID, nil
}

// ChangeEntityToDeleted 归档实体及其全部语言
func (m *StateMachine) ChangeEntityToDeleted(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	if agg.PublishingStatus == model.StatusRemoved {
		return uuid.Nil, conflict(t, agg.PublishingStatus, "archive")
	}
	at := m.now()
	if err := uow.Entities().UpdateStatus(ctx, agg.ID, model.StatusDeleted, t.Actor, at); err != nil {
		return uuid.Nil, err
	}
	if err := m.setLanguages(ctx, uow, agg.ID, nil, model.StatusDeleted); err != nil {
		return uuid.Nil, err
	}
	m.track(uow, model.OperationArchived, agg, t, at)
	return agg.ID, nil
}

// ChangeEntityToRemoved 移除实体；移除不可恢复
func (m *StateMachine) ChangeEntityToRemoved(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	at := m.now()
	if err := uow.Entities().UpdateStatus(ctx, agg.ID, model.StatusRemoved, t.Actor, at); err != nil {
		return uuid.Nil, err
	}
	m.track(uow, model.OperationRemoved, agg, t, at)
	return agg.ID, nil
}

// WithdrawEntity 撤回已发布的实体
func (m *StateMachine) WithdrawEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	if agg.PublishingStatus != model.StatusPublished {
		return uuid.Nil, conflict(t, agg.PublishingStatus, "withdraw")
	}
	at := m.now()
	if err := uow.Entities().UpdateStatus(ctx, agg.ID, model.StatusModified, t.Actor, at); err != nil {
		return uuid.Nil, err
	}
	if err := m.setLanguages(ctx, uow, agg.ID, []model.PublishingStatus{model.StatusPublished}, model.StatusModified); err != nil {
		return uuid.Nil, err
	}
	m.track(uow, model.OperationWithdrawn, agg, t, at)
	return agg.ID, nil
}

// RestoreEntity 恢复已归档的实体
func (m *StateMachine) RestoreEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	if agg.PublishingStatus != model.StatusDeleted {
		return uuid.Nil, conflict(t, agg.PublishingStatus, "restore")
	}
	at := m.now()
	if err := uow.Entities().UpdateStatus(ctx, agg.ID, model.StatusModified, t.Actor, at); err != nil {
		return uuid.Nil, err
	}
	if err := m.setLanguages(ctx, uow, agg.ID, []model.PublishingStatus{model.StatusDeleted}, model.StatusModified); err != nil {
		return uuid.Nil, err
	}
	m.track(uow, model.OperationRestored, agg, t, at)
	return agg.ID, nil
}

// ArchiveLanguage 归档单个语言
func (m *StateMachine) ArchiveLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	return m.changeLanguage(ctx, uow, t, nil, model.StatusDeleted, model.OperationLanguageArchived)
}

// RestoreLanguage 恢复已归档的语言
func (m *StateMachine) RestoreLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	return m.changeLanguage(ctx, uow, t, []model.PublishingStatus{model.StatusDeleted}, model.StatusModified, model.OperationLanguageRestored)
}

// WithdrawLanguage 撤回已发布的语言
func (m *StateMachine) WithdrawLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error) {
	return m.changeLanguage(ctx, uow, t, []model.PublishingStatus{model.StatusPublished}, model.StatusModified, model.OperationLanguageWithdrawn)
}

func (m *StateMachine) changeLanguage(ctx context.Context, uow repository.IUnitOfWork, t Transition, from []model.PublishingStatus, to model.PublishingStatus, op model.OperationType) (uuid.UUID, error) {
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	las, err := uow.Entities().LanguageAvailabilities(ctx, agg.ID)
	if err != nil {
		return uuid.Nil, err
	}
	idx := slices.IndexFunc(las, func(la model.LanguageAvailability) bool { return la.LanguageID == t.LanguageID })
	if idx < 0 {
		return uuid.Nil, errors.NotFound("language availability", t.LanguageID)
	}
	la := las[idx]
	if from != nil && !slices.Contains(from, la.Status) {
		return uuid.Nil, conflict(t, la.Status, string(op))
	}
	la.Status = to
	if err := uow.Entities().UpsertLanguageAvailability(ctx, agg.ID, la); err != nil {
		return uuid.Nil, err
	}
	m.track(uow, op, agg, t, m.now())
	return agg.ID, nil
}

// setLanguages 把状态属于 from（nil 表示全部）的语言改为 to
func (m *StateMachine) setLanguages(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID, from []model.PublishingStatus, to model.PublishingStatus) error {
	las, err := uow.Entities().LanguageAvailabilities(ctx, id)
	if err != nil {
		return err
	}
	for _, la := range las {
		if la.Status == to || (from != nil && !slices.Contains(from, la.Status)) {
			continue
		}
		la.Status = to
		if err := uow.Entities().UpsertLanguageAvailability(ctx, id, la); err != nil {
			return err
		}
	}
	return nil
}

// SchedulePublishArchiveEntity 为选定语言设置计划发布或归档时间
func (m *StateMachine) SchedulePublishArchiveEntity(ctx context.Context, uow repository.IUnitOfWork, t Transition, s Schedule) (uuid.UUID, error) {
	if s.Action != ActionSchedulePublish && s.Action != ActionScheduleArchive {
		return uuid.Nil, errors.UnsupportedVariant("schedule", s.Action)
	}
	agg, err := m.lock(ctx, uow, t)
	if err != nil {
		return uuid.Nil, err
	}
	las, err := uow.Entities().LanguageAvailabilities(ctx, agg.ID)
	if err != nil {
		return uuid.Nil, err
	}
	at := s.At.UTC()
	touched := 0
	for _, la := range las {
		if len(s.LanguageIDs) > 0 && !slices.Contains(s.LanguageIDs, la.LanguageID) {
			continue
		}
		if s.Action == ActionSchedulePublish {
			la.ValidFrom = &at
		} else {
			la.ArchiveAt = &at
		}
		if err := uow.Entities().UpsertLanguageAvailability(ctx, agg.ID, la); err != nil {
			return uuid.Nil, err
		}
		touched++
	}
	if touched == 0 {
		return uuid.Nil, errors.NewError(errors.ErrCodeInvalidInput, "schedule matches no language availability")
	}
	m.track(uow, model.OperationScheduled, agg, t, m.now())
	return agg.ID, nil
}
