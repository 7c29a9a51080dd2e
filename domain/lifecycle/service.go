package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ptvdata/domain/fetchplan"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
	"ptvdata/lock"
	"ptvdata/logging"
	"ptvdata/metrics"
	"ptvdata/saga"
)

var tracer = otel.Tracer("lifecycle")

// Step 保存流程中的一个前置或后置步骤，在自己的写事务中执行
//
// id 为实体 ID：前置步骤拿到请求中的 ID（新建时为 uuid.Nil），后置步骤拿到主体保存后的 ID。
type Step struct {
	Name string
	Run  func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error
}

// SaveRequest 保存请求
type SaveRequest struct {
	ID     uuid.UUID
	Action Action
	Actor  string
	Pre    []Step
	// Primary 主体保存，返回保存后的实体 ID
	Primary func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error)
	Post    []Step
}

// Result 操作结果：重新读取的实体视图
type Result[V any] struct {
	ID       uuid.UUID
	Entity   V
	Messages []ValidationMessage
	// Report 只有保存操作会填充
	Report *saga.Report
}

// Options 服务依赖
type Options struct {
	Common    ICommonService
	Validator IValidator
	Locker    lock.ILocker
	Metrics   *metrics.Metrics
}

// Service 一种实体类别的生命周期编排
type Service[V any] struct {
	desc      Descriptor
	uow       repository.IProvider
	load      Loader[V]
	common    ICommonService
	validator IValidator
	locker    lock.ILocker
	runner    *saga.Runner
	metrics   *metrics.Metrics
	logger    logging.Logger
}

// defaultLocker 未配置 Locker 的服务共用，保证同一进程内的发布锁互斥
var defaultLocker lock.ILocker = lock.NewLocal(10 * time.Second)

// NewService 创建编排服务；Validator 为 nil 时不做校验，Locker 为 nil 时使用进程内共享锁
func NewService[V any](desc Descriptor, uow repository.IProvider, load Loader[V], opts Options) *Service[V] {
	if opts.Common == nil {
		opts.Common = NewStateMachine()
	}
	if opts.Locker == nil {
		opts.Locker = defaultLocker
	}
	m := opts.Metrics
	return &Service[V]{
		desc:      desc,
		uow:       uow,
		load:      load,
		common:    opts.Common,
		validator: opts.Validator,
		locker:    opts.Locker,
		runner: saga.NewRunner(func(r saga.StepResult) {
			m.IncLifecycleStep(string(r.Phase), string(r.Status))
		}),
		metrics: m,
		logger:  logging.ComponentLogger("lifecycle").WithFields(logging.String("kind", string(desc.Kind))),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service[V]) start(ctx context.Context, op string, id uuid.UUID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Lifecycle.Service."+op, trace.WithAttributes(
		attribute.String("kind", string(s.desc.Kind)),
		attribute.String("id", id.String()),
	))
}

// Get 在只读事务中读取实体
//
// validate 为 true，或任一语言存在待生效的计划发布时，同时返回校验消息。
func (s *Service[V]) Get(ctx context.Context, id uuid.UUID, validate bool) (res Result[V], err error) {
	ctx, span := s.start(ctx, "Get", id)
	defer func() { endSpan(span, err) }()

	if id == uuid.Nil {
		return res, errors.NotFound(string(s.desc.Kind), id)
	}
	err = s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		return s.read(ctx, uow, id, validate, &res)
	})
	return res, err
}

func (s *Service[V]) read(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID, validate bool, res *Result[V]) error {
	entity, err := s.load(ctx, uow, id)
	if err != nil {
		return err
	}
	res.ID = id
	res.Entity = entity

	if !validate && s.desc.HasLanguageAvailability {
		las, err := uow.Entities().LanguageAvailabilities(ctx, id)
		if err != nil {
			return err
		}
		for _, la := range las {
			if la.HasPendingPublish() {
				validate = true
				break
			}
		}
	}
	if validate && s.validator != nil {
		msgs, err := s.validator.Validate(ctx, uow, s.desc.Kind, id)
		if err != nil {
			return err
		}
		res.Messages = msgs
	}
	return nil
}

func (s *Service[V]) reload(ctx context.Context, id uuid.UUID) (Result[V], error) {
	var res Result[V]
	err := s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		return s.read(ctx, uow, id, false, &res)
	})
	return res, err
}

// Save 执行前置步骤、主体保存与后置步骤，各自独立提交
//
// 对已有实体的 SaveAndPublish 先取得该实体的发布锁。任一步骤失败时返回错误，
// 结果中的 Report 说明哪些步骤已经提交。
func (s *Service[V]) Save(ctx context.Context, req SaveRequest) (res Result[V], err error) {
	ctx, span := s.start(ctx, "Save", req.ID)
	span.SetAttributes(attribute.String("action", string(req.Action)))
	defer func() { endSpan(span, err) }()

	if req.Primary == nil {
		return res, errors.NewError(errors.ErrCodeInvalidInput, "save request has no primary step")
	}
	if req.Action == "" {
		req.Action = ActionSave
	}
	if req.Action != ActionSave && req.Action != ActionSaveAndPublish {
		return res, errors.UnsupportedVariant("save", req.Action)
	}

	if req.Action == ActionSaveAndPublish && req.ID != uuid.Nil {
		waitStart := time.Now()
		unlock, err := s.locker.Lock(ctx, lock.Key("publish", string(s.desc.Kind), req.ID.String()))
		s.metrics.ObserveLockWait(time.Since(waitStart))
		if err != nil {
			return res, err
		}
		defer unlock()
	}

	savedID := req.ID
	steps := make([]saga.Step, 0, len(req.Pre)+len(req.Post)+1)
	for _, st := range req.Pre {
		st := st
		steps = append(steps, saga.NewStep(saga.PhasePre, st.Name, func(ctx context.Context) error {
			return s.write(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
				return st.Run(ctx, uow, req.ID)
			})
		}))
	}
	steps = append(steps, saga.NewStep(saga.PhasePrimary, string(req.Action), func(ctx context.Context) error {
		return s.write(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
			id, err := req.Primary(ctx, uow)
			if err != nil {
				return err
			}
			if req.Action == ActionSaveAndPublish {
				if id, err = s.common.PublishEntity(ctx, uow, Transition{Kind: s.desc.Kind, ID: id, Actor: req.Actor}); err != nil {
					return err
				}
			}
			savedID = id
			return nil
		})
	}))
	for _, st := range req.Post {
		st := st
		steps = append(steps, saga.NewStep(saga.PhasePost, st.Name, func(ctx context.Context) error {
			return s.write(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
				return st.Run(ctx, uow, savedID)
			})
		}))
	}

	report, err := s.runner.Run(ctx, steps)
	res.ID = savedID
	res.Report = report
	if err != nil {
		s.logger.Warn(ctx, "save did not complete", logging.Error(err),
			logging.UUID("id", savedID),
			logging.Int("completed", len(report.Completed())))
		return res, err
	}

	loaded, err := s.reload(ctx, savedID)
	loaded.Report = report
	return loaded, err
}

// SaveSimple 单事务保存，没有前置与后置步骤也不加锁
func (s *Service[V]) SaveSimple(ctx context.Context, actor string, primary func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error)) (res Result[V], err error) {
	ctx, span := s.start(ctx, "SaveSimple", uuid.Nil)
	defer func() { endSpan(span, err) }()

	var id uuid.UUID
	err = s.write(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		var err error
		id, err = primary(ctx, uow)
		return err
	})
	if err != nil {
		return res, err
	}
	return s.reload(ctx, id)
}

// write 在写事务中执行 fn 并以 SaveModeNormal 提交
func (s *Service[V]) write(ctx context.Context, fn func(ctx context.Context, uow repository.IUnitOfWork) error) error {
	return s.uow.ExecuteWriter(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		if err := fn(ctx, uow); err != nil {
			return err
		}
		return uow.Save(ctx, repository.SaveModeNormal)
	})
}

// Schedule 计划发布或归档
//
// 计划发布先做校验，有校验消息时返回 *SchedulePublishError，不做任何修改。
func (s *Service[V]) Schedule(ctx context.Context, id uuid.UUID, sched Schedule, actor string) (res Result[V], err error) {
	ctx, span := s.start(ctx, "Schedule", id)
	span.SetAttributes(attribute.String("action", string(sched.Action)))
	defer func() { endSpan(span, err) }()

	if id == uuid.Nil {
		return res, errors.NotFound(string(s.desc.Kind), id)
	}
	if !s.desc.HasLanguageAvailability {
		return res, errors.UnsupportedVariant("schedule", s.desc.Kind)
	}
	if sched.Action == ActionSchedulePublish && s.validator != nil {
		var msgs []ValidationMessage
		err = s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
			var err error
			msgs, err = s.validator.Validate(ctx, uow, s.desc.Kind, id)
			return err
		})
		if err != nil {
			return res, err
		}
		if len(msgs) > 0 {
			return res, &SchedulePublishError{Messages: msgs}
		}
	}

	return s.transition(ctx, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return s.common.SchedulePublishArchiveEntity(ctx, uow, Transition{Kind: s.desc.Kind, ID: id, Actor: actor}, sched)
	})
}

// transition 写事务中执行状态变更，之后用变更返回的 ID 重新读取
func (s *Service[V]) transition(ctx context.Context, fn func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error)) (Result[V], error) {
	var id uuid.UUID
	err := s.write(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		var err error
		id, err = fn(ctx, uow)
		return err
	})
	if err != nil {
		return Result[V]{}, err
	}
	return s.reload(ctx, id)
}

type commonFunc func(ctx context.Context, uow repository.IUnitOfWork, t Transition) (uuid.UUID, error)

func (s *Service[V]) entityTransition(ctx context.Context, op string, id uuid.UUID, actor string, fn commonFunc) (res Result[V], err error) {
	ctx, span := s.start(ctx, op, id)
	defer func() { endSpan(span, err) }()

	if id == uuid.Nil {
		return res, errors.NotFound(string(s.desc.Kind), id)
	}
	res, err = s.transition(ctx, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return fn(ctx, uow, Transition{Kind: s.desc.Kind, ID: id, Actor: actor})
	})
	if err == nil {
		s.logger.Info(ctx, "entity "+op, logging.UUID("id", id), logging.String("actor", actor))
	}
	return res, err
}

func (s *Service[V]) languageTransition(ctx context.Context, op string, id, languageID uuid.UUID, actor string, fn commonFunc) (res Result[V], err error) {
	ctx, span := s.start(ctx, op, id)
	span.SetAttributes(attribute.String("language", languageID.String()))
	defer func() { endSpan(span, err) }()

	if !s.desc.HasLanguageAvailability {
		return res, errors.UnsupportedVariant(op, s.desc.Kind)
	}
	if id == uuid.Nil {
		return res, errors.NotFound(string(s.desc.Kind), id)
	}
	return s.transition(ctx, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return fn(ctx, uow, Transition{Kind: s.desc.Kind, ID: id, LanguageID: languageID, Actor: actor})
	})
}

// Delete 归档实体
func (s *Service[V]) Delete(ctx context.Context, id uuid.UUID, actor string) (Result[V], error) {
	return s.entityTransition(ctx, "Delete", id, actor, s.common.ChangeEntityToDeleted)
}

// Remove 移除实体
func (s *Service[V]) Remove(ctx context.Context, id uuid.UUID, actor string) (Result[V], error) {
	return s.entityTransition(ctx, "Remove", id, actor, s.common.ChangeEntityToRemoved)
}

func (s *Service[V]) Withdraw(ctx context.Context, id uuid.UUID, actor string) (Result[V], error) {
	return s.entityTransition(ctx, "Withdraw", id, actor, s.common.WithdrawEntity)
}

func (s *Service[V]) Restore(ctx context.Context, id uuid.UUID, actor string) (Result[V], error) {
	return s.entityTransition(ctx, "Restore", id, actor, s.common.RestoreEntity)
}

func (s *Service[V]) ArchiveLanguage(ctx context.Context, id, languageID uuid.UUID, actor string) (Result[V], error) {
	return s.languageTransition(ctx, "ArchiveLanguage", id, languageID, actor, s.common.ArchiveLanguage)
}

func (s *Service[V]) RestoreLanguage(ctx context.Context, id, languageID uuid.UUID, actor string) (Result[V], error) {
	return s.languageTransition(ctx, "RestoreLanguage", id, languageID, actor, s.common.RestoreLanguage)
}

func (s *Service[V]) WithdrawLanguage(ctx context.Context, id, languageID uuid.UUID, actor string) (Result[V], error) {
	return s.languageTransition(ctx, "WithdrawLanguage", id, languageID, actor, s.common.WithdrawLanguage)
}

// AggregateLoader 读取聚合并按类别与子类型加载完整视图
func AggregateLoader(kind model.EntityKind) Loader[*model.Aggregate] {
	return func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) (*model.Aggregate, error) {
		agg, err := uow.Entities().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if agg.Kind != kind {
			return nil, errors.NotFound(string(kind), id)
		}
		plan, err := fetchplan.IncludeDetails(fetchplan.Empty(), agg.Kind, agg.SubType)
		if err != nil {
			return nil, err
		}
		if err := uow.Entities().Include(ctx, plan, []*model.Aggregate{agg}); err != nil {
			return nil, err
		}
		return agg, nil
	}
}
