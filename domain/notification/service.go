package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ptvdata/domain/model"
	"ptvdata/domain/naming"
	"ptvdata/domain/repository"
	"ptvdata/domain/versioning"
	"ptvdata/errors"
	"ptvdata/logging"
	"ptvdata/messaging"
	"ptvdata/metrics"
	"ptvdata/patterns/retry"
	"ptvdata/refcache"
)

var tracer = otel.Tracer("notification")

// ISnapshotSource 引用数据快照来源
type ISnapshotSource interface {
	Get(ctx context.Context) (*refcache.Snapshot, error)
}

// Search 分页列表请求
type Search struct {
	PageNumber int
	// OrganizationID 只看该组织的实体变更；连接变更不按组织过滤
	OrganizationID uuid.NullUUID
}

// Numbers 窗口内每个类别的通知数量
type Numbers struct {
	Since  time.Time    `json:"since"`
	Counts map[Kind]int `json:"counts"`
}

// Total 全部类别合计
func (n Numbers) Total() int {
	total := 0
	for _, c := range n.Counts {
		total += c
	}
	return total
}

// Item 一条通知
//
// Entity 为受影响实体当前的最新版本；连接变更时 Entity 与 Other 分别是关系的两侧。
type Item struct {
	OperationID   uuid.UUID
	OperationType model.OperationType
	Created       time.Time
	CreatedBy     string
	Relation      string
	Entity        naming.Summary
	Other         *naming.Summary
	// LanguageCode 语言级变更的语言
	LanguageCode string
}

// Service 通知服务
type Service struct {
	uow       repository.IProvider
	refs      ISnapshotSource
	annotator *naming.Annotator
	publisher messaging.IPublisher
	retry     retry.Config
	metrics   *metrics.Metrics
	logger    logging.Logger
	now       func() time.Time
}

// NewService 创建通知服务；publisher 为 nil 时 PublishDigest 不可用
func NewService(uow repository.IProvider, refs ISnapshotSource, publisher messaging.IPublisher, m *metrics.Metrics) *Service {
	return &Service{
		uow:       uow,
		refs:      refs,
		annotator: naming.NewAnnotator(versioning.NewResolver()),
		publisher: publisher,
		retry:     retry.DefaultConfig(),
		metrics:   m,
		logger:    logging.ComponentLogger("notification"),
		now:       time.Now,
	}
}

// WithClock 替换时钟，测试用
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// WithRetry 替换摘要发布的重试配置
func (s *Service) WithRetry(cfg retry.Config) *Service {
	cp := *s
	cp.retry = cfg
	return &cp
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) since() time.Time {
	return s.now().UTC().Add(-Retention)
}

func (s *Service) connectionQuery(since time.Time) repository.ConnectionOperationQuery {
	return repository.ConnectionOperationQuery{Operations: connectionOps, Since: &since, OrderByID: true}
}

func (s *Service) entityQuery(kind Kind, since time.Time, org uuid.NullUUID) repository.EntityOperationQuery {
	q := kind.entityQuery()
	q.Since = &since
	q.OrganizationID = org
	return q
}

// GetNotificationsNumbers 统计窗口内每个类别的数量
func (s *Service) GetNotificationsNumbers(ctx context.Context, org uuid.NullUUID) (numbers Numbers, err error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.GetNotificationsNumbers")
	defer func() { endSpan(span, err) }()
	start := time.Now()
	defer func() { s.metrics.ObserveNotificationNumbers(time.Since(start)) }()

	since := s.since()
	numbers = Numbers{Since: since, Counts: make(map[Kind]int, len(Kinds))}
	err = s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		for _, kind := range Kinds {
			var n int
			var err error
			if kind.fromConnections() {
				n, err = uow.Tracking().CountConnectionOperations(ctx, s.connectionQuery(since))
			} else {
				n, err = uow.Tracking().CountEntityOperations(ctx, s.entityQuery(kind, since, org))
			}
			if err != nil {
				return err
			}
			numbers.Counts[kind] = n
		}
		return nil
	})
	if err != nil {
		return Numbers{}, err
	}
	span.SetAttributes(attribute.Int("total", numbers.Total()))
	return numbers, nil
}

// List 返回某类通知的一页，按时间倒序
func (s *Service) List(ctx context.Context, kind Kind, search Search) (page model.Page[Item], err error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.List",
		trace.WithAttributes(attribute.String("kind", string(kind)), attribute.Int("page", search.PageNumber)))
	defer func() { endSpan(span, err) }()

	if _, ok := ParseKind(string(kind)); !ok {
		return page, errors.UnsupportedVariant("notification list", kind)
	}
	snap, err := s.refs.Get(ctx)
	if err != nil {
		return page, err
	}
	since := s.since()

	err = s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		var items []Item
		var count int
		var err error
		if kind.fromConnections() {
			items, count, err = s.listConnections(ctx, uow, snap, since, search.PageNumber)
		} else {
			items, count, err = s.listEntities(ctx, uow, snap, kind, since, search)
		}
		if err != nil {
			return err
		}
		page = model.NewPage(items, count, search.PageNumber)
		return nil
	})
	if err != nil {
		return model.Page[Item]{}, err
	}
	return page, nil
}

func (s *Service) listConnections(ctx context.Context, uow repository.IUnitOfWork, snap *refcache.Snapshot, since time.Time, pageNumber int) ([]Item, int, error) {
	q := s.connectionQuery(since)
	q.Skip, q.Take = model.Skip(pageNumber), model.PageSize
	ops, count, err := uow.Tracking().PageConnectionOperations(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	refs := make([]naming.RootRef, 0, 2*len(ops))
	for _, op := range ops {
		refs = append(refs,
			naming.RootRef{Kind: op.LeftKind, RootID: op.LeftRootID},
			naming.RootRef{Kind: op.RightKind, RootID: op.RightRootID})
	}
	latest, err := s.annotator.Latest(ctx, uow, snap, refs)
	if err != nil {
		return nil, 0, err
	}
	items := make([]Item, 0, len(ops))
	for _, op := range ops {
		other := latest[naming.RootRef{Kind: op.RightKind, RootID: op.RightRootID}]
		items = append(items, Item{
			OperationID:   op.ID,
			OperationType: op.OperationType,
			Created:       op.Created,
			CreatedBy:     op.CreatedBy,
			Relation:      op.Relation,
			Entity:        latest[naming.RootRef{Kind: op.LeftKind, RootID: op.LeftRootID}],
			Other:         &other,
		})
	}
	return items, count, nil
}

func (s *Service) listEntities(ctx context.Context, uow repository.IUnitOfWork, snap *refcache.Snapshot, kind Kind, since time.Time, search Search) ([]Item, int, error) {
	q := s.entityQuery(kind, since, search.OrganizationID)
	q.Skip, q.Take = model.Skip(search.PageNumber), model.PageSize
	ops, count, err := uow.Tracking().PageEntityOperations(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	refs := make([]naming.RootRef, 0, len(ops))
	for _, op := range ops {
		refs = append(refs, naming.RootRef{Kind: op.EntityKind, RootID: op.RootID})
	}
	latest, err := s.annotator.Latest(ctx, uow, snap, refs)
	if err != nil {
		return nil, 0, err
	}
	items := make([]Item, 0, len(ops))
	for _, op := range ops {
		item := Item{
			OperationID:   op.ID,
			OperationType: op.OperationType,
			Created:       op.Created,
			CreatedBy:     op.CreatedBy,
			Entity:        latest[naming.RootRef{Kind: op.EntityKind, RootID: op.RootID}],
		}
		if op.LanguageID.Valid {
			item.LanguageCode, _ = snap.LanguageCode(op.LanguageID.UUID)
		}
		items = append(items, item)
	}
	return items, count, nil
}

// Digest 发布的摘要内容
type Digest struct {
	Numbers
	Total          int        `json:"total"`
	OrganizationID *uuid.UUID `json:"organizationId,omitempty"`
}

// PublishDigest 统计数量并发布摘要消息
func (s *Service) PublishDigest(ctx context.Context, org uuid.NullUUID) (numbers Numbers, err error) {
	ctx, span := tracer.Start(ctx, "Notification.Service.PublishDigest")
	defer func() { endSpan(span, err) }()

	if s.publisher == nil {
		return numbers, errors.NewError(errors.ErrCodeInvalidInput, "no publisher configured")
	}
	numbers, err = s.GetNotificationsNumbers(ctx, org)
	if err != nil {
		return numbers, err
	}
	digest := Digest{Numbers: numbers, Total: numbers.Total()}
	if org.Valid {
		digest.OrganizationID = &org.UUID
	}
	msg := messaging.NewMessage(uuid.NewString(), messaging.TypeNotificationDigest, digest)
	if org.Valid {
		msg.SetMetadata("organization", org.UUID.String())
	}
	err = retry.Do(ctx, s.retry, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			s.logger.Debug(ctx, "retrying digest publish", logging.Int("attempt", attempt))
		}
		return s.publisher.Publish(ctx, msg)
	})
	if err != nil {
		return numbers, errors.WrapWithLog(ctx, err, errors.ErrCodeQueue, "publish notification digest",
			logging.String("message_id", msg.ID))
	}
	s.logger.Info(ctx, "notification digest published",
		logging.String("message_id", msg.ID),
		logging.Int("total", digest.Total))
	return numbers, nil
}
