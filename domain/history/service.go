package history

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
	"ptvdata/domain/naming"
	"ptvdata/domain/repository"
	"ptvdata/domain/versioning"
	"ptvdata/errors"
	"ptvdata/logging"
	"ptvdata/metrics"
	"ptvdata/refcache"
)

var tracer = otel.Tracer("history")

// ISnapshotSource 引用数据快照来源
type ISnapshotSource interface {
	Get(ctx context.Context) (*refcache.Snapshot, error)
}

// connectionHistoryOps 连接历史只关心建立与解除
var connectionHistoryOps = []model.OperationType{model.OperationAdded, model.OperationDeleted}

// Service 历史查询服务
type Service struct {
	uow       repository.IProvider
	refs      ISnapshotSource
	resolver  *versioning.Resolver
	annotator *naming.Annotator
	metrics   *metrics.Metrics
	logger    logging.Logger
}

// NewService 创建历史服务；m 可以为 nil
func NewService(uow repository.IProvider, refs ISnapshotSource, m *metrics.Metrics) *Service {
	resolver := versioning.NewResolver()
	return &Service{
		uow:       uow,
		refs:      refs,
		resolver:  resolver,
		annotator: naming.NewAnnotator(resolver),
		metrics:   m,
		logger:    logging.ComponentLogger("history"),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// GetConnectionHistory 返回 kind 一侧实体的连接建立/解除记录
//
// 每条记录的另一侧解析为其当前最新版本，而不是记录发生时的版本。
func (s *Service) GetConnectionHistory(ctx context.Context, kind model.EntityKind, search Search) (page model.Page[ConnectionHistoryItem], err error) {
	ctx, span := tracer.Start(ctx, "History.Service.GetConnectionHistory",
		trace.WithAttributes(attribute.String("kind", string(kind)), attribute.Int("page", search.PageNumber)))
	defer func() { endSpan(span, err) }()
	start := time.Now()
	defer func() { s.metrics.ObserveHistory("connection", string(kind), time.Since(start)) }()

	if !kind.Valid() {
		return page, errors.UnsupportedVariant("connection history", kind)
	}
	snap, err := s.refs.Get(ctx)
	if err != nil {
		return page, err
	}

	err = s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		root, err := uow.Versioning().ResolveRoot(ctx, kind, search.ID)
		if err != nil {
			return err
		}
		ops, count, err := uow.Tracking().PageConnectionOperations(ctx, repository.ConnectionOperationQuery{
			Kind:       kind,
			RootID:     root,
			Operations: connectionHistoryOps,
			OrderByID:  kind != model.KindServiceCollection,
			Skip:       model.Skip(search.PageNumber),
			Take:       model.PageSize,
		})
		if err != nil {
			return err
		}

		refs := make([]naming.RootRef, 0, len(ops))
		for _, op := range ops {
			if otherKind, otherRoot, ok := op.Other(kind, root); ok {
				refs = append(refs, naming.RootRef{Kind: otherKind, RootID: otherRoot})
			}
		}
		latest, err := s.annotator.Latest(ctx, uow, snap, refs)
		if err != nil {
			return err
		}

		items := make([]ConnectionHistoryItem, 0, len(ops))
		for _, op := range ops {
			item := ConnectionHistoryItem{
				OperationID:   op.ID,
				OperationType: op.OperationType,
				Created:       op.Created,
				CreatedBy:     op.CreatedBy,
				Relation:      op.Relation,
			}
			if otherKind, otherRoot, ok := op.Other(kind, root); ok {
				item.Other = latest[naming.RootRef{Kind: otherKind, RootID: otherRoot}]
			}
			items = append(items, item)
		}
		page = model.NewPage(items, count, search.PageNumber)
		return nil
	})
	if err != nil {
		return model.Page[ConnectionHistoryItem]{}, err
	}
	span.SetAttributes(attribute.Int("count", page.Count))
	return page, nil
}

// GetEntityHistory 返回实体自身的版本历史
//
// 已忽略的版本行以及 minor-0 行被忽略的整个主版本都不出现；组织历史额外排除
// 挂有当前已移除服务的版本行。缺少 kind 类别实体的行按补齐规则从其他版本取实体。
func (s *Service) GetEntityHistory(ctx context.Context, kind model.EntityKind, search Search) (page model.Page[EntityHistoryItem], err error) {
	ctx, span := tracer.Start(ctx, "History.Service.GetEntityHistory",
		trace.WithAttributes(attribute.String("kind", string(kind)), attribute.Int("page", search.PageNumber)))
	defer func() { endSpan(span, err) }()
	start := time.Now()
	defer func() { s.metrics.ObserveHistory("entity", string(kind), time.Since(start)) }()

	if !kind.Valid() {
		return page, errors.UnsupportedVariant("entity history", kind)
	}
	snap, err := s.refs.Get(ctx)
	if err != nil {
		return page, err
	}

	err = s.uow.ExecuteReader(ctx, func(ctx context.Context, uow repository.IUnitOfWork) error {
		root, err := uow.Versioning().ResolveRoot(ctx, kind, search.ID)
		if err != nil {
			return err
		}
		rows, count, err := uow.Versioning().PageHistory(ctx, repository.HistoryQuery{
			RootID:                 root,
			ExcludeRemovedServices: kind == model.KindOrganization,
			Skip:                   model.Skip(search.PageNumber),
			Take:                   model.PageSize,
		})
		if err != nil {
			return err
		}
		items, err := s.assemble(ctx, uow, snap, kind, root, rows)
		if err != nil {
			return err
		}
		page = model.NewPage(items, count, search.PageNumber)
		return nil
	})
	if err != nil {
		return model.Page[EntityHistoryItem]{}, err
	}
	span.SetAttributes(attribute.Int("count", page.Count))
	return page, nil
}

// assemble 为版本行挂上实体、补齐缺失的实体并生成显示信息
func (s *Service) assemble(ctx context.Context, uow repository.IUnitOfWork, snap *refcache.Snapshot,
	kind model.EntityKind, root uuid.UUID, rows []*model.Versioning) ([]EntityHistoryItem, error) {
	if len(rows) == 0 {
		return []EntityHistoryItem{}, nil
	}

	versioningIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		versioningIDs[i] = row.ID
	}
	attached, err := uow.Entities().ListByVersioning(ctx, versioningIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Versioning, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	// 同一实体在本页只保留一个实例，真实行与补齐行共享它，Include 才能一次填满
	canonical := make(map[uuid.UUID]*model.Aggregate, len(attached))
	for _, agg := range attached {
		if row, ok := byID[agg.VersioningID]; ok {
			row.Attach(agg.Kind, agg)
		}
		if agg.Kind == kind {
			canonical[agg.ID] = agg
		}
	}

	// 只在确实有缺口时才读取版本索引
	rules := make(map[uuid.UUID]versioning.Rule)
	fill := make(map[uuid.UUID]uuid.UUID)
	var index []repository.VersionRef
	indexed := false
	for _, row := range rows {
		if len(row.EntitiesOf(kind)) > 0 {
			continue
		}
		if !indexed {
			if index, err = s.resolver.Index(ctx, uow, kind, root); err != nil {
				return nil, err
			}
			indexed = true
		}
		ref, rule, ok := versioning.Polyfill(index, row.Position)
		if !ok {
			continue
		}
		rules[row.ID] = rule
		fill[row.ID] = ref.EntityID
		s.metrics.IncPolyfill(string(kind), string(rule))
	}
	if len(fill) > 0 {
		var missing []uuid.UUID
		for _, id := range fill {
			if _, ok := canonical[id]; !ok {
				canonical[id] = nil
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			fetched, err := uow.Entities().GetMany(ctx, missing)
			if err != nil {
				return nil, err
			}
			for _, agg := range fetched {
				canonical[agg.ID] = agg
			}
		}
		for _, row := range rows {
			if id, ok := fill[row.ID]; ok && canonical[id] != nil {
				row.Attach(kind, canonical[id])
			}
		}
	}

	shown := make([]*model.Aggregate, 0, len(rows))
	seen := make(map[*model.Aggregate]bool, len(rows))
	for _, row := range rows {
		for _, agg := range row.EntitiesOf(kind) {
			if !seen[agg] {
				seen[agg] = true
				shown = append(shown, agg)
			}
		}
	}
	if err := uow.Entities().Include(ctx, fetchplan.Summary(), shown); err != nil {
		return nil, err
	}

	items := make([]EntityHistoryItem, 0, len(rows))
	for _, row := range rows {
		item := EntityHistoryItem{
			VersioningID: row.ID,
			Version:      row.Position,
			Created:      row.Created,
			CreatedBy:    row.CreatedBy,
			Entity:       naming.Summary{Kind: kind, RootID: root, Names: map[string]string{}, Languages: []naming.LanguageState{}},
		}
		if aggs := row.EntitiesOf(kind); len(aggs) > 0 {
			item.Entity = naming.Describe(kind, aggs[0], snap)
		} else {
			s.logger.Warn(ctx, "history row without entity", logging.UUID("versioning_id", row.ID), logging.String("kind", string(kind)))
		}
		if rule, ok := rules[row.ID]; ok {
			item.Polyfilled = true
			item.Rule = rule
		}
		items = append(items, item)
	}
	return items, nil
}
