package naming

import (
	"context"

	"github.com/google/uuid"

	"ptvdata/domain/fetchplan"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/domain/versioning"
	"ptvdata/refcache"
)

// Summary 实体的当前显示信息
//
// EntityID 无效表示该根下已没有有效版本，此时 Names 为空。
type Summary struct {
	Kind             model.EntityKind
	RootID           uuid.UUID
	EntityID         uuid.NullUUID
	SubType          string
	PublishingStatus model.PublishingStatus
	Names            map[string]string
	Languages        []LanguageState
}

// RootRef 需要解析的 (类别, 根)
type RootRef struct {
	Kind   model.EntityKind
	RootID uuid.UUID
}

// Annotator 把根解析为其最新版本并生成显示信息
type Annotator struct {
	resolver *versioning.Resolver
}

func NewAnnotator(resolver *versioning.Resolver) *Annotator {
	return &Annotator{resolver: resolver}
}

// Latest 解析一组根的最新版本；同一根只解析一次，聚合的名称等在一次批量加载中取回
func (a *Annotator) Latest(ctx context.Context, uow repository.IUnitOfWork, snap *refcache.Snapshot, refs []RootRef) (map[RootRef]Summary, error) {
	out := make(map[RootRef]Summary, len(refs))
	var ids []uuid.UUID
	idToRef := make(map[uuid.UUID]RootRef)
	for _, ref := range refs {
		if _, done := out[ref]; done {
			continue
		}
		out[ref] = Summary{Kind: ref.Kind, RootID: ref.RootID, Names: map[string]string{}, Languages: []LanguageState{}}
		last, ok, err := a.resolver.GetLastVersion(ctx, uow, ref.Kind, ref.RootID)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, last.EntityID)
			idToRef[last.EntityID] = ref
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	aggs, err := uow.Entities().GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := uow.Entities().Include(ctx, fetchplan.Summary(), aggs); err != nil {
		return nil, err
	}
	for _, agg := range aggs {
		ref := idToRef[agg.ID]
		out[ref] = Describe(ref.Kind, agg, snap)
	}
	return out, nil
}

// Describe 生成聚合的显示信息，聚合需已加载名称、显示名称类型与语言可用性
func Describe(kind model.EntityKind, agg *model.Aggregate, snap *refcache.Snapshot) Summary {
	return Summary{
		Kind:             kind,
		RootID:           agg.UnificRootID,
		EntityID:         uuid.NullUUID{UUID: agg.ID, Valid: true},
		SubType:          agg.SubType,
		PublishingStatus: agg.PublishingStatus,
		Names:            DisplayNames(agg, snap),
		Languages:        LanguageStates(agg, snap),
	}
}
