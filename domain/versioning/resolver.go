package versioning

import (
	"context"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

// Resolver 在工作单元内解析实体的版本索引与最新版本
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Index 返回根下某类别实体的有效版本引用
func (r *Resolver) Index(ctx context.Context, uow repository.IUnitOfWork, kind model.EntityKind, rootID uuid.UUID) ([]repository.VersionRef, error) {
	rows, err := uow.Versioning().ListByRoot(ctx, rootID)
	if err != nil {
		return nil, err
	}
	refs, err := uow.Versioning().ListEntityVersions(ctx, kind, rootID)
	if err != nil {
		return nil, err
	}
	return LiveRefs(refs, VoidedMajors(rows)), nil
}

// GetLastVersion 返回根下位置最大的有效版本；ok=false 表示没有有效版本
func (r *Resolver) GetLastVersion(ctx context.Context, uow repository.IUnitOfWork, kind model.EntityKind, rootID uuid.UUID) (repository.VersionRef, bool, error) {
	index, err := r.Index(ctx, uow, kind, rootID)
	if err != nil {
		return repository.VersionRef{}, false, err
	}
	ref, ok := Latest(index)
	return ref, ok, nil
}

// Latest 在版本引用中取位置最大者，同位置取创建时间最新者
func Latest(index []repository.VersionRef) (repository.VersionRef, bool) {
	if len(index) == 0 {
		return repository.VersionRef{}, false
	}
	sorted := sortedRefs(index)
	last := sorted[len(sorted)-1].Position
	return firstAt(sorted, last), true
}
