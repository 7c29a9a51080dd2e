package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	core "ptvdata/data/db"
	"ptvdata/data/db/dialect"
	sqlb "ptvdata/data/db/sql"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

const (
	connectionOpColumns = "id, operation_type, created, created_by, relation, left_kind, left_root_id, right_kind, right_root_id"
	entityOpColumns     = "id, operation_type, created, created_by, entity_kind, root_id, entity_id, organization_id, language_id"
)

type trackingRepository struct {
	uow *unitOfWork
}

func operationArgs(ops []model.OperationType) []any {
	out := make([]any, len(ops))
	for i, op := range ops {
		out[i] = op
	}
	return out
}

func kindArgs(kinds []model.EntityKind) []any {
	out := make([]any, len(kinds))
	for i, k := range kinds {
		out[i] = k
	}
	return out
}

func (r *trackingRepository) connectionQuery(ctx context.Context, q repository.ConnectionOperationQuery) (sqlb.ISelectBuilder, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	b := s.Select(connectionOpColumns).From("tracking_connection")
	if q.Kind != "" && q.RootID != uuid.Nil {
		b = b.Where("((left_kind = ? AND left_root_id = ?) OR (right_kind = ? AND right_root_id = ?))",
			q.Kind, q.RootID, q.Kind, q.RootID)
	}
	if len(q.Operations) > 0 {
		b = b.WhereIn("operation_type", operationArgs(q.Operations)...)
	}
	if q.Since != nil {
		b = b.Where("created >= ?", utc(*q.Since))
	}
	return b, nil
}

func scanConnectionOps(rows core.IRows, err error) ([]model.ConnectionOperation, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ConnectionOperation{}
	for rows.Next() {
		var op model.ConnectionOperation
		if err := rows.Scan(&op.ID, &op.OperationType, &op.Created, &op.CreatedBy, &op.Relation,
			&op.LeftKind, &op.LeftRootID, &op.RightKind, &op.RightRootID); err != nil {
			return nil, err
		}
		op.Created = op.Created.UTC()
		out = append(out, op)
	}
	return out, rows.Err()
}

func (r *trackingRepository) PageConnectionOperations(ctx context.Context, q repository.ConnectionOperationQuery) ([]model.ConnectionOperation, int, error) {
	b, err := r.connectionQuery(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	count, err := b.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if count == 0 || q.Skip >= count {
		return []model.ConnectionOperation{}, count, nil
	}
	b = b.OrderBy("created DESC")
	if q.OrderByID {
		b = b.OrderBy("id ASC")
	}
	ops, err := scanConnectionOps(b.Limit(q.Take).Offset(q.Skip).Query(ctx))
	if err != nil {
		return nil, 0, err
	}
	return ops, count, nil
}

func (r *trackingRepository) CountConnectionOperations(ctx context.Context, q repository.ConnectionOperationQuery) (int, error) {
	b, err := r.connectionQuery(ctx, q)
	if err != nil {
		return 0, err
	}
	return b.Count(ctx)
}

func (r *trackingRepository) entityQuery(ctx context.Context, q repository.EntityOperationQuery) (sqlb.ISelectBuilder, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	b := s.Select(entityOpColumns).From("tracking_entity")
	if len(q.Kinds) > 0 {
		b = b.WhereIn("entity_kind", kindArgs(q.Kinds)...)
	}
	if len(q.ExcludeKinds) > 0 {
		b = b.Where("entity_kind NOT IN ("+dialect.Placeholders(len(q.ExcludeKinds))+")", kindArgs(q.ExcludeKinds)...)
	}
	if len(q.Operations) > 0 {
		b = b.WhereIn("operation_type", operationArgs(q.Operations)...)
	}
	if q.Since != nil {
		b = b.Where("created >= ?", utc(*q.Since))
	}
	if q.OrganizationID.Valid {
		b = b.Where("organization_id = ?", q.OrganizationID.UUID)
	}
	return b, nil
}

func (r *trackingRepository) PageEntityOperations(ctx context.Context, q repository.EntityOperationQuery) ([]model.EntityOperation, int, error) {
	b, err := r.entityQuery(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	count, err := b.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if count == 0 || q.Skip >= count {
		return []model.EntityOperation{}, count, nil
	}
	rows, err := b.OrderBy("created DESC", "id ASC").Limit(q.Take).Offset(q.Skip).Query(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []model.EntityOperation{}
	for rows.Next() {
		var op model.EntityOperation
		if err := rows.Scan(&op.ID, &op.OperationType, &op.Created, &op.CreatedBy, &op.EntityKind,
			&op.RootID, &op.EntityID, &op.OrganizationID, &op.LanguageID); err != nil {
			return nil, 0, err
		}
		op.Created = op.Created.UTC()
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

func (r *trackingRepository) CountEntityOperations(ctx context.Context, q repository.EntityOperationQuery) (int, error) {
	b, err := r.entityQuery(ctx, q)
	if err != nil {
		return 0, err
	}
	return b.Count(ctx)
}

func (r *trackingRepository) InsertConnectionOperations(ctx context.Context, ops ...model.ConnectionOperation) error {
	if len(ops) == 0 {
		return nil
	}
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	b := s.InsertInto("tracking_connection").
		Columns("id", "operation_type", "created", "created_by", "relation", "left_kind", "left_root_id", "right_kind", "right_root_id")
	for _, op := range ops {
		if op.ID == uuid.Nil {
			op.ID = uuid.New()
		}
		b = b.Values(op.ID, op.OperationType, utc(op.Created), op.CreatedBy, op.Relation, op.LeftKind, op.LeftRootID, op.RightKind, op.RightRootID)
	}
	_, err = b.Exec(ctx)
	return err
}

func (r *trackingRepository) InsertEntityOperations(ctx context.Context, ops ...model.EntityOperation) error {
	if len(ops) == 0 {
		return nil
	}
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	b := s.InsertInto("tracking_entity").
		Columns("id", "operation_type", "created", "created_by", "entity_kind", "root_id", "entity_id", "organization_id", "language_id")
	for _, op := range ops {
		if op.ID == uuid.Nil {
			op.ID = uuid.New()
		}
		b = b.Values(op.ID, op.OperationType, utc(op.Created), op.CreatedBy, op.EntityKind, op.RootID, op.EntityID, op.OrganizationID, op.LanguageID)
	}
	_, err = b.Exec(ctx)
	return err
}

func (r *trackingRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, table := range []string{"tracking_connection", "tracking_entity"} {
		res, err := s.DeleteFrom(table).Where("created < ?", utc(cutoff)).Exec(ctx)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
