package sqlstore

import (
	"context"

	"github.com/google/uuid"

	core "ptvdata/data/db"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
)

const versioningColumns = "v.id, v.unific_root_id, v.version_major, v.version_minor, v.ignored, v.created, v.created_by"

// liveVersioning 版本行未忽略，且所属主版本的 minor-0 行未被忽略
const liveVersioning = `v.ignored = ? AND NOT EXISTS (
	SELECT 1 FROM versioning z
	WHERE z.unific_root_id = v.unific_root_id AND z.version_major = v.version_major
	AND z.version_minor = 0 AND z.ignored = ?)`

// notLinkedToRemovedService 版本行上没有当前已移除的服务
const notLinkedToRemovedService = `NOT EXISTS (
	SELECT 1 FROM versioned_entity s
	WHERE s.versioning_id = v.id AND s.kind = ? AND s.publishing_status = ?)`

type versioningRepository struct {
	uow *unitOfWork
}

func scanVersioning(rows core.IRows) (*model.Versioning, error) {
	v := &model.Versioning{}
	if err := rows.Scan(&v.ID, &v.UnificRootID, &v.Major, &v.Minor, &v.Ignored, &v.Created, &v.CreatedBy); err != nil {
		return nil, err
	}
	v.Created = v.Created.UTC()
	return v, nil
}

func collectVersioning(rows core.IRows, err error) ([]*model.Versioning, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Versioning
	for rows.Next() {
		v, err := scanVersioning(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *versioningRepository) ResolveRoot(ctx context.Context, kind model.EntityKind, entityID uuid.UUID) (uuid.UUID, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	var root uuid.NullUUID
	err = s.Select("v.unific_root_id").
		From("versioned_entity e").
		Join("JOIN versioning v ON v.id = e.versioning_id").
		Where("e.id = ?", entityID).
		Where("e.kind = ?", kind).
		Where("v.unific_root_id IS NOT NULL").
		Where(liveVersioning, false, true).
		QueryRow(ctx).Scan(&root)
	if err != nil {
		return uuid.Nil, errors.NotFoundOnNoRows(err, string(kind), entityID)
	}
	if !root.Valid {
		return uuid.Nil, errors.NotFound(string(kind), entityID)
	}
	return root.UUID, nil
}

func (r *versioningRepository) ListByRoot(ctx context.Context, rootID uuid.UUID) ([]*model.Versioning, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	return collectVersioning(s.Select(versioningColumns).
		From("versioning v").
		Where("v.unific_root_id = ?", rootID).
		OrderBy("v.version_major", "v.version_minor").
		Query(ctx))
}

func (r *versioningRepository) ListEntityVersions(ctx context.Context, kind model.EntityKind, rootID uuid.UUID) ([]repository.VersionRef, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Select("e.id", "v.id", "v.version_major", "v.version_minor", "v.ignored", "v.created").
		From("versioned_entity e").
		Join("JOIN versioning v ON v.id = e.versioning_id").
		Where("e.kind = ?", kind).
		Where("e.unific_root_id = ?", rootID).
		OrderBy("v.version_major", "v.version_minor").
		Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.VersionRef
	for rows.Next() {
		var ref repository.VersionRef
		if err := rows.Scan(&ref.EntityID, &ref.VersioningID, &ref.Major, &ref.Minor, &ref.Ignored, &ref.Created); err != nil {
			return nil, err
		}
		ref.Created = ref.Created.UTC()
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *versioningRepository) PageHistory(ctx context.Context, q repository.HistoryQuery) ([]*model.Versioning, int, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, 0, err
	}
	b := s.Select(versioningColumns).
		From("versioning v").
		Where("v.unific_root_id = ?", q.RootID).
		Where(liveVersioning, false, true)
	if q.ExcludeRemovedServices {
		b = b.Where(notLinkedToRemovedService, model.KindService, model.StatusRemoved)
	}

	// 计数与分页是两次查询，中间的并发写入可能造成计数偏差
	count, err := b.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if count == 0 || q.Skip >= count {
		return []*model.Versioning{}, count, nil
	}

	rows, err := collectVersioning(b.
		OrderBy("v.created DESC", "v.version_major DESC", "v.version_minor DESC").
		Limit(q.Take).
		Offset(q.Skip).
		Query(ctx))
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (r *versioningRepository) Get(ctx context.Context, id uuid.UUID) (*model.Versioning, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collectVersioning(s.Select(versioningColumns).From("versioning v").Where("v.id = ?", id).Query(ctx))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NotFound("versioning", id)
	}
	return rows[0], nil
}

func (r *versioningRepository) Insert(ctx context.Context, v *model.Versioning) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	_, err = s.InsertInto("versioning").
		Columns("id", "unific_root_id", "version_major", "version_minor", "ignored", "created", "created_by").
		Values(v.ID, v.UnificRootID, v.Major, v.Minor, v.Ignored, utc(v.Created), v.CreatedBy).
		Exec(ctx)
	return r.uow.conflict(err, "versioning %s", v.ID)
}

func (r *versioningRepository) UpdatePosition(ctx context.Context, id uuid.UUID, pos model.Position) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	res, err := s.Update("versioning").
		Set("version_major", pos.Major).
		Set("version_minor", pos.Minor).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("versioning", id)
	}
	return nil
}
