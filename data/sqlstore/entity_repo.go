package sqlstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	core "ptvdata/data/db"
	sqlb "ptvdata/data/db/sql"
	"ptvdata/domain/model"
	"ptvdata/errors"
)

const entityColumns = "e.id, e.kind, e.sub_type, e.unific_root_id, e.versioning_id, e.publishing_status, e.organization_id, e.modified, e.modified_by"

type entityRepository struct {
	uow *unitOfWork
}

func scanEntity(rows core.IRows) (*model.Aggregate, error) {
	a := &model.Aggregate{}
	err := rows.Scan(&a.ID, &a.Kind, &a.SubType, &a.UnificRootID, &a.VersioningID,
		&a.PublishingStatus, &a.OrganizationID, &a.Modified, &a.ModifiedBy)
	if err != nil {
		return nil, err
	}
	a.Modified = a.Modified.UTC()
	return a, nil
}

func collectEntities(rows core.IRows, err error) ([]*model.Aggregate, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Aggregate{}
	for rows.Next() {
		a, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func uuidArgs(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

func (r *entityRepository) Get(ctx context.Context, id uuid.UUID) (*model.Aggregate, error) {
	aggs, err := r.GetMany(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(aggs) == 0 {
		return nil, errors.NotFound("entity", id)
	}
	return aggs[0], nil
}

func (r *entityRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Aggregate, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	return collectEntities(s.Select(entityColumns).
		From("versioned_entity e").
		WhereIn("e.id", uuidArgs(ids)...).
		OrderBy("e.id").
		Query(ctx))
}

func (r *entityRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*model.Aggregate, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	aggs, err := collectEntities(s.Select(entityColumns).
		From("versioned_entity e").
		Where("e.id = ?", id).
		ForUpdate().
		Query(ctx))
	if err != nil {
		return nil, err
	}
	if len(aggs) == 0 {
		return nil, errors.NotFound("entity", id)
	}
	return aggs[0], nil
}

func (r *entityRepository) ListByVersioning(ctx context.Context, versioningIDs []uuid.UUID) ([]*model.Aggregate, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	return collectEntities(s.Select(entityColumns).
		From("versioned_entity e").
		WhereIn("e.versioning_id", uuidArgs(versioningIDs)...).
		OrderBy("e.kind", "e.id").
		Query(ctx))
}

func (r *entityRepository) ListByRoot(ctx context.Context, kind model.EntityKind, rootID uuid.UUID) ([]*model.Aggregate, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	return collectEntities(s.Select(entityColumns).
		From("versioned_entity e").
		Join("JOIN versioning v ON v.id = e.versioning_id").
		Where("e.kind = ?", kind).
		Where("e.unific_root_id = ?", rootID).
		OrderBy("v.version_major", "v.version_minor").
		Query(ctx))
}

func (r *entityRepository) LanguageAvailabilities(ctx context.Context, id uuid.UUID) ([]model.LanguageAvailability, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	byEntity, err := loadLanguageAvailabilities(ctx, s, []any{id})
	if err != nil {
		return nil, err
	}
	return orEmpty(byEntity[id]), nil
}

func (r *entityRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PublishingStatus, modifiedBy string, at time.Time) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	res, err := s.Update("versioned_entity").
		Set("publishing_status", status).
		Set("modified", utc(at)).
		Set("modified_by", modifiedBy).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("entity", id)
	}
	return nil
}

func (r *entityRepository) UpsertLanguageAvailability(ctx context.Context, id uuid.UUID, la model.LanguageAvailability) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	if _, err := s.DeleteFrom("entity_language_availability").
		Where("entity_id = ?", id).
		Where("language_id = ?", la.LanguageID).
		Exec(ctx); err != nil {
		return err
	}
	return insertLanguageAvailabilities(ctx, s, id, []model.LanguageAvailability{la})
}

// Insert 写入聚合头以及已填充的版本内子集合
func (r *entityRepository) Insert(ctx context.Context, agg *model.Aggregate) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	if agg.ID == uuid.Nil {
		agg.ID = uuid.New()
	}
	if _, err := s.InsertInto("versioned_entity").
		Columns("id", "kind", "sub_type", "unific_root_id", "versioning_id", "publishing_status", "organization_id", "modified", "modified_by").
		Values(agg.ID, agg.Kind, agg.SubType, agg.UnificRootID, agg.VersioningID, agg.PublishingStatus, agg.OrganizationID, utc(agg.Modified), agg.ModifiedBy).
		Exec(ctx); err != nil {
		return r.uow.conflict(err, "%s %s", agg.Kind, agg.ID)
	}
	return insertChildren(ctx, s, agg)
}

func insertLanguageAvailabilities(ctx context.Context, s sqlb.ISql, id uuid.UUID, las []model.LanguageAvailability) error {
	if len(las) == 0 {
		return nil
	}
	b := s.InsertInto("entity_language_availability").
		Columns("entity_id", "language_id", "status", "valid_from", "archive_at", "reviewed", "reviewed_by")
	for _, la := range las {
		b = b.Values(id, la.LanguageID, la.Status, nullTime(la.ValidFrom), nullTime(la.ArchiveAt), nullTime(la.Reviewed), la.ReviewedBy)
	}
	_, err := b.Exec(ctx)
	return err
}

// insertChildren 每个子表一条多行 INSERT
func insertChildren(ctx context.Context, s sqlb.ISql, agg *model.Aggregate) error {
	if err := insertLanguageAvailabilities(ctx, s, agg.ID, agg.LanguageAvailabilities); err != nil {
		return err
	}
	var batches []sqlb.IInsertBuilder
	add := func(n int, table string, cols []string, row func(i int) []any) {
		if n == 0 {
			return
		}
		b := s.InsertInto(table).Columns(cols...)
		for i := 0; i < n; i++ {
			b = b.Values(row(i)...)
		}
		batches = append(batches, b)
	}

	add(len(agg.Names), "entity_name", []string{"entity_id", "localization_id", "type_id", "value"}, func(i int) []any {
		n := agg.Names[i]
		return []any{agg.ID, n.LocalizationID, n.TypeID, n.Value}
	})
	add(len(agg.Descriptions), "entity_description", []string{"entity_id", "localization_id", "type_id", "value"}, func(i int) []any {
		d := agg.Descriptions[i]
		return []any{agg.ID, d.LocalizationID, d.TypeID, d.Value}
	})
	add(len(agg.DisplayNameTypes), "entity_display_name_type", []string{"entity_id", "localization_id", "display_name_type_id"}, func(i int) []any {
		d := agg.DisplayNameTypes[i]
		return []any{agg.ID, d.LocalizationID, d.DisplayNameTypeID}
	})
	add(len(agg.Areas), "entity_area", []string{"entity_id", "area_id"}, func(i int) []any {
		return []any{agg.ID, agg.Areas[i]}
	})
	add(len(agg.Languages), "entity_language", []string{"entity_id", "language_id", "order_number"}, func(i int) []any {
		return []any{agg.ID, agg.Languages[i], i}
	})
	add(len(agg.Emails), "entity_email", []string{"id", "entity_id", "localization_id", "value", "order_number"}, func(i int) []any {
		e := &agg.Emails[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		return []any{e.ID, agg.ID, e.LocalizationID, e.Value, e.OrderNumber}
	})
	add(len(agg.Phones), "entity_phone", []string{"id", "entity_id", "localization_id", "type_id", "prefix_number", "number", "charge_type_id", "order_number"}, func(i int) []any {
		p := &agg.Phones[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		return []any{p.ID, agg.ID, p.LocalizationID, p.TypeID, p.PrefixNumber, p.Number, p.ChargeTypeID, p.OrderNumber}
	})
	add(len(agg.WebPages), "entity_web_page", []string{"id", "entity_id", "localization_id", "url", "name", "order_number"}, func(i int) []any {
		w := &agg.WebPages[i]
		if w.ID == uuid.Nil {
			w.ID = uuid.New()
		}
		return []any{w.ID, agg.ID, w.LocalizationID, w.URL, w.Name, w.OrderNumber}
	})
	add(len(agg.ServiceHours), "entity_service_hours", []string{"id", "entity_id", "type_id", "valid_from", "valid_to", "is_closed", "order_number"}, func(i int) []any {
		h := &agg.ServiceHours[i]
		if h.ID == uuid.Nil {
			h.ID = uuid.New()
		}
		return []any{h.ID, agg.ID, h.TypeID, nullTime(h.ValidFrom), nullTime(h.ValidTo), h.IsClosed, h.OrderNumber}
	})
	add(len(agg.Addresses), "entity_address", []string{"id", "entity_id", "character_id", "type_id", "street", "postal_code", "order_number"}, func(i int) []any {
		a := &agg.Addresses[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		return []any{a.ID, agg.ID, a.CharacterID, a.TypeID, a.Street, a.PostalCode, a.OrderNumber}
	})
	for _, a := range agg.Addresses {
		a := a
		add(len(a.AdditionalInformation), "address_additional_info", []string{"address_id", "localization_id", "text"}, func(i int) []any {
			info := a.AdditionalInformation[i]
			return []any{a.ID, info.LocalizationID, info.Text}
		})
		add(len(a.Coordinates), "address_coordinate", []string{"address_id", "coordinate_type", "latitude", "longitude"}, func(i int) []any {
			c := a.Coordinates[i]
			return []any{a.ID, c.CoordinateType, c.Latitude, c.Longitude}
		})
	}

	for _, b := range batches {
		if _, err := b.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
