package sqlstore

import (
	"context"

	"github.com/google/uuid"

	"ptvdata/domain/model"
	"ptvdata/errors"
)

type connectionRepository struct {
	uow *unitOfWork
}

func sideColumn(side model.ConnectionSide) string {
	if side == model.SideChannel {
		return "channel_root_id"
	}
	return "service_root_id"
}

func (r *connectionRepository) ListByRoots(ctx context.Context, side model.ConnectionSide, roots []uuid.UUID) ([]*model.Connection, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Select("service_root_id", "channel_root_id", "charge_type_id", "order_number", "modified", "modified_by").
		From("service_channel_connection").
		WhereIn(sideColumn(side), uuidArgs(roots)...).
		OrderBy(sideColumn(side), "order_number", "service_root_id", "channel_root_id").
		Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Connection{}
	for rows.Next() {
		c := &model.Connection{}
		if err := rows.Scan(&c.ServiceRootID, &c.ChannelRootID, &c.ChargeTypeID, &c.OrderNumber, &c.Modified, &c.ModifiedBy); err != nil {
			return nil, err
		}
		c.Modified = c.Modified.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *connectionRepository) ListDetails(ctx context.Context, kind model.DetailKind, side model.ConnectionSide, roots []uuid.UUID) ([]model.ConnectionDetail, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Select("id", "service_root_id", "channel_root_id", "kind", "localization_id", "type_id", "value", "order_number").
		From("connection_detail").
		Where("kind = ?", kind).
		WhereIn(sideColumn(side), uuidArgs(roots)...).
		OrderBy("order_number", "id").
		Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ConnectionDetail{}
	for rows.Next() {
		var d model.ConnectionDetail
		if err := rows.Scan(&d.ID, &d.ServiceRootID, &d.ChannelRootID, &d.Kind, &d.LocalizationID, &d.TypeID, &d.Value, &d.OrderNumber); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Insert 写入连接与其全部明细
func (r *connectionRepository) Insert(ctx context.Context, c *model.Connection) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	if _, err := s.InsertInto("service_channel_connection").
		Columns("service_root_id", "channel_root_id", "charge_type_id", "order_number", "modified", "modified_by").
		Values(c.ServiceRootID, c.ChannelRootID, c.ChargeTypeID, c.OrderNumber, utc(c.Modified), c.ModifiedBy).
		Exec(ctx); err != nil {
		return r.uow.conflict(err, "connection %s/%s", c.ServiceRootID, c.ChannelRootID)
	}

	n := 0
	b := s.InsertInto("connection_detail").
		Columns("id", "service_root_id", "channel_root_id", "kind", "localization_id", "type_id", "value", "order_number")
	for _, kind := range model.DetailKinds {
		for i := range c.Details[kind] {
			d := &c.Details[kind][i]
			if d.ID == uuid.Nil {
				d.ID = uuid.New()
			}
			d.ServiceRootID, d.ChannelRootID, d.Kind = c.ServiceRootID, c.ChannelRootID, kind
			b = b.Values(d.ID, d.ServiceRootID, d.ChannelRootID, d.Kind, d.LocalizationID, d.TypeID, d.Value, d.OrderNumber)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	_, err = b.Exec(ctx)
	return err
}

func (r *connectionRepository) Delete(ctx context.Context, serviceRootID, channelRootID uuid.UUID) error {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	if _, err := s.DeleteFrom("connection_detail").
		Where("service_root_id = ?", serviceRootID).
		Where("channel_root_id = ?", channelRootID).
		Exec(ctx); err != nil {
		return err
	}
	res, err := s.DeleteFrom("service_channel_connection").
		Where("service_root_id = ?", serviceRootID).
		Where("channel_root_id = ?", channelRootID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("connection", serviceRootID.String()+"/"+channelRootID.String())
	}
	return nil
}
