package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	core "ptvdata/data/db"
	sqlb "ptvdata/data/db/sql"
	"ptvdata/domain/connections"
	"ptvdata/domain/fetchplan"
	"ptvdata/domain/model"
	"ptvdata/errors"
)

// Include 按计划填充聚合的导航集合
//
// 每条关系一次查询覆盖所有聚合；加载过的集合即使没有数据也会是非 nil 的空切片。
// 地址的附加信息与坐标在地址加载之后按地址 ID 另行查询。
func (r *entityRepository) Include(ctx context.Context, plan fetchplan.Plan, aggs []*model.Aggregate) error {
	if len(aggs) == 0 {
		return nil
	}
	s, err := r.uow.builder(ctx)
	if err != nil {
		return err
	}
	ids := make([]any, len(aggs))
	for i, a := range aggs {
		ids[i] = a.ID
	}
	for _, rel := range plan.Relations {
		if err := includeRelation(ctx, r.uow, s, rel, ids, aggs); err != nil {
			return err
		}
	}
	for _, step := range plan.PostLoads {
		if err := postLoad(ctx, s, step, aggs); err != nil {
			return err
		}
	}
	return nil
}

func includeRelation(ctx context.Context, uow *unitOfWork, s sqlb.ISql, rel fetchplan.Relation, ids []any, aggs []*model.Aggregate) error {
	switch rel {
	case fetchplan.RelVersioning:
		return includeVersioning(ctx, s, aggs)
	case fetchplan.RelLanguageAvailabilities:
		m, err := loadLanguageAvailabilities(ctx, s, ids)
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.LanguageAvailability) { a.LanguageAvailabilities = v })
	case fetchplan.RelNames:
		m, err := loadByEntity(ctx, s, "entity_name", "entity_id, localization_id, type_id, value", "localization_id, type_id", ids,
			func(rows core.IRows) (uuid.UUID, model.Name, error) {
				var id uuid.UUID
				var n model.Name
				err := rows.Scan(&id, &n.LocalizationID, &n.TypeID, &n.Value)
				return id, n, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.Name) { a.Names = v })
	case fetchplan.RelDescriptions:
		m, err := loadByEntity(ctx, s, "entity_description", "entity_id, localization_id, type_id, value", "localization_id, type_id", ids,
			func(rows core.IRows) (uuid.UUID, model.Description, error) {
				var id uuid.UUID
				var d model.Description
				err := rows.Scan(&id, &d.LocalizationID, &d.TypeID, &d.Value)
				return id, d, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.Description) { a.Descriptions = v })
	case fetchplan.RelDisplayNameTypes:
		m, err := loadByEntity(ctx, s, "entity_display_name_type", "entity_id, localization_id, display_name_type_id", "localization_id", ids,
			func(rows core.IRows) (uuid.UUID, model.DisplayNameType, error) {
				var id uuid.UUID
				var d model.DisplayNameType
				err := rows.Scan(&id, &d.LocalizationID, &d.DisplayNameTypeID)
				return id, d, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.DisplayNameType) { a.DisplayNameTypes = v })
	case fetchplan.RelAreas:
		m, err := loadByEntity(ctx, s, "entity_area", "entity_id, area_id", "area_id", ids,
			func(rows core.IRows) (uuid.UUID, uuid.UUID, error) {
				var id, area uuid.UUID
				err := rows.Scan(&id, &area)
				return id, area, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []uuid.UUID) { a.Areas = v })
	case fetchplan.RelLanguages:
		m, err := loadByEntity(ctx, s, "entity_language", "entity_id, language_id", "order_number", ids,
			func(rows core.IRows) (uuid.UUID, uuid.UUID, error) {
				var id, lang uuid.UUID
				err := rows.Scan(&id, &lang)
				return id, lang, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []uuid.UUID) { a.Languages = v })
	case fetchplan.RelEmails:
		m, err := loadByEntity(ctx, s, "entity_email", "entity_id, id, localization_id, value, order_number", "order_number, id", ids,
			func(rows core.IRows) (uuid.UUID, model.Email, error) {
				var id uuid.UUID
				var e model.Email
				err := rows.Scan(&id, &e.ID, &e.LocalizationID, &e.Value, &e.OrderNumber)
				return id, e, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.Email) { a.Emails = v })
	case fetchplan.RelPhones:
		m, err := loadByEntity(ctx, s, "entity_phone", "entity_id, id, localization_id, type_id, prefix_number, number, charge_type_id, order_number", "order_number, id", ids,
			func(rows core.IRows) (uuid.UUID, model.Phone, error) {
				var id uuid.UUID
				var p model.Phone
				err := rows.Scan(&id, &p.ID, &p.LocalizationID, &p.TypeID, &p.PrefixNumber, &p.Number, &p.ChargeTypeID, &p.OrderNumber)
				return id, p, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.Phone) { a.Phones = v })
	case fetchplan.RelWebPages:
		m, err := loadByEntity(ctx, s, "entity_web_page", "entity_id, id, localization_id, url, name, order_number", "order_number, id", ids,
			func(rows core.IRows) (uuid.UUID, model.WebPage, error) {
				var id uuid.UUID
				var w model.WebPage
				err := rows.Scan(&id, &w.ID, &w.LocalizationID, &w.URL, &w.Name, &w.OrderNumber)
				return id, w, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.WebPage) { a.WebPages = v })
	case fetchplan.RelAddresses:
		m, err := loadByEntity(ctx, s, "entity_address", "entity_id, id, character_id, type_id, street, postal_code, order_number", "order_number, id", ids,
			func(rows core.IRows) (uuid.UUID, model.Address, error) {
				var id uuid.UUID
				var a model.Address
				err := rows.Scan(&id, &a.ID, &a.CharacterID, &a.TypeID, &a.Street, &a.PostalCode, &a.OrderNumber)
				return id, a, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.Address) { a.Addresses = v })
	case fetchplan.RelServiceHours:
		m, err := loadByEntity(ctx, s, "entity_service_hours", "entity_id, id, type_id, valid_from, valid_to, is_closed, order_number", "order_number, id", ids,
			func(rows core.IRows) (uuid.UUID, model.ServiceHours, error) {
				var id uuid.UUID
				var h model.ServiceHours
				var from, to sql.NullTime
				err := rows.Scan(&id, &h.ID, &h.TypeID, &from, &to, &h.IsClosed, &h.OrderNumber)
				h.ValidFrom, h.ValidTo = timePtr(from), timePtr(to)
				return id, h, err
			})
		return assign(m, err, aggs, func(a *model.Aggregate, v []model.ServiceHours) { a.ServiceHours = v })
	case fetchplan.RelConnections:
		return includeConnections(ctx, uow, aggs)
	case fetchplan.RelAccessibilityRegisters:
		return includeAccessibility(ctx, s, aggs)
	}
	return errors.UnsupportedVariant("include relation", rel)
}

// loadByEntity 按外键列批量读取子行并按外键分组
func loadByEntity[T any](ctx context.Context, s sqlb.ISql, table, columns, order string, keys []any,
	scan func(rows core.IRows) (uuid.UUID, T, error)) (map[uuid.UUID][]T, error) {
	keyColumn, _, _ := strings.Cut(columns, ",")
	rows, err := s.Select(columns).
		From(table).
		WhereIn(keyColumn, keys...).
		OrderBy(keyColumn, order).
		Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]T)
	for rows.Next() {
		key, item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out[key] = append(out[key], item)
	}
	return out, rows.Err()
}

func assign[T any](m map[uuid.UUID][]T, err error, aggs []*model.Aggregate, set func(*model.Aggregate, []T)) error {
	if err != nil {
		return err
	}
	for _, a := range aggs {
		set(a, orEmpty(m[a.ID]))
	}
	return nil
}

func loadLanguageAvailabilities(ctx context.Context, s sqlb.ISql, ids []any) (map[uuid.UUID][]model.LanguageAvailability, error) {
	return loadByEntity(ctx, s, "entity_language_availability",
		"entity_id, language_id, status, valid_from, archive_at, reviewed, reviewed_by", "language_id", ids,
		func(rows core.IRows) (uuid.UUID, model.LanguageAvailability, error) {
			var id uuid.UUID
			var la model.LanguageAvailability
			var validFrom, archiveAt, reviewed sql.NullTime
			err := rows.Scan(&id, &la.LanguageID, &la.Status, &validFrom, &archiveAt, &reviewed, &la.ReviewedBy)
			la.ValidFrom, la.ArchiveAt, la.Reviewed = timePtr(validFrom), timePtr(archiveAt), timePtr(reviewed)
			return id, la, err
		})
}

func includeVersioning(ctx context.Context, s sqlb.ISql, aggs []*model.Aggregate) error {
	ids := make([]any, 0, len(aggs))
	for _, a := range aggs {
		ids = append(ids, a.VersioningID)
	}
	rows, err := collectVersioning(s.Select(versioningColumns).From("versioning v").WhereIn("v.id", ids...).Query(ctx))
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*model.Versioning, len(rows))
	for _, v := range rows {
		byID[v.ID] = v
	}
	for _, a := range aggs {
		a.Versioning = byID[a.VersioningID]
	}
	return nil
}

// includeConnections 服务按服务侧、渠道按渠道侧加载连接，其他类别得到空集合
func includeConnections(ctx context.Context, uow *unitOfWork, aggs []*model.Aggregate) error {
	var serviceRoots, channelRoots []uuid.UUID
	for _, a := range aggs {
		a.Connections = []*model.Connection{}
		switch a.Kind {
		case model.KindService:
			serviceRoots = append(serviceRoots, a.UnificRootID)
		case model.KindServiceChannel:
			channelRoots = append(channelRoots, a.UnificRootID)
		}
	}
	repo := uow.Connections()
	for _, side := range []model.ConnectionSide{model.SideService, model.SideChannel} {
		roots, kind := serviceRoots, model.KindService
		if side == model.SideChannel {
			roots, kind = channelRoots, model.KindServiceChannel
		}
		if len(roots) == 0 {
			continue
		}
		conns, err := connections.Load(ctx, repo, side, dedupe(roots))
		if err != nil {
			return err
		}
		byRoot := connections.ByRoot(conns, side)
		for _, a := range aggs {
			if a.Kind == kind {
				a.Connections = orEmpty(byRoot[a.UnificRootID])
			}
		}
	}
	return nil
}

func includeAccessibility(ctx context.Context, s sqlb.ISql, aggs []*model.Aggregate) error {
	roots := make([]uuid.UUID, 0, len(aggs))
	for _, a := range aggs {
		roots = append(roots, a.UnificRootID)
	}
	m, err := loadByEntity(ctx, s, "accessibility_register", "unific_root_id, id, url, contact_email, is_valid", "id", uuidArgs(dedupe(roots)),
		func(rows core.IRows) (uuid.UUID, model.AccessibilityRegister, error) {
			var root uuid.UUID
			var ar model.AccessibilityRegister
			err := rows.Scan(&root, &ar.ID, &ar.URL, &ar.ContactEmail, &ar.IsValid)
			return root, ar, err
		})
	if err != nil {
		return err
	}
	for _, a := range aggs {
		a.AccessibilityRegisters = orEmpty(m[a.UnificRootID])
	}
	return nil
}

// postLoad 按地址 ID 补充地址子行
func postLoad(ctx context.Context, s sqlb.ISql, step fetchplan.PostLoad, aggs []*model.Aggregate) error {
	var addressIDs []any
	for _, a := range aggs {
		for _, addr := range a.Addresses {
			addressIDs = append(addressIDs, addr.ID)
		}
	}
	switch step {
	case fetchplan.PostAddressAdditionalInformation:
		m, err := loadByEntity(ctx, s, "address_additional_info", "address_id, localization_id, text", "localization_id", addressIDs,
			func(rows core.IRows) (uuid.UUID, model.AddressAdditionalInformation, error) {
				var id uuid.UUID
				var info model.AddressAdditionalInformation
				err := rows.Scan(&id, &info.LocalizationID, &info.Text)
				return id, info, err
			})
		if err != nil {
			return err
		}
		eachAddress(aggs, func(addr *model.Address) { addr.AdditionalInformation = orEmpty(m[addr.ID]) })
		return nil
	case fetchplan.PostAddressCoordinates:
		m, err := loadByEntity(ctx, s, "address_coordinate", "address_id, coordinate_type, latitude, longitude", "coordinate_type", addressIDs,
			func(rows core.IRows) (uuid.UUID, model.AddressCoordinate, error) {
				var id uuid.UUID
				var c model.AddressCoordinate
				err := rows.Scan(&id, &c.CoordinateType, &c.Latitude, &c.Longitude)
				return id, c, err
			})
		if err != nil {
			return err
		}
		eachAddress(aggs, func(addr *model.Address) { addr.Coordinates = orEmpty(m[addr.ID]) })
		return nil
	}
	return errors.UnsupportedVariant("post load", step)
}

func eachAddress(aggs []*model.Aggregate, fn func(*model.Address)) {
	for _, a := range aggs {
		for i := range a.Addresses {
			fn(&a.Addresses[i])
		}
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
