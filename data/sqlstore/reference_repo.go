package sqlstore

import (
	"context"

	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

type referenceRepository struct {
	uow *unitOfWork
}

func (r *referenceRepository) Languages(ctx context.Context) ([]model.Language, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Select("id", "code", "order_number").From("language").OrderBy("order_number", "code").Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.OrderNumber); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *referenceRepository) TypeCodes(ctx context.Context) ([]model.TypeCode, error) {
	s, err := r.uow.builder(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.Select("id", "category", "code").From("type_code").OrderBy("category", "code").Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TypeCode
	for rows.Next() {
		var t model.TypeCode
		if err := rows.Scan(&t.ID, &t.Category, &t.Code); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SeedReference 写入语言与类型代码，已存在的行跳过
func SeedReference(ctx context.Context, p *Provider, langs []model.Language, types []model.TypeCode) error {
	return p.ExecuteWriter(ctx, func(ctx context.Context, uowI repository.IUnitOfWork) error {
		u := uowI.(*unitOfWork)
		q, err := u.queryer(ctx)
		if err != nil {
			return err
		}
		for _, l := range langs {
			if _, err := q.Exec(ctx, "INSERT INTO language (id, code, order_number) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
				l.ID, l.Code, l.OrderNumber); err != nil {
				return err
			}
		}
		for _, t := range types {
			if _, err := q.Exec(ctx, "INSERT INTO type_code (id, category, code) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
				t.ID, t.Category, t.Code); err != nil {
				return err
			}
		}
		return u.Save(ctx, repository.SaveModeNonTracked)
	})
}
