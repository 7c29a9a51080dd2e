// Package sql 提供基于 ? 占位符的轻量 SQL 构建器，执行时由 basic 层按方言改写占位符
package sql

import (
	"context"
	"database/sql"

	core "ptvdata/data/db"
	"ptvdata/data/db/dialect"
)

// ISql 提供统一的 SQL 构建与执行接口
type ISql interface {
	Select(columns ...string) ISelectBuilder
	InsertInto(table string) IInsertBuilder
	Update(table string) IUpdateBuilder
	DeleteFrom(table string) IDeleteBuilder
}

// ISelectBuilder 构建 SELECT 语句
type ISelectBuilder interface {
	From(table string) ISelectBuilder
	Join(clause string) ISelectBuilder
	Where(cond string, args ...any) ISelectBuilder
	// WhereIn 追加 column IN (...) 条件；values 为空时条件恒假
	WhereIn(column string, values ...any) ISelectBuilder
	OrderBy(exprs ...string) ISelectBuilder
	Limit(n int) ISelectBuilder
	Offset(n int) ISelectBuilder
	ForUpdate() ISelectBuilder
	Build() (query string, args []any)
	// BuildCount 忽略排序与分页，返回 SELECT COUNT(*) 语句
	BuildCount() (query string, args []any)
	Query(ctx context.Context) (core.IRows, error)
	QueryRow(ctx context.Context) core.IRow
	Count(ctx context.Context) (int, error)
}

// IInsertBuilder 构建 INSERT 语句
type IInsertBuilder interface {
	Columns(cols ...string) IInsertBuilder
	Values(vals ...any) IInsertBuilder
	Build() (query string, args []any)
	Exec(ctx context.Context) (sql.Result, error)
}

// IUpdateBuilder 构建 UPDATE 语句
type IUpdateBuilder interface {
	Set(column string, val any) IUpdateBuilder
	Where(cond string, args ...any) IUpdateBuilder
	Build() (query string, args []any)
	Exec(ctx context.Context) (sql.Result, error)
}

// IDeleteBuilder 构建 DELETE 语句
type IDeleteBuilder interface {
	Where(cond string, args ...any) IDeleteBuilder
	Build() (query string, args []any)
	Exec(ctx context.Context) (sql.Result, error)
}

type sqlImpl struct {
	q       core.IQueryer
	dialect dialect.Dialect
}

// New 创建 ISql 实例，q 可以是连接也可以是事务
func New(q core.IQueryer) ISql {
	return &sqlImpl{q: q, dialect: dialect.FromDatabase(q)}
}

func (s *sqlImpl) Select(columns ...string) ISelectBuilder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	return &selectBuilder{q: s.q, dialect: s.dialect, cols: columns}
}

func (s *sqlImpl) InsertInto(table string) IInsertBuilder {
	return &insertBuilder{q: s.q, table: table}
}

func (s *sqlImpl) Update(table string) IUpdateBuilder {
	return &updateBuilder{q: s.q, table: table}
}

func (s *sqlImpl) DeleteFrom(table string) IDeleteBuilder {
	return &deleteBuilder{q: s.q, table: table}
}
