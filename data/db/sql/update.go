package sql

import (
	"context"
	"database/sql"
	"strings"

	core "ptvdata/data/db"
)

type updateBuilder struct {
	q core.IQueryer

	table   string
	sets    []string
	setArgs []any
	where   []string
	args    []any
}

func (b *updateBuilder) Set(column string, val any) IUpdateBuilder {
	if !isSafeIdentifier(column) {
		panic("updateBuilder: unsafe column name " + column)
	}
	b.sets = append(b.sets, column+" = ?")
	b.setArgs = append(b.setArgs, val)
	return b
}

func (b *updateBuilder) Where(cond string, args ...any) IUpdateBuilder {
	if cond != "" {
		b.where = append(b.where, cond)
		b.args = append(b.args, args...)
	}
	return b
}

func (b *updateBuilder) Build() (string, []any) {
	if !isSafeIdentifier(b.table) {
		panic("updateBuilder: unsafe table name " + b.table)
	}
	if len(b.sets) == 0 {
		panic("updateBuilder: no columns to set")
	}
	// 不带条件的 UPDATE 视为编程错误
	if len(b.where) == 0 {
		panic("updateBuilder: missing WHERE clause")
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(b.sets, ", "))
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(b.where, " AND "))

	args := make([]any, 0, len(b.setArgs)+len(b.args))
	args = append(args, b.setArgs...)
	args = append(args, b.args...)
	return sb.String(), args
}

func (b *updateBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args := b.Build()
	return b.q.Exec(ctx, q, args...)
}
