package sql

import (
	"context"
	"strings"

	core "ptvdata/data/db"
	"ptvdata/data/db/dialect"
)

type selectBuilder struct {
	q       core.IQueryer
	dialect dialect.Dialect

	cols    []string
	table   string
	joins   []string
	where   []string
	args    []any
	orderBy []string
	limit   int
	offset  int
	locking string
}

func (b *selectBuilder) From(table string) ISelectBuilder {
	b.table = table
	return b
}

func (b *selectBuilder) Join(clause string) ISelectBuilder {
	if clause != "" {
		b.joins = append(b.joins, clause)
	}
	return b
}

func (b *selectBuilder) Where(cond string, args ...any) ISelectBuilder {
	if cond != "" {
		b.where = append(b.where, cond)
		b.args = append(b.args, args...)
	}
	return b
}

func (b *selectBuilder) WhereIn(column string, values ...any) ISelectBuilder {
	if len(values) == 0 {
		b.where = append(b.where, "1 = 0")
		return b
	}
	return b.Where(column+" IN ("+dialect.Placeholders(len(values))+")", values...)
}

func (b *selectBuilder) OrderBy(exprs ...string) ISelectBuilder {
	for _, e := range exprs {
		if e != "" {
			b.orderBy = append(b.orderBy, e)
		}
	}
	return b
}

func (b *selectBuilder) Limit(n int) ISelectBuilder {
	b.limit = n
	return b
}

func (b *selectBuilder) Offset(n int) ISelectBuilder {
	b.offset = n
	return b
}

func (b *selectBuilder) ForUpdate() ISelectBuilder {
	// sqlite 没有行锁，写事务本身已串行
	if b.dialect.Name() == dialect.NamePostgres {
		b.locking = " FOR UPDATE"
	}
	return b
}

func (b *selectBuilder) writeBody(sb *strings.Builder) {
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, j := range b.joins {
		sb.WriteByte(' ')
		sb.WriteString(j)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
}

func (b *selectBuilder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.cols, ", "))
	b.writeBody(&sb)

	// 使用局部 args 副本，避免在多次 Build 调用之间污染 builder 状态
	args := make([]any, 0, len(b.args)+2)
	args = append(args, b.args...)

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	if b.offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, b.offset)
	}
	sb.WriteString(b.locking)
	return sb.String(), args
}

func (b *selectBuilder) BuildCount() (string, []any) {
	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*)")
	b.writeBody(&sb)
	args := make([]any, len(b.args))
	copy(args, b.args)
	return sb.String(), args
}

func (b *selectBuilder) Query(ctx context.Context) (core.IRows, error) {
	q, args := b.Build()
	return b.q.Query(ctx, q, args...)
}

func (b *selectBuilder) QueryRow(ctx context.Context) core.IRow {
	q, args := b.Build()
	return b.q.QueryRow(ctx, q, args...)
}

func (b *selectBuilder) Count(ctx context.Context) (int, error) {
	q, args := b.BuildCount()
	var n int
	if err := b.q.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
