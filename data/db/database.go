// Package db 提供数据访问层使用的数据库抽象接口
//
// 仓储只依赖这里的接口，具体实现见 basic 子包（database/sql）。
// 测试使用内存 sqlite，生产使用 pgx 注册的 postgres 驱动。
package db

import (
	"context"
	"database/sql"
)

// IQueryer 查询与执行的最小集合，IDatabase 与 ITransaction 都满足
type IQueryer interface {
	Query(ctx context.Context, query string, args ...any) (IRows, error)
	QueryRow(ctx context.Context, query string, args ...any) IRow
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// IDatabase 通用数据库接口
type IDatabase interface {
	IQueryer

	// 事务操作；opts 为 nil 时使用驱动默认隔离级别
	BeginTx(ctx context.Context, opts *sql.TxOptions) (ITransaction, error)

	Ping(ctx context.Context) error
	Close() error
}

// IDialectNameProvider 可选接口：提供底层数据库方言名称
type IDialectNameProvider interface {
	GetDialectName() string
}

// ITransaction 事务接口
type ITransaction interface {
	IQueryer

	Commit() error
	Rollback() error
}

// IRows 查询结果集接口
type IRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// IRow 单行结果接口
type IRow interface {
	Scan(dest ...any) error
}

// DBConfig 数据库配置
type DBConfig struct {
	// Driver 已注册的 database/sql 驱动名：sqlite、pgx
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`

	// 连接池配置
	MaxOpenConns    int `yaml:"max_open_conns"`
	MaxIdleConns    int `yaml:"max_idle_conns"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime"` // 秒
	ConnMaxIdleTime int `yaml:"conn_max_idle_time"` // 秒
}
