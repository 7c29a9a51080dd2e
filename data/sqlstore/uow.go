package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	core "ptvdata/data/db"
	"ptvdata/data/db/dialect"
	sqlb "ptvdata/data/db/sql"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
	"ptvdata/logging"
)

// Provider 基于 IDatabase 的工作单元提供者
type Provider struct {
	db     core.IDatabase
	logger logging.Logger
}

var _ repository.IProvider = (*Provider)(nil)

// NewProvider 创建工作单元提供者
func NewProvider(db core.IDatabase) *Provider {
	return &Provider{db: db, logger: logging.ComponentLogger("sqlstore")}
}

// ExecuteReader 在只读事务中执行 fn，结束后回滚
func (p *Provider) ExecuteReader(ctx context.Context, fn func(ctx context.Context, uow repository.IUnitOfWork) error) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	u := &unitOfWork{readOnly: true, tx: tx, logger: p.logger}
	return fn(ctx, u)
}

// ExecuteWriter 在写事务中执行 fn；fn 返回时未保存的修改被回滚
func (p *Provider) ExecuteWriter(ctx context.Context, fn func(ctx context.Context, uow repository.IUnitOfWork) error) error {
	u := &unitOfWork{db: p.db, logger: p.logger}
	defer u.discard(ctx)
	return fn(ctx, u)
}

// unitOfWork 写工作单元按需开启事务，每次 Save 提交一次
type unitOfWork struct {
	db       core.IDatabase
	tx       core.ITransaction
	readOnly bool
	logger   logging.Logger

	pendingEntityOps     []model.EntityOperation
	pendingConnectionOps []model.ConnectionOperation
}

func (u *unitOfWork) queryer(ctx context.Context) (core.IQueryer, error) {
	if u.tx != nil {
		return u.tx, nil
	}
	if u.readOnly {
		return nil, fmt.Errorf("sqlstore: reader transaction already closed")
	}
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	u.tx = tx
	return tx, nil
}

func (u *unitOfWork) builder(ctx context.Context) (sqlb.ISql, error) {
	q, err := u.queryer(ctx)
	if err != nil {
		return nil, err
	}
	return sqlb.New(q), nil
}

// conflict 把当前方言下的唯一键冲突映射为 CONFLICT，其余错误原样返回
func (u *unitOfWork) conflict(err error, format string, args ...any) error {
	if err == nil || !dialect.FromDatabase(u.tx).IsUniqueViolation(err) {
		return err
	}
	return errors.WrapError(err, errors.ErrCodeConflict, fmt.Sprintf(format, args...)+" already exists")
}

func (u *unitOfWork) Versioning() repository.IVersioningRepository {
	return &versioningRepository{uow: u}
}

func (u *unitOfWork) Entities() repository.IEntityRepository {
	return &entityRepository{uow: u}
}

func (u *unitOfWork) Connections() repository.IConnectionRepository {
	return &connectionRepository{uow: u}
}

func (u *unitOfWork) Tracking() repository.ITrackingRepository {
	return &trackingRepository{uow: u}
}

func (u *unitOfWork) Reference() repository.IReferenceRepository {
	return &referenceRepository{uow: u}
}

func (u *unitOfWork) TrackEntity(op model.EntityOperation) {
	u.pendingEntityOps = append(u.pendingEntityOps, op)
}

func (u *unitOfWork) TrackConnection(op model.ConnectionOperation) {
	u.pendingConnectionOps = append(u.pendingConnectionOps, op)
}

func (u *unitOfWork) ReadOnly() bool { return u.readOnly }

// Save 写入缓冲的跟踪记录并提交当前事务
func (u *unitOfWork) Save(ctx context.Context, mode repository.SaveMode) error {
	if u.readOnly {
		return fmt.Errorf("sqlstore: Save called on a reader unit of work")
	}
	entityOps, connOps := u.pendingEntityOps, u.pendingConnectionOps
	u.pendingEntityOps, u.pendingConnectionOps = nil, nil

	if mode == repository.SaveModeNormal && (len(entityOps) > 0 || len(connOps) > 0) {
		tracking := &trackingRepository{uow: u}
		if err := tracking.InsertEntityOperations(ctx, entityOps...); err != nil {
			return err
		}
		if err := tracking.InsertConnectionOperations(ctx, connOps...); err != nil {
			return err
		}
	}
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	return tx.Commit()
}

// discard 回滚未保存的事务并丢弃缓冲的跟踪记录
func (u *unitOfWork) discard(ctx context.Context) {
	dropped := len(u.pendingEntityOps) + len(u.pendingConnectionOps)
	u.pendingEntityOps, u.pendingConnectionOps = nil, nil
	if u.tx == nil {
		return
	}
	if err := u.tx.Rollback(); err != nil {
		u.logger.Warn(ctx, "rollback unsaved work failed", logging.Error(err))
	}
	u.tx = nil
	if dropped > 0 {
		u.logger.Debug(ctx, "discarded unsaved tracking records", logging.Int("count", dropped))
	}
}

// utc 统一以 UTC 写入时间，保证 sqlite 上按文本比较的顺序正确
func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return utc(*t)
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
