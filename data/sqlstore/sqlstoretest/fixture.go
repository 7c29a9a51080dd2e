// Package sqlstoretest 提供基于内存 sqlite 的存储夹具，供各服务的测试写入版本与跟踪数据
package sqlstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	core "ptvdata/data/db"
	"ptvdata/data/db/basic"
	"ptvdata/data/sqlstore"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

// 固定的引用数据标识
var (
	LangFI = uuid.MustParse("00000000-0000-0000-0000-0000000000f1")
	LangSV = uuid.MustParse("00000000-0000-0000-0000-0000000000f2")
	LangEN = uuid.MustParse("00000000-0000-0000-0000-0000000000f3")

	NameTypeName      = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	NameTypeAlternate = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
)

// Languages 夹具中的语言，顺序即排序号
var Languages = []model.Language{
	{ID: LangFI, Code: "fi", OrderNumber: 1},
	{ID: LangSV, Code: "sv", OrderNumber: 2},
	{ID: LangEN, Code: "en", OrderNumber: 3},
}

// TypeCodes 夹具中的类型代码
var TypeCodes = []model.TypeCode{
	{ID: NameTypeName, Category: model.TypeCategoryName, Code: model.NameTypeName},
	{ID: NameTypeAlternate, Category: model.TypeCategoryName, Code: "AlternateName"},
}

// Fixture 已迁移并写入引用数据的内存库
type Fixture struct {
	t        testing.TB
	DB       *basic.DB
	Provider *sqlstore.Provider
}

// New 打开内存库；单连接保证所有事务看到同一个库
func New(t testing.TB) *Fixture {
	t.Helper()
	ctx := context.Background()
	db, err := basic.New(core.DBConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlstore.Migrate(ctx, db))
	p := sqlstore.NewProvider(db)
	require.NoError(t, sqlstore.SeedReference(ctx, p, Languages, TypeCodes))
	return &Fixture{t: t, DB: db, Provider: p}
}

// Write 在一个写工作单元中执行 fn 并以不跟踪模式保存
func (f *Fixture) Write(fn func(ctx context.Context, uow repository.IUnitOfWork) error) {
	f.t.Helper()
	err := f.Provider.ExecuteWriter(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		if err := fn(ctx, uow); err != nil {
			return err
		}
		return uow.Save(ctx, repository.SaveModeNonTracked)
	})
	require.NoError(f.t, err)
}

// Version 写入一条版本行
func (f *Fixture) Version(root uuid.UUID, major, minor int, created time.Time, ignored bool) *model.Versioning {
	f.t.Helper()
	v := &model.Versioning{
		ID:           uuid.New(),
		UnificRootID: uuid.NullUUID{UUID: root, Valid: true},
		Position:     model.Position{Major: major, Minor: minor},
		Ignored:      ignored,
		Created:      created,
		CreatedBy:    "fixture",
	}
	f.Write(func(ctx context.Context, uow repository.IUnitOfWork) error {
		return uow.Versioning().Insert(ctx, v)
	})
	return v
}

// Entity 在版本行上写入一个聚合；names 为语言代码到默认名称的映射
func (f *Fixture) Entity(kind model.EntityKind, v *model.Versioning, status model.PublishingStatus, names map[string]string) *model.Aggregate {
	f.t.Helper()
	agg := &model.Aggregate{
		ID:               uuid.New(),
		Kind:             kind,
		UnificRootID:     v.UnificRootID.UUID,
		VersioningID:     v.ID,
		PublishingStatus: status,
		Modified:         v.Created,
		ModifiedBy:       "fixture",
	}
	for _, lang := range Languages {
		name, ok := names[lang.Code]
		if !ok {
			continue
		}
		agg.Names = append(agg.Names, model.Name{LocalizationID: lang.ID, TypeID: NameTypeName, Value: name})
		agg.LanguageAvailabilities = append(agg.LanguageAvailabilities, model.LanguageAvailability{LanguageID: lang.ID, Status: status})
	}
	f.Insert(agg)
	return agg
}

// Insert 写入调用方构造好的聚合
func (f *Fixture) Insert(agg *model.Aggregate) {
	f.t.Helper()
	f.Write(func(ctx context.Context, uow repository.IUnitOfWork) error {
		return uow.Entities().Insert(ctx, agg)
	})
}

// Connect 写入服务-渠道连接
func (f *Fixture) Connect(c *model.Connection) {
	f.t.Helper()
	f.Write(func(ctx context.Context, uow repository.IUnitOfWork) error {
		return uow.Connections().Insert(ctx, c)
	})
}

// TrackConnection 直接写入连接跟踪记录
func (f *Fixture) TrackConnection(ops ...model.ConnectionOperation) {
	f.t.Helper()
	f.Write(func(ctx context.Context, uow repository.IUnitOfWork) error {
		return uow.Tracking().InsertConnectionOperations(ctx, ops...)
	})
}

// TrackEntity 直接写入实体跟踪记录
func (f *Fixture) TrackEntity(ops ...model.EntityOperation) {
	f.t.Helper()
	f.Write(func(ctx context.Context, uow repository.IUnitOfWork) error {
		return uow.Tracking().InsertEntityOperations(ctx, ops...)
	})
}
