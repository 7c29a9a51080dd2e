package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/data/sqlstore/sqlstoretest"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func countEntityOps(t *testing.T, f *sqlstoretest.Fixture) int {
	t.Helper()
	var n int
	err := f.Provider.ExecuteReader(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		var err error
		n, err = uow.Tracking().CountEntityOperations(ctx, repository.EntityOperationQuery{})
		return err
	})
	require.NoError(t, err)
	return n
}

func entityOp(root uuid.UUID) model.EntityOperation {
	return model.EntityOperation{
		OperationType: model.OperationModified,
		Created:       t0,
		CreatedBy:     "tester",
		EntityKind:    model.KindService,
		RootID:        root,
		EntityID:      uuid.New(),
	}
}

func TestUnitOfWork_SaveFlushesTracking(t *testing.T) {
	f := sqlstoretest.New(t)
	err := f.Provider.ExecuteWriter(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		uow.TrackEntity(entityOp(uuid.New()))
		uow.TrackConnection(model.ConnectionOperation{
			OperationType: model.OperationAdded,
			Created:       t0,
			Relation:      model.RelationServiceChannel,
			LeftKind:      model.KindService,
			LeftRootID:    uuid.New(),
			RightKind:     model.KindServiceChannel,
			RightRootID:   uuid.New(),
		})
		return uow.Save(ctx, repository.SaveModeNormal)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countEntityOps(t, f))
}

func TestUnitOfWork_NonTrackedDropsTracking(t *testing.T) {
	f := sqlstoretest.New(t)
	err := f.Provider.ExecuteWriter(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		uow.TrackEntity(entityOp(uuid.New()))
		return uow.Save(ctx, repository.SaveModeNonTracked)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, countEntityOps(t, f))
}

func TestUnitOfWork_UnsavedWorkRolledBack(t *testing.T) {
	f := sqlstoretest.New(t)
	root := uuid.New()
	boom := errors.New("boom")

	err := f.Provider.ExecuteWriter(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		v := &model.Versioning{UnificRootID: uuid.NullUUID{UUID: root, Valid: true}, Created: t0}
		if err := uow.Versioning().Insert(ctx, v); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = f.Provider.ExecuteReader(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		rows, err := uow.Versioning().ListByRoot(ctx, root)
		assert.Empty(t, rows)
		return err
	})
	require.NoError(t, err)
}

func TestUnitOfWork_SaveOnReaderFails(t *testing.T) {
	f := sqlstoretest.New(t)
	err := f.Provider.ExecuteReader(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		assert.True(t, uow.ReadOnly())
		return uow.Save(ctx, repository.SaveModeNormal)
	})
	assert.Error(t, err)
}

func TestUnitOfWork_SavedStepSurvivesLaterFailure(t *testing.T) {
	f := sqlstoretest.New(t)
	root := uuid.New()

	err := f.Provider.ExecuteWriter(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		first := &model.Versioning{UnificRootID: uuid.NullUUID{UUID: root, Valid: true}, Created: t0}
		if err := uow.Versioning().Insert(ctx, first); err != nil {
			return err
		}
		if err := uow.Save(ctx, repository.SaveModeNormal); err != nil {
			return err
		}
		second := &model.Versioning{UnificRootID: uuid.NullUUID{UUID: root, Valid: true}, Position: model.Position{Minor: 1}, Created: t0}
		if err := uow.Versioning().Insert(ctx, second); err != nil {
			return err
		}
		return errors.New("abort after first save")
	})
	require.Error(t, err)

	err = f.Provider.ExecuteReader(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		rows, err := uow.Versioning().ListByRoot(ctx, root)
		require.Len(t, rows, 1)
		assert.Equal(t, model.Position{}, rows[0].Position)
		return err
	})
	require.NoError(t, err)
}
