package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/data/sqlstore/sqlstoretest"
	"ptvdata/domain/lifecycle"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
)

func newMachine() *lifecycle.StateMachine {
	return lifecycle.NewStateMachine().WithClock(func() time.Time { return t0.Add(24 * time.Hour) })
}

// apply 在写事务中执行一次变更并以正常模式保存
func apply(t *testing.T, f *sqlstoretest.Fixture, fn func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error)) (uuid.UUID, error) {
	t.Helper()
	var id uuid.UUID
	err := f.Provider.ExecuteWriter(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		var err error
		if id, err = fn(ctx, uow); err != nil {
			return err
		}
		return uow.Save(ctx, repository.SaveModeNormal)
	})
	return id, err
}

type state struct {
	status    model.PublishingStatus
	position  model.Position
	languages map[uuid.UUID]model.LanguageAvailability
	ops       []model.EntityOperation
}

func readState(t *testing.T, f *sqlstoretest.Fixture, id uuid.UUID) state {
	t.Helper()
	var st state
	err := f.Provider.ExecuteReader(context.Background(), func(ctx context.Context, uow repository.IUnitOfWork) error {
		agg, err := uow.Entities().Get(ctx, id)
		if err != nil {
			return err
		}
		st.status = agg.PublishingStatus
		v, err := uow.Versioning().Get(ctx, agg.VersioningID)
		if err != nil {
			return err
		}
		st.position = v.Position
		las, err := uow.Entities().LanguageAvailabilities(ctx, id)
		if err != nil {
			return err
		}
		st.languages = map[uuid.UUID]model.LanguageAvailability{}
		for _, la := range las {
			st.languages[la.LanguageID] = la
		}
		st.ops, _, err = uow.Tracking().PageEntityOperations(ctx, repository.EntityOperationQuery{Take: 100})
		return err
	})
	require.NoError(t, err)
	return st
}

func opsFor(ops []model.EntityOperation, id uuid.UUID) []model.OperationType {
	var out []model.OperationType
	for _, op := range ops {
		if op.EntityID == id {
			out = append(out, op.OperationType)
		}
	}
	return out
}

func transition(kind model.EntityKind, id uuid.UUID) lifecycle.Transition {
	return lifecycle.Transition{Kind: kind, ID: id, Actor: "editor"}
}

func TestStateMachine_PublishSupersedesPreviousVersion(t *testing.T) {
	f := sqlstoretest.New(t)
	m := newMachine()
	root := uuid.New()

	v10 := f.Version(root, 1, 0, t0, false)
	published := f.Entity(model.KindService, v10, model.StatusPublished, map[string]string{"fi": "Vanha"})
	v11 := f.Version(root, 1, 1, t0.Add(time.Hour), false)
	draft := f.Entity(model.KindService, v11, model.StatusModified, map[string]string{"fi": "Uusi", "sv": "Ny"})

	id, err := apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.PublishEntity(ctx, uow, transition(model.KindService, draft.ID))
	})
	require.NoError(t, err)
	assert.Equal(t, draft.ID, id)

	st := readState(t, f, draft.ID)
	assert.Equal(t, model.StatusPublished, st.status)
	assert.Equal(t, model.Position{Major: 2}, st.position)
	assert.Equal(t, model.StatusPublished, st.languages[sqlstoretest.LangFI].Status)
	assert.Equal(t, model.StatusPublished, st.languages[sqlstoretest.LangSV].Status)
	assert.Equal(t, []model.OperationType{model.OperationPublished}, opsFor(st.ops, draft.ID))
	assert.Equal(t, "editor", st.ops[0].CreatedBy)
	assert.Equal(t, root, st.ops[0].RootID)

	assert.Equal(t, model.StatusOldPublished, readState(t, f, published.ID).status)
}

func TestStateMachine_PublishFirstDraft(t *testing.T) {
	f := sqlstoretest.New(t)
	m := newMachine()
	v := f.Version(uuid.New(), 0, 1, t0, false)
	draft := f.Entity(model.KindServiceChannel, v, model.StatusDraft, map[string]string{"fi": "Kanava"})

	_, err := apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.PublishEntity(ctx, uow, transition(model.KindServiceChannel, draft.ID))
	})
	require.NoError(t, err)
	assert.Equal(t, model.Position{Major: 1}, readState(t, f, draft.ID).position)

	// 重复发布不再提升版本
	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.PublishEntity(ctx, uow, transition(model.KindServiceChannel, draft.ID))
	})
	require.NoError(t, err)
	st := readState(t, f, draft.ID)
	assert.Equal(t, model.Position{Major: 1}, st.position)
	assert.Len(t, opsFor(st.ops, draft.ID), 1)
}

func TestStateMachine_WrongKindIsNotFound(t *testing.T) {
	f := sqlstoretest.New(t)
	v := f.Version(uuid.New(), 0, 1, t0, false)
	draft := f.Entity(model.KindService, v, model.StatusDraft, map[string]string{"fi": "Palvelu"})

	_, err := apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return newMachine().PublishEntity(ctx, uow, transition(model.KindOrganization, draft.ID))
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestStateMachine_ArchiveRestoreWithdraw(t *testing.T) {
	f := sqlstoretest.New(t)
	m := newMachine()
	v := f.Version(uuid.New(), 1, 0, t0, false)
	agg := f.Entity(model.KindOrganization, v, model.StatusPublished, map[string]string{"fi": "Org", "en": "Org"})
	tr := transition(model.KindOrganization, agg.ID)

	_, err := apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.RestoreEntity(ctx, uow, tr)
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeConflict))

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.WithdrawEntity(ctx, uow, tr)
	})
	require.NoError(t, err)
	st := readState(t, f, agg.ID)
	assert.Equal(t, model.StatusModified, st.status)
	assert.Equal(t, model.StatusModified, st.languages[sqlstoretest.LangEN].Status)

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.ChangeEntityToDeleted(ctx, uow, tr)
	})
	require.NoError(t, err)
	st = readState(t, f, agg.ID)
	assert.Equal(t, model.StatusDeleted, st.status)
	assert.Equal(t, model.StatusDeleted, st.languages[sqlstoretest.LangFI].Status)

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.RestoreEntity(ctx, uow, tr)
	})
	require.NoError(t, err)
	st = readState(t, f, agg.ID)
	assert.Equal(t, model.StatusModified, st.status)
	assert.Equal(t, model.StatusModified, st.languages[sqlstoretest.LangFI].Status)

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.ChangeEntityToRemoved(ctx, uow, tr)
	})
	require.NoError(t, err)
	st = readState(t, f, agg.ID)
	assert.Equal(t, model.StatusRemoved, st.status)
	assert.ElementsMatch(t, []model.OperationType{
		model.OperationWithdrawn, model.OperationArchived, model.OperationRestored, model.OperationRemoved,
	}, opsFor(st.ops, agg.ID))

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.ChangeEntityToDeleted(ctx, uow, tr)
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeConflict))
}

func TestStateMachine_LanguageTransitions(t *testing.T) {
	f := sqlstoretest.New(t)
	m := newMachine()
	v := f.Version(uuid.New(), 1, 0, t0, false)
	agg := f.Entity(model.KindService, v, model.StatusPublished, map[string]string{"fi": "Palvelu", "sv": "Tjänst"})
	sv := lifecycle.Transition{Kind: model.KindService, ID: agg.ID, LanguageID: sqlstoretest.LangSV, Actor: "editor"}

	_, err := apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.WithdrawLanguage(ctx, uow, sv)
	})
	require.NoError(t, err)
	st := readState(t, f, agg.ID)
	assert.Equal(t, model.StatusModified, st.languages[sqlstoretest.LangSV].Status)
	assert.Equal(t, model.StatusPublished, st.languages[sqlstoretest.LangFI].Status)

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.RestoreLanguage(ctx, uow, sv)
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeConflict))

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.ArchiveLanguage(ctx, uow, sv)
	})
	require.NoError(t, err)
	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.RestoreLanguage(ctx, uow, sv)
	})
	require.NoError(t, err)

	st = readState(t, f, agg.ID)
	assert.Equal(t, model.StatusModified, st.languages[sqlstoretest.LangSV].Status)
	for _, op := range st.ops {
		require.True(t, op.LanguageID.Valid)
		assert.Equal(t, sqlstoretest.LangSV, op.LanguageID.UUID)
	}

	en := sv
	en.LanguageID = sqlstoretest.LangEN
	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.ArchiveLanguage(ctx, uow, en)
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestStateMachine_ScheduleSetsValidFrom(t *testing.T) {
	f := sqlstoretest.New(t)
	m := newMachine()
	v := f.Version(uuid.New(), 0, 1, t0, false)
	agg := f.Entity(model.KindGeneralDescription, v, model.StatusDraft, map[string]string{"fi": "Kuvaus", "sv": "Beskrivning"})
	at := t0.Add(72 * time.Hour)

	_, err := apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.SchedulePublishArchiveEntity(ctx, uow, transition(model.KindGeneralDescription, agg.ID), lifecycle.Schedule{
			Action:      lifecycle.ActionSchedulePublish,
			At:          at,
			LanguageIDs: []uuid.UUID{sqlstoretest.LangFI},
		})
	})
	require.NoError(t, err)

	st := readState(t, f, agg.ID)
	require.NotNil(t, st.languages[sqlstoretest.LangFI].ValidFrom)
	assert.True(t, at.Equal(*st.languages[sqlstoretest.LangFI].ValidFrom))
	assert.Nil(t, st.languages[sqlstoretest.LangSV].ValidFrom)
	assert.Equal(t, []model.OperationType{model.OperationScheduled}, opsFor(st.ops, agg.ID))

	_, err = apply(t, f, func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
		return m.SchedulePublishArchiveEntity(ctx, uow, transition(model.KindGeneralDescription, agg.ID), lifecycle.Schedule{
			Action:      lifecycle.ActionScheduleArchive,
			At:          at,
			LanguageIDs: []uuid.UUID{sqlstoretest.LangEN},
		})
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))
}

// 端到端：服务编排与默认状态机配合，保存并发布后重新读取得到已发布的视图
func TestService_SaveAndPublishWithStateMachine(t *testing.T) {
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)
	s := newService(t, f, lifecycle.Options{Common: newMachine()})

	res, err := s.Save(context.Background(), lifecycle.SaveRequest{
		ID:     agg.ID,
		Action: lifecycle.ActionSaveAndPublish,
		Actor:  "editor",
		Primary: func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
			return agg.ID, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, res.Entity.PublishingStatus)
	require.NotNil(t, res.Entity.Versioning)
	assert.Equal(t, model.Position{Major: 1}, res.Entity.Versioning.Position)

	res, err = s.Delete(context.Background(), agg.ID, "editor")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, res.Entity.PublishingStatus)

	res, err = s.Restore(context.Background(), agg.ID, "editor")
	require.NoError(t, err)
	assert.Equal(t, model.StatusModified, res.Entity.PublishingStatus)
}
