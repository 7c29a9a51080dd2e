package lifecycle_test

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ptvdata/data/sqlstore/sqlstoretest"
	"ptvdata/domain/lifecycle"
	"ptvdata/domain/lifecycle/mocks"
	"ptvdata/domain/model"
	"ptvdata/domain/repository"
	"ptvdata/errors"
	"ptvdata/lock"
	"ptvdata/saga"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

var serviceDesc = lifecycle.Descriptor{Kind: model.KindService, HasLanguageAvailability: true, HasVersionedRoot: true}

func newService(t *testing.T, f *sqlstoretest.Fixture, opts lifecycle.Options) *lifecycle.Service[*model.Aggregate] {
	t.Helper()
	return lifecycle.NewService(serviceDesc, f.Provider, lifecycle.AggregateLoader(model.KindService), opts)
}

func draftService(f *sqlstoretest.Fixture, validFrom *time.Time) *model.Aggregate {
	root := uuid.New()
	v := f.Version(root, 0, 1, t0, false)
	agg := &model.Aggregate{
		ID:               uuid.New(),
		Kind:             model.KindService,
		UnificRootID:     root,
		VersioningID:     v.ID,
		PublishingStatus: model.StatusDraft,
		Modified:         t0,
		Names:            []model.Name{{LocalizationID: sqlstoretest.LangFI, TypeID: sqlstoretest.NameTypeName, Value: "Palvelu"}},
		LanguageAvailabilities: []model.LanguageAvailability{
			{LanguageID: sqlstoretest.LangFI, Status: model.StatusDraft, ValidFrom: validFrom},
		},
	}
	f.Insert(agg)
	return agg
}

func TestGet_UnassignedIDIsNotFound(t *testing.T) {
	f := sqlstoretest.New(t)
	s := newService(t, f, lifecycle.Options{})

	_, err := s.Get(context.Background(), uuid.Nil, false)
	assert.True(t, errors.IsNotFound(err))
}

func TestGet_LoadsDetails(t *testing.T) {
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)
	s := newService(t, f, lifecycle.Options{})

	res, err := s.Get(context.Background(), agg.ID, false)
	require.NoError(t, err)
	assert.Equal(t, agg.ID, res.ID)
	require.NotNil(t, res.Entity.Versioning)
	assert.Equal(t, model.Position{Major: 0, Minor: 1}, res.Entity.Versioning.Position)
	assert.Len(t, res.Entity.Names, 1)
	assert.NotNil(t, res.Entity.Connections)
	assert.Empty(t, res.Messages)
}

func TestGet_RevalidatesWhenPublishIsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	at := t0.Add(48 * time.Hour)
	agg := draftService(f, &at)

	validator := mocks.NewMockIValidator(ctrl)
	validator.EXPECT().
		Validate(gomock.Any(), gomock.Any(), model.KindService, agg.ID).
		Return([]lifecycle.ValidationMessage{{Key: "summary.required"}}, nil)

	s := newService(t, f, lifecycle.Options{Validator: validator})
	res, err := s.Get(context.Background(), agg.ID, false)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "summary.required", res.Messages[0].Key)
}

func TestGet_NoValidationUnlessRequested(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)

	// 未设置期望：任何调用都会让测试失败
	validator := mocks.NewMockIValidator(ctrl)
	s := newService(t, f, lifecycle.Options{Validator: validator})
	_, err := s.Get(context.Background(), agg.ID, false)
	require.NoError(t, err)

	validator.EXPECT().Validate(gomock.Any(), gomock.Any(), model.KindService, agg.ID).Return(nil, nil)
	_, err = s.Get(context.Background(), agg.ID, true)
	require.NoError(t, err)
}

func TestSave_PartialProgressIsReported(t *testing.T) {
	f := sqlstoretest.New(t)
	s := newService(t, f, lifecycle.Options{})
	root := uuid.New()
	var created *model.Aggregate

	req := lifecycle.SaveRequest{
		Action: lifecycle.ActionSave,
		Actor:  "tester",
		Pre: []lifecycle.Step{{Name: "versioning", Run: func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error {
			assert.Equal(t, uuid.Nil, id)
			return uow.Versioning().Insert(ctx, &model.Versioning{
				ID:           uuid.New(),
				UnificRootID: uuid.NullUUID{UUID: root, Valid: true},
				Position:     model.Position{Minor: 1},
				Created:      t0,
			})
		}}},
		Primary: func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
			rows, err := uow.Versioning().ListByRoot(ctx, root)
			if err != nil {
				return uuid.Nil, err
			}
			created = &model.Aggregate{Kind: model.KindService, UnificRootID: root, VersioningID: rows[0].ID, PublishingStatus: model.StatusDraft, Modified: t0}
			if err := uow.Entities().Insert(ctx, created); err != nil {
				return uuid.Nil, err
			}
			return created.ID, nil
		},
		Post: []lifecycle.Step{
			{Name: "notify", Run: func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error {
				return assert.AnError
			}},
			{Name: "never", Run: func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error {
				t.Fatal("step after failure must not run")
				return nil
			}},
		},
	}

	res, err := s.Save(context.Background(), req)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, saga.ErrStepFailed))
	assert.True(t, stderrors.Is(err, assert.AnError))
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.Partial())
	assert.Len(t, res.Report.Completed(), 2)
	failed, ok := res.Report.Failed()
	require.True(t, ok)
	assert.Equal(t, saga.PhasePost, failed.Phase)
	assert.Equal(t, saga.StepSkipped, res.Report.Steps[3].Status)

	// 前置与主体步骤已经提交
	reloaded, err := s.Get(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, reloaded.Entity.PublishingStatus)
}

func TestSave_AndPublishDelegatesToCommonService(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)

	common := mocks.NewMockICommonService(ctrl)
	common.EXPECT().
		PublishEntity(gomock.Any(), gomock.Any(), lifecycle.Transition{Kind: model.KindService, ID: agg.ID, Actor: "tester"}).
		Return(agg.ID, nil)

	s := newService(t, f, lifecycle.Options{Common: common, Locker: lock.NewLocal(time.Second)})
	var postID uuid.UUID
	res, err := s.Save(context.Background(), lifecycle.SaveRequest{
		ID:     agg.ID,
		Action: lifecycle.ActionSaveAndPublish,
		Actor:  "tester",
		Primary: func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
			return agg.ID, nil
		},
		Post: []lifecycle.Step{{Name: "capture", Run: func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error {
			postID = id
			return nil
		}}},
	})
	require.NoError(t, err)
	assert.True(t, res.Report.Succeeded())
	assert.Equal(t, agg.ID, postID)
	assert.Equal(t, agg.ID, res.Entity.ID)
}

func TestSave_RejectsMissingPrimaryAndScheduleActions(t *testing.T) {
	f := sqlstoretest.New(t)
	s := newService(t, f, lifecycle.Options{})

	_, err := s.Save(context.Background(), lifecycle.SaveRequest{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrCodeInvalidInput))

	_, err = s.Save(context.Background(), lifecycle.SaveRequest{
		Action:  lifecycle.ActionSchedulePublish,
		Primary: func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) { return uuid.Nil, nil },
	})
	assert.True(t, errors.IsUnsupportedVariant(err))
}

// 同一实体的并发 SaveAndPublish 被发布锁串行化：前置步骤到后置步骤之间不会交错
func TestSave_AndPublishIsSerialisedPerEntity(t *testing.T) {
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)
	s := newService(t, f, lifecycle.Options{Common: passthroughCommon{}, Locker: lock.NewLocal(5 * time.Second)})

	assert.Equal(t, int32(1), publishConcurrently(t, agg.ID, s, s, s, s))
}

// 未配置 Locker 的多个服务实例共用同一把进程内锁
func TestSave_DefaultLockIsSharedAcrossServices(t *testing.T) {
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)
	first := newService(t, f, lifecycle.Options{Common: passthroughCommon{}})
	second := newService(t, f, lifecycle.Options{Common: passthroughCommon{}})

	assert.Equal(t, int32(1), publishConcurrently(t, agg.ID, first, second, first, second))
}

// publishConcurrently 让每个服务并发发布同一实体，返回同时处于发布区间内的最大数量
func publishConcurrently(t *testing.T, id uuid.UUID, services ...*lifecycle.Service[*model.Aggregate]) int32 {
	t.Helper()
	var inFlight, peak atomic.Int32
	req := lifecycle.SaveRequest{
		ID:     id,
		Action: lifecycle.ActionSaveAndPublish,
		Pre: []lifecycle.Step{{Name: "enter", Run: func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			return nil
		}}},
		Primary: func(ctx context.Context, uow repository.IUnitOfWork) (uuid.UUID, error) {
			time.Sleep(5 * time.Millisecond)
			return id, nil
		},
		Post: []lifecycle.Step{{Name: "leave", Run: func(ctx context.Context, uow repository.IUnitOfWork, id uuid.UUID) error {
			inFlight.Add(-1)
			return nil
		}}},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(services))
	for _, s := range services {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Save(context.Background(), req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(0), inFlight.Load())
	return peak.Load()
}

// passthroughCommon 发布时原样返回 ID
type passthroughCommon struct{ lifecycle.ICommonService }

func (passthroughCommon) PublishEntity(ctx context.Context, uow repository.IUnitOfWork, t lifecycle.Transition) (uuid.UUID, error) {
	return t.ID, nil
}

func TestSchedule_PublishValidationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)

	validator := mocks.NewMockIValidator(ctrl)
	validator.EXPECT().
		Validate(gomock.Any(), gomock.Any(), model.KindService, agg.ID).
		Return([]lifecycle.ValidationMessage{{Key: "name.fi", LanguageID: uuid.NullUUID{UUID: sqlstoretest.LangFI, Valid: true}}}, nil)
	common := mocks.NewMockICommonService(ctrl)

	s := newService(t, f, lifecycle.Options{Common: common, Validator: validator})
	_, err := s.Schedule(context.Background(), agg.ID, lifecycle.Schedule{Action: lifecycle.ActionSchedulePublish, At: t0.Add(time.Hour)}, "tester")
	require.Error(t, err)

	var spe *lifecycle.SchedulePublishError
	require.True(t, stderrors.As(err, &spe))
	assert.Len(t, spe.Messages, 1)
	assert.True(t, stderrors.Is(err, errors.ErrSchedulePublish))
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, errors.ErrCodeSchedulePublish, errors.GetErrorCode(err))
}

func TestSchedule_ArchiveSkipsValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)

	validator := mocks.NewMockIValidator(ctrl)
	common := mocks.NewMockICommonService(ctrl)
	sched := lifecycle.Schedule{Action: lifecycle.ActionScheduleArchive, At: t0.Add(time.Hour)}
	common.EXPECT().
		SchedulePublishArchiveEntity(gomock.Any(), gomock.Any(), lifecycle.Transition{Kind: model.KindService, ID: agg.ID, Actor: "tester"}, sched).
		Return(agg.ID, nil)

	s := newService(t, f, lifecycle.Options{Common: common, Validator: validator})
	res, err := s.Schedule(context.Background(), agg.ID, sched, "tester")
	require.NoError(t, err)
	assert.Equal(t, agg.ID, res.ID)
}

func TestTransitions_ReloadUsingReturnedID(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	original := draftService(f, nil)
	successor := draftService(f, nil)

	common := mocks.NewMockICommonService(ctrl)
	common.EXPECT().
		RestoreEntity(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, uow repository.IUnitOfWork, tr lifecycle.Transition) (uuid.UUID, error) {
			assert.Equal(t, original.ID, tr.ID)
			return successor.ID, nil
		})

	s := newService(t, f, lifecycle.Options{Common: common})
	res, err := s.Restore(context.Background(), original.ID, "tester")
	require.NoError(t, err)
	assert.Equal(t, successor.ID, res.ID)
	assert.Equal(t, successor.ID, res.Entity.ID)
}

func TestTransitions_ErrorsPropagateUnmodified(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := sqlstoretest.New(t)
	agg := draftService(f, nil)

	common := mocks.NewMockICommonService(ctrl)
	common.EXPECT().WithdrawEntity(gomock.Any(), gomock.Any(), gomock.Any()).Return(uuid.Nil, errors.ErrConcurrency)

	s := newService(t, f, lifecycle.Options{Common: common})
	_, err := s.Withdraw(context.Background(), agg.ID, "tester")
	assert.Same(t, errors.ErrConcurrency, err)
}

func TestLanguageTransitions_RequireLanguageAvailability(t *testing.T) {
	f := sqlstoretest.New(t)
	desc := lifecycle.Descriptor{Kind: model.KindServiceCollection, HasVersionedRoot: true}
	s := lifecycle.NewService(desc, f.Provider, lifecycle.AggregateLoader(model.KindServiceCollection), lifecycle.Options{})

	_, err := s.ArchiveLanguage(context.Background(), uuid.New(), sqlstoretest.LangFI, "tester")
	assert.True(t, errors.IsUnsupportedVariant(err))
	_, err = s.Schedule(context.Background(), uuid.New(), lifecycle.Schedule{Action: lifecycle.ActionScheduleArchive}, "tester")
	assert.True(t, errors.IsUnsupportedVariant(err))
}
