package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Saschakew/ShoppingLists/internal/domain"
	"github.com/Saschakew/ShoppingLists/internal/hub"
	gormpersistence "github.com/Saschakew/ShoppingLists/internal/infra/persistence/gorm"
	"github.com/Saschakew/ShoppingLists/internal/infra/setup"
	"github.com/Saschakew/ShoppingLists/internal/repository"
	"github.com/Saschakew/ShoppingLists/internal/repository/mocks"
	"github.com/Saschakew/ShoppingLists/internal/tasks"
)

func touchTask(t *testing.T, listID uint, at time.Time) *asynq.Task {
	payload, err := tasks.NewListTouchTask(listID, at)
	require.NoError(t, err)
	return asynq.NewTask(tasks.TypeListTouch, payload)
}

func TestListTouchHandler_TouchesList(t *testing.T) {
	repo := new(mocks.ListRepository)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.On("Touch", mock.Anything, uint(4), mock.MatchedBy(func(got time.Time) bool {
		return got.Equal(at)
	})).Return(nil).Once()

	h := NewListTouchHandler(repo)
	require.NoError(t, h.ProcessTask(context.Background(), touchTask(t, 4, at)))
	repo.AssertExpectations(t)
}

func TestListTouchHandler_DeletedListIsNotAnError(t *testing.T) {
	repo := new(mocks.ListRepository)
	repo.On("Touch", mock.Anything, uint(4), mock.Anything).Return(repository.ErrListNotFound).Once()

	h := NewListTouchHandler(repo)
	assert.NoError(t, h.ProcessTask(context.Background(), touchTask(t, 4, time.Now())))
}

func TestListTouchHandler_AgainstSQLite(t *testing.T) {
	db, err := setup.InitDB(setup.DBOptions{Driver: setup.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))
	lists := gormpersistence.NewGormListRepository(db)
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := &domain.ShoppingList{Name: "L", OwnerID: 1, CreatedAt: start, LastActive: start}
	require.NoError(t, lists.Create(ctx, l))

	h := NewListTouchHandler(lists)
	require.NoError(t, h.ProcessTask(ctx, touchTask(t, l.ID, start.Add(time.Hour))))
	got, err := lists.FindByID(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActive.Equal(start.Add(time.Hour)))

	require.NoError(t, lists.Delete(ctx, l.ID))
	assert.NoError(t, h.ProcessTask(ctx, touchTask(t, l.ID, start.Add(2*time.Hour))), "deleted list is skipped")
}

func TestListTouchHandler_StorageErrorIsRetried(t *testing.T) {
	repo := new(mocks.ListRepository)
	repo.On("Touch", mock.Anything, uint(4), mock.Anything).Return(errors.New("db gone")).Once()

	h := NewListTouchHandler(repo)
	err := h.ProcessTask(context.Background(), touchTask(t, 4, time.Now()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestListTouchHandler_BadPayloadSkipsRetry(t *testing.T) {
	repo := new(mocks.ListRepository)
	h := NewListTouchHandler(repo)

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeListTouch, []byte("garbage")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	repo.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomStatsHandler(t *testing.T) {
	h := hub.NewHub(0)
	payload, err := tasks.NewRoomStatsTask()
	require.NoError(t, err)
	task := asynq.NewTask(tasks.TypeRoomStats, payload)

	handler := NewRoomStatsHandler(h)
	assert.NoError(t, handler.ProcessTask(context.Background(), task))

	c := hub.NewClient(h, nil, 1, nil)
	h.Join(c, 3)
	assert.NoError(t, handler.ProcessTask(context.Background(), task))
}

func TestNewHandlers_PanicOnNil(t *testing.T) {
	assert.Panics(t, func() { NewListTouchHandler(nil) })
	assert.Panics(t, func() { NewRoomStatsHandler(nil) })
}
