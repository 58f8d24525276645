package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{ID: "1", Queue: QueueLow, Type: task.Type()}, nil
}

func TestListTouchPayload_RoundTripKeepsUTC(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.FixedZone("CET", 3600))

	data, err := NewListTouchTask(5, at)
	require.NoError(t, err)

	p, err := ParseListTouchPayload(data)
	require.NoError(t, err)
	assert.Equal(t, uint(5), p.ListID)
	assert.True(t, p.At.Equal(at))
	assert.Equal(t, time.UTC, p.At.Location())
}

func TestParseListTouchPayload_Invalid(t *testing.T) {
	_, err := ParseListTouchPayload([]byte("nope"))
	assert.Error(t, err)

	_, err = ParseListTouchPayload([]byte(`{"at":"2024-03-01T10:30:00Z"}`))
	assert.Error(t, err)
}

func TestActivityRecorder_EnqueuesOnLowQueue(t *testing.T) {
	enq := &fakeEnqueuer{}
	r := NewActivityRecorder(enq)
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	require.NoError(t, r.RecordActivity(context.Background(), 9, at))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeListTouch, enq.tasks[0].Type())
	p, err := ParseListTouchPayload(enq.tasks[0].Payload())
	require.NoError(t, err)
	assert.Equal(t, uint(9), p.ListID)

	var queue string
	for _, o := range enq.opts[0] {
		if o.Type() == asynq.QueueOpt {
			queue = o.Value().(string)
		}
	}
	assert.Equal(t, QueueLow, queue)
}

func TestActivityRecorder_ReturnsEnqueueError(t *testing.T) {
	boom := errors.New("redis down")
	r := NewActivityRecorder(&fakeEnqueuer{err: boom})

	err := r.RecordActivity(context.Background(), 9, time.Now())
	assert.ErrorIs(t, err, boom)
}
