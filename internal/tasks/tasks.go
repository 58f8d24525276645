package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeListTouch = "list:touch"  // advance a list's last_active
	TypeRoomStats = "rooms:stats" // periodic room statistics
)

// QueueLow is the queue list activity tasks go to.
const QueueLow = "low"

// ListTouchPayload is the payload of a TypeListTouch task.
type ListTouchPayload struct {
	ListID uint      `json:"list_id"`
	At     time.Time `json:"at"`
}

// NewListTouchTask encodes the payload of a list touch task.
func NewListTouchTask(listID uint, at time.Time) ([]byte, error) {
	return json.Marshal(ListTouchPayload{ListID: listID, At: at.UTC()})
}

// ParseListTouchPayload decodes a TypeListTouch payload.
func ParseListTouchPayload(data []byte) (ListTouchPayload, error) {
	var p ListTouchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, err
	}
	if p.ListID == 0 {
		return p, fmt.Errorf("list_id is required")
	}
	return p, nil
}

// NewRoomStatsTask returns the payload of the periodic room stats task. It carries no data.
func NewRoomStatsTask() ([]byte, error) {
	return []byte("{}"), nil
}

// Enqueuer is the part of *asynq.Client used to submit tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ActivityRecorder submits a list touch task for every recorded mutation.
type ActivityRecorder struct {
	client Enqueuer
}

// NewActivityRecorder creates an ActivityRecorder on top of an asynq client.
func NewActivityRecorder(client Enqueuer) *ActivityRecorder {
	if client == nil {
		panic("asynq client cannot be nil for ActivityRecorder")
	}
	return &ActivityRecorder{client: client}
}

// RecordActivity enqueues a TypeListTouch task on the low queue.
func (r *ActivityRecorder) RecordActivity(ctx context.Context, listID uint, at time.Time) error {
	payload, err := NewListTouchTask(listID, at)
	if err != nil {
		return fmt.Errorf("tasks: encode %s payload: %w", TypeListTouch, err)
	}
	task := asynq.NewTask(TypeListTouch, payload)
	if _, err := r.client.EnqueueContext(ctx, task, asynq.Queue(QueueLow), asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("tasks: enqueue %s for list %d: %w", TypeListTouch, listID, err)
	}
	return nil
}
