package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/repository"
	"github.com/Saschakew/ShoppingLists/internal/tasks"
)

// ListTouchHandler processes list touch tasks.
type ListTouchHandler struct {
	listRepo repository.ListRepository
}

// NewListTouchHandler creates a ListTouchHandler.
func NewListTouchHandler(listRepo repository.ListRepository) *ListTouchHandler {
	if listRepo == nil {
		panic("ListRepository cannot be nil for ListTouchHandler")
	}
	return &ListTouchHandler{listRepo: listRepo}
}

// ProcessTask implements asynq.Handler.
func (h *ListTouchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})

	payload, err := tasks.ParseListTouchPayload(t.Payload())
	if err != nil {
		logCtx.WithError(err).Error("Failed to decode list touch payload")
		return fmt.Errorf("failed to decode payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithField("list_id", payload.ListID)

	if err := h.listRepo.Touch(ctx, payload.ListID, payload.At); err != nil {
		if errors.Is(err, repository.ErrListNotFound) {
			// list deleted after the mutation
			logCtx.Debug("List gone, skipping touch")
			return nil
		}
		logCtx.WithError(err).Error("Failed to update list activity")
		return fmt.Errorf("failed to touch list %d: %w", payload.ListID, err)
	}

	logCtx.Debug("List activity updated")
	return nil
}

// RoomStats is the part of the hub the stats task reads.
type RoomStats interface {
	Stats() (rooms, clients int)
	ActiveListIDs() []uint
}

// RoomStatsHandler logs the state of the room registry.
type RoomStatsHandler struct {
	hub RoomStats
}

// NewRoomStatsHandler creates a RoomStatsHandler.
func NewRoomStatsHandler(hub RoomStats) *RoomStatsHandler {
	if hub == nil {
		panic("Hub cannot be nil for RoomStatsHandler")
	}
	return &RoomStatsHandler{hub: hub}
}

// ProcessTask implements asynq.Handler.
func (h *RoomStatsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	rooms, clients := h.hub.Stats()
	logCtx := logrus.WithFields(logrus.Fields{
		"task_type": t.Type(),
		"rooms":     rooms,
		"clients":   clients,
	})
	if rooms == 0 {
		logCtx.Debug("No active list rooms")
		return nil
	}
	logCtx.WithField("list_ids", h.hub.ActiveListIDs()).Info("Active list rooms")
	return nil
}
