package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/Saschakew/ShoppingLists/internal/dto"
)

type publishedEvent struct {
	ListID uint
	Event  dto.Envelope
}

type eviction struct {
	ListID uint
	UserID uint
}

// recordingPublisher stands in for the hub.
type recordingPublisher struct {
	mu        sync.Mutex
	events    []publishedEvent
	evictions []eviction
}

func (p *recordingPublisher) LeaveUser(listID, userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictions = append(p.evictions, eviction{ListID: listID, UserID: userID})
	return 1
}

func (p *recordingPublisher) Evictions() []eviction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]eviction(nil), p.evictions...)
}

func (p *recordingPublisher) Publish(listID uint, event dto.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{ListID: listID, Event: event})
}

func (p *recordingPublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

type recordingActivity struct {
	mu    sync.Mutex
	calls []uint
	err   error
}

func (a *recordingActivity) RecordActivity(_ context.Context, listID uint, _ time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, listID)
	return a.err
}

func (a *recordingActivity) Calls() []uint {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint(nil), a.calls...)
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start.UTC()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
