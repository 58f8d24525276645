package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saschakew/ShoppingLists/internal/dto"
)

func newTestClient(h *Hub, userID uint) *Client {
	return NewClient(h, nil, userID, nil)
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case m := <-c.send:
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHub_JoinLeaveAreIdempotent(t *testing.T) {
	h := NewHub(0)
	c := newTestClient(h, 1)

	assert.True(t, h.Join(c, 7))
	assert.False(t, h.Join(c, 7))
	assert.Len(t, h.Members(7), 1)

	assert.True(t, h.Leave(c, 7))
	assert.False(t, h.Leave(c, 7))
	assert.Empty(t, h.Members(7))
	assert.Empty(t, h.ActiveListIDs())

	rooms, clients := h.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, clients)
}

func TestHub_MembersReturnsCopy(t *testing.T) {
	h := NewHub(0)
	a, b := newTestClient(h, 1), newTestClient(h, 2)
	h.Join(a, 7)
	h.Join(b, 7)

	members := h.Members(7)
	require.Len(t, members, 2)
	members[0] = nil

	assert.NotContains(t, h.Members(7), (*Client)(nil))
}

func TestHub_RemoveClientLeavesEveryRoom(t *testing.T) {
	h := NewHub(0)
	a, b := newTestClient(h, 1), newTestClient(h, 2)
	h.Join(a, 1)
	h.Join(a, 2)
	h.Join(b, 2)

	removed := h.RemoveClient(a)

	assert.ElementsMatch(t, []uint{1, 2}, removed)
	assert.Empty(t, h.Members(1))
	assert.Equal(t, []*Client{b}, h.Members(2))
	assert.Equal(t, []uint{2}, h.ActiveListIDs())
	assert.Empty(t, h.RemoveClient(a))
}

func TestHub_JoinRefusesClosedClient(t *testing.T) {
	h := NewHub(0)
	c := newTestClient(h, 1)
	c.Close()
	c.Close()

	assert.False(t, h.Join(c, 7))
	assert.Empty(t, h.Members(7))
}

func TestHub_PublishReachesOnlyRoomMembers(t *testing.T) {
	h := NewHub(0)
	inRoom, otherRoom := newTestClient(h, 1), newTestClient(h, 2)
	h.Join(inRoom, 7)
	h.Join(otherRoom, 8)

	h.Publish(7, dto.NewItemDeletedEvent(7, 42))

	msgs := drain(inRoom)
	require.Len(t, msgs, 1)
	var env struct {
		Event string                 `json:"event"`
		Data  dto.ItemDeletedPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msgs[0], &env))
	assert.Equal(t, dto.EventItemDeleted, env.Event)
	assert.Equal(t, dto.ItemDeletedPayload{ItemID: 42, ListID: 7}, env.Data)

	assert.Empty(t, drain(otherRoom))
}

func TestHub_PublishPreservesOrderForOneCaller(t *testing.T) {
	h := NewHub(0)
	c := newTestClient(h, 1)
	h.Join(c, 7)

	for i := 0; i < 50; i++ {
		h.PublishRaw(7, []byte(fmt.Sprintf("%d", i)))
	}

	msgs := drain(c)
	require.Len(t, msgs, 50)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("%d", i), string(m))
	}
}

func TestHub_PublishSkipsClosedClient(t *testing.T) {
	h := NewHub(time.Second)
	closed, open := newTestClient(h, 1), newTestClient(h, 2)
	h.Join(closed, 7)
	h.Join(open, 7)
	// fill the buffer so only the done channel can release the publisher
	for i := 0; i < sendBufferSize; i++ {
		closed.send <- []byte("x")
	}
	closed.Close()

	start := time.Now()
	h.PublishRaw(7, []byte("hello"))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, [][]byte{[]byte("hello")}, drain(open))
}

func TestHub_SlowClientIsBoundedByTimeout(t *testing.T) {
	timeout := 30 * time.Millisecond
	h := NewHub(timeout)
	slow, fast := newTestClient(h, 1), newTestClient(h, 2)
	h.Join(slow, 7)
	h.Join(fast, 7)
	for i := 0; i < sendBufferSize; i++ {
		slow.send <- []byte("x")
	}

	start := time.Now()
	h.PublishRaw(7, []byte("hello"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, 10*timeout)
	assert.Equal(t, [][]byte{[]byte("hello")}, drain(fast))
	assert.Len(t, drain(slow), sendBufferSize, "dropped message must not be queued")
}

func TestHub_ConcurrentMembershipAndPublish(t *testing.T) {
	h := NewHub(5 * time.Millisecond)
	const n = 32
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = newTestClient(h, uint(i+1))
	}

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				listID := uint(j % 3)
				h.Join(c, listID)
				h.PublishRaw(listID, []byte("m"))
				if j%2 == 0 {
					h.Leave(c, listID)
				}
				drain(c)
			}
			if i%2 == 0 {
				h.RemoveClient(c)
			}
		}(i, c)
	}
	wg.Wait()

	for _, c := range clients {
		if c.UserID()%2 == 1 { // even index
			for _, id := range h.ActiveListIDs() {
				assert.NotContains(t, h.Members(id), c)
			}
		}
	}
}

func TestHub_SendToSingleClient(t *testing.T) {
	h := NewHub(0)
	a, b := newTestClient(h, 1), newTestClient(h, 2)
	h.Join(a, 7)
	h.Join(b, 7)

	require.True(t, h.SendTo(a, dto.NewErrorEvent(7, "denied")))

	assert.Len(t, drain(a), 1)
	assert.Empty(t, drain(b))
}

func TestHub_LeaveUserEvictsEveryConnectionOfUser(t *testing.T) {
	h := NewHub(0)
	alice := newTestClient(h, 1)
	bobPhone, bobLaptop := newTestClient(h, 2), newTestClient(h, 2)
	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		h.Join(c, 7)
	}
	h.Join(bobPhone, 8)

	assert.Equal(t, 2, h.LeaveUser(7, 2))
	assert.Equal(t, []*Client{alice}, h.Members(7))
	assert.Len(t, h.Members(8), 1, "other rooms are untouched")
	assert.Zero(t, h.LeaveUser(7, 2))
	assert.Zero(t, h.LeaveUser(99, 2))

	h.Publish(7, dto.NewItemDeletedEvent(7, 1))

	for _, c := range []*Client{bobPhone, bobLaptop} {
		msgs := drain(c)
		require.Len(t, msgs, 1, "only the revocation notice")
		var env dto.Envelope
		require.NoError(t, json.Unmarshal(msgs[0], &env))
		assert.Equal(t, dto.EventError, env.Event)
	}
	assert.Len(t, drain(alice), 1)
}
