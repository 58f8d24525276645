package redisrelay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/dto"
)

// DefaultPublishTimeout bounds one PUBLISH round trip to Redis.
const DefaultPublishTimeout = 250 * time.Millisecond

// LocalPublisher delivers an encoded message to the rooms of this process
// and evicts users from them. *hub.Hub satisfies it.
type LocalPublisher interface {
	PublishRaw(listID uint, data []byte)
	LeaveUser(listID, userID uint) int
}

// Relay message kinds. An empty kind is an event.
const (
	kindEvent = "event"
	kindEvict = "evict"
)

// relayMessage is what travels over Redis.
type relayMessage struct {
	Origin string          `json:"origin"`
	Kind   string          `json:"kind,omitempty"`
	ListID uint            `json:"list_id"`
	UserID uint            `json:"user_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Relay fans list events out to every server instance through Redis Pub/Sub.
// Messages are delivered locally first; instances skip their own messages
// when they come back from Redis.
type Relay struct {
	client    *redis.Client
	local     LocalPublisher
	keyPrefix string
	origin    string
	timeout   time.Duration

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewRelay creates a Relay. Run must be called for messages from other
// instances to be received. publishTimeout <= 0 selects DefaultPublishTimeout.
func NewRelay(client *redis.Client, local LocalPublisher, keyPrefix string, publishTimeout time.Duration) *Relay {
	if client == nil {
		panic("redis client cannot be nil for Relay")
	}
	if local == nil {
		panic("local publisher cannot be nil for Relay")
	}
	if keyPrefix == "" {
		keyPrefix = "sl:"
	}
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &Relay{
		client:    client,
		local:     local,
		keyPrefix: keyPrefix,
		origin:    newOriginID(),
		timeout:   publishTimeout,
	}
}

func newOriginID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// rand.Read does not fail on supported platforms
		panic(fmt.Sprintf("relay: failed to generate instance id: %v", err))
	}
	return hex.EncodeToString(b)
}

func (r *Relay) channel(listID uint) string {
	return fmt.Sprintf("%slist:%d:events", r.keyPrefix, listID)
}

func (r *Relay) pattern() string {
	return r.keyPrefix + "list:*:events"
}

// Origin identifies this instance on the relay channels.
func (r *Relay) Origin() string { return r.origin }

// Publish delivers event to the local room of listID and then to the other
// instances. Relay failures are logged only.
func (r *Relay) Publish(listID uint, event dto.Envelope) {
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "event": event.Event})

	data, err := json.Marshal(event)
	if err != nil {
		logCtx.WithError(err).Error("Relay: Failed to encode event")
		return
	}
	r.local.PublishRaw(listID, data)

	r.send(logCtx, relayMessage{Origin: r.origin, Kind: kindEvent, ListID: listID, Data: data})
}

// LeaveUser evicts userID from the local room of listID and asks the other
// instances to do the same. It returns the number of local connections removed.
func (r *Relay) LeaveUser(listID, userID uint) int {
	removed := r.local.LeaveUser(listID, userID)
	logCtx := logrus.WithFields(logrus.Fields{"list_id": listID, "user_id": userID})
	r.send(logCtx, relayMessage{Origin: r.origin, Kind: kindEvict, ListID: listID, UserID: userID})
	return removed
}

// send publishes msg on the channel of its list. A PUBLISH that does not
// complete within the relay timeout is abandoned.
func (r *Relay) send(logCtx *logrus.Entry, msg relayMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logCtx.WithError(err).Error("Relay: Failed to encode relay message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	channel := r.channel(msg.ListID)
	cmd := r.client.Publish(ctx, channel, payload)
	if err := cmd.Err(); err != nil {
		logCtx.WithError(err).WithFields(logrus.Fields{
			"channel":      channel,
			"kind":         msg.Kind,
			"payload_size": len(payload),
		}).Error("Relay: Failed to publish to Redis")
		return
	}
	logCtx.WithFields(logrus.Fields{
		"channel":     channel,
		"kind":        msg.Kind,
		"subscribers": cmd.Val(),
	}).Debug("Relay: Published to Redis")
}

// Run subscribes to the list channels of all instances and delivers foreign
// messages locally. It blocks until ctx is cancelled or Close is called.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(ctx, r.pattern())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("relay: subscribe %s: %w", r.pattern(), err)
	}

	r.mu.Lock()
	r.pubsub = pubsub
	r.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"pattern": r.pattern(), "origin": r.origin})
	log.Info("Relay: Subscribed to list event channels")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = r.Close()
			log.Info("Relay: Stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				log.Info("Relay: Subscription closed")
				return nil
			}
			r.handleMessage(msg.Channel, []byte(msg.Payload))
		}
	}
}

// handleMessage applies a message received from Redis to the local rooms.
// It reports whether the message was applied.
func (r *Relay) handleMessage(channel string, payload []byte) bool {
	var msg relayMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logrus.WithError(err).WithField("channel", channel).Warn("Relay: Dropping malformed message")
		return false
	}
	if msg.Origin == r.origin {
		return false
	}
	if msg.ListID == 0 {
		logrus.WithField("channel", channel).Warn("Relay: Dropping message without list")
		return false
	}
	switch msg.Kind {
	case "", kindEvent:
		if len(msg.Data) == 0 {
			logrus.WithField("channel", channel).Warn("Relay: Dropping event without data")
			return false
		}
		r.local.PublishRaw(msg.ListID, msg.Data)
	case kindEvict:
		if msg.UserID == 0 {
			logrus.WithField("channel", channel).Warn("Relay: Dropping eviction without user")
			return false
		}
		r.local.LeaveUser(msg.ListID, msg.UserID)
	default:
		logrus.WithFields(logrus.Fields{"channel": channel, "kind": msg.Kind}).Warn("Relay: Dropping message of unknown kind")
		return false
	}
	return true
}

// Close stops the subscription started by Run.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubsub == nil {
		return nil
	}
	err := r.pubsub.Close()
	r.pubsub = nil
	return err
}
