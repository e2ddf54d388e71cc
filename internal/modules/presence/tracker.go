package presence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "presence:"
	DefaultTTL = 30 * time.Second
)

var transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "rs_presence_transitions_total",
	Help: "Total number of presence edges observed",
}, []string{"edge"})

func init() {
	prometheus.MustRegister(transitionsTotal)
}

type Broadcaster interface {
	Broadcast(event realtime.Event, payload interface{}) int
}

type Record struct {
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	LastSeen  time.Time  `json:"last_seen"`
}

// Tracker keeps a TTL-bound presence key per user and announces the
// offline to online and online to offline edges. Expiry of a key by TTL
// is not observed, so it produces no offline event.
type Tracker struct {
	client redis.UniversalClient
	events Broadcaster
	ttl    time.Duration
	clock  clockwork.Clock
	logger *zap.Logger
}

func NewTracker(
	client redis.UniversalClient,
	events Broadcaster,
	ttl time.Duration,
	clk clockwork.Clock,
	logger *zap.Logger,
) *Tracker {
	if client == nil {
		panic("presence: nil redis client")
	}

	if events == nil {
		panic(realtime.ErrCoordinatorNotInitialized)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracker{
		client: client,
		events: events,
		ttl:    ttl,
		clock:  clk,
		logger: logger,
	}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

// Heartbeat refreshes the user's presence and announces user_online when
// no presence key existed before the write.
func (t *Tracker) Heartbeat(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error {
	now := t.clock.Now().UTC()

	record := Record{LastSeen: now}
	if sessionID != uuid.Nil {
		record.SessionID = &sessionID
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	var exists *redis.IntCmd
	_, err = t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, key(userID))
		pipe.Set(ctx, key(userID), payload, t.ttl)
		return nil
	})
	if err != nil {
		return err
	}

	if exists.Val() == 0 {
		transitionsTotal.WithLabelValues("online").Inc()
		t.events.Broadcast(realtime.EventUserOnline, realtime.PresencePayload{
			UserID:    userID,
			SessionID: record.SessionID,
			Timestamp: now,
		})
	}

	return nil
}

// Clear removes the user's presence. The offline event is only sent when
// a presence key was actually deleted.
func (t *Tracker) Clear(ctx context.Context, userID uuid.UUID) error {
	deleted, err := t.client.Del(ctx, key(userID)).Result()
	if err != nil {
		return err
	}

	if deleted > 0 {
		transitionsTotal.WithLabelValues("offline").Inc()
		t.events.Broadcast(realtime.EventUserOffline, realtime.PresencePayload{
			UserID:    userID,
			Timestamp: t.clock.Now().UTC(),
		})
	}

	return nil
}

func (t *Tracker) Get(ctx context.Context, userID uuid.UUID) (Record, bool, error) {
	raw, err := t.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}, false, err
	}

	return record, true, nil
}
