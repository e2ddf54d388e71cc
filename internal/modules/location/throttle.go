package location

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	DefaultWindow = time.Second
	shardCount    = 32
)

var flushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "rs_location_flushes_total",
	Help: "Total number of location throttle flushes by outcome",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(flushesTotal)
}

type Writer interface {
	Update(ctx context.Context, userID uuid.UUID, sample realtime.LocationSample, at time.Time) error
}

type SessionRoom interface {
	InSession(userID uuid.UUID, sessionID uuid.UUID) bool
	EmitToSession(sessionID uuid.UUID, event realtime.Event, payload interface{}) int
}

type pendingSample struct {
	sessionID uuid.UUID
	sample    realtime.LocationSample
	at        time.Time
}

type shard struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*pendingSample
}

// Throttle coalesces location samples per user. The first sample of a
// window schedules one flush; later samples in the same window replace
// the pending one. The flush only emits if the user is still in the
// session the sample was recorded under.
type Throttle struct {
	store  Writer
	room   SessionRoom
	clock  clockwork.Clock
	window time.Duration
	logger *zap.Logger

	shards [shardCount]shard
}

func NewThrottle(store Writer, room SessionRoom, window time.Duration, clk clockwork.Clock, logger *zap.Logger) *Throttle {
	if room == nil {
		panic(realtime.ErrCoordinatorNotInitialized)
	}

	if window <= 0 {
		window = DefaultWindow
	}

	if clk == nil {
		clk = clockwork.NewRealClock()
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Throttle{
		store:  store,
		room:   room,
		clock:  clk,
		window: window,
		logger: logger,
	}

	for i := range t.shards {
		t.shards[i].pending = make(map[uuid.UUID]*pendingSample)
	}

	return t
}

func (t *Throttle) shardFor(userID uuid.UUID) *shard {
	h := fnv.New32a()
	_, _ = h.Write(userID[:])
	return &t.shards[h.Sum32()%shardCount]
}

func (t *Throttle) OnLocationUpdate(
	ctx context.Context,
	userID uuid.UUID,
	sessionID uuid.UUID,
	sample realtime.LocationSample,
) {
	if sessionID == uuid.Nil {
		return
	}

	now := t.clock.Now().UTC()

	if t.store != nil {
		if err := t.store.Update(ctx, userID, sample, now); err != nil {
			t.logger.Warn("failed to store live location", zap.Stringer("user_id", userID), zap.Error(err))
		}
	}

	s := t.shardFor(userID)

	s.mu.Lock()
	_, scheduled := s.pending[userID]
	s.pending[userID] = &pendingSample{sessionID: sessionID, sample: sample, at: now}
	s.mu.Unlock()

	if scheduled {
		return
	}

	t.clock.AfterFunc(t.window, func() { t.flush(userID) })
}

func (t *Throttle) flush(userID uuid.UUID) {
	s := t.shardFor(userID)

	s.mu.Lock()
	pending, ok := s.pending[userID]
	delete(s.pending, userID)
	s.mu.Unlock()

	if !ok {
		return
	}

	if !t.room.InSession(userID, pending.sessionID) {
		flushesTotal.WithLabelValues("discarded").Inc()
		return
	}

	t.room.EmitToSession(pending.sessionID, realtime.EventLocationUpdate, realtime.LocationUpdatePayload{
		UserID:    userID,
		Lat:       pending.sample.Lat,
		Lng:       pending.sample.Lng,
		Accuracy:  pending.sample.Accuracy,
		Timestamp: pending.at,
	})
	flushesTotal.WithLabelValues("emitted").Inc()
}
