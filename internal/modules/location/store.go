package location

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/realtime"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "location:"
	DefaultTTL = 10 * time.Second
)

type Record struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store holds the last known position per user. Only the latest sample is
// kept and it expires after the TTL.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{client: client, ttl: ttl}
}

func key(userID uuid.UUID) string {
	return keyPrefix + userID.String()
}

func (s *Store) Update(ctx context.Context, userID uuid.UUID, sample realtime.LocationSample, at time.Time) error {
	payload, err := json.Marshal(Record{
		Lat:       sample.Lat,
		Lng:       sample.Lng,
		Accuracy:  sample.Accuracy,
		UpdatedAt: at.UTC(),
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key(userID), payload, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, userID uuid.UUID) (Record, bool, error) {
	raw, err := s.client.Get(ctx, key(userID)).Bytes()
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

func (s *Store) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, key(userID)).Err()
}
