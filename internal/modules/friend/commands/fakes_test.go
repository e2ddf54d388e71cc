package commands

import (
	"context"
	"sync"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/friend/domain"

	"github.com/google/uuid"
)

var epoch = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

// memoryFriendStore mirrors the pending pair index and the guarded
// transitions of the Postgres store.
type memoryFriendStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]domain.FriendRequest
	friends  map[[2]uuid.UUID]int
}

func newMemoryFriendStore() *memoryFriendStore {
	return &memoryFriendStore{
		requests: make(map[uuid.UUID]domain.FriendRequest),
		friends:  make(map[[2]uuid.UUID]int),
	}
}

func (s *memoryFriendStore) CreateRequest(_ context.Context, fromUserID, toUserID uuid.UUID) (domain.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requests {
		samePair := (existing.FromUserID == fromUserID && existing.ToUserID == toUserID) ||
			(existing.FromUserID == toUserID && existing.ToUserID == fromUserID)
		if samePair && existing.Pending() {
			return domain.FriendRequest{}, domain.ErrDuplicatePendingRequest
		}
	}

	request := domain.FriendRequest{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		CreatedAt:  epoch,
	}
	s.requests[request.ID] = request

	return request, nil
}

func (s *memoryFriendStore) FindRequest(_ context.Context, requestID uuid.UUID) (domain.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok {
		return domain.FriendRequest{}, domain.ErrFriendRequestNotFound
	}

	return request, nil
}

func (s *memoryFriendStore) AcceptRequest(_ context.Context, requestID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok || request.ToUserID != userID || !request.Pending() {
		return domain.ErrFriendRequestNotPending
	}

	if s.friends[[2]uuid.UUID{request.FromUserID, request.ToUserID}] > 0 {
		return domain.ErrAlreadyFriends
	}

	acceptedAt := epoch.Add(time.Minute)
	request.AcceptedAt = &acceptedAt
	s.requests[requestID] = request

	s.friends[[2]uuid.UUID{request.FromUserID, request.ToUserID}]++
	s.friends[[2]uuid.UUID{request.ToUserID, request.FromUserID}]++

	return nil
}

func (s *memoryFriendStore) DeclineRequest(_ context.Context, requestID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[requestID]
	if !ok || request.ToUserID != userID || !request.Pending() {
		return domain.ErrFriendRequestNotPending
	}

	declinedAt := epoch.Add(time.Minute)
	request.DeclinedAt = &declinedAt
	s.requests[requestID] = request

	return nil
}

func (s *memoryFriendStore) AreFriends(_ context.Context, userID, otherUserID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[[2]uuid.UUID{userID, otherUserID}] > 0, nil
}

func (s *memoryFriendStore) friendshipRows(a, b uuid.UUID) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[[2]uuid.UUID{a, b}], s.friends[[2]uuid.UUID{b, a}]
}

func (s *memoryFriendStore) request(requestID uuid.UUID) domain.FriendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[requestID]
}
