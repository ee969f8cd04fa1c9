package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Rotator is the atomic rotate-and-fetch primitive backing the per-inbox
// agent queue. Rotate must be linearizable: two concurrent calls on the
// same key never observe the same head element.
type Rotator interface {
	// Rotate pops the next element and requeues it at the back,
	// returning "" when the queue is empty or missing.
	Rotate(ctx context.Context, key string) (string, error)
	// Replace atomically rebuilds the queue with the given elements.
	Replace(ctx context.Context, key string, members []string) error
}

// MemberLister supplies an inbox's ordered agent pool from persistent
// storage, used to seed and rebuild rotation queues.
type MemberLister interface {
	ListMemberIDs(inboxID uuid.UUID) ([]uuid.UUID, error)
}

// Service hands out agents round-robin per inbox
type Service struct {
	rotator Rotator
	members MemberLister
}

// NewService creates a round-robin assignment service
func NewService(rotator Rotator, members MemberLister) *Service {
	return &Service{rotator: rotator, members: members}
}

func queueKey(inboxID uuid.UUID) string {
	return "round_robin:" + inboxID.String()
}

// NextAgent returns the next agent in the inbox's rotation and advances
// the cursor. An inbox with no eligible agents yields uuid.Nil without
// an error. A missing rotation queue is rebuilt from the member pool.
func (s *Service) NextAgent(ctx context.Context, inboxID uuid.UUID) (uuid.UUID, error) {
	key := queueKey(inboxID)

	raw, err := s.rotator.Rotate(ctx, key)
	if err != nil {
		return uuid.Nil, fmt.Errorf("rotate %s: %w", key, err)
	}

	if raw == "" {
		if err := s.ResetQueue(ctx, inboxID); err != nil {
			return uuid.Nil, err
		}
		raw, err = s.rotator.Rotate(ctx, key)
		if err != nil {
			return uuid.Nil, fmt.Errorf("rotate %s: %w", key, err)
		}
		if raw == "" {
			// Empty pool, valid result
			return uuid.Nil, nil
		}
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		log.Warn().Str("inbox_id", inboxID.String()).Str("member", raw).Msg("Dropping malformed rotation entry")
		return uuid.Nil, nil
	}
	return id, nil
}

// ResetQueue rebuilds the inbox's rotation queue from its member pool.
// Called whenever inbox membership changes.
func (s *Service) ResetQueue(ctx context.Context, inboxID uuid.UUID) error {
	ids, err := s.members.ListMemberIDs(inboxID)
	if err != nil {
		return fmt.Errorf("list members for inbox %s: %w", inboxID, err)
	}

	members := make([]string, 0, len(ids))
	for _, id := range ids {
		members = append(members, id.String())
	}

	if err := s.rotator.Replace(ctx, queueKey(inboxID), members); err != nil {
		return fmt.Errorf("replace queue %s: %w", queueKey(inboxID), err)
	}
	return nil
}
