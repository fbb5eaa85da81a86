package storage

import (
	"fmt"

	"github.com/giftring/giftring-core/types"
)

// SetRound stores a round state snapshot keyed by its event id, overwriting
// any previous snapshot for the same round.
func (s *Storage) SetRound(st *types.RoundState) error {
	if st == nil {
		return fmt.Errorf("nil round state")
	}
	return s.setArtifact(roundPrefix, st.EventID.Bytes(), st)
}

// Round retrieves a round state snapshot. It returns ErrNotFound when the
// event id is unknown.
func (s *Storage) Round(eventID types.EventID) (*types.RoundState, error) {
	st := &types.RoundState{}
	if err := s.getArtifact(roundPrefix, eventID.Bytes(), st); err != nil {
		return nil, err
	}
	return st, nil
}

// HasRound reports whether a snapshot exists for the event id.
func (s *Storage) HasRound(eventID types.EventID) bool {
	return s.hasArtifact(roundPrefix, eventID.Bytes())
}

// ListRounds returns the event ids of every stored round, in byte order.
func (s *Storage) ListRounds() ([]types.EventID, error) {
	keys, err := s.listKeys(roundPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]types.EventID, 0, len(keys))
	for _, k := range keys {
		id, err := types.EventIDFromBytes(k)
		if err != nil {
			return nil, fmt.Errorf("malformed round key %x: %w", k, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
