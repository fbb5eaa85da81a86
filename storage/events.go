package storage

import (
	"encoding/binary"
	"fmt"

	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/log"
)

// StoredEvent is an audit event together with its global sequence number.
type StoredEvent struct {
	Seq   uint64       `json:"seq" cbor:"0,keyasint"`
	Event events.Event `json:"event" cbor:"1,keyasint"`
}

// seqKey encodes a sequence number big endian so the database iterates
// events in append order.
func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

// AppendEvent persists an audit event and returns its sequence number.
// Sequence numbers start at 1 and never repeat within one database.
func (s *Storage) AppendEvent(e events.Event) (uint64, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	seq := s.eventSeq + 1
	if err := s.setArtifact(eventPrefix, seqKey(seq), StoredEvent{Seq: seq, Event: e}); err != nil {
		return 0, err
	}
	s.eventSeq = seq
	return seq, nil
}

// Events returns up to max stored events with sequence numbers strictly
// greater than after, in order. A max of zero or less means no limit.
func (s *Storage) Events(after uint64, max int) ([]StoredEvent, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, eventPrefix)
	var out []StoredEvent
	var iterErr error
	if err := rd.Iterate(nil, func(k, v []byte) bool {
		if len(k) != 8 || binary.BigEndian.Uint64(k) <= after {
			return true
		}
		var se StoredEvent
		if err := decodeArtifact(v, &se); err != nil {
			iterErr = fmt.Errorf("decode event %x: %w", k, err)
			return false
		}
		out = append(out, se)
		return max <= 0 || len(out) < max
	}); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return out, nil
}

// LastEventSeq returns the sequence number of the most recent event, zero
// when the log is empty.
func (s *Storage) LastEventSeq() uint64 {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()
	return s.eventSeq
}

// lastEventSeq scans the log for the highest stored sequence number. Called
// once at open, before the counter is in memory.
func (s *Storage) lastEventSeq() (uint64, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, eventPrefix)
	var last uint64
	if err := rd.Iterate(nil, func(k, _ []byte) bool {
		if len(k) == 8 {
			if seq := binary.BigEndian.Uint64(k); seq > last {
				last = seq
			}
		}
		return true
	}); err != nil {
		return 0, err
	}
	return last, nil
}

// EventSink returns a sink that persists every event into the audit log.
// Persistence failures are logged and the event dropped, matching the
// audit-only role of the log.
func (s *Storage) EventSink() events.Sink {
	return events.SinkFunc(func(e events.Event) {
		if _, err := s.AppendEvent(e); err != nil {
			log.Warnw("failed to persist audit event",
				"kind", string(e.Kind), "error", err.Error())
		}
	})
}
