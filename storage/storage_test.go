package storage

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/types"
)

var testFactory = common.HexToAddress("0x00000000000000000000000000000000000000f1")

func testRoundState(nonce uint64) *types.RoundState {
	return &types.RoundState{
		EventID:          types.NewEventID(testFactory, nonce),
		RegistryID:       uuid.MustParse("c1e2d3f4-0000-0000-0000-00000000beef"),
		Admin:            common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Phase:            types.PhaseSendersDetermined,
		Depth:            types.CommitmentsTreeDefaultLevels,
		HashType:         "poseidon",
		ParticipantsRoot: new(types.BigInt).SetUint64(12345),
		CommitmentsRoot:  new(types.BigInt).SetUint64(67890),
		Commitments: []types.RoundCommitment{{
			Identity: common.HexToAddress("0x0000000000000000000000000000000000000001"),
			Hash:     new(types.BigInt).SetUint64(111),
		}},
		Senders: []types.SenderSlot{{
			R:         new(types.BigInt).SetUint64(5001),
			Nullifier: new(types.BigInt).SetUint64(7001),
		}},
		Disclosures: []types.RoundDisclosure{{
			Identity:  common.HexToAddress("0x0000000000000000000000000000000000000002"),
			Nullifier: new(types.BigInt).SetUint64(7001),
			Payload:   types.HexBytes{0xde, 0xad, 0xbe, 0xef},
		}},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRoundSnapshots(t *testing.T) {
	c := qt.New(t)

	stg, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)

	st := testRoundState(0)
	c.Assert(stg.SetRound(st), qt.IsNil)

	got, err := stg.Round(st.EventID)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, st)

	// snapshots overwrite in place
	st.Phase = types.PhaseCompleted
	c.Assert(stg.SetRound(st), qt.IsNil)
	got, err = stg.Round(st.EventID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Phase, qt.Equals, types.PhaseCompleted)

	_, err = stg.Round(types.NewEventID(testFactory, 99))
	c.Assert(err, qt.ErrorIs, ErrNotFound)
	c.Assert(stg.HasRound(st.EventID), qt.IsTrue)
	c.Assert(stg.HasRound(types.NewEventID(testFactory, 99)), qt.IsFalse)

	c.Assert(stg.SetRound(testRoundState(1)), qt.IsNil)
	ids, err := stg.ListRounds()
	c.Assert(err, qt.IsNil)
	c.Assert(ids, qt.HasLen, 2)
}

func TestEventLog(t *testing.T) {
	c := qt.New(t)

	database := metadb.NewTest(t)
	stg, err := New(database)
	c.Assert(err, qt.IsNil)

	sink := stg.EventSink()
	sink.Emit(events.New(events.KindRegistration, map[string]string{"address": "0x01"}))
	sink.Emit(events.New(events.KindFreeze, map[string]string{"size": "1"}))
	sink.Emit(events.New(events.KindRoundCreated, nil))

	all, err := stg.Events(0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(all, qt.HasLen, 3)
	c.Assert(all[0].Seq, qt.Equals, uint64(1))
	c.Assert(all[0].Event.Kind, qt.Equals, events.KindRegistration)
	c.Assert(all[2].Event.Kind, qt.Equals, events.KindRoundCreated)

	// cursor and limit
	tail, err := stg.Events(1, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(tail, qt.HasLen, 1)
	c.Assert(tail[0].Seq, qt.Equals, uint64(2))

	// reopening recovers the sequence counter
	stg2, err := New(database)
	c.Assert(err, qt.IsNil)
	c.Assert(stg2.LastEventSeq(), qt.Equals, uint64(3))
	seq, err := stg2.AppendEvent(events.New(events.KindUnfreeze, nil))
	c.Assert(err, qt.IsNil)
	c.Assert(seq, qt.Equals, uint64(4))
}

func TestFactoryNonce(t *testing.T) {
	c := qt.New(t)

	stg, err := New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)

	nonce, err := stg.FactoryNonce()
	c.Assert(err, qt.IsNil)
	c.Assert(nonce, qt.Equals, uint64(0))

	c.Assert(stg.SetFactoryNonce(7), qt.IsNil)
	nonce, err = stg.FactoryNonce()
	c.Assert(err, qt.IsNil)
	c.Assert(nonce, qt.Equals, uint64(7))
}
