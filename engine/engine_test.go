package engine

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/giftring/giftring-core/crypto/hash"
	"github.com/giftring/giftring-core/registry"
	"github.com/giftring/giftring-core/round"
	"github.com/giftring/giftring-core/storage"
	"github.com/giftring/giftring-core/types"
	"github.com/giftring/giftring-core/verifier"
)

var (
	admin       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice       = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000002")
	factoryAddr = common.HexToAddress("0x0000000000000000000000000000000000fac704")
)

func testConfig() Config {
	return Config{
		FactoryAddress:   factoryAddr,
		VerifierSender:   verifier.Static(true),
		VerifierReceiver: verifier.Static(true),
	}
}

func TestEngineFullFlowAndRestart(t *testing.T) {
	c := qt.New(t)

	database := metadb.NewTest(t)
	stg, err := storage.New(database)
	c.Assert(err, qt.IsNil)
	eng, err := New(stg, testConfig())
	c.Assert(err, qt.IsNil)

	// registry lifecycle
	regID, err := eng.CreateRegistry(admin, "")
	c.Assert(err, qt.IsNil)
	c.Assert(eng.RegisterParticipants(regID, admin, []common.Address{alice, bob}), qt.IsNil)
	c.Assert(eng.FreezeRegistry(regID, admin), qt.IsNil)

	info, err := eng.Registry(regID)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Size, qt.Equals, 2)
	c.Assert(info.Frozen, qt.IsTrue)
	c.Assert(info.HashType, qt.Equals, hash.TypePoseidon)

	// round lifecycle up to one disclosure
	eventID, err := eng.CreateRound(regID, "", 0)
	c.Assert(err, qt.IsNil)
	c.Assert(eventID, qt.Equals, types.NewEventID(factoryAddr, 0))

	c.Assert(eng.Commit(eventID, alice, big.NewInt(1001)), qt.IsNil)
	c.Assert(eng.Commit(eventID, bob, big.NewInt(1002)), qt.IsNil)

	phase, err := eng.Advance(eventID, admin)
	c.Assert(err, qt.IsNil)
	c.Assert(phase, qt.Equals, types.PhaseSendersDetermined)

	st, err := eng.Round(eventID)
	c.Assert(err, qt.IsNil)
	nullA := big.NewInt(7001)
	nullB := big.NewInt(7002)
	idx, err := eng.DetermineSender(eventID, []byte("p1"), round.SenderInputVector(
		big.NewInt(11), eventID, st.ParticipantsRoot.MathBigInt(), st.CommitmentsRoot.MathBigInt(), nullA))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 1)
	idx, err = eng.DetermineSender(eventID, []byte("p2"), round.SenderInputVector(
		big.NewInt(12), eventID, st.ParticipantsRoot.MathBigInt(), st.CommitmentsRoot.MathBigInt(), nullB))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 2)

	phase, err = eng.Advance(eventID, admin)
	c.Assert(err, qt.IsNil)
	c.Assert(phase, qt.Equals, types.PhaseReceiversDisclosed)

	c.Assert(eng.DiscloseReceiver(eventID, alice, []byte("q1"), round.ReceiverInputVector(
		new(big.Int).SetBytes(alice.Bytes()), eventID, nullB), []byte("sealed gift")), qt.IsNil)

	before, err := eng.Round(eventID)
	c.Assert(err, qt.IsNil)

	// restart: fresh storage and engine over the same database
	stg2, err := storage.New(database)
	c.Assert(err, qt.IsNil)
	eng2, err := New(stg2, testConfig())
	c.Assert(err, qt.IsNil)

	after, err := eng2.Round(eventID)
	c.Assert(err, qt.IsNil)
	c.Assert(after.Phase, qt.Equals, before.Phase)
	c.Assert(after.ParticipantsRoot.Equal(before.ParticipantsRoot), qt.IsTrue)
	c.Assert(after.CommitmentsRoot.Equal(before.CommitmentsRoot), qt.IsTrue)
	c.Assert(after.RegistryID, qt.Equals, regID)
	c.Assert(after.Senders, qt.HasLen, 2)

	payload, err := eng2.Payload(eventID, nullB)
	c.Assert(err, qt.IsNil)
	c.Assert(payload, qt.DeepEquals, []byte("sealed gift"))

	// the rebuilt bookkeeping still enforces uniqueness
	err = eng2.DiscloseReceiver(eventID, bob, []byte("q2"), round.ReceiverInputVector(
		new(big.Int).SetBytes(bob.Bytes()), eventID, nullB), []byte("x"))
	c.Assert(err, qt.ErrorIs, round.ErrNullifierChosen)

	// and the round stays playable after the restart
	c.Assert(eng2.DiscloseReceiver(eventID, bob, []byte("q2"), round.ReceiverInputVector(
		new(big.Int).SetBytes(bob.Bytes()), eventID, nullA), []byte("second gift")), qt.IsNil)

	// factory nonce continuity: the next round gets a fresh event id
	nextID, err := eng2.CreateRound(regID, hash.TypeMiMC, 16)
	c.Assert(err, qt.IsNil)
	c.Assert(nextID, qt.Equals, types.NewEventID(factoryAddr, 1))
	c.Assert(eng2.ListRounds(), qt.HasLen, 2)

	// the audit log kept appending across the restart
	evs, err := eng2.Events(0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(len(evs) > 6, qt.IsTrue)
	for i := 1; i < len(evs); i++ {
		c.Assert(evs[i].Seq, qt.Equals, evs[i-1].Seq+1)
	}
}

func TestEngineErrors(t *testing.T) {
	c := qt.New(t)

	stg, err := storage.New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	eng, err := New(stg, testConfig())
	c.Assert(err, qt.IsNil)

	unknown := types.NewEventID(factoryAddr, 42)
	_, err = eng.Round(unknown)
	c.Assert(err, qt.ErrorIs, ErrRoundNotFound)
	c.Assert(eng.Commit(unknown, alice, big.NewInt(1)), qt.ErrorIs, ErrRoundNotFound)
	_, err = eng.Advance(unknown, admin)
	c.Assert(err, qt.ErrorIs, ErrRoundNotFound)
	_, err = eng.Payload(unknown, big.NewInt(1))
	c.Assert(err, qt.ErrorIs, ErrRoundNotFound)

	_, err = eng.CreateRegistry(admin, "blake99")
	c.Assert(err, qt.ErrorIs, hash.ErrUnknownType)

	// rounds need a frozen registry
	regID, err := eng.CreateRegistry(admin, "")
	c.Assert(err, qt.IsNil)
	c.Assert(eng.RegisterParticipants(regID, admin, []common.Address{alice}), qt.IsNil)
	_, err = eng.CreateRound(regID, "", 0)
	c.Assert(err, qt.ErrorIs, round.ErrRegistryNotFrozen)

	// domain errors surface unchanged through the engine
	c.Assert(eng.RegisterParticipants(regID, bob, []common.Address{bob}), qt.ErrorIs, registry.ErrNotAdmin)
	c.Assert(eng.RegisterParticipants(regID, admin, []common.Address{alice}), qt.ErrorIs, registry.ErrAlreadyRegistered)
	_, err = eng.MembershipProof(regID, bob)
	c.Assert(err, qt.ErrorIs, registry.ErrNotRegistered)

	proof, err := eng.MembershipProof(regID, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(proof.Value.Cmp(new(big.Int).SetBytes(alice.Bytes())), qt.Equals, 0)
}

func TestEngineNilVerifier(t *testing.T) {
	c := qt.New(t)

	stg, err := storage.New(metadb.NewTest(t))
	c.Assert(err, qt.IsNil)
	_, err = New(stg, Config{FactoryAddress: factoryAddr})
	c.Assert(err, qt.ErrorIs, round.ErrNilVerifier)
}
