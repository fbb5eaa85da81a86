package round

import (
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/giftring/giftring-core/crypto/hash/poseidon"
	"github.com/giftring/giftring-core/types"
	"github.com/giftring/giftring-core/verifier"
)

func TestEventIDDerivation(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	ex := newExchange(c)

	c.Assert(ex.eventID, qt.Equals, types.NewEventID(factoryAddr, 0))
	c.Assert(ex.factory.Nonce(), qt.Equals, uint64(1))

	second, secondID, err := ex.factory.CreateRound(ex.reg,
		verifier.Static(true), verifier.Static(true),
		poseidon.New(), types.CommitmentsTreeDefaultLevels)
	c.Assert(err, qt.IsNil)
	c.Assert(secondID, qt.Equals, types.NewEventID(factoryAddr, 1))
	c.Assert(secondID == ex.eventID, qt.IsFalse)
	c.Assert(second.ParticipantsRoot().Cmp(ex.round.ParticipantsRoot()), qt.Equals, 0)

	// the nonce never rewinds
	ex.factory.SetNonce(0)
	c.Assert(ex.factory.Nonce(), qt.Equals, uint64(2))
	ex.factory.SetNonce(10)
	c.Assert(ex.factory.Nonce(), qt.Equals, uint64(10))
}

func TestCreateRoundNilVerifier(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	ex := newExchange(c)

	_, _, err := ex.factory.CreateRound(ex.reg, nil, verifier.Static(true),
		poseidon.New(), types.CommitmentsTreeDefaultLevels)
	c.Assert(err, qt.ErrorIs, ErrNilVerifier)
}

func TestRestore(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	ex := newExchange(c)
	r := ex.round

	c.Assert(r.Commit(alice, commitment(c, 201)), qt.IsNil)
	c.Assert(r.Commit(bob, commitment(c, 202)), qt.IsNil)
	_, err := r.Advance(admin)
	c.Assert(err, qt.IsNil)

	nullA := big.NewInt(9001)
	nullB := big.NewInt(9002)
	_, err = r.DetermineSender([]byte("p1"), SenderInputVector(
		big.NewInt(1), ex.eventID, r.ParticipantsRoot(), r.CommitmentsRoot(), nullA))
	c.Assert(err, qt.IsNil)
	_, err = r.DetermineSender([]byte("p2"), SenderInputVector(
		big.NewInt(2), ex.eventID, r.ParticipantsRoot(), r.CommitmentsRoot(), nullB))
	c.Assert(err, qt.IsNil)

	_, err = r.Advance(admin)
	c.Assert(err, qt.IsNil)
	aliceField := new(big.Int).SetBytes(alice.Bytes())
	c.Assert(r.DiscloseReceiver(alice, []byte("q"), ReceiverInputVector(
		aliceField, ex.eventID, nullB), []byte("sealed")), qt.IsNil)

	st := r.State()
	restored, err := Restore(st, ex.reg, verifier.Static(true), verifier.Static(true),
		poseidon.New(), ex.log)
	c.Assert(err, qt.IsNil)

	c.Assert(restored.EventID(), qt.Equals, r.EventID())
	c.Assert(restored.Phase(), qt.Equals, r.Phase())
	c.Assert(restored.Admin(), qt.Equals, r.Admin())
	c.Assert(restored.ParticipantsRoot().Cmp(r.ParticipantsRoot()), qt.Equals, 0)
	c.Assert(restored.CommitmentsRoot().Cmp(r.CommitmentsRoot()), qt.Equals, 0)
	c.Assert(restored.SendersCount(), qt.Equals, 2)
	c.Assert(restored.Committed(bob), qt.IsTrue)
	c.Assert(restored.Disclosed(alice), qt.IsTrue)
	c.Assert(restored.Payload(nullB), qt.DeepEquals, []byte("sealed"))

	// the rebuilt bookkeeping keeps enforcing uniqueness
	err = restored.DiscloseReceiver(bob, []byte("q"), ReceiverInputVector(
		new(big.Int).SetBytes(bob.Bytes()), ex.eventID, nullB), []byte("x"))
	c.Assert(err, qt.ErrorIs, ErrNullifierChosen)

	// and the round stays playable: bob claims the remaining slot
	c.Assert(restored.DiscloseReceiver(bob, []byte("q"), ReceiverInputVector(
		new(big.Int).SetBytes(bob.Bytes()), ex.eventID, nullA), []byte("late gift")), qt.IsNil)
}

func TestRestoreRejectsCorruptedSnapshot(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	ex := newExchange(c)

	c.Assert(ex.round.Commit(alice, commitment(c, 301)), qt.IsNil)
	st := ex.round.State()
	st.Commitments[0].Hash = new(types.BigInt).SetBigInt(big.NewInt(424242))

	_, err := Restore(st, ex.reg, verifier.Static(true), verifier.Static(true),
		poseidon.New(), nil)
	c.Assert(err, qt.ErrorIs, ErrSnapshotCorrupted)
}
