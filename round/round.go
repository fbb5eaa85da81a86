// Package round implements one gift exchange round: the phase state
// machine, the per round commitments tree and the nullifier bookkeeping
// that keeps sender and receiver claims unique without ever linking them to
// identities.
package round

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/registry"
	"github.com/giftring/giftring-core/smt"
	"github.com/giftring/giftring-core/types"
	"github.com/giftring/giftring-core/util"
	"github.com/giftring/giftring-core/verifier"
)

var (
	ErrWrongPhase               = fmt.Errorf("operation not allowed in the current phase")
	ErrNotAdmin                 = fmt.Errorf("caller is not the round administrator")
	ErrNotMember                = fmt.Errorf("identity is not in the participants snapshot")
	ErrCommitmentUsed           = fmt.Errorf("identity has already committed")
	ErrInvalidPublicInputs      = fmt.Errorf("invalid public inputs")
	ErrEventIDMismatch          = fmt.Errorf("proof event id does not match the round")
	ErrParticipantsRootMismatch = fmt.Errorf("proof participants root does not match the snapshot")
	ErrCommitmentsRootMismatch  = fmt.Errorf("proof commitments root is stale")
	ErrNullifierSpent           = fmt.Errorf("nullifier has already claimed a sender slot")
	ErrNullifierChosen          = fmt.Errorf("nullifier has already been claimed by a receiver")
	ErrUnknownNullifier         = fmt.Errorf("nullifier was never determined")
	ErrAlreadyDisclosed         = fmt.Errorf("identity has already disclosed")
	ErrAddressMismatch          = fmt.Errorf("address in public inputs does not match the caller")
	ErrProofInvalid             = fmt.Errorf("proof verification failed")
)

// Round is one gift exchange instance bound to a frozen registry snapshot.
// All bookkeeping mutations happen after every precondition and the proof
// itself have been checked, so a failed call leaves no state behind. Not
// safe for concurrent use.
type Round struct {
	eventID          types.EventID
	admin            common.Address
	registry         *registry.Registry
	participantsRoot *big.Int
	commitments      *smt.Tree
	phase            types.Phase

	verifierSender   verifier.Verifier
	verifierReceiver verifier.Verifier

	commitmentOf    map[common.Address]*big.Int
	commitmentOrder []types.RoundCommitment

	spentSenderNulls  map[string]struct{}
	chosenSenderNulls map[string]struct{}
	senderIndexPlus1  map[string]int
	giftSenders       []types.SenderSlot

	receiverDisclosed map[common.Address]struct{}
	payloadByNulls    map[string][]byte
	disclosureOrder   []types.RoundDisclosure

	createdAt time.Time
	sink      events.Sink
}

// nullKey is the canonical map key of a nullifier.
func nullKey(n *big.Int) string { return n.Text(16) }

func newRound(eventID types.EventID, reg *registry.Registry, commitments *smt.Tree,
	verifierSender, verifierReceiver verifier.Verifier, sink events.Sink,
) *Round {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Round{
		eventID:           eventID,
		admin:             reg.Admin(),
		registry:          reg,
		participantsRoot:  reg.Root(),
		commitments:       commitments,
		phase:             types.PhaseCommit,
		verifierSender:    verifierSender,
		verifierReceiver:  verifierReceiver,
		commitmentOf:      map[common.Address]*big.Int{},
		spentSenderNulls:  map[string]struct{}{},
		chosenSenderNulls: map[string]struct{}{},
		senderIndexPlus1:  map[string]int{},
		receiverDisclosed: map[common.Address]struct{}{},
		payloadByNulls:    map[string][]byte{},
		createdAt:         time.Now(),
		sink:              sink,
	}
}

// EventID returns the round's globally unique identifier.
func (r *Round) EventID() types.EventID { return r.eventID }

// Admin returns the round administrator, inherited from the registry.
func (r *Round) Admin() common.Address { return r.admin }

// Phase returns the current lifecycle phase.
func (r *Round) Phase() types.Phase { return r.phase }

// CreatedAt returns the round creation time.
func (r *Round) CreatedAt() time.Time { return r.createdAt }

// ParticipantsRoot returns the immutable registry snapshot root.
func (r *Round) ParticipantsRoot() *big.Int {
	return new(big.Int).Set(r.participantsRoot)
}

// CommitmentsRoot returns the current commitments tree root.
func (r *Round) CommitmentsRoot() *big.Int { return r.commitments.Root() }

// SendersCount returns the number of determined sender slots.
func (r *Round) SendersCount() int { return len(r.giftSenders) }

// Senders returns the ordered sender slots.
func (r *Round) Senders() []types.SenderSlot {
	out := make([]types.SenderSlot, len(r.giftSenders))
	for i, s := range r.giftSenders {
		out[i] = types.SenderSlot{
			R:         new(types.BigInt).SetBigInt(s.R.MathBigInt()),
			Nullifier: new(types.BigInt).SetBigInt(s.Nullifier.MathBigInt()),
		}
	}
	return out
}

// Advance moves the round to the next phase. Administrator only, strictly
// sequential; once COMPLETED it is a no-op.
func (r *Round) Advance(caller common.Address) (types.Phase, error) {
	if caller != r.admin {
		return r.phase, ErrNotAdmin
	}
	if r.phase.Terminal() {
		return r.phase, nil
	}
	r.phase = r.phase.Next()
	r.sink.Emit(events.New(events.KindPhaseAdvanced, map[string]string{
		"eventId": r.eventID.String(),
		"phase":   r.phase.String(),
	}))
	return r.phase, nil
}

// checkMembership proves identity against the round's participants snapshot
// and asserts the leaf's stored value matches the identity, rather than
// trusting a membership flag.
func (r *Round) checkMembership(identity common.Address) error {
	proof, err := r.registry.ProofFor(identity)
	if err != nil {
		if errors.Is(err, registry.ErrNotRegistered) {
			return fmt.Errorf("%w: %s", ErrNotMember, identity.Hex())
		}
		return err
	}
	if proof.Value.Cmp(util.AddressToField(identity)) != 0 {
		return fmt.Errorf("%w: leaf value mismatch", ErrNotMember)
	}
	ok, err := smt.CheckProof(r.registry.Hasher(),
		proof.Key, proof.Value, r.participantsRoot, proof.Siblings, proof.Depth)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMember, identity.Hex())
	}
	return nil
}

// Commit records identity's signature commitment and inserts it into the
// commitments tree, keyed by itself; the existence of the key is the fact
// being attested. Phase COMMIT only, one commitment per identity.
func (r *Round) Commit(identity common.Address, commitmentHash *big.Int) error {
	if r.phase != types.PhaseCommit {
		return fmt.Errorf("%w: %s", ErrWrongPhase, r.phase)
	}
	if err := r.checkMembership(identity); err != nil {
		return err
	}
	if _, ok := r.commitmentOf[identity]; ok {
		return fmt.Errorf("%w: %s", ErrCommitmentUsed, identity.Hex())
	}
	if err := r.commitments.Insert(commitmentHash, commitmentHash); err != nil {
		return fmt.Errorf("commitments tree: %w", err)
	}
	r.commitmentOf[identity] = new(big.Int).Set(commitmentHash)
	r.commitmentOrder = append(r.commitmentOrder, types.RoundCommitment{
		Identity: identity,
		Hash:     new(types.BigInt).SetBigInt(commitmentHash),
	})
	r.sink.Emit(events.New(events.KindCommit, map[string]string{
		"eventId":         r.eventID.String(),
		"identity":        identity.Hex(),
		"commitmentsRoot": r.commitments.Root().String(),
	}))
	return nil
}

// Committed reports whether identity has already committed.
func (r *Round) Committed(identity common.Address) bool {
	_, ok := r.commitmentOf[identity]
	return ok
}

// DetermineSender validates a sender determination proof and, on
// acceptance, appends an (R, nullifier) sender slot, returning its 1-based
// index. Phase SENDERS_DETERMINED only. The cheap input checks run before
// the expensive proof verification; nothing is recorded unless the proof
// verifies.
func (r *Round) DetermineSender(proof []byte, publicInputs []*big.Int) (int, error) {
	if r.phase != types.PhaseSendersDetermined {
		return 0, fmt.Errorf("%w: %s", ErrWrongPhase, r.phase)
	}
	in, err := parseSenderInputs(publicInputs)
	if err != nil {
		return 0, err
	}
	if in.eventID != r.eventID {
		return 0, ErrEventIDMismatch
	}
	if in.participantsRoot.Cmp(r.participantsRoot) != 0 {
		return 0, ErrParticipantsRootMismatch
	}
	// the proof must be bound to the commitments root as it stands right
	// now; the tree is append-only, so a stale root cannot come back
	if in.commitmentsRoot.Cmp(r.commitments.Root()) != 0 {
		return 0, ErrCommitmentsRootMismatch
	}
	key := nullKey(in.nullifier)
	if _, ok := r.spentSenderNulls[key]; ok {
		return 0, fmt.Errorf("%w: %s", ErrNullifierSpent, in.nullifier)
	}
	ok, err := r.verifierSender.Verify(proof, publicInputs)
	if err != nil {
		return 0, fmt.Errorf("sender proof: %w", err)
	}
	if !ok {
		return 0, ErrProofInvalid
	}
	r.spentSenderNulls[key] = struct{}{}
	r.giftSenders = append(r.giftSenders, types.SenderSlot{
		R:         new(types.BigInt).SetBigInt(in.r),
		Nullifier: new(types.BigInt).SetBigInt(in.nullifier),
	})
	index := len(r.giftSenders)
	r.senderIndexPlus1[key] = index
	r.sink.Emit(events.New(events.KindSenderDetermined, map[string]string{
		"eventId": r.eventID.String(),
		"index":   strconv.Itoa(index),
	}))
	return index, nil
}

// DiscloseReceiver validates a receiver disclosure proof bound to the
// caller and, on acceptance, marks the claimed nullifier as chosen and
// stores the encrypted payload under it. Phase RECEIVERS_DISCLOSED only,
// one disclosure per identity, one receiver per nullifier.
func (r *Round) DiscloseReceiver(caller common.Address, proof []byte, publicInputs []*big.Int, encryptedPayload []byte) error {
	if r.phase != types.PhaseReceiversDisclosed {
		return fmt.Errorf("%w: %s", ErrWrongPhase, r.phase)
	}
	if len(publicInputs) != types.ReceiverPublicInputs {
		return fmt.Errorf("%w: expected %d inputs, got %d",
			ErrInvalidPublicInputs, types.ReceiverPublicInputs, len(publicInputs))
	}
	for i, in := range publicInputs {
		if in == nil || in.Sign() < 0 {
			return fmt.Errorf("%w: input %d", ErrInvalidPublicInputs, i)
		}
	}
	if err := r.checkMembership(caller); err != nil {
		return err
	}
	if _, ok := r.receiverDisclosed[caller]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyDisclosed, caller.Hex())
	}
	receiver, err := util.AddressFromField(publicInputs[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicInputs, err)
	}
	if receiver != caller {
		return fmt.Errorf("%w: %s", ErrAddressMismatch, receiver.Hex())
	}
	eventID, err := types.EventIDFromLimbs(publicInputs[1], publicInputs[2])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicInputs, err)
	}
	if eventID != r.eventID {
		return ErrEventIDMismatch
	}
	nullifier := publicInputs[3]
	key := nullKey(nullifier)
	if _, ok := r.chosenSenderNulls[key]; ok {
		return fmt.Errorf("%w: %s", ErrNullifierChosen, nullifier)
	}
	if r.senderIndexPlus1[key] == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownNullifier, nullifier)
	}
	ok, err := r.verifierReceiver.Verify(proof, publicInputs)
	if err != nil {
		return fmt.Errorf("receiver proof: %w", err)
	}
	if !ok {
		return ErrProofInvalid
	}
	r.chosenSenderNulls[key] = struct{}{}
	r.receiverDisclosed[caller] = struct{}{}
	r.payloadByNulls[key] = bytes.Clone(encryptedPayload)
	r.disclosureOrder = append(r.disclosureOrder, types.RoundDisclosure{
		Identity:  caller,
		Nullifier: new(types.BigInt).SetBigInt(nullifier),
		Payload:   bytes.Clone(encryptedPayload),
	})
	// the event carries only the payload hash, never the payload
	r.sink.Emit(events.New(events.KindReceiverDisclosed, map[string]string{
		"eventId":     r.eventID.String(),
		"payloadHash": hex.EncodeToString(gethcrypto.Keccak256(encryptedPayload)),
	}))
	return nil
}

// Disclosed reports whether identity has already disclosed a receiver slot.
func (r *Round) Disclosed(identity common.Address) bool {
	_, ok := r.receiverDisclosed[identity]
	return ok
}

// Payload returns the encrypted payload stored under nullifier, or nil when
// absent. It is a pure read: the payload is encrypted off-band to its
// original sender, so serving it leaks nothing.
func (r *Round) Payload(nullifier *big.Int) []byte {
	if nullifier == nil {
		return nil
	}
	p, ok := r.payloadByNulls[nullKey(nullifier)]
	if !ok {
		return nil
	}
	return bytes.Clone(p)
}

// State captures the round as a snapshot. The ordered slices carry the full
// bookkeeping, so Restore can rebuild the round, commitments tree included.
// The RegistryID field is left for the caller, which knows the registry
// binding.
func (r *Round) State() *types.RoundState {
	st := &types.RoundState{
		EventID:          r.eventID,
		Admin:            r.admin,
		Phase:            r.phase,
		Depth:            r.commitments.Levels(),
		HashType:         r.commitments.Hasher().Type(),
		ParticipantsRoot: new(types.BigInt).SetBigInt(r.participantsRoot),
		CommitmentsRoot:  new(types.BigInt).SetBigInt(r.commitments.Root()),
		CreatedAt:        r.createdAt,
	}
	for _, c := range r.commitmentOrder {
		st.Commitments = append(st.Commitments, types.RoundCommitment{
			Identity: c.Identity,
			Hash:     new(types.BigInt).SetBigInt(c.Hash.MathBigInt()),
		})
	}
	st.Senders = r.Senders()
	for _, d := range r.disclosureOrder {
		st.Disclosures = append(st.Disclosures, types.RoundDisclosure{
			Identity:  d.Identity,
			Nullifier: new(types.BigInt).SetBigInt(d.Nullifier.MathBigInt()),
			Payload:   bytes.Clone(d.Payload),
		})
	}
	return st
}
