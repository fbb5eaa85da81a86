package round

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/giftring/giftring-core/crypto/hash"
	"github.com/giftring/giftring-core/events"
	"github.com/giftring/giftring-core/registry"
	"github.com/giftring/giftring-core/smt"
	"github.com/giftring/giftring-core/types"
	"github.com/giftring/giftring-core/verifier"
)

var (
	ErrRegistryNotFrozen = fmt.Errorf("registry is not frozen")
	ErrNilVerifier       = fmt.Errorf("nil proof verifier")
	ErrSnapshotCorrupted = fmt.Errorf("round snapshot does not replay to its own root")
)

// Factory creates rounds bound to frozen registry snapshots. Each round
// gets a globally unique event id derived from the factory address and a
// strictly increasing nonce, so two factories never collide and one factory
// never repeats itself.
type Factory struct {
	addr  common.Address
	nonce uint64
	sink  events.Sink
}

// NewFactory returns a factory identified by addr. A nil sink discards
// events.
func NewFactory(addr common.Address, sink events.Sink) *Factory {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Factory{addr: addr, sink: sink}
}

// Address returns the factory identity the event ids are derived from.
func (f *Factory) Address() common.Address { return f.addr }

// Nonce returns the next nonce the factory will consume.
func (f *Factory) Nonce() uint64 { return f.nonce }

// SetNonce restores the counter, typically after a restart. Rewinding it
// would reissue event ids, so it only moves forward.
func (f *Factory) SetNonce(n uint64) {
	if n > f.nonce {
		f.nonce = n
	}
}

// CreateRound binds a new round to the registry's current root. The
// registry must be frozen so the snapshot cannot drift from the root the
// participants will prove against. The round administrator is inherited
// from the registry.
func (f *Factory) CreateRound(reg *registry.Registry, verifierSender, verifierReceiver verifier.Verifier,
	hasher hash.Hasher, commitmentsDepth int,
) (*Round, types.EventID, error) {
	if verifierSender == nil || verifierReceiver == nil {
		return nil, types.EventID{}, ErrNilVerifier
	}
	if !reg.Frozen() {
		return nil, types.EventID{}, ErrRegistryNotFrozen
	}
	commitments, err := smt.New(hasher, commitmentsDepth)
	if err != nil {
		return nil, types.EventID{}, fmt.Errorf("commitments tree: %w", err)
	}
	eventID := types.NewEventID(f.addr, f.nonce)
	f.nonce++
	r := newRound(eventID, reg, commitments, verifierSender, verifierReceiver, f.sink)
	f.sink.Emit(events.New(events.KindRoundCreated, map[string]string{
		"eventId":          eventID.String(),
		"participantsRoot": r.participantsRoot.String(),
		"nonce":            strconv.FormatUint(f.nonce-1, 10),
	}))
	return r, eventID, nil
}

// Restore rebuilds a round from a snapshot, replaying the commitments tree
// and the nullifier bookkeeping from the ordered slices. The registry must
// be the one the snapshot was taken against; the replayed commitments root
// is checked against the stored one to catch corrupted or mismatched
// snapshots.
func Restore(st *types.RoundState, reg *registry.Registry,
	verifierSender, verifierReceiver verifier.Verifier, hasher hash.Hasher, sink events.Sink,
) (*Round, error) {
	if verifierSender == nil || verifierReceiver == nil {
		return nil, ErrNilVerifier
	}
	commitments, err := smt.New(hasher, st.Depth)
	if err != nil {
		return nil, fmt.Errorf("commitments tree: %w", err)
	}
	r := newRound(st.EventID, reg, commitments, verifierSender, verifierReceiver, sink)
	r.admin = st.Admin
	r.phase = st.Phase
	r.participantsRoot = bigOrZero(st.ParticipantsRoot)
	r.createdAt = st.CreatedAt
	for _, c := range st.Commitments {
		h := c.Hash.MathBigInt()
		if err := r.commitments.Insert(h, h); err != nil {
			return nil, fmt.Errorf("replay commitment: %w", err)
		}
		r.commitmentOf[c.Identity] = h
		r.commitmentOrder = append(r.commitmentOrder, types.RoundCommitment{
			Identity: c.Identity,
			Hash:     new(types.BigInt).SetBigInt(h),
		})
	}
	if st.CommitmentsRoot != nil && r.commitments.Root().Cmp(st.CommitmentsRoot.MathBigInt()) != 0 {
		return nil, ErrSnapshotCorrupted
	}
	for i, s := range st.Senders {
		n := bigOrZero(s.Nullifier)
		key := nullKey(n)
		r.spentSenderNulls[key] = struct{}{}
		r.senderIndexPlus1[key] = i + 1
		r.giftSenders = append(r.giftSenders, types.SenderSlot{
			R:         new(types.BigInt).SetBigInt(bigOrZero(s.R)),
			Nullifier: new(types.BigInt).SetBigInt(n),
		})
	}
	for _, d := range st.Disclosures {
		n := bigOrZero(d.Nullifier)
		key := nullKey(n)
		r.chosenSenderNulls[key] = struct{}{}
		r.receiverDisclosed[d.Identity] = struct{}{}
		r.payloadByNulls[key] = bytes.Clone(d.Payload)
		r.disclosureOrder = append(r.disclosureOrder, types.RoundDisclosure{
			Identity:  d.Identity,
			Nullifier: new(types.BigInt).SetBigInt(n),
			Payload:   bytes.Clone(d.Payload),
		})
	}
	return r, nil
}

func bigOrZero(b *types.BigInt) *big.Int {
	if b == nil {
		return new(big.Int)
	}
	return b.MathBigInt()
}
