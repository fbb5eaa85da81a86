package round

import (
	"fmt"
	"math/big"

	"github.com/giftring/giftring-core/types"
)

// senderInputs is the decoded public input vector of a sender determination
// proof: [R, eventIdHi, eventIdLo, participantsRoot, commitmentsRoot,
// nullifier].
type senderInputs struct {
	r                *big.Int
	eventID          types.EventID
	participantsRoot *big.Int
	commitmentsRoot  *big.Int
	nullifier        *big.Int
}

// parseSenderInputs checks the wire shape of the vector and reassembles the
// event id from its two 128-bit limbs. Limb overflow is a malformed input,
// not a mismatch.
func parseSenderInputs(inputs []*big.Int) (*senderInputs, error) {
	if len(inputs) != types.SenderPublicInputs {
		return nil, fmt.Errorf("%w: expected %d inputs, got %d",
			ErrInvalidPublicInputs, types.SenderPublicInputs, len(inputs))
	}
	for i, in := range inputs {
		if in == nil || in.Sign() < 0 {
			return nil, fmt.Errorf("%w: input %d", ErrInvalidPublicInputs, i)
		}
	}
	eventID, err := types.EventIDFromLimbs(inputs[1], inputs[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicInputs, err)
	}
	return &senderInputs{
		r:                inputs[0],
		eventID:          eventID,
		participantsRoot: inputs[3],
		commitmentsRoot:  inputs[4],
		nullifier:        inputs[5],
	}, nil
}

// SenderInputVector assembles the canonical public input vector a sender
// determination proof must carry for the given round state. Provers use it
// to order their public signals.
func SenderInputVector(r *big.Int, eventID types.EventID, participantsRoot, commitmentsRoot, nullifier *big.Int) []*big.Int {
	return []*big.Int{
		r,
		eventID.Hi(),
		eventID.Lo(),
		participantsRoot,
		commitmentsRoot,
		nullifier,
	}
}

// ReceiverInputVector assembles the canonical public input vector of a
// receiver disclosure proof: [receiverAddress, eventIdHi, eventIdLo,
// nullifier].
func ReceiverInputVector(receiver *big.Int, eventID types.EventID, nullifier *big.Int) []*big.Int {
	return []*big.Int{
		receiver,
		eventID.Hi(),
		eventID.Lo(),
		nullifier,
	}
}
