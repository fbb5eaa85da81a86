package types

const (
	// RegistryTreeMaxLevels is the number of levels of the participant
	// registry merkle tree. Keys are derived from 160 bit addresses.
	RegistryTreeMaxLevels = 160
	// CommitmentsTreeDefaultLevels is the default number of levels of a
	// round's commitments merkle tree.
	CommitmentsTreeDefaultLevels = 20
	// EventIDLimbBits is the bit width of each half of an EventID when it
	// travels as two proof public inputs.
	EventIDLimbBits = 128
	// SenderPublicInputs is the number of public inputs of a sender
	// determination proof.
	SenderPublicInputs = 6
	// ReceiverPublicInputs is the number of public inputs of a receiver
	// disclosure proof.
	ReceiverPublicInputs = 4
)
