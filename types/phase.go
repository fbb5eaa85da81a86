package types

import "fmt"

// Phase is the lifecycle stage of a gift exchange round. Rounds move
// strictly forward through the phases; there is no way back.
type Phase uint8

const (
	// PhaseCommit accepts participant commitments.
	PhaseCommit Phase = iota
	// PhaseSendersDetermined accepts sender proofs.
	PhaseSendersDetermined
	// PhaseReceiversDisclosed accepts receiver disclosures.
	PhaseReceiversDisclosed
	// PhaseCompleted is terminal, the round only serves reads.
	PhaseCompleted
)

var phaseNames = map[Phase]string{
	PhaseCommit:             "COMMIT",
	PhaseSendersDetermined:  "SENDERS_DETERMINED",
	PhaseReceiversDisclosed: "RECEIVERS_DISCLOSED",
	PhaseCompleted:          "COMPLETED",
}

// PhaseFromString parses the string form produced by String.
func PhaseFromString(str string) (Phase, error) {
	for p, name := range phaseNames {
		if name == str {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", str)
}

// Next returns the phase that follows p. Calling Next on the terminal
// phase returns the terminal phase again.
func (p Phase) Next() Phase {
	if p >= PhaseCompleted {
		return PhaseCompleted
	}
	return p + 1
}

// Terminal reports whether the round has finished its lifecycle.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}

// Valid reports whether p is one of the defined phases.
func (p Phase) Valid() bool {
	_, ok := phaseNames[p]
	return ok
}

// String returns the canonical name of the phase.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(p))
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(data []byte) error {
	parsed, err := PhaseFromString(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
